package lightcurve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/effects"
	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/field"
	"github.com/roman-kulish/lcsim/internal/magsys"
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/units"
)

// spectrumSource returns amplitude·spectrum(wave) at every phase and counts
// its evaluations
type spectrumSource struct {
	*source.State
	spectrum func(wave []float64) []float64
	calls    int
	short    bool
}

func newSpectrumSource(t *testing.T, spectrum func(wave []float64) []float64) *spectrumSource {
	t.Helper()
	state, err := source.NewState(source.Scalar("amplitude", 1))
	require.NoError(t, err)
	return &spectrumSource{State: state, spectrum: spectrum}
}

func (s *spectrumSource) Flux(phase, wave []float64) []float64 {
	s.calls++
	flux := s.spectrum(wave)
	a := s.Scalar("amplitude")
	for i := range flux {
		flux[i] *= a
	}
	if s.short {
		return flux[1:]
	}
	return flux
}

func (s *spectrumSource) FluxUnit() units.Unit {
	return units.FLambda
}

func constant(v float64) func([]float64) []float64 {
	return func(wave []float64) []float64 {
		flux := make([]float64, len(wave))
		for i := range flux {
			flux[i] = v
		}
		return flux
	}
}

func topHat(t *testing.T, name string, lo, hi, step float64) *bandpass.Bandpass {
	t.Helper()
	var wave, trans []float64
	for w := lo; w <= hi; w += step {
		wave = append(wave, w)
		trans = append(trans, 1)
	}
	b, err := bandpass.New(name, wave, trans)
	require.NoError(t, err)
	return b
}

func TestBandFlux_TopHat(t *testing.T) {
	src := newSpectrumSource(t, constant(1))
	f, err := field.New([]float64{0}, []*bandpass.Bandpass{topHat(t, "hat", 4000, 5000, 10)})
	require.NoError(t, err)

	m := New(src, f)
	flux, err := m.BandFlux(nil)
	require.NoError(t, err)

	require.Equal(t, 1, flux.Len())
	assert.InDelta(t, 1000, flux.At(0), 1e-9)
	assert.Equal(t, 1, src.calls)

	v, err := flux.In(magsys.FluxUnit)
	require.NoError(t, err)
	assert.InDelta(t, 1000, v[0], 1e-9)
}

func TestBandFlux_SingleSourceCall(t *testing.T) {
	g := topHat(t, "g", 4000, 5500, 50)
	r := topHat(t, "r", 5500, 7000, 100)

	src := newSpectrumSource(t, constant(2))
	f, err := field.New([]float64{-5, 0, 5, 10}, []*bandpass.Bandpass{g, r, g, r})
	require.NoError(t, err)

	m := New(src, f)
	flux, err := m.BandFlux(source.Params{"amplitude": {0.5}})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	want := []float64{1500, 1500, 1500, 1500}
	for i, w := range want {
		assert.InDelta(t, w, flux.At(i), 1e-9)
	}
}

func TestCalibration_ABSpectrum(t *testing.T) {
	ab := magsys.NewAB()
	g := topHat(t, "g", 4000, 5500, 50)
	r := topHat(t, "r", 5500, 7000, 100)

	src := newSpectrumSource(t, ab.FLambda)
	f, err := field.New([]float64{0}, []*bandpass.Bandpass{g, r})
	require.NoError(t, err)
	m := New(src, f)

	t.Run("flux", func(t *testing.T) {
		cal, err := m.BandFluxCal(ab, source.Params{"amplitude": {1}})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 1}, cal, 1e-9)
	})

	t.Run("counts", func(t *testing.T) {
		cal, err := m.BandCountsCal(ab, source.Params{"amplitude": {1}})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 1}, cal, 1e-9)
	})

	t.Run("magnitude", func(t *testing.T) {
		mag, err := m.BandMag(ab, source.Params{"amplitude": {0.01}})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{5, 5}, mag, 1e-9)
	})
}

func TestBandCounts_Unit(t *testing.T) {
	src := newSpectrumSource(t, constant(1))
	f, err := field.New([]float64{0}, []*bandpass.Bandpass{topHat(t, "hat", 4000, 5000, 1000)})
	require.NoError(t, err)

	counts, err := New(src, f).BandCounts(nil)
	require.NoError(t, err)
	assert.True(t, counts.Unit().SameDimension(magsys.CountsUnit))

	// one sample at 4500 Å
	want := 1000 / magsys.PhotonEnergy([]float64{4500})[0]
	assert.InEpsilon(t, want, counts.At(0), 1e-12)
}

func TestBandFluxBatch(t *testing.T) {
	src := newSpectrumSource(t, constant(1))
	f, err := field.New([]float64{0}, []*bandpass.Bandpass{topHat(t, "hat", 4000, 5000, 100)})
	require.NoError(t, err)

	batch, err := New(src, f).BandFluxBatch([]source.Params{
		{"amplitude": {1}},
		{"amplitude": {3}},
		nil,
	})
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.InDelta(t, 1000, batch[0].At(0), 1e-9)
	assert.InDelta(t, 3000, batch[1].At(0), 1e-9)
	assert.InDelta(t, 3000, batch[2].At(0), 1e-9)
	assert.Equal(t, 3, src.calls)

	_, err = New(src, f).BandFluxBatch([]source.Params{{"x0": {1}}})
	assert.ErrorIs(t, err, errdefs.ErrConfig)
}

func TestModel_WithEffects(t *testing.T) {
	src := newSpectrumSource(t, constant(1))
	z, err := effects.NewRedshift(src)
	require.NoError(t, err)

	f, err := field.New([]float64{0}, []*bandpass.Bandpass{topHat(t, "hat", 4000, 5000, 10)})
	require.NoError(t, err)

	flux, err := New(z, f).BandFlux(source.Params{"z": {1}})
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/8, flux.At(0), 1e-9)
}

func TestModel_Errors(t *testing.T) {
	src := newSpectrumSource(t, constant(1))
	f, err := field.New([]float64{0}, []*bandpass.Bandpass{topHat(t, "hat", 4000, 5000, 100)})
	require.NoError(t, err)
	m := New(src, f)

	_, err = m.BandFlux(source.Params{"stretch": {1}})
	assert.ErrorIs(t, err, errdefs.ErrConfig)

	src.short = true
	_, err = m.BandCounts(nil)
	assert.ErrorIs(t, err, errdefs.ErrConfig)
	src.short = false

	// erg/s·Å/Å is not a flux and cannot be calibrated
	wrong := &wrongUnitSource{spectrumSource: src}
	_, err = New(wrong, f).BandFluxCal(magsys.NewAB(), nil)
	assert.ErrorIs(t, err, errdefs.ErrUnitMismatch)
}

type wrongUnitSource struct {
	*spectrumSource
}

func (s *wrongUnitSource) FluxUnit() units.Unit {
	return units.ErgPerSecondPerAngstrom
}
