package magsys

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/registry"
	"github.com/roman-kulish/lcsim/internal/units"
)

func topHat(t *testing.T, name string, lo, hi, step float64) *bandpass.Bandpass {
	t.Helper()

	n := int(math.Round((hi-lo)/step)) + 1
	wave := make([]float64, n)
	trans := make([]float64, n)
	for i := range wave {
		wave[i] = lo + step*float64(i)
		trans[i] = 1
	}

	b, err := bandpass.New(name, wave, trans)
	require.NoError(t, err)
	return b
}

func TestAB_TopHatAnalytic(t *testing.T) {
	b := topHat(t, "tophat", 4000, 5000, 1)
	ab := NewAB()

	f0 := math.Pow(10, -0.4*48.6) // erg/s/cm²/Hz
	c := 2.99792458e18            // Å/s

	zp, err := ab.ZPFlux(b)
	require.NoError(t, err)
	flux, err := zp.In(FluxUnit)
	require.NoError(t, err)
	assert.InEpsilon(t, f0*c*(1.0/4000-1.0/5000), flux[0], 1e-6)

	// photon counts: ∫ f0·c/λ² · λ/(h·c) dλ = f0/h · ln(5000/4000)
	h := 6.62607015e-27 // erg·s
	zp, err = ab.ZPCounts(b)
	require.NoError(t, err)
	counts, err := zp.In(CountsUnit)
	require.NoError(t, err)
	assert.InEpsilon(t, f0/h*math.Log(5000.0/4000), counts[0], 1e-6)

	// zero points are in physical units
	si, err := zp.In(units.Dimensionless.Div(units.Second).Div(units.Meter.Pow(2)))
	require.NoError(t, err)
	assert.InEpsilon(t, counts[0]*1e4, si[0], 1e-12)
}

func TestSpectral_ConstantSpectrum(t *testing.T) {
	b := topHat(t, "tophat", 4000, 5000, 10)
	s, err := NewSpectral("flat", []float64{1000, 10000}, []float64{2e-9, 2e-9})
	require.NoError(t, err)

	zp, err := s.ZPFlux(b)
	require.NoError(t, err)
	assert.InEpsilon(t, 2e-6, zp.At(0), 1e-9)
	assert.True(t, zp.Unit().SameDimension(FluxUnit))
}

func TestComposite_Offset(t *testing.T) {
	g := topHat(t, "g", 4000, 5500, 5)
	r := topHat(t, "r", 5500, 7000, 5)
	ab := NewAB()

	comp, err := NewComposite("csp", map[string]BandZP{
		"g": {MagSys: ab, Offset: 0.5},
	})
	require.NoError(t, err)

	want, err := ab.ZPCounts(g)
	require.NoError(t, err)
	got, err := comp.ZPCounts(g)
	require.NoError(t, err)
	assert.InEpsilon(t, math.Pow(10, 0.2)*want.At(0), got.At(0), 1e-12)

	wantFlux, err := ab.ZPFlux(g)
	require.NoError(t, err)
	gotFlux, err := comp.ZPFlux(g)
	require.NoError(t, err)
	assert.InEpsilon(t, math.Pow(10, 0.2)*wantFlux.At(0), gotFlux.At(0), 1e-12)

	_, err = comp.ZPFlux(r)
	assert.ErrorIs(t, err, errdefs.ErrConfig)

	_, err = NewComposite("bad", map[string]BandZP{"g": {}})
	assert.ErrorIs(t, err, errdefs.ErrConfig)
}

func TestMag(t *testing.T) {
	b := topHat(t, "tophat", 4000, 5000, 10)
	ab := NewAB()

	zp, err := ab.ZPCounts(b)
	require.NoError(t, err)

	m, err := Mag(ab, b, zp.Scale(0.01))
	require.NoError(t, err)
	assert.InDelta(t, 5, m, 1e-12)

	_, err = Mag(ab, b, units.Scalar(1, units.Erg))
	assert.ErrorIs(t, err, errdefs.ErrUnitMismatch)
}

func TestLoad(t *testing.T) {
	mem, err := registry.NewMemory(&registry.Dataset{
		Name: DatasetVega,
		Arrays: map[string]registry.Array{
			"wave": registry.Vector([]float64{3000, 6000, 9000}),
			"flux": registry.Vector([]float64{4e-9, 3e-9, 1e-9}),
		},
	})
	require.NoError(t, err)

	ctx := context.Background()

	ms, err := Load(ctx, mem, "vega")
	require.NoError(t, err)
	assert.Equal(t, "vega", ms.Name())

	ms, err = Load(ctx, mem, "ab")
	require.NoError(t, err)
	assert.IsType(t, &AB{}, ms)

	_, err = Load(ctx, mem, "bd17")
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)
}
