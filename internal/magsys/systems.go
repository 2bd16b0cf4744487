package magsys

import (
	"context"
	"fmt"
	"math"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/interp"
	"github.com/roman-kulish/lcsim/internal/registry"
	"github.com/roman-kulish/lcsim/internal/units"
)

// ABZeroPointMag is the AB magnitude of a source of 1 erg/s/cm²/Hz
const ABZeroPointMag = -48.6

// AB is the system with a reference spectrum of constant flux density per
// unit frequency, f0 = 10^(-0.4·48.6) erg/s/cm²/Hz.
type AB struct {
	f0Freq float64 // erg/s/cm²/Hz
	c      float64 // Å/s
	memo   memo
}

func NewAB() *AB {
	c, err := units.C.In(units.Angstrom.Div(units.Second))
	if err != nil {
		panic(err)
	}
	return &AB{
		f0Freq: math.Pow(10, 0.4*ABZeroPointMag),
		c:      c[0],
		memo:   newMemo(),
	}
}

func (*AB) Name() string {
	return "ab"
}

// FLambda returns the reference spectrum per unit wavelength, f0·c/λ², in
// erg/s/cm²/Å
func (ab *AB) FLambda(wave []float64) []float64 {
	f := make([]float64, len(wave))
	for i, w := range wave {
		f[i] = ab.f0Freq * ab.c / (w * w)
	}
	return f
}

func (ab *AB) zeroPoints(b *bandpass.Bandpass) (zeroPoints, error) {
	return ab.memo.get(b, func() (zeroPoints, error) {
		flux, counts := integrate(b, ab.FLambda)
		return zeroPoints{units.Scalar(flux, FluxUnit), units.Scalar(counts, CountsUnit)}, nil
	})
}

func (ab *AB) ZPFlux(b *bandpass.Bandpass) (units.Quantity, error) {
	zp, err := ab.zeroPoints(b)
	return zp.flux, err
}

func (ab *AB) ZPCounts(b *bandpass.Bandpass) (units.Quantity, error) {
	zp, err := ab.zeroPoints(b)
	return zp.counts, err
}

// Spectral is a system defined by a tabulated reference spectrum in
// erg/s/cm²/Å, interpolated linearly and clamped outside the table.
type Spectral struct {
	name     string
	spectrum *interp.Linear1D
	memo     memo
}

func NewSpectral(name string, wave, flux []float64) (*Spectral, error) {
	t, err := interp.NewLinear1D(wave, flux)
	if err != nil {
		return nil, fmt.Errorf("magsys '%s': %w", name, err)
	}
	return &Spectral{name: name, spectrum: t, memo: newMemo()}, nil
}

// Dataset names of the bundled reference spectra
const (
	DatasetVega = "magsys/vega"
	DatasetBD17 = "magsys/bd17"
)

// LoadSpectral loads a reference spectrum stored as arrays "wave" and "flux"
// under "magsys/<name>"
func LoadSpectral(ctx context.Context, loader registry.Loader, name string) (*Spectral, error) {
	d, err := loader.Load(ctx, "magsys/"+name)
	if err != nil {
		return nil, fmt.Errorf("loading magsys '%s': %w", name, err)
	}

	wave, err := d.Vector("wave")
	if err != nil {
		return nil, err
	}
	flux, err := d.Vector("flux")
	if err != nil {
		return nil, err
	}

	s, err := NewSpectral(name, wave, flux)
	if err != nil {
		return nil, errdefs.NewDataLoadError(d.Name, err)
	}
	return s, nil
}

func (s *Spectral) Name() string {
	return s.name
}

func (s *Spectral) zeroPoints(b *bandpass.Bandpass) (zeroPoints, error) {
	return s.memo.get(b, func() (zeroPoints, error) {
		flux, counts := integrate(b, func(wave []float64) []float64 {
			return s.spectrum.Map(wave, nil)
		})
		return zeroPoints{units.Scalar(flux, FluxUnit), units.Scalar(counts, CountsUnit)}, nil
	})
}

func (s *Spectral) ZPFlux(b *bandpass.Bandpass) (units.Quantity, error) {
	zp, err := s.zeroPoints(b)
	return zp.flux, err
}

func (s *Spectral) ZPCounts(b *bandpass.Bandpass) (units.Quantity, error) {
	zp, err := s.zeroPoints(b)
	return zp.counts, err
}

// BandZP assigns an inner system and a magnitude offset to one band
type BandZP struct {
	MagSys MagSys
	Offset float64
}

// Composite delegates each band to its own system:
// zp = 10^(0.4·offset) · inner.zp(band).
type Composite struct {
	name  string
	bands map[string]BandZP
	memo  memo
}

func NewComposite(name string, bands map[string]BandZP) (*Composite, error) {
	for band, zp := range bands {
		if zp.MagSys == nil {
			return nil, errdefs.ConfigErrorf("magsys '%s': band '%s' has no inner system", name, band)
		}
	}

	c := &Composite{
		name:  name,
		bands: make(map[string]BandZP, len(bands)),
		memo:  newMemo(),
	}
	for band, zp := range bands {
		c.bands[band] = zp
	}
	return c, nil
}

func (c *Composite) Name() string {
	return c.name
}

func (c *Composite) zeroPoints(b *bandpass.Bandpass) (zeroPoints, error) {
	return c.memo.get(b, func() (zeroPoints, error) {
		bzp, ok := c.bands[b.Name()]
		if !ok {
			return zeroPoints{}, errdefs.ConfigErrorf("magsys '%s': no zero point for band '%s'", c.name, b.Name())
		}

		flux, err := bzp.MagSys.ZPFlux(b)
		if err != nil {
			return zeroPoints{}, err
		}
		counts, err := bzp.MagSys.ZPCounts(b)
		if err != nil {
			return zeroPoints{}, err
		}

		scale := math.Pow(10, 0.4*bzp.Offset)
		return zeroPoints{flux.Scale(scale), counts.Scale(scale)}, nil
	})
}

func (c *Composite) ZPFlux(b *bandpass.Bandpass) (units.Quantity, error) {
	zp, err := c.zeroPoints(b)
	return zp.flux, err
}

func (c *Composite) ZPCounts(b *bandpass.Bandpass) (units.Quantity, error) {
	zp, err := c.zeroPoints(b)
	return zp.counts, err
}

// Load resolves a system by name: "ab", or a tabulated reference spectrum
// such as "vega" or "bd17".
func Load(ctx context.Context, loader registry.Loader, name string) (MagSys, error) {
	if name == "ab" {
		return NewAB(), nil
	}
	return LoadSpectral(ctx, loader, name)
}
