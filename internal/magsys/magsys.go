// Package magsys implements photometric zero-point systems. A system maps a
// bandpass to the band-integrated flux and photon count of its reference
// spectrum:
//
//	zp_flux   = Σ f0(λ_i) · T_i·Δλ_i
//	zp_counts = Σ f0(λ_i) / (h·c/λ_i) · T_i·Δλ_i
//
// summed over the bandpass integration samples.
package magsys

import (
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/units"
)

var (
	// FluxUnit is the unit of zero-point fluxes
	FluxUnit = units.Erg.Div(units.Second).Div(units.Centimeter.Pow(2))

	// CountsUnit is the unit of zero-point photon counts
	CountsUnit = units.Dimensionless.Div(units.Second).Div(units.Centimeter.Pow(2))
)

// MagSys is a zero-point system
type MagSys interface {
	Name() string

	// ZPFlux returns the band-integrated reference flux, in FluxUnit
	ZPFlux(b *bandpass.Bandpass) (units.Quantity, error)

	// ZPCounts returns the band-integrated reference photon count, in CountsUnit
	ZPCounts(b *bandpass.Bandpass) (units.Quantity, error)
}

// hcErgAngstrom is h·c expressed in erg·Å
var hcErgAngstrom = func() float64 {
	v, err := units.H.Mul(units.C).In(units.Erg.Mul(units.Angstrom))
	if err != nil {
		panic(err)
	}
	return v[0]
}()

// PhotonEnergy returns h·c/λ in erg for each wavelength in Å
func PhotonEnergy(wave []float64) []float64 {
	e := make([]float64, len(wave))
	for i, w := range wave {
		e[i] = hcErgAngstrom / w
	}
	return e
}

// integrate computes both zero points from a reference spectrum f0 in
// erg/s/cm²/Å sampled at the bandpass integration wavelengths
func integrate(b *bandpass.Bandpass, f0 func(wave []float64) []float64) (flux, counts float64) {
	wave := b.Wave()
	weights := b.TransDWave()
	ref := f0(wave)
	for i, w := range wave {
		f := ref[i] * weights[i]
		flux += f
		counts += f * w / hcErgAngstrom
	}
	return
}

// memo caches zero points per band name for the lifetime of a system
type memo struct {
	cache *cache.Cache
}

type zeroPoints struct {
	flux, counts units.Quantity
}

func newMemo() memo {
	return memo{cache: cache.New(cache.NoExpiration, 0)}
}

func (m memo) get(b *bandpass.Bandpass, compute func() (zeroPoints, error)) (zeroPoints, error) {
	if zp, found := m.cache.Get(b.Name()); found {
		return zp.(zeroPoints), nil
	}

	zp, err := compute()
	if err != nil {
		return zeroPoints{}, err
	}
	m.cache.Set(b.Name(), zp, cache.NoExpiration)
	return zp, nil
}

// Mag converts band counts to a calibrated magnitude, -2.5·log10(counts/zp)
func Mag(ms MagSys, b *bandpass.Bandpass, counts units.Quantity) (float64, error) {
	zp, err := ms.ZPCounts(b)
	if err != nil {
		return 0, err
	}
	ratio, err := counts.Div(zp).Dimensionless()
	if err != nil {
		return 0, fmt.Errorf("calibrating band '%s': %w", b.Name(), err)
	}
	return units.LinearToMag(ratio[0]), nil
}
