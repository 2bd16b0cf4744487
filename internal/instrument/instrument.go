// Package instrument converts calibrated model counts to detector signal and
// PSF widths to effective aperture areas.
package instrument

import (
	"fmt"
	"math"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/units"
)

var (
	// LinearPixel measures PSF widths, px^(1/2)
	LinearPixel = units.Scaled(units.Pixel.Pow(0.5), 1, "px^(1/2)")

	// Gain is the unit of detector gains, ADU per photo-electron
	Gain = units.Scaled(units.ADU.Div(units.Electron), 1, "ADU/e-")
)

// Signal returns the detector signal in photo-electrons:
//
//	signal = (countscal·10^(0.4·zp_mag) ADU + background) / gain
//
// countscal and zpMag are per observation; zpMag, background and gain may
// also hold a single value shared by all observations. background must be in
// ADU and gain in ADU per electron.
func Signal(countscal, zpMag []float64, background, gain units.Quantity) ([]float64, error) {
	n := len(countscal)
	for name, l := range map[string]int{"zero points": len(zpMag), "background": background.Len(), "gain": gain.Len()} {
		if l != n && l != 1 {
			return nil, errdefs.ConfigErrorf("instrument: %d %s for %d observations", l, name, n)
		}
	}

	adu := make([]float64, n)
	for i, c := range countscal {
		zp := zpMag[0]
		if len(zpMag) > 1 {
			zp = zpMag[i]
		}
		adu[i] = c * math.Pow(10, 0.4*zp)
	}

	total, err := units.Wrap(adu, units.ADU).Add(background)
	if err != nil {
		return nil, fmt.Errorf("adding background: %w", err)
	}
	signal, err := total.Div(gain).In(units.Electron)
	if err != nil {
		return nil, fmt.Errorf("applying gain: %w", err)
	}
	return signal, nil
}

// PSFToArea combines a double-Gaussian PSF into the area of the equivalent
// single aperture. With a = psf1, b = psf2 and r the flux ratio of the two
// components:
//
//	area = 4π·(a²+b²)·(a²+r·b²)² / ((r²·b²+a²)·(a²+b²) + 4·r·a²·b²)
//
// An empty psf2 is treated as zero, giving 4π·a². An empty ratio is zero.
// The result is in the square of psf1's unit.
func PSFToArea(psf1, psf2 units.Quantity, ratio []float64) (units.Quantity, error) {
	n := psf1.Len()

	b := make([]float64, n)
	if psf2.Len() > 0 {
		if psf2.Len() != n && psf2.Len() != 1 {
			return units.Quantity{}, errdefs.ConfigErrorf("instrument: %d secondary PSF widths for %d primary", psf2.Len(), n)
		}
		v, err := psf2.To(psf1.Unit())
		if err != nil {
			return units.Quantity{}, fmt.Errorf("secondary PSF width: %w", err)
		}
		for i := range b {
			b[i] = v.At(i)
		}
	}
	if len(ratio) > 1 && len(ratio) != n {
		return units.Quantity{}, errdefs.ConfigErrorf("instrument: %d PSF ratios for %d widths", len(ratio), n)
	}

	area := make([]float64, n)
	for i := range area {
		var r float64
		switch len(ratio) {
		case 0:
		case 1:
			r = ratio[0]
		default:
			r = ratio[i]
		}

		a2, b2 := psf1.At(i)*psf1.At(i), b[i]*b[i]
		sum := a2 + b2
		num := 4 * math.Pi * sum * (a2 + r*b2) * (a2 + r*b2)
		den := (r*r*b2+a2)*sum + 4*r*a2*b2
		area[i] = num / den
	}

	return units.Wrap(area, psf1.Unit().Pow(2)), nil
}

// FWHMToArea returns the noise-equivalent area of a Gaussian PSF with the
// given full width at half maximum, π·(fwhm/2)²/ln 2, in the square of
// fwhm's unit
func FWHMToArea(fwhm units.Quantity) units.Quantity {
	area := make([]float64, fwhm.Len())
	for i := range area {
		half := fwhm.At(i) / 2
		area[i] = math.Pi * half * half / math.Ln2
	}
	return units.Wrap(area, fwhm.Unit().Pow(2))
}
