// Package cosmology provides distances for cosmological dimming
package cosmology

import (
	"fmt"
	"math"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/units"
)

// Distancer returns the comoving transverse distance to redshift z
type Distancer interface {
	ComovingTransverseDistance(z float64) units.Quantity
}

// speed of light in km/s
const cKmPerS = 299792.458

// integration intervals per unit redshift, always even
const simpsonDensity = 512

// FlatLambdaCDM is a spatially flat universe with matter density Om0 and a
// cosmological constant. Radiation is neglected.
type FlatLambdaCDM struct {
	H0  float64 // Hubble constant, km/s/Mpc
	Om0 float64
}

// Planck18 uses the Planck 2018 TT,TE,EE+lowE+lensing+BAO parameters
var Planck18 = FlatLambdaCDM{H0: 67.66, Om0: 0.30966}

func NewFlatLambdaCDM(h0, om0 float64) (FlatLambdaCDM, error) {
	if h0 <= 0 {
		return FlatLambdaCDM{}, errdefs.ConfigErrorf("cosmology: H0 must be positive, got %g", h0)
	}
	if om0 < 0 || om0 > 1 {
		return FlatLambdaCDM{}, errdefs.ConfigErrorf("cosmology: Om0 must be within [0, 1], got %g", om0)
	}
	return FlatLambdaCDM{H0: h0, Om0: om0}, nil
}

// HubbleDistance returns c/H0 in Mpc
func (c FlatLambdaCDM) HubbleDistance() float64 {
	return cKmPerS / c.H0
}

func (c FlatLambdaCDM) invE(z float64) float64 {
	zp1 := 1 + z
	return 1 / math.Sqrt(c.Om0*zp1*zp1*zp1+(1-c.Om0))
}

// comovingDistance integrates c/H0 · ∫ dz/E(z) with Simpson's rule
func (c FlatLambdaCDM) comovingDistance(z float64) float64 {
	if z <= 0 {
		return 0
	}

	n := int(math.Ceil(z*simpsonDensity/2)) * 2
	n = max(n, 2)
	h := z / float64(n)

	sum := c.invE(0) + c.invE(z)
	for i := 1; i < n; i++ {
		w := 2.0
		if i%2 == 1 {
			w = 4
		}
		sum += w * c.invE(float64(i)*h)
	}
	return c.HubbleDistance() * sum * h / 3
}

// ComovingTransverseDistance equals the line-of-sight comoving distance in a
// flat universe
func (c FlatLambdaCDM) ComovingTransverseDistance(z float64) units.Quantity {
	return units.Scalar(c.comovingDistance(z), units.Megaparsec)
}

// LuminosityDistance returns (1+z) times the comoving transverse distance
func (c FlatLambdaCDM) LuminosityDistance(z float64) units.Quantity {
	return c.ComovingTransverseDistance(z).Scale(1 + z)
}

// DistanceModulus returns 5·log10(D_L / 10 pc)
func (c FlatLambdaCDM) DistanceModulus(z float64) float64 {
	dl, err := c.LuminosityDistance(z).In(units.Parsec)
	if err != nil {
		panic(err)
	}
	return 5 * math.Log10(dl[0]/10)
}

func (c FlatLambdaCDM) String() string {
	return fmt.Sprintf("FlatLambdaCDM(H0=%g, Om0=%g)", c.H0, c.Om0)
}
