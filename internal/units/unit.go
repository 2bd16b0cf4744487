package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// Dimension indexes one base dimension of a Unit
type Dimension int

const (
	Length Dimension = iota
	Mass
	Time
	ADUCount
	ElectronCount
	PixelCount

	numDimensions
)

var dimensionNames = [numDimensions]string{"L", "M", "T", "ADU", "e", "px"}

// exponents closer than this are considered equal (fractional powers such as px^(1/2))
const exponentTolerance = 1e-9

// Unit is a physical unit: a dimension exponent vector and a scale factor
// relative to the base units (m, kg, s, ADU, e-, px). The zero Unit is
// dimensionless with scale 1.
type Unit struct {
	dims  [numDimensions]float64
	scale float64
	name  string
}

func newBase(d Dimension, scale float64, name string) Unit {
	var u Unit
	u.dims[d] = 1
	u.scale = scale
	u.name = name
	return u
}

// Scaled returns a unit with the same dimension and the scale multiplied by f
func Scaled(u Unit, f float64, name string) Unit {
	u.scale = u.Scale() * f
	u.name = name
	return u
}

// Scale returns the factor converting one of this unit into base units
func (u Unit) Scale() float64 {
	if u.scale == 0 {
		return 1
	}
	return u.scale
}

// Exponent returns the exponent of the given base dimension
func (u Unit) Exponent(d Dimension) float64 {
	return u.dims[d]
}

func (u Unit) Mul(o Unit) Unit {
	var r Unit
	for i := range r.dims {
		r.dims[i] = u.dims[i] + o.dims[i]
	}
	r.scale = u.Scale() * o.Scale()
	r.name = joinNames(u.String(), "·", o.String())
	return r
}

func (u Unit) Div(o Unit) Unit {
	var r Unit
	for i := range r.dims {
		r.dims[i] = u.dims[i] - o.dims[i]
	}
	r.scale = u.Scale() / o.Scale()
	r.name = joinNames(u.String(), "/", o.String())
	return r
}

func (u Unit) Pow(p float64) Unit {
	var r Unit
	for i := range r.dims {
		r.dims[i] = u.dims[i] * p
	}
	r.scale = math.Pow(u.Scale(), p)
	r.name = fmt.Sprintf("(%s)^%s", u.String(), strconv.FormatFloat(p, 'g', -1, 64))
	return r
}

// SameDimension reports whether both units measure the same physical dimension
func (u Unit) SameDimension(o Unit) bool {
	for i := range u.dims {
		if math.Abs(u.dims[i]-o.dims[i]) > exponentTolerance {
			return false
		}
	}
	return true
}

// IsDimensionless reports whether all dimension exponents are zero
func (u Unit) IsDimensionless() bool {
	return u.SameDimension(Dimensionless)
}

// ConversionFactor returns f such that x [u] == x*f [to]
func (u Unit) ConversionFactor(to Unit) (float64, error) {
	if !u.SameDimension(to) {
		return 0, errdefs.NewUnitMismatchError("conversion", u.String(), to.String())
	}
	return u.Scale() / to.Scale(), nil
}

func (u Unit) String() string {
	if u.name != "" {
		return u.name
	}

	var parts []string
	for i, e := range u.dims {
		switch {
		case math.Abs(e) <= exponentTolerance:
			continue
		case math.Abs(e-1) <= exponentTolerance:
			parts = append(parts, dimensionNames[i])
		default:
			parts = append(parts, fmt.Sprintf("%s^%s", dimensionNames[i], strconv.FormatFloat(e, 'g', 4, 64)))
		}
	}
	if len(parts) == 0 && u.Scale() == 1 {
		return "1"
	}
	return strings.TrimSpace(fmt.Sprintf("%g %s", u.Scale(), strings.Join(parts, " ")))
}

func joinNames(a, op, b string) string {
	if b == "1" {
		return a
	}
	if strings.ContainsAny(b, "·/^ ") {
		b = "(" + b + ")"
	}
	return a + op + b
}

var (
	Dimensionless = Unit{scale: 1, name: "1"}

	Meter      = newBase(Length, 1, "m")
	Centimeter = newBase(Length, 1e-2, "cm")
	Angstrom   = newBase(Length, 1e-10, "Å")
	Parsec     = newBase(Length, 3.0856775814913673e16, "pc")
	Megaparsec = newBase(Length, 3.0856775814913673e22, "Mpc")

	Kilogram = newBase(Mass, 1, "kg")
	Gram     = newBase(Mass, 1e-3, "g")

	Second = newBase(Time, 1, "s")
	Day    = newBase(Time, 86400, "d")

	ADU      = newBase(ADUCount, 1, "ADU")
	Electron = newBase(ElectronCount, 1, "e-")
	Pixel    = newBase(PixelCount, 1, "px")

	Hertz  = Scaled(Dimensionless.Div(Second), 1, "Hz")
	Joule  = Scaled(Kilogram.Mul(Meter.Pow(2)).Div(Second.Pow(2)), 1, "J")
	Erg    = Scaled(Joule, 1e-7, "erg")
	Jansky = Scaled(Joule.Div(Second).Div(Meter.Pow(2)).Div(Hertz), 1e-26, "Jy")

	// ErgPerSecondPerAngstrom is the luminosity density unit of rest-frame SED models
	ErgPerSecondPerAngstrom = Scaled(Erg.Div(Second).Div(Angstrom), 1, "erg/s/Å")

	// FLambda is the observed flux density unit erg/s/cm²/Å
	FLambda = Scaled(ErgPerSecondPerAngstrom.Div(Centimeter.Pow(2)), 1, "erg/s/cm²/Å")

	// FNu is the observed flux density unit erg/s/cm²/Hz
	FNu = Scaled(Erg.Div(Second).Div(Centimeter.Pow(2)).Div(Hertz), 1, "erg/s/cm²/Hz")
)
