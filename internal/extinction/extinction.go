// Package extinction implements wavelength-dependent reddening laws and the
// colour laws of trained SED models. Every law reports extinction in
// magnitudes per unit scale (Av, or the colour coefficient of a model).
package extinction

import (
	"math"

	"github.com/roman-kulish/lcsim/internal/interp"
)

// Curve is a reddening law evaluated at fixed shape parameters
type Curve interface {
	// Mag writes the extinction in magnitudes at each wavelength (Å) into dst,
	// allocating it when nil.
	Mag(wave, dst []float64) []float64
}

// RvCurve is a family of curves parametrized by the total-to-selective
// extinction ratio Rv
type RvCurve interface {
	Curve

	// WithRv returns the curve at the given Rv
	WithRv(rv float64) Curve

	// DefaultRv is the ratio used by Mag
	DefaultRv() float64
}

// Linear returns the flux transmission 10^(-0.4·mag) of c at each wavelength
func Linear(c Curve, wave, dst []float64) []float64 {
	dst = c.Mag(wave, dst)
	for i, m := range dst {
		dst[i] = math.Pow(10, -0.4*m)
	}
	return dst
}

// Kind tells whether a tabulated curve stores magnitudes or transmissions
type Kind int

const (
	Magnitude Kind = iota
	Transmission
)

// Table is a tabulated curve interpolated linearly in wavelength and clamped
// outside the table.
type Table struct {
	table *interp.Linear1D
	kind  Kind
}

// NewTable creates a tabulated curve. Transmission tables must be strictly
// positive where they are sampled, or Mag returns +Inf.
func NewTable(wave, values []float64, kind Kind) (*Table, error) {
	t, err := interp.NewLinear1D(wave, values)
	if err != nil {
		return nil, err
	}
	return &Table{table: t, kind: kind}, nil
}

func (t *Table) Mag(wave, dst []float64) []float64 {
	dst = t.table.Map(wave, dst)
	if t.kind == Transmission {
		for i, v := range dst {
			dst[i] = -2.5 * math.Log10(v)
		}
	}
	return dst
}

// F99 is the Fitzpatrick (1999) law tabulated over wavelength and Rv and
// interpolated bilinearly.
type F99 struct {
	grid *interp.Grid2D
	rv   float64
}

// DefaultRv is the Milky Way average total-to-selective extinction ratio
const DefaultRv = 3.1

// NewF99 creates the law from a magnitude table of shape [len(wave), len(rv)]
func NewF99(wave, rv, mag []float64) (*F99, error) {
	g, err := interp.NewGrid2D(wave, rv, mag, interp.Bilinear)
	if err != nil {
		return nil, err
	}
	return &F99{grid: g, rv: DefaultRv}, nil
}

func (f *F99) Mag(wave, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(wave))
	}
	for i, w := range wave {
		dst[i] = f.grid.At(w, f.rv)
	}
	return dst
}

func (f *F99) WithRv(rv float64) Curve {
	return &F99{grid: f.grid, rv: rv}
}

func (f *F99) DefaultRv() float64 {
	return f.rv
}
