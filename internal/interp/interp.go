// Package interp implements the interpolation routines shared by bandpasses,
// extinction laws, reference spectra and SED sources.
//
// Every routine clamps query coordinates to the table domain, so lookups
// outside the sampled range return the boundary value and never fail.
package interp

import (
	"fmt"
	"sort"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// CheckAxis validates a strictly increasing, non-empty interpolation axis
func CheckAxis(name string, xs []float64) error {
	if len(xs) == 0 {
		return errdefs.ConfigErrorf("%s: empty axis", name)
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return errdefs.ConfigErrorf("%s: axis not strictly increasing at index %d (%g after %g)", name, i, xs[i], xs[i-1])
		}
	}
	return nil
}

// Locate returns the interval index i and fractional position t of x within
// xs[i]..xs[i+1]. x is clamped to the axis domain. Axes of length one yield
// (0, 0).
func Locate(xs []float64, x float64) (int, float64) {
	n := len(xs)
	if n < 2 {
		return 0, 0
	}

	x = Clamp(x, xs[0], xs[n-1])

	// first index with xs[i] > x, minus one
	i := sort.SearchFloat64s(xs, x)
	if i < n && xs[i] == x {
		if i == n-1 {
			return n - 2, 1
		}
		return i, 0
	}
	i--
	i = max(0, min(i, n-2))

	return i, (x - xs[i]) / (xs[i+1] - xs[i])
}

// Linear1D is a clamped piecewise-linear table
type Linear1D struct {
	x, y []float64
}

// NewLinear1D creates a table from copies of x and y
func NewLinear1D(x, y []float64) (*Linear1D, error) {
	if err := CheckAxis("linear table", x); err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, errdefs.ConfigErrorf("linear table: %d nodes but %d values", len(x), len(y))
	}

	t := &Linear1D{
		x: make([]float64, len(x)),
		y: make([]float64, len(y)),
	}
	copy(t.x, x)
	copy(t.y, y)
	return t, nil
}

// At returns the interpolated value at x
func (t *Linear1D) At(x float64) float64 {
	if len(t.x) == 1 {
		return t.y[0]
	}
	i, f := Locate(t.x, x)
	return t.y[i] + f*(t.y[i+1]-t.y[i])
}

// Map evaluates the table at each element of xs into dst, allocating dst when
// it is nil.
func (t *Linear1D) Map(xs, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(xs))
	}
	for i, x := range xs {
		dst[i] = t.At(x)
	}
	return dst
}

// X returns the table nodes. The slice must not be modified.
func (t *Linear1D) X() []float64 {
	return t.x
}

// Y returns the table values. The slice must not be modified.
func (t *Linear1D) Y() []float64 {
	return t.y
}

func (t *Linear1D) String() string {
	return fmt.Sprintf("Linear1D[%d nodes, %g..%g]", len(t.x), t.x[0], t.x[len(t.x)-1])
}
