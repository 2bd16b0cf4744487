package interp

import (
	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// NaturalSpline1D is a natural cubic spline basis over fixed knots. The
// spline is linear in the knot values, so it is stored as a weight generator:
// s(x) = Σ_k w_k(x)·y_k. The knot values can then change on every evaluation
// without refitting.
type NaturalSpline1D struct {
	knots []float64

	// k maps knot values to second derivatives, M = K·y (n×n, row-major)
	k []float64
}

func NewNaturalSpline1D(knots []float64) (*NaturalSpline1D, error) {
	if err := CheckAxis("spline knots", knots); err != nil {
		return nil, err
	}

	n := len(knots)
	s := &NaturalSpline1D{
		knots: append([]float64(nil), knots...),
		k:     make([]float64, n*n),
	}
	if n < 3 {
		return s, nil // linear, all second derivatives vanish
	}

	h := make([]float64, n-1)
	for i := range h {
		h[i] = knots[i+1] - knots[i]
	}

	// Interior system, rows i = 1..n-2:
	// h[i-1]·M[i-1] + 2(h[i-1]+h[i])·M[i] + h[i]·M[i+1] = 6((y[i+1]-y[i])/h[i] - (y[i]-y[i-1])/h[i-1])
	m := n - 2
	sub := make([]float64, m)
	diag := make([]float64, m)
	sup := make([]float64, m)
	for r := 0; r < m; r++ {
		i := r + 1
		sub[r] = h[i-1]
		diag[r] = 2 * (h[i-1] + h[i])
		sup[r] = h[i]
	}

	rhs := make([]float64, m)
	sol := make([]float64, m)
	for col := 0; col < n; col++ {
		for r := 0; r < m; r++ {
			i := r + 1
			rhs[r] = 6 * (unit(i+1, col)-unit(i, col))/h[i] - 6*(unit(i, col)-unit(i-1, col))/h[i-1]
		}
		solveTridiagonal(sub, diag, sup, rhs, sol)
		for r := 0; r < m; r++ {
			s.k[(r+1)*n+col] = sol[r]
		}
	}

	return s, nil
}

func unit(i, j int) float64 {
	if i == j {
		return 1
	}
	return 0
}

// solveTridiagonal solves the system with the Thomas algorithm. sub[0] and
// sup[len-1] are ignored.
func solveTridiagonal(sub, diag, sup, rhs, x []float64) {
	n := len(diag)
	c := make([]float64, n)
	d := make([]float64, n)

	c[0] = sup[0] / diag[0]
	d[0] = rhs[0] / diag[0]
	for i := 1; i < n; i++ {
		den := diag[i] - sub[i]*c[i-1]
		c[i] = sup[i] / den
		d[i] = (rhs[i] - sub[i]*d[i-1]) / den
	}

	x[n-1] = d[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = d[i] - c[i]*x[i+1]
	}
}

func (s *NaturalSpline1D) Len() int {
	return len(s.knots)
}

func (s *NaturalSpline1D) Knots() []float64 {
	return s.knots
}

// Weights writes the basis weights at x (clamped to the knot domain) into dst,
// which must have length Len().
func (s *NaturalSpline1D) Weights(x float64, dst []float64) {
	clear(dst)

	n := len(s.knots)
	if n == 1 {
		dst[0] = 1
		return
	}

	j, t := Locate(s.knots, x)
	h := s.knots[j+1] - s.knots[j]

	a := 1 - t
	b := t
	c := (a*a*a - a) * h * h / 6
	d := (b*b*b - b) * h * h / 6

	dst[j] += a
	dst[j+1] += b
	if c == 0 && d == 0 {
		return
	}
	for k := 0; k < n; k++ {
		dst[k] += c*s.k[j*n+k] + d*s.k[(j+1)*n+k]
	}
}

// Spline2D is the tensor product of two natural spline bases. Surface values
// are supplied per evaluation, row-major over the x knots.
type Spline2D struct {
	x, y *NaturalSpline1D
}

func NewSpline2D(xKnots, yKnots []float64) (*Spline2D, error) {
	sx, err := NewNaturalSpline1D(xKnots)
	if err != nil {
		return nil, err
	}
	sy, err := NewNaturalSpline1D(yKnots)
	if err != nil {
		return nil, err
	}
	return &Spline2D{x: sx, y: sy}, nil
}

// Shape returns the number of x and y knots
func (s *Spline2D) Shape() (int, int) {
	return s.x.Len(), s.y.Len()
}

// Evaluator returns a function evaluating the surface z at arbitrary points.
// The function reuses internal buffers and must not be shared between
// goroutines.
func (s *Spline2D) Evaluator(z []float64) (func(x, y float64) float64, error) {
	nx, ny := s.Shape()
	if len(z) != nx*ny {
		return nil, errdefs.ConfigErrorf("spline surface: %d values for a %dx%d knot grid", len(z), nx, ny)
	}

	wx := make([]float64, nx)
	wy := make([]float64, ny)
	return func(x, y float64) float64 {
		s.x.Weights(x, wx)
		s.y.Weights(y, wy)

		var v float64
		for i, a := range wx {
			if a == 0 {
				continue
			}
			row := z[i*ny : (i+1)*ny]
			var r float64
			for j, b := range wy {
				r += b * row[j]
			}
			v += a * r
		}
		return v
	}, nil
}
