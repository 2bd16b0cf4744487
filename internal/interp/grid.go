package interp

import (
	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// Mode selects the 2-D interpolation kernel
type Mode int

const (
	Bilinear Mode = iota
	Bicubic
)

func (m Mode) String() string {
	switch m {
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	}
	return "unknown"
}

// cubic convolution coefficient, same as the common image-resampling kernel
const cubicA = -0.75

// Grid2D is a stack of surfaces sampled on a shared rectilinear (x, y) grid.
// Values are stored layer-major, then row-major over x: z[l*nx*ny + i*ny + j].
type Grid2D struct {
	x, y   []float64
	z      []float64
	layers int
	mode   Mode
}

// NewGrid2D creates a grid from copies of its axes and values. len(z) must be
// a multiple of len(x)*len(y); the multiple is the number of layers.
func NewGrid2D(x, y, z []float64, mode Mode) (*Grid2D, error) {
	if err := CheckAxis("grid x", x); err != nil {
		return nil, err
	}
	if err := CheckAxis("grid y", y); err != nil {
		return nil, err
	}

	plane := len(x) * len(y)
	if len(z) == 0 || len(z)%plane != 0 {
		return nil, errdefs.ConfigErrorf("grid: %d values do not fill %dx%d planes", len(z), len(x), len(y))
	}

	g := &Grid2D{
		x:      append([]float64(nil), x...),
		y:      append([]float64(nil), y...),
		z:      append([]float64(nil), z...),
		layers: len(z) / plane,
		mode:   mode,
	}
	return g, nil
}

func (g *Grid2D) Layers() int {
	return g.layers
}

func (g *Grid2D) X() []float64 {
	return g.x
}

func (g *Grid2D) Y() []float64 {
	return g.y
}

func (g *Grid2D) Mode() Mode {
	return g.mode
}

// At interpolates layer 0 at (x, y)
func (g *Grid2D) At(x, y float64) float64 {
	var st stencil
	g.stencil(x, y, &st)
	return st.apply(g.z, 0)
}

// AtLayers interpolates every layer at (x, y) into dst, which must have
// length Layers().
func (g *Grid2D) AtLayers(x, y float64, dst []float64) {
	var st stencil
	g.stencil(x, y, &st)

	plane := len(g.x) * len(g.y)
	for l := range dst {
		dst[l] = st.apply(g.z, l*plane)
	}
}

// Map interpolates layer 0 at each (xs[k], ys[k]) into dst
func (g *Grid2D) Map(xs, ys, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(xs))
	}

	var st stencil
	for k := range xs {
		g.stencil(xs[k], ys[k], &st)
		dst[k] = st.apply(g.z, 0)
	}
	return dst
}

// stencil holds flat offsets and weights of the grid nodes contributing to
// one query point. Bilinear uses 4 nodes, bicubic 16.
type stencil struct {
	idx [16]int
	w   [16]float64
	n   int
}

func (s *stencil) apply(z []float64, base int) float64 {
	var v float64
	for k := 0; k < s.n; k++ {
		v += s.w[k] * z[base+s.idx[k]]
	}
	return v
}

func (g *Grid2D) stencil(x, y float64, st *stencil) {
	nx, ny := len(g.x), len(g.y)
	ix, tx := Locate(g.x, x)
	iy, ty := Locate(g.y, y)

	st.n = 0
	switch g.mode {
	case Bicubic:
		var wx, wy [4]float64
		cubicWeights(tx, &wx)
		cubicWeights(ty, &wy)
		for a := 0; a < 4; a++ {
			i := clampIndex(ix-1+a, nx)
			for b := 0; b < 4; b++ {
				j := clampIndex(iy-1+b, ny)
				st.idx[st.n] = i*ny + j
				st.w[st.n] = wx[a] * wy[b]
				st.n++
			}
		}

	default:
		wx := [2]float64{1 - tx, tx}
		wy := [2]float64{1 - ty, ty}
		for a := 0; a < 2; a++ {
			i := clampIndex(ix+a, nx)
			for b := 0; b < 2; b++ {
				j := clampIndex(iy+b, ny)
				st.idx[st.n] = i*ny + j
				st.w[st.n] = wx[a] * wy[b]
				st.n++
			}
		}
	}
}

// cubicWeights returns the cubic convolution weights of nodes i-1..i+2 for a
// point at fraction t between nodes i and i+1. The kernel reproduces node
// values exactly at t=0.
func cubicWeights(t float64, w *[4]float64) {
	const a = cubicA

	x0 := t + 1
	w[0] = ((a*x0-5*a)*x0+8*a)*x0 - 4*a

	w[1] = ((a+2)*t-(a+3))*t*t + 1

	x2 := 1 - t
	w[2] = ((a+2)*x2-(a+3))*x2*x2 + 1

	w[3] = 1 - w[0] - w[1] - w[2]
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}
