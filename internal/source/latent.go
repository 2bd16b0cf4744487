package source

import (
	"math"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/interp"
	"github.com/roman-kulish/lcsim/internal/units"
)

// LatentSurfaces holds the trained magnitude-space correction of a latent
// source, all on the spline knot grid [len(Phase), len(Wave)] row-major.
type LatentSurfaces struct {
	Phase []float64 // knot phases, days
	Wave  []float64 // knot wavelengths, Å

	W0 []float64
	W1 []float64

	// L maps the latent vector e to the residual surface E, shape
	// [ERows·ECols, len(e)]
	L []float64

	// ERows, ECols is the shape of E. When ECols is len(Wave)-2, E is padded
	// with zero columns at the first and last knot wavelength.
	ERows, ECols int

	M0 float64
}

// Latent is a hierarchical SED model: a baseline surface multiplied by a
// magnitude correction driven by latent coefficients,
//
//	flux = baseline(phase, wave) · 10^(-0.4·(M0 + delta_M + S(phase, wave)))
//	S    = spline(W0 + theta·W1 + E),  E = reshape(L·e)
//
// The spline is a natural cubic tensor spline; phase and wavelength are
// clamped to the knot grid before evaluation.
type Latent struct {
	*State

	baseline *interp.Grid2D
	spline   *interp.Spline2D
	s        LatentSurfaces
	latent   int
	unit     units.Unit

	// scratch for the combined knot surface
	surface []float64
}

// Latent parameter names
const (
	ParamDeltaM = "delta_M"
	ParamTheta  = "theta"
	ParamE      = "e"
)

func NewLatent(baseline *interp.Grid2D, s LatentSurfaces, unit units.Unit) (*Latent, error) {
	spline, err := interp.NewSpline2D(s.Phase, s.Wave)
	if err != nil {
		return nil, err
	}

	nPhase, nWave := len(s.Phase), len(s.Wave)
	knots := nPhase * nWave
	if len(s.W0) != knots || len(s.W1) != knots {
		return nil, errdefs.ConfigErrorf("latent source: W0 and W1 need %dx%d values, got %d and %d", nPhase, nWave, len(s.W0), len(s.W1))
	}
	if s.ERows != nPhase || (s.ECols != nWave && s.ECols != nWave-2) {
		return nil, errdefs.ConfigErrorf("latent source: residual shape %dx%d does not fit the %dx%d knot grid", s.ERows, s.ECols, nPhase, nWave)
	}

	rows := s.ERows * s.ECols
	if len(s.L) == 0 || len(s.L)%rows != 0 {
		return nil, errdefs.ConfigErrorf("latent source: loading matrix of %d values does not have %d rows", len(s.L), rows)
	}
	latent := len(s.L) / rows

	state, err := NewState(
		Scalar(ParamDeltaM, 0),
		Scalar(ParamTheta, 0),
		Vector(ParamE, latent),
	)
	if err != nil {
		return nil, err
	}

	return &Latent{
		State:    state,
		baseline: baseline,
		spline:   spline,
		s:        s,
		latent:   latent,
		unit:     unit,
		surface:  make([]float64, knots),
	}, nil
}

// LatentSize returns the length of the latent vector e
func (s *Latent) LatentSize() int {
	return s.latent
}

// knotSurface computes W0 + theta·W1 + E for the current parameters
func (s *Latent) knotSurface() []float64 {
	theta := s.Scalar(ParamTheta)
	e := s.Get(ParamE)

	nWave := len(s.s.Wave)
	pad := (nWave - s.s.ECols) / 2

	for i := range s.surface {
		s.surface[i] = s.s.W0[i] + theta*s.s.W1[i]
	}
	for r := 0; r < s.s.ERows; r++ {
		for c := 0; c < s.s.ECols; c++ {
			row := s.s.L[(r*s.s.ECols+c)*s.latent : (r*s.s.ECols+c+1)*s.latent]
			var v float64
			for k, ek := range e {
				v += row[k] * ek
			}
			s.surface[r*nWave+c+pad] += v
		}
	}
	return s.surface
}

func (s *Latent) Flux(phase, wave []float64) []float64 {
	flux := s.baseline.Map(phase, wave, nil)

	eval, err := s.spline.Evaluator(s.knotSurface())
	if err != nil {
		panic(err) // surface length is fixed at construction
	}

	offset := s.s.M0 + s.Scalar(ParamDeltaM)
	for i := range flux {
		flux[i] *= math.Pow(10, -0.4*(offset+eval(phase[i], wave[i])))
	}
	return flux
}

func (s *Latent) FluxUnit() units.Unit {
	return s.unit
}
