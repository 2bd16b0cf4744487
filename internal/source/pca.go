package source

import (
	"math"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/extinction"
	"github.com/roman-kulish/lcsim/internal/interp"
	"github.com/roman-kulish/lcsim/internal/units"
)

// PCANames names the parameters of a PCA source
type PCANames struct {
	Amplitude string // c0
	Coeffs    string // coefficients of components 1..K-1
	Colour    string // colour law exponent, unused without a colour law
}

// PCA combines component surfaces sharing one phase × wavelength grid:
//
//	flux = c0·(comp_0 + Σ_k coeff_k·comp_k) · colourlaw(wave)^colour
//
// where colourlaw is the flux transmission of an optional extinction curve.
type PCA struct {
	*State

	grid   *interp.Grid2D
	colour extinction.Curve
	names  PCANames
	unit   units.Unit
}

// NewPCA creates a source from component tables stacked as
// [components, len(phase), len(wave)]. At least one component is required.
func NewPCA(phase, wave, components []float64, mode interp.Mode, colour extinction.Curve, names PCANames, unit units.Unit) (*PCA, error) {
	grid, err := interp.NewGrid2D(phase, wave, components, mode)
	if err != nil {
		return nil, err
	}

	schema := []Param{Scalar(names.Amplitude, 1)}
	if grid.Layers() > 1 {
		if names.Coeffs == "" {
			return nil, errdefs.NewConfigError("pca source: coefficients parameter needs a name")
		}
		schema = append(schema, Vector(names.Coeffs, grid.Layers()-1))
	}
	if colour != nil {
		if names.Colour == "" {
			return nil, errdefs.NewConfigError("pca source: colour parameter needs a name")
		}
		schema = append(schema, Scalar(names.Colour, 0))
	}

	state, err := NewState(schema...)
	if err != nil {
		return nil, err
	}

	return &PCA{
		State:  state,
		grid:   grid,
		colour: colour,
		names:  names,
		unit:   unit,
	}, nil
}

// Components returns the number of component surfaces
func (s *PCA) Components() int {
	return s.grid.Layers()
}

func (s *PCA) Flux(phase, wave []float64) []float64 {
	c0 := s.Scalar(s.names.Amplitude)

	var coeffs []float64
	if s.grid.Layers() > 1 {
		coeffs = s.Get(s.names.Coeffs)
	}

	flux := make([]float64, len(phase))
	comps := make([]float64, s.grid.Layers())
	for i := range flux {
		s.grid.AtLayers(phase[i], wave[i], comps)

		f := comps[0]
		for k, c := range coeffs {
			f += c * comps[k+1]
		}
		flux[i] = c0 * f
	}

	if s.colour != nil {
		if c := s.Scalar(s.names.Colour); c != 0 {
			mag := s.colour.Mag(wave, nil)
			for i := range flux {
				flux[i] *= math.Pow(10, -0.4*mag[i]*c)
			}
		}
	}
	return flux
}

func (s *PCA) FluxUnit() units.Unit {
	return s.unit
}
