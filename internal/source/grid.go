package source

import (
	"github.com/roman-kulish/lcsim/internal/interp"
	"github.com/roman-kulish/lcsim/internal/units"
)

// GridSED interpolates a single flux surface tabulated over phase and
// wavelength, scaled by an amplitude parameter:
//
//	flux = amplitude · sed(phase, wave)
//
// Coordinates outside the grid are clamped.
type GridSED struct {
	*State

	grid      *interp.Grid2D
	unit      units.Unit
	amplitude string
}

// NewGridSED creates a source from a flux table of shape [len(phase), len(wave)]
func NewGridSED(phase, wave, flux []float64, mode interp.Mode, unit units.Unit, amplitude string) (*GridSED, error) {
	grid, err := interp.NewGrid2D(phase, wave, flux, mode)
	if err != nil {
		return nil, err
	}

	state, err := NewState(Scalar(amplitude, 1))
	if err != nil {
		return nil, err
	}

	return &GridSED{
		State:     state,
		grid:      grid,
		unit:      unit,
		amplitude: amplitude,
	}, nil
}

func (s *GridSED) Flux(phase, wave []float64) []float64 {
	flux := s.grid.Map(phase, wave, nil)

	a := s.Scalar(s.amplitude)
	for i := range flux {
		flux[i] *= a
	}
	return flux
}

func (s *GridSED) FluxUnit() units.Unit {
	return s.unit
}

// Grid exposes the interpolated surface
func (s *GridSED) Grid() *interp.Grid2D {
	return s.grid
}
