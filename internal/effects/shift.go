package effects

import (
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/units"
)

// PhaseShift moves the source in time: flux(phase, wave) = inner(phase - t0, wave)
type PhaseShift struct {
	wrapped
	t0 string
}

func NewPhaseShift(inner source.Source, opts ...Option) (*PhaseShift, error) {
	o := applyOptions(opts)

	t0 := o.prefix + "t0"
	w, err := wrap(inner, source.Param{Name: t0, Default: []float64{0}, Size: 1, Unit: units.Day})
	if err != nil {
		return nil, err
	}
	return &PhaseShift{wrapped: w, t0: t0}, nil
}

func (e *PhaseShift) Flux(phase, wave []float64) []float64 {
	t0 := e.state.Scalar(e.t0)

	shifted := make([]float64, len(phase))
	for i, p := range phase {
		shifted[i] = p - t0
	}
	return e.inner.Flux(shifted, wave)
}

// Redshift moves the source to redshift z. With a = 1/(1+z),
//
//	flux(phase, wave) = a³ · inner(a·phase, a·wave)
//
// accounting for time dilation, wavelength stretch and the flux density
// Jacobian.
type Redshift struct {
	wrapped
	z string
}

func NewRedshift(inner source.Source, opts ...Option) (*Redshift, error) {
	o := applyOptions(opts)

	z := o.prefix + "z"
	w, err := wrap(inner, source.Scalar(z, 0))
	if err != nil {
		return nil, err
	}
	return &Redshift{wrapped: w, z: z}, nil
}

func (e *Redshift) Flux(phase, wave []float64) []float64 {
	a := 1 / (1 + e.state.Scalar(e.z))

	restPhase := make([]float64, len(phase))
	restWave := make([]float64, len(wave))
	for i := range phase {
		restPhase[i] = a * phase[i]
		restWave[i] = a * wave[i]
	}

	flux := e.inner.Flux(restPhase, restWave)
	a3 := a * a * a
	for i := range flux {
		flux[i] *= a3
	}
	return flux
}
