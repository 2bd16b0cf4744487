package effects

import (
	"math"

	"github.com/roman-kulish/lcsim/internal/extinction"
	"github.com/roman-kulish/lcsim/internal/source"
)

// Extinction dims the source by a reddening law:
//
//	flux(phase, wave) = 10^(-0.4·Av·mag(wave)) · inner(phase, wave)
//
// Laws parametrized by Rv add an Rv parameter defaulting to the law's own
// ratio.
type Extinction struct {
	wrapped
	curve  extinction.Curve
	family extinction.RvCurve
	av, rv string
}

func NewExtinction(inner source.Source, curve extinction.Curve, opts ...Option) (*Extinction, error) {
	o := applyOptions(opts)

	e := &Extinction{
		curve: curve,
		av:    o.prefix + "Av",
	}

	params := []source.Param{source.Scalar(e.av, 0)}
	if family, ok := curve.(extinction.RvCurve); ok {
		e.family = family
		e.rv = o.prefix + "Rv"
		params = append(params, source.Scalar(e.rv, family.DefaultRv()))
	}

	w, err := wrap(inner, params...)
	if err != nil {
		return nil, err
	}
	e.wrapped = w
	return e, nil
}

func (e *Extinction) Flux(phase, wave []float64) []float64 {
	flux := e.inner.Flux(phase, wave)

	av := e.state.Scalar(e.av)
	if av == 0 {
		return flux
	}

	curve := e.curve
	if e.family != nil {
		curve = e.family.WithRv(e.state.Scalar(e.rv))
	}

	mag := curve.Mag(wave, nil)
	for i := range flux {
		flux[i] *= math.Pow(10, -0.4*av*mag[i])
	}
	return flux
}
