// Package effects implements physical transformations that wrap a Source and
// expose the same contract. Effects are chained by wrapping one in another;
// the outermost effect is applied last to the wavelength and phase the
// caller passes in.
package effects

import (
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/units"
)

// Option configures an effect
type Option func(o *options)

type options struct {
	prefix string
}

// WithPrefix prepends prefix to the parameter names of the effect, e.g. to
// chain host and Milky Way extinction
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// wrapped holds the inner source and the parameters declared by an effect.
// Parameters not declared by the effect are forwarded to the inner source.
type wrapped struct {
	inner source.Source
	state *source.State
}

func wrap(inner source.Source, params ...source.Param) (wrapped, error) {
	state, err := source.NewState(params...)
	if err != nil {
		return wrapped{}, err
	}
	if err = source.CheckCollisions(params, inner.Schema()); err != nil {
		return wrapped{}, err
	}
	return wrapped{inner: inner, state: state}, nil
}

func (w *wrapped) Schema() []source.Param {
	return append(w.state.Schema(), w.inner.Schema()...)
}

// SetParams updates the inner source first and applies the effect's own
// parameters only once the inner source accepted the rest, so a rejected call
// leaves the whole chain unchanged.
func (w *wrapped) SetParams(p source.Params) error {
	own, rest, err := w.state.Split(p)
	if err != nil {
		return err
	}
	if err = w.inner.SetParams(rest); err != nil {
		return err
	}
	w.state.Apply(own)
	return nil
}

func (w *wrapped) FluxUnit() units.Unit {
	return w.inner.FluxUnit()
}

// Inner returns the wrapped source
func (w *wrapped) Inner() source.Source {
	return w.inner
}
