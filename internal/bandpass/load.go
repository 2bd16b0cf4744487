package bandpass

import (
	"context"
	"fmt"
	"sort"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/registry"
)

// DatasetPrefix is prepended to bandpass names to form registry dataset names
const DatasetPrefix = "bandpasses/"

// LoadOption configures Load
type LoadOption func(o *loadOptions)

// WithThreshold drops grid nodes whose transmission is below threshold
func WithThreshold(threshold float64) LoadOption {
	return func(o *loadOptions) {
		o.threshold = threshold
	}
}

type loadOptions struct {
	threshold float64
}

// Load builds the bandpass stored in the registry under "bandpasses/<name>"
// with arrays "wave" and "trans".
func Load(ctx context.Context, loader registry.Loader, name string, options ...LoadOption) (*Bandpass, error) {
	var opts loadOptions
	for _, option := range options {
		option(&opts)
	}

	d, err := loader.Load(ctx, DatasetPrefix+name)
	if err != nil {
		return nil, fmt.Errorf("loading bandpass '%s': %w", name, err)
	}

	wave, err := d.Vector("wave")
	if err != nil {
		return nil, err
	}
	trans, err := d.Vector("trans")
	if err != nil {
		return nil, err
	}
	if len(wave) != len(trans) {
		return nil, errdefs.NewDataLoadError(d.Name, fmt.Errorf("%d wavelengths but %d transmission values", len(wave), len(trans)))
	}

	if opts.threshold > 0 {
		keptWave := make([]float64, 0, len(wave))
		keptTrans := make([]float64, 0, len(trans))
		for i, t := range trans {
			if t >= opts.threshold {
				keptWave = append(keptWave, wave[i])
				keptTrans = append(keptTrans, t)
			}
		}
		wave, trans = keptWave, keptTrans
	}

	return New(name, wave, trans)
}

// Set is a collection of bandpasses keyed by name
type Set map[string]*Bandpass

// NewSet collects bandpasses into a set. Duplicate names are a configuration
// error.
func NewSet(bands ...*Bandpass) (Set, error) {
	s := make(Set, len(bands))
	for _, b := range bands {
		if _, ok := s[b.Name()]; ok {
			return nil, errdefs.ConfigErrorf("duplicate bandpass '%s'", b.Name())
		}
		s[b.Name()] = b
	}
	return s, nil
}

// LoadSet loads every named bandpass into a set
func LoadSet(ctx context.Context, loader registry.Loader, names []string, options ...LoadOption) (Set, error) {
	bands := make([]*Bandpass, 0, len(names))
	for _, name := range names {
		b, err := Load(ctx, loader, name, options...)
		if err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}
	return NewSet(bands...)
}

func (s Set) Get(name string) (*Bandpass, error) {
	b, ok := s[name]
	if !ok {
		return nil, errdefs.ConfigErrorf("unknown bandpass '%s'", name)
	}
	return b, nil
}

// Lookup resolves a list of names, e.g. one band per observation
func (s Set) Lookup(names []string) ([]*Bandpass, error) {
	bands := make([]*Bandpass, len(names))
	for i, name := range names {
		b, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		bands[i] = b
	}
	return bands, nil
}

// Names returns the band names in lexical order
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
