// Package source defines the parametric SED flux models of transients.
//
// A Source holds current parameter values declared by an explicit schema.
// SetParams updates them and Flux evaluates the model over aligned phase
// (days) and wavelength (Å) sample arrays. Effects in package effects wrap a
// Source and expose the same contract.
package source

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/units"
)

// Param declares one model parameter. Scalars have Size 1.
type Param struct {
	Name    string
	Default []float64
	Size    int
	Unit    units.Unit
}

// Scalar declares a dimensionless scalar parameter
func Scalar(name string, def float64) Param {
	return Param{Name: name, Default: []float64{def}, Size: 1, Unit: units.Dimensionless}
}

// Vector declares a dimensionless vector parameter with all-zero default
func Vector(name string, size int) Param {
	return Param{Name: name, Default: make([]float64, size), Size: size, Unit: units.Dimensionless}
}

// Params maps parameter names to values. Scalars are one-element slices.
type Params map[string][]float64

// Clone returns a deep copy of p
func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = slices.Clone(v)
	}
	return c
}

// Source is a parametric flux model
type Source interface {
	// Schema lists the parameters accepted by SetParams, in declaration order
	Schema() []Param

	// SetParams updates the current parameter values. Unknown names and values
	// of the wrong length are configuration errors; missing names keep their
	// current value.
	SetParams(p Params) error

	// Flux evaluates the model with the current parameters at each
	// (phase[i], wave[i]) pair. Both slices have the same length.
	Flux(phase, wave []float64) []float64

	// FluxUnit is the unit of the values returned by Flux
	FluxUnit() units.Unit
}

// Evaluate sets the parameters of s and evaluates it
func Evaluate(s Source, phase, wave []float64, p Params) ([]float64, error) {
	if len(phase) != len(wave) {
		return nil, errdefs.ConfigErrorf("evaluating source: %d phases but %d wavelengths", len(phase), len(wave))
	}
	if err := s.SetParams(p); err != nil {
		return nil, err
	}
	return s.Flux(phase, wave), nil
}

// Defaults returns the default value of every parameter of s
func Defaults(s Source) Params {
	p := make(Params)
	for _, param := range s.Schema() {
		p[param.Name] = slices.Clone(param.Default)
	}
	return p
}

// State stores the current values of a parameter schema. Concrete sources
// embed it to implement Schema and SetParams.
type State struct {
	schema []Param
	index  map[string]int
	values [][]float64
}

// NewState validates the schema and initializes every parameter to its
// default
func NewState(schema ...Param) (*State, error) {
	s := &State{
		schema: schema,
		index:  make(map[string]int, len(schema)),
		values: make([][]float64, len(schema)),
	}
	for i, p := range schema {
		if p.Name == "" {
			return nil, errdefs.NewConfigError("parameter with empty name")
		}
		if _, ok := s.index[p.Name]; ok {
			return nil, errdefs.ConfigErrorf("duplicate parameter '%s'", p.Name)
		}
		if p.Size < 1 || len(p.Default) != p.Size {
			return nil, errdefs.ConfigErrorf("parameter '%s': default has %d values for size %d", p.Name, len(p.Default), p.Size)
		}
		s.index[p.Name] = i
		s.values[i] = slices.Clone(p.Default)
	}
	return s, nil
}

func (s *State) Schema() []Param {
	return slices.Clone(s.schema)
}

// SetParams applies p strictly: every key must belong to the schema. Nothing
// is applied when p is rejected.
func (s *State) SetParams(p Params) error {
	own, rest, err := s.Split(p)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errdefs.ConfigErrorf("unknown parameters: %s", strings.Join(slices.Sorted(maps.Keys(rest)), ", "))
	}
	s.Apply(own)
	return nil
}

// Split separates the entries of p that belong to the schema from the
// remaining ones and checks their lengths. It does not modify the state.
func (s *State) Split(p Params) (own, rest Params, err error) {
	for name, v := range p {
		i, ok := s.index[name]
		if !ok {
			if rest == nil {
				rest = make(Params)
			}
			rest[name] = v
			continue
		}
		if len(v) != s.schema[i].Size {
			return nil, nil, errdefs.ConfigErrorf("parameter '%s': expected %d values, got %d", name, s.schema[i].Size, len(v))
		}
		if own == nil {
			own = make(Params)
		}
		own[name] = v
	}
	return own, rest, nil
}

// Apply copies values returned by Split into the state
func (s *State) Apply(own Params) {
	for name, v := range own {
		copy(s.values[s.mustIndex(name)], v)
	}
}

// Get returns the current value of a parameter. The slice must not be
// modified.
func (s *State) Get(name string) []float64 {
	return s.values[s.mustIndex(name)]
}

// Scalar returns the current value of a scalar parameter
func (s *State) Scalar(name string) float64 {
	return s.values[s.mustIndex(name)][0]
}

func (s *State) mustIndex(name string) int {
	i, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("source: parameter '%s' not in schema", name))
	}
	return i
}

// CheckCollisions returns a configuration error when outer declares a
// parameter that inner already declares
func CheckCollisions(outer, inner []Param) error {
	names := make(map[string]struct{}, len(inner))
	for _, p := range inner {
		names[p.Name] = struct{}{}
	}
	for _, p := range outer {
		if _, ok := names[p.Name]; ok {
			return errdefs.ConfigErrorf("parameter '%s' is already declared by the wrapped source", p.Name)
		}
	}
	return nil
}
