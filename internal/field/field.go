// Package field describes an observation plan: one time and one bandpass per
// observation. Evaluating a source over a field needs every observation's
// wavelength samples in a single batch, so the field flattens them into a
// ragged array (one flat buffer plus offsets) built lazily and kept until
// ClearCache is called.
package field

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/magsys"
	"github.com/roman-kulish/lcsim/internal/units"
)

// Field is an immutable list of (time, bandpass) observations
type Field struct {
	times []float64
	bands []*bandpass.Bandpass

	mu     sync.Mutex
	points *EvaluationPoints
}

// New creates a Field. A single time is broadcast across all bands and a
// single band across all times; otherwise the lengths must match.
func New(times []float64, bands []*bandpass.Bandpass) (*Field, error) {
	if len(times) == 0 || len(bands) == 0 {
		return nil, errdefs.ConfigErrorf("field: %d times and %d bands, both must be non-empty", len(times), len(bands))
	}
	for i, b := range bands {
		if b == nil {
			return nil, errdefs.ConfigErrorf("field: band %d is nil", i)
		}
	}

	switch n := max(len(times), len(bands)); {
	case len(times) == len(bands):
		times, bands = slices.Clone(times), slices.Clone(bands)
	case len(times) == 1:
		times = repeat(times[0], n)
		bands = slices.Clone(bands)
	case len(bands) == 1:
		times = slices.Clone(times)
		bands = repeat(bands[0], n)
	default:
		return nil, errdefs.ConfigErrorf("field: cannot broadcast %d times against %d bands", len(times), len(bands))
	}

	return &Field{times: times, bands: bands}, nil
}

func repeat[T any](v T, n int) []T {
	s := make([]T, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Len returns the number of observations
func (f *Field) Len() int {
	return len(f.times)
}

// Times returns a copy of the observation times, days
func (f *Field) Times() []float64 {
	return slices.Clone(f.times)
}

// Bands returns a copy of the observation bandpasses
func (f *Field) Bands() []*bandpass.Bandpass {
	return slices.Clone(f.bands)
}

// Points returns the evaluation points, building them on first use
func (f *Field) Points() *EvaluationPoints {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.points == nil {
		f.points = newEvaluationPoints(f.times, f.bands)
	}
	return f.points
}

// ClearCache drops the evaluation points so the next call to Points
// rebuilds them. Points returned earlier remain valid.
func (f *Field) ClearCache() {
	f.mu.Lock()
	f.points = nil
	f.mu.Unlock()
}

// BandIndices groups observation indices by band name, in observation order
func (f *Field) BandIndices() map[string][]int {
	indices := make(map[string][]int)
	for i, b := range f.bands {
		indices[b.Name()] = append(indices[b.Name()], i)
	}
	return indices
}

// ZPFluxes returns the zero-point flux of every observation, in
// magsys.FluxUnit
func (f *Field) ZPFluxes(ms magsys.MagSys) (units.Quantity, error) {
	return f.zeroPoints(ms, ms.ZPFlux, magsys.FluxUnit)
}

// ZPCounts returns the zero-point photon count of every observation, in
// magsys.CountsUnit
func (f *Field) ZPCounts(ms magsys.MagSys) (units.Quantity, error) {
	return f.zeroPoints(ms, ms.ZPCounts, magsys.CountsUnit)
}

func (f *Field) zeroPoints(ms magsys.MagSys, zp func(*bandpass.Bandpass) (units.Quantity, error), unit units.Unit) (units.Quantity, error) {
	values := make([]float64, len(f.bands))
	for i, b := range f.bands {
		q, err := zp(b)
		if err != nil {
			return units.Quantity{}, fmt.Errorf("zero point of band '%s' in '%s': %w", b.Name(), ms.Name(), err)
		}
		v, err := q.In(unit)
		if err != nil {
			return units.Quantity{}, fmt.Errorf("zero point of band '%s' in '%s': %w", b.Name(), ms.Name(), err)
		}
		values[i] = v[0]
	}
	return units.Wrap(values, unit), nil
}
