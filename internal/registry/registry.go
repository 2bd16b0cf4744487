// Package registry provides access to the reference datasets used by the
// engine: trained source grids, reddening-law tables, reference spectra and
// bandpass transmission curves. Datasets are addressed by logical names such
// as "sources/hsiao" or "magsys/vega" and hold named float64 arrays.
package registry

import (
	"context"
	"fmt"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// Loader loads one reference dataset by its logical name. Implementations
// return a *errdefs.DataLoadError when the dataset is missing or corrupt.
type Loader interface {
	Load(ctx context.Context, name string) (*Dataset, error)
}

// Array is a dense row-major float64 array
type Array struct {
	Shape []int
	Data  []float64
}

// Vector creates a one-dimensional array
func Vector(data []float64) Array {
	return Array{Shape: []int{len(data)}, Data: data}
}

// Matrix creates a two-dimensional array. data is row-major.
func Matrix(rows, cols int, data []float64) Array {
	return Array{Shape: []int{rows, cols}, Data: data}
}

// Size returns the number of elements declared by the shape
func (a Array) Size() int {
	if len(a.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func (a Array) validate() error {
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", a.Shape)
		}
	}
	if a.Size() != len(a.Data) {
		return fmt.Errorf("shape %v declares %d elements, got %d", a.Shape, a.Size(), len(a.Data))
	}
	return nil
}

// Dataset is a named collection of arrays. Datasets returned by a Loader are
// shared and must be treated as immutable.
type Dataset struct {
	Name   string
	Arrays map[string]Array
}

// Validate checks that every array's shape matches its data
func (d *Dataset) Validate() error {
	if d.Name == "" {
		return errdefs.NewDataLoadError(d.Name, fmt.Errorf("empty dataset name"))
	}
	for key, a := range d.Arrays {
		if err := a.validate(); err != nil {
			return errdefs.NewDataLoadError(d.Name, fmt.Errorf("array '%s': %w", key, err))
		}
	}
	return nil
}

// Array returns the array stored under key
func (d *Dataset) Array(key string) (Array, error) {
	a, ok := d.Arrays[key]
	if !ok {
		return Array{}, errdefs.NewDataLoadError(d.Name, fmt.Errorf("missing array '%s'", key))
	}
	return a, nil
}

// Vector returns the one-dimensional array stored under key
func (d *Dataset) Vector(key string) ([]float64, error) {
	a, err := d.Array(key)
	if err != nil {
		return nil, err
	}
	if len(a.Shape) != 1 {
		return nil, errdefs.NewDataLoadError(d.Name, fmt.Errorf("array '%s': expected 1 dimension, got shape %v", key, a.Shape))
	}
	return a.Data, nil
}

// Matrix returns the two-dimensional array stored under key with its shape.
// Zero rows or cols accept any extent along that axis.
func (d *Dataset) Matrix(key string, rows, cols int) ([]float64, int, int, error) {
	a, err := d.Array(key)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(a.Shape) != 2 {
		return nil, 0, 0, errdefs.NewDataLoadError(d.Name, fmt.Errorf("array '%s': expected 2 dimensions, got shape %v", key, a.Shape))
	}
	if (rows > 0 && a.Shape[0] != rows) || (cols > 0 && a.Shape[1] != cols) {
		return nil, 0, 0, errdefs.NewDataLoadError(d.Name, fmt.Errorf("array '%s': expected shape [%d %d], got %v", key, rows, cols, a.Shape))
	}
	return a.Data, a.Shape[0], a.Shape[1], nil
}
