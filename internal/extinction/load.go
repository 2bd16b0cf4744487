package extinction

import (
	"context"
	"fmt"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/registry"
)

// Dataset names of the bundled laws
const (
	DatasetFM07     = "colourlaws/fm07"
	DatasetF99      = "colourlaws/f99"
	DatasetSALT24   = "colourlaws/salt2-4"
	DatasetSALT3K21 = "colourlaws/salt3-k21"
)

// LoadTable loads a magnitude table stored as arrays "wave" and "mag"
func LoadTable(ctx context.Context, loader registry.Loader, name string) (*Table, error) {
	d, err := loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading extinction table: %w", err)
	}

	wave, err := d.Vector("wave")
	if err != nil {
		return nil, err
	}
	mag, err := d.Vector("mag")
	if err != nil {
		return nil, err
	}

	t, err := NewTable(wave, mag, Magnitude)
	if err != nil {
		return nil, errdefs.NewDataLoadError(name, err)
	}
	return t, nil
}

// LoadF99 loads the Fitzpatrick (1999) table stored as arrays "wave", "rv" and
// "mag" with shape [len(wave), len(rv)]
func LoadF99(ctx context.Context, loader registry.Loader) (*F99, error) {
	d, err := loader.Load(ctx, DatasetF99)
	if err != nil {
		return nil, fmt.Errorf("loading F99: %w", err)
	}

	wave, err := d.Vector("wave")
	if err != nil {
		return nil, err
	}
	rv, err := d.Vector("rv")
	if err != nil {
		return nil, err
	}
	mag, _, _, err := d.Matrix("mag", len(wave), len(rv))
	if err != nil {
		return nil, err
	}

	f, err := NewF99(wave, rv, mag)
	if err != nil {
		return nil, errdefs.NewDataLoadError(DatasetF99, err)
	}
	return f, nil
}

// Load resolves a law by its short name: "fm07", "f99", "salt2-4" or
// "salt3-k21"
func Load(ctx context.Context, loader registry.Loader, law string) (Curve, error) {
	switch law {
	case "f99":
		return LoadF99(ctx, loader)
	case "fm07":
		return LoadTable(ctx, loader, DatasetFM07)
	case "salt2-4":
		return LoadTable(ctx, loader, DatasetSALT24)
	case "salt3-k21":
		return LoadTable(ctx, loader, DatasetSALT3K21)
	}
	return nil, errdefs.ConfigErrorf("unknown extinction law '%s'", law)
}
