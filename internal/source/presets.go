package source

import (
	"context"
	"fmt"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/extinction"
	"github.com/roman-kulish/lcsim/internal/interp"
	"github.com/roman-kulish/lcsim/internal/registry"
	"github.com/roman-kulish/lcsim/internal/units"
)

// Dataset names of the trained models
const (
	DatasetHsiao     = "sources/hsiao"
	DatasetSALT24    = "sources/salt2-4"
	DatasetSALT3K21  = "sources/salt3-k21"
	DatasetBayeSNM20 = "sources/bayesn-m20"
	DatasetBayeSNT21 = "sources/bayesn-t21"
	DatasetBayeSNW22 = "sources/bayesn-w22"
)

// HsiaoFluxUnit normalizes the Hsiao template to an absolute B-band Vega
// magnitude of zero at 10 pc
var HsiaoFluxUnit = units.Scaled(units.ErgPerSecondPerAngstrom, 1.177175e40, "1.177175e40 erg/s/Å")

// BayeSNM0 is the reference absolute magnitude of the BayeSN presets
const BayeSNM0 = -19.5

// surfaceData is a trained grid: axes and stacked flux tables
type surfaceData struct {
	phase, wave, flux []float64
	layers            int
}

// loadSurfaces reads arrays "phase", "wave" and "flux", where flux has shape
// [len(phase), len(wave)] or [layers, len(phase), len(wave)]
func loadSurfaces(ctx context.Context, loader registry.Loader, name string) (*surfaceData, error) {
	d, err := loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading source grid: %w", err)
	}

	var s surfaceData
	if s.phase, err = d.Vector("phase"); err != nil {
		return nil, err
	}
	if s.wave, err = d.Vector("wave"); err != nil {
		return nil, err
	}

	flux, err := d.Array("flux")
	if err != nil {
		return nil, err
	}

	nPhase, nWave := len(s.phase), len(s.wave)
	switch {
	case len(flux.Shape) == 2 && flux.Shape[0] == nPhase && flux.Shape[1] == nWave:
		s.layers = 1
	case len(flux.Shape) == 3 && flux.Shape[1] == nPhase && flux.Shape[2] == nWave:
		s.layers = flux.Shape[0]
	default:
		return nil, errdefs.NewDataLoadError(name, fmt.Errorf("flux shape %v does not match %d phases and %d wavelengths", flux.Shape, nPhase, nWave))
	}
	s.flux = flux.Data

	return &s, nil
}

// NewHsiao loads the Hsiao SN Ia template with amplitude parameter
// "amplitude"
func NewHsiao(ctx context.Context, loader registry.Loader) (*GridSED, error) {
	s, err := loadSurfaces(ctx, loader, DatasetHsiao)
	if err != nil {
		return nil, err
	}

	src, err := NewGridSED(s.phase, s.wave, s.flux[:len(s.phase)*len(s.wave)], interp.Bilinear, HsiaoFluxUnit, "amplitude")
	if err != nil {
		return nil, errdefs.NewDataLoadError(DatasetHsiao, err)
	}
	return src, nil
}

func newSALT(ctx context.Context, loader registry.Loader, dataset, colourLaw string) (*PCA, error) {
	s, err := loadSurfaces(ctx, loader, dataset)
	if err != nil {
		return nil, err
	}

	colour, err := extinction.LoadTable(ctx, loader, colourLaw)
	if err != nil {
		return nil, err
	}

	src, err := NewPCA(s.phase, s.wave, s.flux, interp.Bilinear, colour, PCANames{
		Amplitude: "x0",
		Coeffs:    "x1",
		Colour:    "c",
	}, units.ErgPerSecondPerAngstrom)
	if err != nil {
		return nil, errdefs.NewDataLoadError(dataset, err)
	}
	if src.Components() != 2 {
		return nil, errdefs.NewDataLoadError(dataset, fmt.Errorf("expected 2 components, got %d", src.Components()))
	}
	return src, nil
}

// NewSALT2 loads the SALT2.4 model with parameters x0, x1 and c
func NewSALT2(ctx context.Context, loader registry.Loader) (*PCA, error) {
	return newSALT(ctx, loader, DatasetSALT24, extinction.DatasetSALT24)
}

// NewSALT3 loads the SALT3 (K21) model with parameters x0, x1 and c
func NewSALT3(ctx context.Context, loader registry.Loader) (*PCA, error) {
	return newSALT(ctx, loader, DatasetSALT3K21, extinction.DatasetSALT3K21)
}

// NewSNEMO loads a SNEMO model with 2, 7 or 15 components. Parameters are
// amplitude, the coefficient vector coeffs and the FM07 colour exponent As.
func NewSNEMO(ctx context.Context, loader registry.Loader, components int) (*PCA, error) {
	switch components {
	case 2, 7, 15:
	default:
		return nil, errdefs.ConfigErrorf("no SNEMO model with %d components", components)
	}

	dataset := fmt.Sprintf("sources/snemo-%d", components)
	s, err := loadSurfaces(ctx, loader, dataset)
	if err != nil {
		return nil, err
	}

	colour, err := extinction.LoadTable(ctx, loader, extinction.DatasetFM07)
	if err != nil {
		return nil, err
	}

	src, err := NewPCA(s.phase, s.wave, s.flux, interp.Bilinear, colour, PCANames{
		Amplitude: "amplitude",
		Coeffs:    "coeffs",
		Colour:    "As",
	}, units.ErgPerSecondPerAngstrom)
	if err != nil {
		return nil, errdefs.NewDataLoadError(dataset, err)
	}
	if src.Components() != components {
		return nil, errdefs.NewDataLoadError(dataset, fmt.Errorf("expected %d components, got %d", components, src.Components()))
	}
	return src, nil
}

// BayeSNPreset identifies a trained BayeSN model and the shape of its
// residual surface
type BayeSNPreset struct {
	Name         string
	Dataset      string
	ERows, ECols int
}

var (
	BayeSNM20 = BayeSNPreset{Name: "bayesn-m20", Dataset: DatasetBayeSNM20, ERows: 6, ECols: 7}
	BayeSNT21 = BayeSNPreset{Name: "bayesn-t21", Dataset: DatasetBayeSNT21, ERows: 6, ECols: 4}
	BayeSNW22 = BayeSNPreset{Name: "bayesn-w22", Dataset: DatasetBayeSNW22, ERows: 6, ECols: 9}
)

// NewBayeSN loads a BayeSN preset: the Hsiao template interpolated
// bicubically as baseline and the trained arrays "phase", "wave", "W0", "W1"
// and "L" as correction.
func NewBayeSN(ctx context.Context, loader registry.Loader, preset BayeSNPreset) (*Latent, error) {
	h, err := loadSurfaces(ctx, loader, DatasetHsiao)
	if err != nil {
		return nil, err
	}
	baseline, err := interp.NewGrid2D(h.phase, h.wave, h.flux[:len(h.phase)*len(h.wave)], interp.Bicubic)
	if err != nil {
		return nil, errdefs.NewDataLoadError(DatasetHsiao, err)
	}

	d, err := loader.Load(ctx, preset.Dataset)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", preset.Name, err)
	}

	s := LatentSurfaces{
		ERows: preset.ERows,
		ECols: preset.ECols,
		M0:    BayeSNM0,
	}
	if s.Phase, err = d.Vector("phase"); err != nil {
		return nil, err
	}
	if s.Wave, err = d.Vector("wave"); err != nil {
		return nil, err
	}
	if s.W0, _, _, err = d.Matrix("W0", len(s.Phase), len(s.Wave)); err != nil {
		return nil, err
	}
	if s.W1, _, _, err = d.Matrix("W1", len(s.Phase), len(s.Wave)); err != nil {
		return nil, err
	}
	if s.L, _, _, err = d.Matrix("L", preset.ERows*preset.ECols, 0); err != nil {
		return nil, err
	}

	src, err := NewLatent(baseline, s, HsiaoFluxUnit)
	if err != nil {
		return nil, errdefs.NewDataLoadError(preset.Dataset, err)
	}
	return src, nil
}

// Presets lists the names accepted by Load
var Presets = []string{
	"hsiao",
	"salt2", "salt3",
	"snemo2", "snemo7", "snemo15",
	BayeSNM20.Name, BayeSNT21.Name, BayeSNW22.Name,
}

// Load builds a trained source by preset name
func Load(ctx context.Context, loader registry.Loader, preset string) (Source, error) {
	var (
		src Source
		err error
	)

	switch preset {
	case "hsiao":
		var s *GridSED
		if s, err = NewHsiao(ctx, loader); err == nil {
			src = s
		}
	case "salt2", "salt3":
		newFn := NewSALT2
		if preset == "salt3" {
			newFn = NewSALT3
		}
		var s *PCA
		if s, err = newFn(ctx, loader); err == nil {
			src = s
		}
	case "snemo2", "snemo7", "snemo15":
		var s *PCA
		if s, err = NewSNEMO(ctx, loader, snemoComponents[preset]); err == nil {
			src = s
		}
	case BayeSNM20.Name, BayeSNT21.Name, BayeSNW22.Name:
		var s *Latent
		if s, err = NewBayeSN(ctx, loader, bayesnPresets[preset]); err == nil {
			src = s
		}
	default:
		err = errdefs.ConfigErrorf("unknown source preset '%s'", preset)
	}

	if err != nil {
		return nil, err
	}
	return src, nil
}

var snemoComponents = map[string]int{"snemo2": 2, "snemo7": 7, "snemo15": 15}

var bayesnPresets = map[string]BayeSNPreset{
	BayeSNM20.Name: BayeSNM20,
	BayeSNT21.Name: BayeSNT21,
	BayeSNW22.Name: BayeSNW22,
}
