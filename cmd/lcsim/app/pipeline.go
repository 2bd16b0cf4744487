package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/cosmology"
	"github.com/roman-kulish/lcsim/internal/effects"
	"github.com/roman-kulish/lcsim/internal/extinction"
	"github.com/roman-kulish/lcsim/internal/lightcurve"
	"github.com/roman-kulish/lcsim/internal/magsys"
	"github.com/roman-kulish/lcsim/internal/registry"
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/survey"
)

// WithCosmology sets the cosmology used by cosmological distance effects
func WithCosmology(cosmo cosmology.Distancer) func(*Pipeline) {
	return func(p *Pipeline) {
		p.cosmo = cosmo
	}
}

// WithThreshold drops bandpass nodes with transmission below threshold
func WithThreshold(threshold float64) func(*Pipeline) {
	return func(p *Pipeline) {
		p.threshold = threshold
	}
}

// Pipeline assembles a forward model from reference data: bandpasses for the
// observed bands, a zero-point system and a source wrapped in effects.
type Pipeline struct {
	loader registry.Loader
	logger *slog.Logger

	cosmo     cosmology.Distancer
	threshold float64

	source source.Source
	magsys magsys.MagSys
	data   *survey.SurveyData
	model  *lightcurve.Model
}

// NewPipeline creates a new Pipeline
func NewPipeline(loader registry.Loader, logger *slog.Logger, options ...func(*Pipeline)) *Pipeline {
	p := Pipeline{
		loader: loader,
		logger: logger,
		cosmo:  cosmology.Planck18,
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// LoadSurvey loads the bandpasses referenced by obs and builds the survey
// data and its field
func (p *Pipeline) LoadSurvey(ctx context.Context, obs []survey.Observation) error {
	var names []string
	for _, o := range obs {
		if !slices.Contains(names, o.Band) {
			names = append(names, o.Band)
		}
	}

	bands, err := bandpass.LoadSet(ctx, p.loader, names, bandpass.WithThreshold(p.threshold))
	if err != nil {
		return fmt.Errorf("loading bandpasses: %w", err)
	}
	for _, name := range bands.Names() {
		b := bands[name]
		p.logger.Debug("loaded bandpass",
			slog.String("band", name),
			slog.Int("samples", b.Len()),
			slog.String("from", humanize.SIWithDigits(b.MinWave()*1e-10, 1, "m")),
			slog.String("to", humanize.SIWithDigits(b.MaxWave()*1e-10, 1, "m")))
	}

	if p.data, err = survey.FromObservations(bands, obs); err != nil {
		return fmt.Errorf("building survey: %w", err)
	}
	return nil
}

// LoadMagSys resolves the zero-point system. Offsets wrap it into a
// composite system: every band of the loaded survey gets offset 0 and the
// configured offsets override it.
func (p *Pipeline) LoadMagSys(ctx context.Context, config MagSysConfig) error {
	ms, err := magsys.Load(ctx, p.loader, config.Name)
	if err != nil {
		return fmt.Errorf("loading magsys '%s': %w", config.Name, err)
	}

	if len(config.Offsets) > 0 {
		bands := make(map[string]magsys.BandZP, len(config.Offsets))
		if p.data != nil {
			for _, b := range p.data.Field.Bands() {
				bands[b.Name()] = magsys.BandZP{MagSys: ms}
			}
		}
		for band, offset := range config.Offsets {
			bands[band] = magsys.BandZP{MagSys: ms, Offset: offset}
		}
		if ms, err = magsys.NewComposite(config.Name+"+offsets", bands); err != nil {
			return err
		}
	}

	p.magsys = ms
	return nil
}

// LoadSource loads the source preset and wraps it in effects, in order
func (p *Pipeline) LoadSource(ctx context.Context, preset string, configs []EffectConfig) error {
	src, err := source.Load(ctx, p.loader, preset)
	if err != nil {
		return fmt.Errorf("loading source '%s': %w", preset, err)
	}

	for i := range configs {
		if src, err = p.wrapEffect(ctx, src, &configs[i]); err != nil {
			return err
		}
	}

	p.source = src
	return nil
}

func (p *Pipeline) wrapEffect(ctx context.Context, inner source.Source, config *EffectConfig) (source.Source, error) {
	opts := []effects.Option{effects.WithPrefix(config.Prefix)}

	var src source.Source
	var err error
	switch config.Type {
	case EffectRedshift:
		src, err = effects.NewRedshift(inner, opts...)

	case EffectPhaseShift:
		src, err = effects.NewPhaseShift(inner, opts...)

	case EffectExtinction:
		var curve extinction.Curve
		if curve, err = extinction.Load(ctx, p.loader, config.Law); err != nil {
			return nil, fmt.Errorf("loading extinction law '%s': %w", config.Law, err)
		}
		src, err = effects.NewExtinction(inner, curve, opts...)

	case EffectDistance:
		src, err = effects.NewDistance(inner, opts...)

	case EffectCosmological:
		src, err = effects.NewCosmological(inner, p.cosmo, opts...)

	default:
		return nil, fmt.Errorf("creating effect: unknown type '%s'", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("creating %s effect: %w", config.Type, err)
	}
	return src, nil
}

// Model binds the source to the survey field. LoadSurvey and LoadSource
// must have been called.
func (p *Pipeline) Model() *lightcurve.Model {
	if p.model == nil {
		p.model = lightcurve.New(p.source, p.data.Field)
	}
	return p.model
}

// Evaluate computes quantity for one parameter set, one value per
// observation
func (p *Pipeline) Evaluate(quantity OutputQuantity, params source.Params) ([]float64, error) {
	m := p.Model()

	switch quantity {
	case OutputFlux:
		q, err := m.BandFlux(params)
		if err != nil {
			return nil, err
		}
		return q.Values(), nil

	case OutputCounts:
		q, err := m.BandCounts(params)
		if err != nil {
			return nil, err
		}
		return q.Values(), nil

	case OutputFluxCal:
		return m.BandFluxCal(p.magsys, params)

	case OutputCountsCal:
		return m.BandCountsCal(p.magsys, params)

	case OutputMag:
		return m.BandMag(p.magsys, params)

	case OutputSignal:
		countscal, err := m.BandCountsCal(p.magsys, params)
		if err != nil {
			return nil, err
		}
		return p.data.Signal(countscal)

	case OutputFluxCalErr:
		return p.data.CalcFluxCalErr()
	}

	return nil, fmt.Errorf("unknown output quantity '%s'", quantity)
}

// EvaluateBatch computes quantity for every parameter set in order. Band
// fluxes go through a single batched model call.
func (p *Pipeline) EvaluateBatch(quantity OutputQuantity, batch []source.Params) ([][]float64, error) {
	out := make([][]float64, len(batch))

	if quantity == OutputFlux {
		fluxes, err := p.Model().BandFluxBatch(batch)
		if err != nil {
			return nil, err
		}
		for i, q := range fluxes {
			out[i] = q.Values()
		}
		return out, nil
	}

	for i, params := range batch {
		values, err := p.Evaluate(quantity, params)
		if err != nil {
			return nil, fmt.Errorf("parameter set %d: %w", i, err)
		}
		out[i] = values
	}
	return out, nil
}

// Survey returns the loaded survey data
func (p *Pipeline) Survey() *survey.SurveyData {
	return p.data
}

// Source returns the assembled source
func (p *Pipeline) Source() source.Source {
	return p.source
}
