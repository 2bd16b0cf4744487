package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/lcsim/internal/cosmology"
	"github.com/roman-kulish/lcsim/internal/registry"
	"github.com/roman-kulish/lcsim/internal/source"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.Registry.Path); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("registry file '%s' does not exist: %w", config.Registry.Path, err)
	}

	store := registry.NewSqliteStore(config.Registry.Path)
	defer store.Close()

	loader := registry.NewCached(store, registry.WithLogger(logger))

	var out io.Writer = os.Stdout
	if config.Output.File != "" {
		f, err := os.Create(config.Output.File)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return Simulate(ctx, config, loader, out, logger)
}

// Simulate builds the forward model described by config from loader and
// writes the requested quantity as CSV rows (set, time, band, value)
func Simulate(ctx context.Context, config *Config, loader registry.Loader, out io.Writer, logger *slog.Logger) error {
	started := time.Now()

	var options []func(*Pipeline)
	options = append(options, WithThreshold(config.Bands.Threshold))
	if c := config.Model.Cosmology; c != nil {
		cosmo, err := cosmology.NewFlatLambdaCDM(c.H0, c.Om0)
		if err != nil {
			return fmt.Errorf("creating cosmology: %w", err)
		}
		options = append(options, WithCosmology(cosmo))
	}

	p := NewPipeline(loader, logger, options...)
	if err := p.LoadSurvey(ctx, config.Observations); err != nil {
		return err
	}
	if config.Model.MagSys.Name != "" {
		if err := p.LoadMagSys(ctx, config.Model.MagSys); err != nil {
			return err
		}
	}
	if err := p.LoadSource(ctx, config.Model.Source, config.Model.Effects); err != nil {
		return err
	}

	schema := p.Source().Schema()
	names := make([]string, len(schema))
	for i, param := range schema {
		names[i] = param.Name
	}
	logger.Info("model configuration",
		slog.String("source", config.Model.Source),
		slog.Int("effects", len(config.Model.Effects)),
		slog.Any("params", names))

	batch := []source.Params{source.Params(config.Model.Params)}
	for _, params := range config.Model.Batch {
		batch = append(batch, source.Params(params))
	}

	values, err := p.EvaluateBatch(config.Output.Quantity, batch)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", config.Output.Quantity, err)
	}

	pts := p.Survey().Field.Points()
	if err = writeCSV(out, config, values); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Info("finished evaluation",
		slog.Group("stats",
			slog.String("quantity", string(config.Output.Quantity)),
			slog.String("observations", humanize.Comma(int64(pts.Len()))),
			slog.String("samples", humanize.Comma(int64(pts.Total()))),
			slog.Int("parameterSets", len(batch)),
			slog.String("elapsed", time.Since(started).Round(time.Microsecond).String()),
		))

	return nil
}

func writeCSV(out io.Writer, config *Config, values [][]float64) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"set", "time", "band", string(config.Output.Quantity)}); err != nil {
		return err
	}

	for set, row := range values {
		for i, o := range config.Observations {
			record := []string{
				strconv.Itoa(set),
				strconv.FormatFloat(o.Time, 'g', -1, 64),
				o.Band,
				strconv.FormatFloat(row[i], 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
