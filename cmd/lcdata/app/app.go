package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/lcsim/internal/registry"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if !config.SeedDemo {
		if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
			return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
		}
	}

	store := registry.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.SeedDemo {
		if err := seedDemo(ctx, store, config.Bands, logger); err != nil {
			return err
		}
	}

	if config.Name != "" {
		return describeDataset(ctx, store, config.Name, logger)
	}
	return listDatasets(ctx, store, logger)
}

func seedDemo(ctx context.Context, store *registry.SqliteStore, bands []string, logger *slog.Logger) error {
	for _, name := range bands {
		d := DemoBand(name)
		if err := store.PutDataset(ctx, d); err != nil {
			return fmt.Errorf("seeding band '%s': %w", name, err)
		}
		logger.Debug("seeded demo band", slog.String("dataset", d.Name))
	}

	logger.Info("seeded demo bands", slog.Any("bands", bands))
	return nil
}

func listDatasets(ctx context.Context, store *registry.SqliteStore, logger *slog.Logger) error {
	datasets, err := store.Datasets(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, d := range datasets {
		var size int64
		attrs := make([]any, 0, len(d.Arrays))
		for _, a := range d.Arrays {
			size += a.Bytes
			attrs = append(attrs, slog.String(a.Key, fmt.Sprintf("%v", a.Shape)))
		}
		total += size

		logger.Info(d.Name,
			slog.String("created", d.CreatedAt.Local().Format(time.DateTime)),
			slog.String("size", humanize.Bytes(uint64(size))),
			slog.Group("arrays", attrs...))
	}

	logger.Info("registry summary",
		slog.String("datasets", humanize.Comma(int64(len(datasets)))),
		slog.String("size", humanize.Bytes(uint64(total))))
	return nil
}

func describeDataset(ctx context.Context, store *registry.SqliteStore, name string, logger *slog.Logger) error {
	d, err := store.Load(ctx, name)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(d.Arrays))
	for key := range d.Arrays {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		a := d.Arrays[key]
		attrs := []any{
			slog.String("shape", fmt.Sprintf("%v", a.Shape)),
			slog.String("values", humanize.Comma(int64(a.Size()))),
		}
		if len(a.Data) > 0 {
			attrs = append(attrs,
				slog.String("min", humanize.SIWithDigits(slices.Min(a.Data), 3, "")),
				slog.String("max", humanize.SIWithDigits(slices.Max(a.Data), 3, "")))
		}
		logger.Info(name+"/"+key, attrs...)
	}
	return nil
}
