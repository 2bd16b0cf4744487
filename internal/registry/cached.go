package registry

import (
	"context"
	"io"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// WithLogger sets the logger for the cached loader
func WithLogger(logger *slog.Logger) func(c *Cached) {
	return func(c *Cached) {
		c.logger = logger.With(slog.String("component", "registry"))
	}
}

// Cached memoizes datasets of an underlying Loader for the process lifetime.
// Concurrent first loads of the same name share a single call to the
// underlying loader. Failed loads are not cached.
type Cached struct {
	loader Loader
	cache  *cache.Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewCached wraps loader with a dataset cache and a discard logger
func NewCached(loader Loader, options ...func(c *Cached)) *Cached {
	c := Cached{
		loader: loader,
		cache:  cache.New(cache.NoExpiration, 0),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Load returns the cached dataset or loads it. The shared load is detached from
// the cancellation of the caller that started it; each caller still stops
// waiting when its own ctx is done.
func (c *Cached) Load(ctx context.Context, name string) (*Dataset, error) {
	if d, found := c.cache.Get(name); found {
		return d.(*Dataset), nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		if d, found := c.cache.Get(name); found {
			return d, nil
		}

		d, err := c.loader.Load(loadCtx, name)
		if err != nil {
			c.logger.Error("loading dataset", slog.String("dataset", name), slog.String("error", err.Error()))
			return nil, err
		}

		c.logger.Debug("dataset loaded", slog.String("dataset", name), slog.Int("arrays", len(d.Arrays)))
		c.cache.Set(name, d, cache.NoExpiration)
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Len returns the number of cached datasets
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

// Flush drops every cached dataset
func (c *Cached) Flush() {
	c.cache.Flush()
}
