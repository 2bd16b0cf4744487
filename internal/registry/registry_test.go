package registry

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

func testDataset(name string) *Dataset {
	return &Dataset{
		Name: name,
		Arrays: map[string]Array{
			"phase": Vector([]float64{-10, 0, 10}),
			"wave":  Vector([]float64{4000, 5000}),
			"flux":  Matrix(3, 2, []float64{1, 2, 3, 4, 5, 6.5e-17}),
		},
	}
}

func TestDataset_Accessors(t *testing.T) {
	d := testDataset("sources/test")
	require.NoError(t, d.Validate())

	v, err := d.Vector("wave")
	require.NoError(t, err)
	assert.Equal(t, []float64{4000, 5000}, v)

	m, rows, cols, err := d.Matrix("flux", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Len(t, m, 6)

	_, err = d.Vector("flux")
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)

	_, _, _, err = d.Matrix("flux", 2, 2)
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)

	_, err = d.Array("missing")
	var dlErr *errdefs.DataLoadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, "sources/test", dlErr.Dataset)

	bad := &Dataset{Name: "bad", Arrays: map[string]Array{"x": Matrix(2, 2, []float64{1})}}
	assert.ErrorIs(t, bad.Validate(), errdefs.ErrDataLoad)
}

func TestMemory(t *testing.T) {
	m, err := NewMemory(testDataset("a"), testDataset("b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Names())

	d, err := m.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", d.Name)

	_, err = m.Load(context.Background(), "c")
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)
}

type countingLoader struct {
	inner Loader
	calls atomic.Int32
}

func (l *countingLoader) Load(ctx context.Context, name string) (*Dataset, error) {
	l.calls.Add(1)
	return l.inner.Load(ctx, name)
}

func TestCached_LoadsOnce(t *testing.T) {
	m, err := NewMemory(testDataset("sources/hsiao"))
	require.NoError(t, err)

	counting := &countingLoader{inner: m}
	c := NewCached(counting)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.Load(context.Background(), "sources/hsiao")
			assert.NoError(t, err)
			assert.Equal(t, "sources/hsiao", d.Name)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, counting.calls.Load())
	assert.Equal(t, 1, c.Len())

	_, err = c.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)
	_, err = c.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)
	assert.EqualValues(t, 3, counting.calls.Load())

	c.Flush()
	assert.Equal(t, 0, c.Len())
}

type blockingLoader struct {
	inner   Loader
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (l *blockingLoader) Load(ctx context.Context, name string) (*Dataset, error) {
	l.calls.Add(1)
	l.started <- struct{}{}
	<-l.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.inner.Load(ctx, name)
}

func TestCached_CallerCancellation(t *testing.T) {
	m, err := NewMemory(testDataset("sources/hsiao"))
	require.NoError(t, err)

	loader := &blockingLoader{
		inner:   m,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := NewCached(loader)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, "sources/hsiao")
		errc <- err
	}()

	<-loader.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	// the shared load keeps running after its first caller gave up
	close(loader.release)
	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, time.Millisecond)

	d, err := c.Load(context.Background(), "sources/hsiao")
	require.NoError(t, err)
	assert.Equal(t, "sources/hsiao", d.Name)
	assert.EqualValues(t, 1, loader.calls.Load())
}

func TestSqliteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "registry.sqlite"))
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	for _, name := range []string{"sources/test", "bandpasses/g"} {
		require.NoError(t, store.PutDataset(ctx, testDataset(name)))
	}

	// replacing keeps one copy
	replacement := &Dataset{
		Name:   "bandpasses/g",
		Arrays: map[string]Array{"wave": Vector([]float64{1, 2})},
	}
	require.NoError(t, store.PutDataset(ctx, replacement))

	d, err := store.Load(ctx, "sources/test")
	require.NoError(t, err)
	want := testDataset("sources/test")
	for key, a := range want.Arrays {
		got, err := d.Array(key)
		require.NoError(t, err, key)
		assert.Equal(t, a.Shape, got.Shape, key)
		assert.Equal(t, a.Data, got.Data, key)
	}

	d, err = store.Load(ctx, "bandpasses/g")
	require.NoError(t, err)
	assert.Len(t, d.Arrays, 1)

	_, err = store.Load(ctx, "sources/none")
	assert.ErrorIs(t, err, errdefs.ErrDataLoad)

	infos, err := store.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "bandpasses/g", infos[0].Name)
	assert.Equal(t, "sources/test", infos[1].Name)
	require.Len(t, infos[1].Arrays, 3)
	assert.Equal(t, "flux", infos[1].Arrays[0].Key)
	assert.Equal(t, []int{3, 2}, infos[1].Arrays[0].Shape)
	assert.EqualValues(t, 48, infos[1].Arrays[0].Bytes)
}

func TestFloatBlobs(t *testing.T) {
	values := []float64{0, -1.5, 3.14159, 1e-300, 6.02e23}
	got, err := decodeFloats(encodeFloats(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = decodeFloats(make([]byte, 7))
	assert.Error(t, err)

	shape, err := decodeShape(encodeShape([]int{4, 3, 2}))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 2}, shape)

	_, err = decodeShape("4,x")
	assert.Error(t, err)
}
