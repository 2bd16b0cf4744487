package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/registry"
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/survey"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testDatasets() []*registry.Dataset {
	phase := []float64{-20, 0, 20, 50}
	wave := []float64{2000, 4000, 6000, 8000, 10000}
	flux := make([]float64, len(phase)*len(wave))
	for i := range flux {
		flux[i] = 1
	}

	return []*registry.Dataset{
		{
			Name: source.DatasetHsiao,
			Arrays: map[string]registry.Array{
				"phase": registry.Vector(phase),
				"wave":  registry.Vector(wave),
				"flux":  registry.Matrix(len(phase), len(wave), flux),
			},
		},
		{
			Name: "bandpasses/g",
			Arrays: map[string]registry.Array{
				"wave":  registry.Vector([]float64{4000, 5000}),
				"trans": registry.Vector([]float64{1, 1}),
			},
		},
		{
			Name: "bandpasses/r",
			Arrays: map[string]registry.Array{
				"wave":  registry.Vector([]float64{5500, 6000, 7000}),
				"trans": registry.Vector([]float64{1, 1, 1}),
			},
		},
	}
}

func testLoader(t *testing.T) registry.Loader {
	t.Helper()
	mem, err := registry.NewMemory(testDatasets()...)
	require.NoError(t, err)
	return mem
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func parseFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}

func TestSimulate_FluxBatch(t *testing.T) {
	config := &Config{
		Model: ModelConfig{
			Source:  "hsiao",
			Effects: []EffectConfig{{Type: EffectPhaseShift}},
			Params:  map[string][]float64{"amplitude": {2}, "t0": {5}},
			Batch:   []ParamSet{{"amplitude": {3}}},
		},
		Observations: []survey.Observation{
			{Time: -5, Band: "g"},
			{Time: 10, Band: "r"},
			{Time: 40, Band: "g"},
		},
		Output: OutputConfig{Quantity: OutputFlux},
	}

	var out bytes.Buffer
	require.NoError(t, Simulate(context.Background(), config, testLoader(t), &out, discard))

	records := readCSV(t, out.Bytes())
	require.Len(t, records, 7)
	assert.Equal(t, []string{"set", "time", "band", "flux"}, records[0])
	assert.Equal(t, []string{"0", "-5", "g"}, records[1][:3])
	assert.Equal(t, []string{"1", "40", "g"}, records[6][:3])

	want := []float64{2000, 3000, 2000, 3000, 4500, 3000}
	for i, w := range want {
		assert.InDelta(t, w, parseFloat(t, records[i+1][3]), 1e-9)
	}
}

func TestSimulate_Calibrated(t *testing.T) {
	config := &Config{
		Model: ModelConfig{
			Source:  "hsiao",
			MagSys:  MagSysConfig{Name: "ab"},
			Effects: []EffectConfig{{Type: EffectDistance}},
			Params:  map[string][]float64{"amplitude": {1e-10}},
		},
		Observations: []survey.Observation{
			{Time: 0, Band: "g", ZPMean: 27.5, Gain: 1, SkySigma: 1, PSF1: 1},
			{Time: 0, Band: "r", ZPMean: 27.5, Gain: 1},
		},
	}

	results := make(map[OutputQuantity][]float64)
	for _, q := range []OutputQuantity{OutputCountsCal, OutputMag, OutputSignal, OutputFluxCal} {
		config.Output.Quantity = q

		var out bytes.Buffer
		require.NoError(t, Simulate(context.Background(), config, testLoader(t), &out, discard), q)

		records := readCSV(t, out.Bytes())
		require.Len(t, records, 3)
		for _, r := range records[1:] {
			results[q] = append(results[q], parseFloat(t, r[3]))
		}
	}

	for i := range 2 {
		countscal := results[OutputCountsCal][i]
		assert.Greater(t, countscal, 0.0)
		assert.InDelta(t, -2.5*math.Log10(countscal), results[OutputMag][i], 1e-9)
	}

	// background of 4π ADU on the first observation only
	assert.InEpsilon(t, results[OutputCountsCal][0]*1e11+4*math.Pi, results[OutputSignal][0], 1e-9)
	assert.InEpsilon(t, results[OutputCountsCal][1]*1e11, results[OutputSignal][1], 1e-9)
}

func TestSimulate_MagSysOffsets(t *testing.T) {
	run := func(offsets map[string]float64) []float64 {
		config := &Config{
			Model: ModelConfig{
				Source:  "hsiao",
				MagSys:  MagSysConfig{Name: "ab", Offsets: offsets},
				Effects: []EffectConfig{{Type: EffectDistance}},
				Params:  map[string][]float64{"amplitude": {1e-10}},
			},
			Observations: []survey.Observation{{Time: 0, Band: "g"}, {Time: 0, Band: "r"}},
			Output:       OutputConfig{Quantity: OutputCountsCal},
		}

		var out bytes.Buffer
		require.NoError(t, Simulate(context.Background(), config, testLoader(t), &out, discard))

		var values []float64
		for _, r := range readCSV(t, out.Bytes())[1:] {
			values = append(values, parseFloat(t, r[3]))
		}
		return values
	}

	plain := run(nil)
	shifted := run(map[string]float64{"g": 0.5})

	require.Len(t, shifted, 2)
	assert.InEpsilon(t, plain[0]*math.Pow(10, -0.2), shifted[0], 1e-9)
	assert.InEpsilon(t, plain[1], shifted[1], 1e-9, "bands without an offset keep the base zero point")
}

func TestSimulate_Errors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Model:        ModelConfig{Source: "hsiao"},
			Observations: []survey.Observation{{Time: 0, Band: "g"}},
			Output:       OutputConfig{Quantity: OutputFlux},
		}
	}

	t.Run("unknown band", func(t *testing.T) {
		c := base()
		c.Observations[0].Band = "i"
		err := Simulate(context.Background(), c, testLoader(t), io.Discard, discard)
		assert.ErrorIs(t, err, errdefs.ErrDataLoad)
	})

	t.Run("missing source data", func(t *testing.T) {
		c := base()
		c.Model.Source = "salt2"
		err := Simulate(context.Background(), c, testLoader(t), io.Discard, discard)
		assert.ErrorIs(t, err, errdefs.ErrDataLoad)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		c := base()
		c.Model.Params = map[string][]float64{"x1": {0}}
		err := Simulate(context.Background(), c, testLoader(t), io.Discard, discard)
		assert.ErrorIs(t, err, errdefs.ErrConfig)
	})

	t.Run("effect parameter collision", func(t *testing.T) {
		c := base()
		c.Model.Effects = []EffectConfig{{Type: EffectRedshift}, {Type: EffectRedshift}}
		err := Simulate(context.Background(), c, testLoader(t), io.Discard, discard)
		assert.ErrorIs(t, err, errdefs.ErrConfig)
	})
}

func TestRun_Sqlite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "registry.sqlite")

	store := registry.NewSqliteStore(dbPath)
	for _, d := range testDatasets() {
		require.NoError(t, store.PutDataset(context.Background(), d))
	}
	require.NoError(t, store.Close())

	config := &Config{
		Registry: RegistryConfig{Path: dbPath},
		Model: ModelConfig{
			Source:  "hsiao",
			Effects: []EffectConfig{{Type: EffectDistance}},
		},
		Observations: []survey.Observation{{Time: 0, Band: "g"}},
		Output:       OutputConfig{Quantity: OutputFlux, File: filepath.Join(dir, "out.csv")},
	}
	require.NoError(t, Run(context.Background(), config, discard))

	config.Registry.Path = filepath.Join(dir, "missing.sqlite")
	assert.Error(t, Run(context.Background(), config, discard))
}
