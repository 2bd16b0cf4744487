package app

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/registry"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr string
	}{
		{
			name: "list",
			args: []string{"-db", "r.sqlite"},
			want: &Config{DBPath: "r.sqlite", Bands: []string{"u", "g", "r", "i", "z"}},
		},
		{
			name: "seed subset",
			args: []string{"-db", "r.sqlite", "-seed-demo", "-bands", "g, r", "-verbose"},
			want: &Config{DBPath: "r.sqlite", SeedDemo: true, Bands: []string{"g", "r"}, Verbose: true},
		},
		{
			name: "describe",
			args: []string{"-db", "r.sqlite", "-name", "bandpasses/g"},
			want: &Config{DBPath: "r.sqlite", Name: "bandpasses/g", Bands: []string{"u", "g", "r", "i", "z"}},
		},
		{
			name:    "no db",
			args:    []string{"-seed-demo"},
			wantErr: "db path is required",
		},
		{
			name:    "unknown band",
			args:    []string{"-db", "r.sqlite", "-bands", "g,y"},
			wantErr: "unknown demo band: y",
		},
		{
			name:    "empty bands",
			args:    []string{"-db", "r.sqlite", "-seed-demo", "-bands", ""},
			wantErr: "no demo bands to seed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("lcdata", flag.ContinueOnError)
			fs.SetOutput(io.Discard)

			got, err := parseFlags(fs, tt.args)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemoBand(t *testing.T) {
	d := DemoBand("g")
	require.NoError(t, d.Validate())

	mem, err := registry.NewMemory(d)
	require.NoError(t, err)

	b, err := bandpass.Load(context.Background(), mem, "g")
	require.NoError(t, err)
	assert.Equal(t, 3950.0, b.MinWave())
	assert.Equal(t, 5550.0, b.MaxWave())

	var integral float64
	for _, w := range b.TransDWave() {
		integral += w
	}
	assert.InDelta(t, 1500+demoStep, integral, 1e-9)

	trimmed, err := bandpass.Load(context.Background(), mem, "g", bandpass.WithThreshold(0.5))
	require.NoError(t, err)
	assert.Equal(t, 4000.0, trimmed.MinWave())
}

func TestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.sqlite")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	err := Run(context.Background(), &Config{DBPath: dbPath}, logger)
	assert.Error(t, err)

	require.NoError(t, Run(context.Background(), &Config{DBPath: dbPath, SeedDemo: true, Bands: []string{"g", "r"}}, logger))
	assert.Contains(t, logs.String(), "seeded demo bands")
	assert.Contains(t, logs.String(), "msg=bandpasses/g")
	assert.Contains(t, logs.String(), "msg=bandpasses/r")
	assert.Contains(t, logs.String(), "datasets=2")

	logs.Reset()
	require.NoError(t, Run(context.Background(), &Config{DBPath: dbPath, Name: "bandpasses/r"}, logger))
	assert.Contains(t, logs.String(), "msg=bandpasses/r/trans")
	assert.Contains(t, logs.String(), "msg=bandpasses/r/wave")
	assert.Contains(t, logs.String(), "values=33")

	err = Run(context.Background(), &Config{DBPath: dbPath, Name: "bandpasses/z"}, logger)
	assert.Error(t, err)
}
