package instrument

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/units"
)

func TestSignal(t *testing.T) {
	tests := []struct {
		name       string
		countscal  []float64
		zpMag      []float64
		background units.Quantity
		gain       units.Quantity
		want       []float64
		wantErr    error
	}{
		{
			name:       "shared zero point and gain",
			countscal:  []float64{1, 2},
			zpMag:      []float64{5},
			background: units.New([]float64{100, 200}, units.ADU),
			gain:       units.Scalar(2, Gain),
			want:       []float64{50 + 50, 100 + 100},
		},
		{
			name:       "per observation zero points",
			countscal:  []float64{1, 1},
			zpMag:      []float64{0, 2.5},
			background: units.Scalar(0, units.ADU),
			gain:       units.New([]float64{1, 0.5}, Gain),
			want:       []float64{1, 20},
		},
		{
			name:       "background in electrons",
			countscal:  []float64{1},
			zpMag:      []float64{0},
			background: units.Scalar(1, units.Electron),
			gain:       units.Scalar(1, Gain),
			wantErr:    errdefs.ErrUnitMismatch,
		},
		{
			name:       "gain inverted",
			countscal:  []float64{1},
			zpMag:      []float64{0},
			background: units.Scalar(1, units.ADU),
			gain:       units.Scalar(1, units.Electron.Div(units.ADU)),
			wantErr:    errdefs.ErrUnitMismatch,
		},
		{
			name:       "misaligned zero points",
			countscal:  []float64{1, 2, 3},
			zpMag:      []float64{0, 1},
			background: units.Scalar(1, units.ADU),
			gain:       units.Scalar(1, Gain),
			wantErr:    errdefs.ErrConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Signal(tt.countscal, tt.zpMag, tt.background, tt.gain)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestPSFToArea(t *testing.T) {
	psf := units.New([]float64{1.5, 2, 3}, LinearPixel)

	t.Run("single component", func(t *testing.T) {
		area, err := PSFToArea(psf, units.Quantity{}, nil)
		require.NoError(t, err)

		got, err := area.In(units.Pixel)
		require.NoError(t, err)
		for i, a := range []float64{1.5, 2, 3} {
			assert.InDelta(t, 4*math.Pi*a*a, got[i], 1e-12)
		}
	})

	t.Run("zero ratio ignores secondary", func(t *testing.T) {
		area, err := PSFToArea(psf, units.Scalar(7, LinearPixel), []float64{0})
		require.NoError(t, err)
		assert.InDelta(t, 4*math.Pi*9, area.At(2), 1e-12)
	})

	t.Run("equal components", func(t *testing.T) {
		area, err := PSFToArea(psf, psf, []float64{1})
		require.NoError(t, err)
		assert.InDelta(t, 4*math.Pi*4, area.At(1), 1e-12)
	})

	t.Run("mixed components", func(t *testing.T) {
		a, b, r := 2.0, 4.0, 0.1
		area, err := PSFToArea(units.Scalar(a, LinearPixel), units.Scalar(b, LinearPixel), []float64{r})
		require.NoError(t, err)

		a2, b2 := a*a, b*b
		want := 4 * math.Pi * (a2 + b2) * math.Pow(a2+r*b2, 2) / ((r*r*b2+a2)*(a2+b2) + 4*r*a2*b2)
		assert.InDelta(t, want, area.At(0), 1e-12)
		assert.Greater(t, area.At(0), 4*math.Pi*a2)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := PSFToArea(psf, units.Scalar(1, units.Meter), nil)
		assert.ErrorIs(t, err, errdefs.ErrUnitMismatch)

		_, err = PSFToArea(psf, units.New([]float64{1, 2}, LinearPixel), nil)
		assert.ErrorIs(t, err, errdefs.ErrConfig)

		_, err = PSFToArea(psf, units.Quantity{}, []float64{0, 1})
		assert.ErrorIs(t, err, errdefs.ErrConfig)
	})
}

func TestFWHMToArea(t *testing.T) {
	area := FWHMToArea(units.Scalar(2, LinearPixel))
	assert.InDelta(t, math.Pi/math.Ln2, area.At(0), 1e-12)
	assert.True(t, area.Unit().SameDimension(units.Pixel))
}
