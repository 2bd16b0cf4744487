package cosmology

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/units"
)

func TestFlatLambdaCDM_EinsteinDeSitter(t *testing.T) {
	// Om0 = 1 has the closed form D_C = 2·c/H0·(1 - 1/sqrt(1+z))
	c, err := NewFlatLambdaCDM(70, 1)
	require.NoError(t, err)

	for _, z := range []float64{0.01, 0.1, 0.5, 2} {
		want := 2 * c.HubbleDistance() * (1 - 1/math.Sqrt(1+z))
		got, err := c.ComovingTransverseDistance(z).In(units.Megaparsec)
		require.NoError(t, err)
		assert.InEpsilon(t, want, got[0], 1e-9, "z=%g", z)
	}
}

func TestFlatLambdaCDM_DeSitter(t *testing.T) {
	// Om0 = 0 has D_C = c/H0·z
	c, err := NewFlatLambdaCDM(70, 0)
	require.NoError(t, err)

	got, err := c.ComovingTransverseDistance(0.3).In(units.Megaparsec)
	require.NoError(t, err)
	assert.InEpsilon(t, c.HubbleDistance()*0.3, got[0], 1e-12)
}

func TestFlatLambdaCDM_DistanceModulus(t *testing.T) {
	// Planck18 at z=0.1 gives about 38.39 mag
	assert.InDelta(t, 38.387, Planck18.DistanceModulus(0.1), 0.005)
	assert.Equal(t, 0.0, Planck18.ComovingTransverseDistance(0).At(0))
}

func TestNewFlatLambdaCDM_Validation(t *testing.T) {
	_, err := NewFlatLambdaCDM(0, 0.3)
	assert.ErrorIs(t, err, errdefs.ErrConfig)

	_, err = NewFlatLambdaCDM(70, 1.5)
	assert.ErrorIs(t, err, errdefs.ErrConfig)
}
