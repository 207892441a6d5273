package topology

import (
	"testing"

	"github.com/partforge/partforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Quadcopter(t *testing.T) {
	topo, err := Load("quadcopter")
	require.NoError(t, err)

	assert.Equal(t, KindRotor, topo.Kind)
	assert.Equal(t, 4, topo.MotorCount)
	assert.Equal(t, 225.0, topo.DefaultSpanMM)
	assert.Equal(t, 127.0, topo.DefaultElementMM)
	assert.Len(t, topo.Categories, 6)
	assert.True(t, topo.Requires("Propulsion.Motor"))
	assert.True(t, topo.Requires("Sensor.Camera"))
	assert.False(t, topo.Requires("Sensor.Lidar"))
}

func TestLoad_Quadruped(t *testing.T) {
	topo, err := Load("quadruped")
	require.NoError(t, err)

	assert.Equal(t, KindQuadruped, topo.Kind)
	assert.Equal(t, 100.0, topo.LeverArmMM)
	assert.Equal(t, 12, topo.Quantity("Propulsion.Actuator"))
	assert.Equal(t, 450.0, topo.FallbackWeight("Frame.Chassis"))
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("hexapod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown topology")
}

func TestNames(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"quadcopter", "quadruped"}, names)
}

func TestSeedQueries_CoverAllCategories(t *testing.T) {
	for _, name := range []string{"quadcopter", "quadruped"} {
		topo, err := Load(name)
		require.NoError(t, err)

		seeds := topo.SeedQueries()
		require.Len(t, seeds, len(topo.Categories))
		seen := map[model.Category]bool{}
		for _, q := range seeds {
			assert.True(t, topo.Requires(q.Category))
			assert.NotEmpty(t, q.Query)
			assert.False(t, seen[q.Category], "duplicate seed for %s", q.Category)
			seen[q.Category] = true
		}
	}
}

func TestQuantity_DefaultsToOne(t *testing.T) {
	topo, err := Load("quadcopter")
	require.NoError(t, err)

	assert.Equal(t, 4, topo.Quantity("Propulsion.Motor"))
	assert.Equal(t, 1, topo.Quantity("Frame"))
	assert.Equal(t, 1, topo.Quantity("Not.A.Category"))
}

func TestFallbackWeight_UnknownCategoryIsZero(t *testing.T) {
	topo, err := Load("quadcopter")
	require.NoError(t, err)
	assert.Equal(t, 0.0, topo.FallbackWeight("Not.A.Category"))
}
