package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "quadcopter", cfg.Topology)
	assert.Equal(t, 5, cfg.Budgets.MaxIterations)
	assert.Equal(t, SourcingCatalog, cfg.Sourcing.Mode)
	assert.Equal(t, filepath.Join(".partforge", "catalog.yaml"), cfg.Sourcing.CatalogPath)
	assert.Equal(t, 2*time.Minute, cfg.Sourcing.Timeout)
	assert.Equal(t, 6, cfg.Sourcing.MaxConcurrent)
	assert.Equal(t, OracleHeuristic, cfg.Oracle.Provider)

	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Topology: "quadruped",
		Budgets:  Budgets{MaxIterations: 3},
		Sourcing: Sourcing{Mode: SourcingHTTP, Endpoint: "http://localhost:9000"},
		Oracle:   Oracle{Provider: OracleGemini},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "quadruped", cfg.Topology)
	assert.Equal(t, 3, cfg.Budgets.MaxIterations)
	assert.Equal(t, SourcingHTTP, cfg.Sourcing.Mode)
	assert.Empty(t, cfg.Sourcing.CatalogPath)
	assert.Equal(t, OracleGemini, cfg.Oracle.Provider)
}

func TestValidate_HTTPRequiresEndpoint(t *testing.T) {
	cfg := Config{
		Budgets:  Budgets{MaxIterations: 5},
		Sourcing: Sourcing{Mode: SourcingHTTP},
		Oracle:   Oracle{Provider: OracleHeuristic},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestValidate_CatalogRequiresPath(t *testing.T) {
	cfg := Config{
		Budgets:  Budgets{MaxIterations: 5},
		Sourcing: Sourcing{Mode: SourcingCatalog},
		Oracle:   Oracle{Provider: OracleHeuristic},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog_path")
}

func TestValidate_UnknownMode(t *testing.T) {
	cfg := Config{
		Budgets:  Budgets{MaxIterations: 5},
		Sourcing: Sourcing{Mode: "carrier-pigeon"},
		Oracle:   Oracle{Provider: OracleHeuristic},
	}
	require.Error(t, cfg.Validate())
}

func TestValidate_UnknownOracle(t *testing.T) {
	cfg := Config{
		Budgets:  Budgets{MaxIterations: 5},
		Sourcing: Sourcing{Mode: SourcingCatalog, CatalogPath: "catalog.yaml"},
		Oracle:   Oracle{Provider: "tarot"},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateSettings_Valid(t *testing.T) {
	settings := map[string]any{
		"topology": "quadcopter",
		"budgets":  map[string]any{"max_iterations": 5},
		"sourcing": map[string]any{
			"mode":         "catalog",
			"catalog_path": "catalog.yaml",
		},
		"oracle": map[string]any{"provider": "heuristic"},
	}
	assert.NoError(t, ValidateSettings(settings))
}

func TestValidateSettings_RejectsUnknownKeys(t *testing.T) {
	err := ValidateSettings(map[string]any{"topologee": "quadcopter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestValidateSettings_RejectsBadEnum(t *testing.T) {
	err := ValidateSettings(map[string]any{
		"sourcing": map[string]any{"mode": "carrier-pigeon"},
	})
	require.Error(t, err)
}

func TestValidateSettings_RejectsZeroIterations(t *testing.T) {
	err := ValidateSettings(map[string]any{
		"budgets": map[string]any{"max_iterations": 0},
	})
	require.Error(t, err)
}
