// Package config provides configuration loading and validation for
// partforge.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Topology   string     `json:"topology"             mapstructure:"topology"`
	Budgets    Budgets    `json:"budgets"              mapstructure:"budgets"`
	Thresholds Thresholds `json:"thresholds,omitempty" mapstructure:"thresholds"`
	Sourcing   Sourcing   `json:"sourcing"             mapstructure:"sourcing"`
	Oracle     Oracle     `json:"oracle"               mapstructure:"oracle"`
	Compiler   Compiler   `json:"compiler,omitempty"   mapstructure:"compiler"`
}

// Budgets defines build limits.
type Budgets struct {
	MaxIterations int `json:"max_iterations" mapstructure:"max_iterations"`
}

// Thresholds overrides the validator gate constants.
type Thresholds struct {
	MinMargin      float64 `json:"min_margin,omitempty"       mapstructure:"min_margin"`
	MinClearanceMM float64 `json:"min_clearance_mm,omitempty" mapstructure:"min_clearance_mm"`
}

// Sourcing selects and tunes the part source.
type Sourcing struct {
	Mode          string        `json:"mode"                   mapstructure:"mode"`
	Endpoint      string        `json:"endpoint,omitempty"     mapstructure:"endpoint"`
	CatalogPath   string        `json:"catalog_path,omitempty" mapstructure:"catalog_path"`
	Timeout       time.Duration `json:"timeout,omitempty"      mapstructure:"timeout"`
	MaxConcurrent int           `json:"max_concurrent,omitempty" mapstructure:"max_concurrent"`
}

// Oracle selects the repair oracle backend.
type Oracle struct {
	Provider  string `json:"provider"              mapstructure:"provider"`
	Model     string `json:"model,omitempty"       mapstructure:"model"`
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BaseURL   string `json:"base_url,omitempty"    mapstructure:"base_url"`
}

// Compiler configures the external geometry compiler command.
type Compiler struct {
	Cmd []string `json:"cmd,omitempty" mapstructure:"cmd"`
}

// Sourcing modes.
const (
	SourcingHTTP    = "http"
	SourcingCatalog = "catalog"
)

// Oracle providers.
const (
	OracleHeuristic = "heuristic"
	OracleGemini    = "gemini"
	OracleOpenAI    = "openai"
)

// ApplyDefaults fills unset fields with working defaults.
func (c *Config) ApplyDefaults() {
	if c.Topology == "" {
		c.Topology = "quadcopter"
	}
	if c.Budgets.MaxIterations <= 0 {
		c.Budgets.MaxIterations = 5
	}
	if c.Sourcing.Mode == "" {
		c.Sourcing.Mode = SourcingCatalog
	}
	if c.Sourcing.Mode == SourcingCatalog && c.Sourcing.CatalogPath == "" {
		c.Sourcing.CatalogPath = filepath.Join(".partforge", "catalog.yaml")
	}
	if c.Sourcing.Timeout <= 0 {
		c.Sourcing.Timeout = 2 * time.Minute
	}
	if c.Sourcing.MaxConcurrent <= 0 {
		c.Sourcing.MaxConcurrent = 6
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = OracleHeuristic
	}
}

// Validate checks cross-field constraints the schema cannot express.
func (c Config) Validate() error {
	if c.Budgets.MaxIterations <= 0 {
		return fmt.Errorf("budgets.max_iterations must be > 0")
	}
	switch c.Sourcing.Mode {
	case SourcingHTTP:
		if c.Sourcing.Endpoint == "" {
			return fmt.Errorf("sourcing.endpoint is required for http mode")
		}
	case SourcingCatalog:
		if c.Sourcing.CatalogPath == "" {
			return fmt.Errorf("sourcing.catalog_path is required for catalog mode")
		}
	default:
		return fmt.Errorf("unknown sourcing.mode %q", c.Sourcing.Mode)
	}
	switch c.Oracle.Provider {
	case OracleHeuristic, OracleGemini, OracleOpenAI:
	default:
		return fmt.Errorf("unknown oracle.provider %q", c.Oracle.Provider)
	}
	return nil
}
