// Package topology defines the closed category sets and physical
// defaults for each supported hardware archetype.
package topology

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/partforge/partforge/internal/model"
	"gopkg.in/yaml.v3"
)

// Kind selects the physics model used by the numeric validator.
type Kind string

// Supported archetype kinds.
const (
	KindRotor     Kind = "rotor"
	KindQuadruped Kind = "quadruped"
)

// SeedQuery is one initial sourcing request of a topology.
type SeedQuery struct {
	Category string `yaml:"category"`
	Query    string `yaml:"query"`
}

// Topology is one hardware archetype: its closed category set, initial
// sourcing queries, and the physical defaults validators fall back to
// when a sourced part lacks an attribute.
type Topology struct {
	Name            string             `yaml:"name"`
	Kind            Kind               `yaml:"kind"`
	Categories      []string           `yaml:"categories"`
	Seeds           []SeedQuery        `yaml:"seeds"`
	FallbackWeights map[string]float64 `yaml:"fallback_weights"`
	Quantities      map[string]int     `yaml:"quantities"`

	// Rotor archetype defaults.
	MotorCount       int     `yaml:"motor_count,omitempty"`
	DefaultSpanMM    float64 `yaml:"default_span_mm,omitempty"`
	DefaultElementMM float64 `yaml:"default_element_mm,omitempty"`

	// Quadruped archetype defaults.
	LeverArmMM float64 `yaml:"lever_arm_mm,omitempty"`
}

//go:embed topologies.yaml
var builtinYAML []byte

// Load returns the named builtin topology.
func Load(name string) (Topology, error) {
	all, err := loadAll()
	if err != nil {
		return Topology{}, err
	}
	t, ok := all[name]
	if !ok {
		return Topology{}, fmt.Errorf("unknown topology %q (have: %v)", name, names(all))
	}
	return t, nil
}

// Names lists the builtin topology names.
func Names() ([]string, error) {
	all, err := loadAll()
	if err != nil {
		return nil, err
	}
	return names(all), nil
}

func loadAll() (map[string]Topology, error) {
	var doc struct {
		Topologies []Topology `yaml:"topologies"`
	}
	if err := yaml.Unmarshal(builtinYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse builtin topologies: %w", err)
	}
	out := make(map[string]Topology, len(doc.Topologies))
	for _, t := range doc.Topologies {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("topology %q: %w", t.Name, err)
		}
		out[t.Name] = t
	}
	return out, nil
}

func names(all map[string]Topology) []string {
	out := make([]string, 0, len(all))
	for n := range all {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (t Topology) validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.Kind != KindRotor && t.Kind != KindQuadruped {
		return fmt.Errorf("unsupported kind %q", t.Kind)
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("categories are required")
	}
	for _, s := range t.Seeds {
		if !t.Requires(model.Category(s.Category)) {
			return fmt.Errorf("seed category %q not in category set", s.Category)
		}
	}
	return nil
}

// Requires reports whether the category belongs to this topology's
// closed set.
func (t Topology) Requires(c model.Category) bool {
	for _, have := range t.Categories {
		if model.Category(have) == c {
			return true
		}
	}
	return false
}

// SeedQueries returns the initial sourcing requests for a build.
func (t Topology) SeedQueries() []model.CategoryQuery {
	out := make([]model.CategoryQuery, 0, len(t.Seeds))
	for _, s := range t.Seeds {
		out = append(out, model.CategoryQuery{
			Category: model.Category(s.Category),
			Query:    s.Query,
		})
	}
	return out
}

// FallbackWeight returns the conservative default weight in grams for a
// category whose part carries no weight attribute.
func (t Topology) FallbackWeight(c model.Category) float64 {
	if w, ok := t.FallbackWeights[string(c)]; ok {
		return w
	}
	return 0
}

// Quantity returns how many units of a category the assembly uses
// (e.g. four motors on a quadcopter). Defaults to one.
func (t Topology) Quantity(c model.Category) int {
	if q, ok := t.Quantities[string(c)]; ok && q > 0 {
		return q
	}
	return 1
}
