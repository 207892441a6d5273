package sourcing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/partforge/partforge/internal/model"
	"gopkg.in/yaml.v3"
)

// CatalogEntry is one offline part listing.
type CatalogEntry struct {
	Category   string         `yaml:"category"`
	Identity   string         `yaml:"identity"`
	Keywords   []string       `yaml:"keywords,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
	Price      *float64       `yaml:"price,omitempty"`
}

// CatalogSource resolves parts from a local YAML catalog instead of the
// network. Used for offline builds and tests.
type CatalogSource struct {
	entries []CatalogEntry
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*CatalogSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog YAML.
func ParseCatalog(data []byte) (*CatalogSource, error) {
	var doc struct {
		Parts []CatalogEntry `yaml:"parts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &CatalogSource{entries: doc.Parts}, nil
}

// Resolve picks the catalog entry for the category whose keywords best
// match the query. Zero matching entries is a resolution failure.
func (s *CatalogSource) Resolve(_ context.Context, category model.Category, query string) (model.Part, error) {
	q := strings.ToLower(query)
	var best *CatalogEntry
	bestScore := -1
	for i := range s.entries {
		e := &s.entries[i]
		if model.Category(e.Category) != category {
			continue
		}
		score := 0
		for _, kw := range e.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best = e
			bestScore = score
		}
	}
	if best == nil {
		return model.Part{}, fmt.Errorf("no catalog entry for category %s", category)
	}

	attrs := make(model.Attributes, len(best.Attributes))
	for k, v := range best.Attributes {
		// YAML integers arrive as int; validators read float64.
		if n, ok := v.(int); ok {
			attrs[k] = float64(n)
		} else {
			attrs[k] = v
		}
	}
	return model.Part{
		Category:   category,
		Identity:   best.Identity,
		Attributes: attrs,
		Price:      best.Price,
		Provenance: "catalog",
	}, nil
}
