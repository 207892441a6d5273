// Package sourcing resolves part categories to candidate parts. The
// fan-out engine runs one resolution per category concurrently and
// merges whatever succeeded into a BOM delta; a failed category is
// absent from the delta, never a nil part.
package sourcing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/partforge/partforge/internal/model"
)

// Source materializes one candidate part for a category and query. The
// production implementation sits behind a network boundary (search,
// scrape, attribute extraction) and may be slow or fail; the engine
// treats it as a black box.
type Source interface {
	Resolve(ctx context.Context, category model.Category, query string) (model.Part, error)
}

const defaultHTTPTimeout = 45 * time.Second

// HTTPSource calls an external sourcing service over JSON/HTTP.
type HTTPSource struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPSource constructs an HTTP-backed part source.
func NewHTTPSource(endpoint string) *HTTPSource {
	return &HTTPSource{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Resolve posts {category, query} and decodes the part the service chose.
func (s *HTTPSource) Resolve(ctx context.Context, category model.Category, query string) (model.Part, error) {
	payload, err := json.Marshal(model.CategoryQuery{Category: category, Query: query})
	if err != nil {
		return model.Part{}, fmt.Errorf("marshal sourcing request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.Part{}, fmt.Errorf("build sourcing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return model.Part{}, fmt.Errorf("call sourcing service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Part{}, fmt.Errorf("sourcing service returned %s", resp.Status)
	}

	var part model.Part
	if err := json.NewDecoder(resp.Body).Decode(&part); err != nil {
		return model.Part{}, fmt.Errorf("decode sourced part: %w", err)
	}
	if part.Identity == "" {
		return model.Part{}, fmt.Errorf("sourcing service returned no candidate for %s", category)
	}
	part.Category = category
	if part.Provenance == "" {
		part.Provenance = s.Endpoint
	}
	return part, nil
}
