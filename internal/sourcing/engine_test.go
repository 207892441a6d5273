package sourcing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/partforge/partforge/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    int32
	fail     map[model.Category]string
	block    bool
	resolved []model.CategoryQuery
}

func (s *fakeSource) Resolve(ctx context.Context, category model.Category, query string) (model.Part, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block {
		<-ctx.Done()
		return model.Part{}, ctx.Err()
	}
	if reason, ok := s.fail[category]; ok {
		return model.Part{}, fmt.Errorf("%s", reason)
	}
	s.mu.Lock()
	s.resolved = append(s.resolved, model.CategoryQuery{Category: category, Query: query})
	s.mu.Unlock()
	return model.Part{
		Category: category,
		Identity: "part-for-" + string(category),
	}, nil
}

type memProvenance struct {
	mu      sync.Mutex
	entries []model.ProvenanceEntry
}

func (p *memProvenance) Append(_ context.Context, entry model.ProvenanceEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return nil
}

func batch(categories ...model.Category) []model.CategoryQuery {
	out := make([]model.CategoryQuery, 0, len(categories))
	for _, c := range categories {
		out = append(out, model.CategoryQuery{Category: c, Query: "query for " + string(c)})
	}
	return out
}

func TestEngine_ResolvesBatch(t *testing.T) {
	src := &fakeSource{}
	prov := &memProvenance{}
	engine := NewEngine(zerolog.Nop(), src, WithProvenance(prov))

	delta, errs, err := engine.Resolve(context.Background(), batch("Propulsion.Motor", "Frame", "Power.Battery"))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, delta, 3)
	assert.Equal(t, "part-for-Frame", delta["Frame"].Identity)
	assert.Len(t, prov.entries, 3)
}

func TestEngine_PartialFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{fail: map[model.Category]string{"Frame": "no candidates"}}
	engine := NewEngine(zerolog.Nop(), src)

	delta, errs, err := engine.Resolve(context.Background(), batch("Propulsion.Motor", "Frame"))
	require.NoError(t, err)

	require.Len(t, errs, 1)
	assert.Equal(t, model.Category("Frame"), errs[0].Category)
	assert.Equal(t, "no candidates", errs[0].Reason)

	require.Len(t, delta, 1)
	_, hasFrame := delta["Frame"]
	assert.False(t, hasFrame, "failed category must be absent, never a zero part")
}

func TestEngine_DuplicateCategoryIsContractViolation(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), &fakeSource{})

	reqs := []model.CategoryQuery{
		{Category: "Frame", Query: "a"},
		{Category: "Frame", Query: "b"},
	}
	_, _, err := engine.Resolve(context.Background(), reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twice")
}

func TestEngine_TimeoutBecomesResolutionError(t *testing.T) {
	src := &fakeSource{block: true}
	engine := NewEngine(zerolog.Nop(), src, WithBatchTimeout(50*time.Millisecond))

	delta, errs, err := engine.Resolve(context.Background(), batch("Frame"))
	require.NoError(t, err)
	assert.Empty(t, delta)
	require.Len(t, errs, 1)
	assert.Equal(t, model.Category("Frame"), errs[0].Category)
}

func TestEngine_CacheSkipsRepeatLookups(t *testing.T) {
	src := &fakeSource{}
	engine := NewEngine(zerolog.Nop(), src, WithCache(NewCache()))

	_, _, err := engine.Resolve(context.Background(), batch("Frame"))
	require.NoError(t, err)
	_, _, err = engine.Resolve(context.Background(), batch("Frame"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestEngine_CacheMissesOnNewQuery(t *testing.T) {
	src := &fakeSource{}
	engine := NewEngine(zerolog.Nop(), src, WithCache(NewCache()))

	_, _, err := engine.Resolve(context.Background(), []model.CategoryQuery{{Category: "Frame", Query: "a"}})
	require.NoError(t, err)
	_, _, err = engine.Resolve(context.Background(), []model.CategoryQuery{{Category: "Frame", Query: "b"}})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))
}

func TestEngine_ConcurrentProvenanceAppends(t *testing.T) {
	src := &fakeSource{}
	prov := &memProvenance{}
	engine := NewEngine(zerolog.Nop(), src, WithProvenance(prov), WithMaxConcurrent(8))

	categories := make([]model.CategoryQuery, 0, 16)
	for i := 0; i < 16; i++ {
		categories = append(categories, model.CategoryQuery{
			Category: model.Category(fmt.Sprintf("Cat.%02d", i)),
			Query:    "q",
		})
	}
	delta, errs, err := engine.Resolve(context.Background(), categories)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Len(t, delta, 16)
	assert.Len(t, prov.entries, 16)
}

func TestCache_RoundTrip(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("Frame", "q")
	assert.False(t, ok)

	c.Put("Frame", "q", model.Part{Category: "Frame", Identity: "frame-a"})
	p, ok := c.Get("Frame", "q")
	require.True(t, ok)
	assert.Equal(t, "frame-a", p.Identity)

	// Same category under a different query is a distinct key.
	_, ok = c.Get("Frame", "other")
	assert.False(t, ok)
}
