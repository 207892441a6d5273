package sourcing

import (
	"context"
	"fmt"
	"time"

	"github.com/partforge/partforge/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ProvenanceAppender receives one append-only audit record per
// successful resolution. Implementations must be safe for concurrent
// use; the engine appends from its worker goroutines.
type ProvenanceAppender interface {
	Append(ctx context.Context, entry model.ProvenanceEntry) error
}

const (
	defaultBatchTimeout  = 2 * time.Minute
	defaultMaxConcurrent = 6
)

// Engine is the sourcing fan-out. Each category in a batch is resolved
// independently and concurrently; one failure never aborts the rest.
type Engine struct {
	src           Source
	cache         *Cache
	prov          ProvenanceAppender
	batchTimeout  time.Duration
	maxConcurrent int
	logger        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache attaches a per-build cache.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithProvenance attaches a provenance appender.
func WithProvenance(p ProvenanceAppender) Option {
	return func(e *Engine) { e.prov = p }
}

// WithBatchTimeout bounds one whole fan-out call.
func WithBatchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.batchTimeout = d
		}
	}
}

// WithMaxConcurrent bounds the worker pool.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrent = n
		}
	}
}

// NewEngine constructs a fan-out engine over a part source.
func NewEngine(logger zerolog.Logger, src Source, opts ...Option) *Engine {
	e := &Engine{
		src:           src,
		batchTimeout:  defaultBatchTimeout,
		maxConcurrent: defaultMaxConcurrent,
		logger:        logger.With().Str("component", "sourcing").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve sources every request concurrently and returns the partial
// BOM delta plus per-category errors. The returned error is non-nil
// only for a contract violation: a batch naming the same category
// twice. A resolution that misses the batch deadline becomes a
// ResolutionError for its category, not a batch failure.
func (e *Engine) Resolve(ctx context.Context, requests []model.CategoryQuery) (model.BOM, []model.ResolutionError, error) {
	seen := make(map[model.Category]bool, len(requests))
	for _, req := range requests {
		if seen[req.Category] {
			return nil, nil, fmt.Errorf("batch names category %s twice", req.Category)
		}
		seen[req.Category] = true
	}

	ctx, cancel := context.WithTimeout(ctx, e.batchTimeout)
	defer cancel()

	type outcome struct {
		part model.Part
		err  *model.ResolutionError
	}
	results := make([]outcome, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i, req := range requests {
		g.Go(func() error {
			part, err := e.resolveOne(ctx, req)
			if err != nil {
				e.logger.Warn().
					Str("category", string(req.Category)).
					Str("query", req.Query).
					Err(err).
					Msg("resolution failed")
				results[i] = outcome{err: &model.ResolutionError{
					Category: req.Category,
					Query:    req.Query,
					Reason:   err.Error(),
				}}
				return nil
			}
			e.logger.Debug().
				Str("category", string(req.Category)).
				Str("identity", part.Identity).
				Msg("resolved part")
			results[i] = outcome{part: part}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	delta := make(model.BOM, len(requests))
	var errs []model.ResolutionError
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, *res.err)
			continue
		}
		delta[res.part.Category] = res.part
	}
	return delta, errs, nil
}

func (e *Engine) resolveOne(ctx context.Context, req model.CategoryQuery) (model.Part, error) {
	if e.cache != nil {
		if part, ok := e.cache.Get(req.Category, req.Query); ok {
			return part, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return model.Part{}, err
	}

	part, err := e.src.Resolve(ctx, req.Category, req.Query)
	if err != nil {
		return model.Part{}, err
	}
	if part.Category == "" {
		part.Category = req.Category
	}

	if e.cache != nil {
		e.cache.Put(req.Category, req.Query, part)
	}
	if e.prov != nil {
		entry := model.ProvenanceEntry{
			Category: req.Category,
			Query:    req.Query,
			Identity: part.Identity,
		}
		if err := e.prov.Append(ctx, entry); err != nil {
			e.logger.Warn().Err(err).Str("category", string(req.Category)).Msg("provenance append failed")
		}
	}
	return part, nil
}
