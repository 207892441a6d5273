// Package controller drives the design-validate-repair loop: it owns
// the retry budget, the running BOM snapshot, and the decision of which
// gate to run next.
package controller

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/partforge/partforge/internal/geometry"
	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
	"github.com/rs/zerolog"
)

// DefaultMaxIterations bounds the repair loop when the config is silent.
const DefaultMaxIterations = 5

// Engine is the sourcing fan-out consumed by the controller.
type Engine interface {
	Resolve(ctx context.Context, requests []model.CategoryQuery) (model.BOM, []model.ResolutionError, error)
}

// Validator is one feasibility gate.
type Validator interface {
	Validate(bom model.BOM) model.ValidationReport
}

// Planner proposes part replacements for a failed gate. A nil plan
// means no repair is proposable.
type Planner interface {
	Propose(ctx context.Context, bom model.BOM, report model.ValidationReport) *model.RepairPlan
}

// phase is the controller's current position in the state machine.
type phase int

const (
	phaseSourcing phase = iota
	phaseValidateNumeric
	phaseValidateGeometric
	phaseRepairing
)

// NewBuildID mints a timestamped build identifier.
func NewBuildID() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate build id: %w", err)
	}
	ts := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s", ts, hex.EncodeToString(buf)), nil
}

// Controller executes one build request. It is strictly sequential:
// one iteration, one validation pass, and one repair proposal are in
// flight at a time; only the engine fans out internally.
type Controller struct {
	topo          topology.Topology
	engine        Engine
	numeric       Validator
	geometric     Validator
	planner       Planner
	compiler      geometry.Compiler
	maxIterations int
	buildID       string
	logger        zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxIterations overrides the retry budget.
func WithMaxIterations(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithCompiler attaches the geometry compiler invoked on convergence.
func WithCompiler(comp geometry.Compiler) Option {
	return func(c *Controller) { c.compiler = comp }
}

// WithBuildID uses a pre-minted build id, e.g. one already reserved in
// the store.
func WithBuildID(id string) Option {
	return func(c *Controller) { c.buildID = id }
}

// New constructs a controller for one topology.
func New(logger zerolog.Logger, topo topology.Topology, engine Engine, numeric, geometric Validator, planner Planner, opts ...Option) *Controller {
	c := &Controller{
		topo:          topo,
		engine:        engine,
		numeric:       numeric,
		geometric:     geometric,
		planner:       planner,
		maxIterations: DefaultMaxIterations,
		logger:        logger.With().Str("component", "controller").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the state machine to a terminal outcome. The returned
// error is non-nil only for contract violations (a malformed sourcing
// batch); every pipeline failure lands in the result's Outcome instead.
func (c *Controller) Run(ctx context.Context) (model.BuildResult, error) {
	buildID := c.buildID
	if buildID == "" {
		var err error
		if buildID, err = NewBuildID(); err != nil {
			return model.BuildResult{}, err
		}
	}
	startedAt := time.Now()

	state := model.IterationState{Iteration: 1, BOM: model.BOM{}}
	pending := c.topo.SeedQueries()
	result := model.BuildResult{
		BuildID:  buildID,
		Topology: c.topo.Name,
	}

	// Directives that produced the pending batch; empty for iteration 1.
	var applied []model.ReplacementDirective
	var diagnosis string
	var record model.IterationRecord
	var failed model.ValidationReport

	c.logger.Info().
		Str("build_id", buildID).
		Str("topology", c.topo.Name).
		Int("max_iterations", c.maxIterations).
		Msg("build started")

	ph := phaseSourcing
	for !state.Terminal {
		switch ph {
		case phaseSourcing:
			delta, errs, err := c.engine.Resolve(ctx, pending)
			if err != nil {
				return result, fmt.Errorf("sourcing batch: %w", err)
			}
			next := state.BOM.Clone()
			next.Merge(delta)
			state.BOM = next
			record = model.IterationRecord{
				Iteration: state.Iteration,
				Applied:   applied,
				Errors:    errs,
				Diagnosis: diagnosis,
			}
			c.logger.Info().
				Int("iteration", state.Iteration).
				Int("resolved", len(delta)).
				Int("failed", len(errs)).
				Msg("sourcing complete")
			ph = phaseValidateNumeric

		case phaseValidateNumeric:
			report := c.numeric.Validate(state.BOM)
			record.Numeric = &report
			state.LastReport = &report
			c.logReport(state.Iteration, report)
			if report.Passed() {
				ph = phaseValidateGeometric
				continue
			}
			failed = report
			ph = phaseRepairing

		case phaseValidateGeometric:
			report := c.geometric.Validate(state.BOM)
			record.Geometric = &report
			state.LastReport = &report
			c.logReport(state.Iteration, report)
			if report.Passed() {
				result.History = append(result.History, record)
				state.Terminal = true
				state.Outcome = model.OutcomeConverged
				continue
			}
			failed = report
			ph = phaseRepairing

		case phaseRepairing:
			result.History = append(result.History, record)
			if state.Iteration >= c.maxIterations {
				// Budget spent; keep the last BOM and reports for the caller.
				state.Terminal = true
				state.Outcome = model.OutcomeExhausted
				continue
			}
			plan := c.planner.Propose(ctx, state.BOM, failed)
			if plan == nil || len(plan.Directives) == 0 {
				state.Terminal = true
				state.Outcome = model.OutcomeAborted
				continue
			}
			pending = pending[:0]
			for _, d := range plan.Directives {
				pending = append(pending, model.CategoryQuery{
					Category: d.Category,
					Query:    d.NewQuery,
				})
			}
			applied = plan.Directives
			diagnosis = plan.Diagnosis
			state.Iteration++
			c.logger.Info().
				Int("iteration", state.Iteration).
				Int("replacements", len(applied)).
				Str("diagnosis", plan.Diagnosis).
				Msg("repair accepted")
			ph = phaseSourcing
		}
	}

	result.Outcome = state.Outcome
	result.FinalBOM = state.BOM
	result.Iterations = state.Iteration

	if state.Outcome == model.OutcomeConverged && c.compiler != nil {
		asset, err := c.compiler.Compile(ctx, geometry.SpecFromBOM(c.topo, state.BOM))
		if err != nil {
			// The design itself is converged; a compile failure is an
			// artifact problem, not a design problem.
			c.logger.Warn().Err(err).Msg("geometry compile failed")
		} else {
			result.AssetPath = asset.Path
		}
	}

	c.logger.Info().
		Str("build_id", buildID).
		Str("outcome", string(state.Outcome)).
		Int("iterations", state.Iteration).
		Dur("duration", time.Since(startedAt)).
		Msg("build finished")
	return result, nil
}

func (c *Controller) logReport(iteration int, report model.ValidationReport) {
	ev := c.logger.Info()
	if !report.Passed() {
		ev = c.logger.Warn()
	}
	ev.Int("iteration", iteration).
		Str("gate", string(report.Kind)).
		Str("status", string(report.Status)).
		Msg("gate evaluated")
}

