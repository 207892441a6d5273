package repair

import (
	"context"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
	"github.com/rs/zerolog"
)

// Planner mediates between the controller and the oracle. It owns two
// defensive invariants regardless of oracle behavior: directives naming
// a category outside the topology are dropped, and an empty (or
// failed) diagnosis yields a nil plan so the controller aborts instead
// of looping.
type Planner struct {
	topo   topology.Topology
	oracle Oracle
	logger zerolog.Logger
}

// NewPlanner constructs a repair planner over an oracle.
func NewPlanner(logger zerolog.Logger, topo topology.Topology, oracle Oracle) *Planner {
	return &Planner{
		topo:   topo,
		oracle: oracle,
		logger: logger.With().Str("component", "repair").Logger(),
	}
}

// Propose asks the oracle for replacements and filters the result. A
// nil return means no repair is proposable: the oracle errored, returned
// nothing, or every directive named an unknown category.
func (p *Planner) Propose(ctx context.Context, bom model.BOM, report model.ValidationReport) *model.RepairPlan {
	if p.oracle == nil {
		return nil
	}

	plan, err := p.oracle.Diagnose(ctx, Summarize(p.topo, bom), report)
	if err != nil {
		p.logger.Warn().Err(err).Str("kind", string(report.Kind)).Msg("oracle diagnosis failed")
		return nil
	}
	if plan == nil {
		return nil
	}

	kept := plan.Directives[:0:0]
	for _, d := range plan.Directives {
		if !p.topo.Requires(d.Category) {
			p.logger.Warn().
				Str("category", string(d.Category)).
				Str("new_query", d.NewQuery).
				Msg("dropping directive for unknown category")
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		return nil
	}

	return &model.RepairPlan{Diagnosis: plan.Diagnosis, Directives: kept}
}
