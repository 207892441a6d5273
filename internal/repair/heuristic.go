package repair

import (
	"context"
	"fmt"
	"math"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
)

// HeuristicOracle is a rule-based fallback oracle for offline builds:
// underpowered designs get a stronger propulsion part, colliding
// designs get a smaller moving element or a wider frame. It never
// consults the network.
type HeuristicOracle struct {
	topo topology.Topology
}

// NewHeuristicOracle constructs the rule-based oracle.
func NewHeuristicOracle(topo topology.Topology) *HeuristicOracle {
	return &HeuristicOracle{topo: topo}
}

// Diagnose applies fixed engineering rules to the failed report.
func (o *HeuristicOracle) Diagnose(_ context.Context, _ Summary, report model.ValidationReport) (*model.RepairPlan, error) {
	switch report.Kind {
	case model.KindNumeric:
		return o.repairNumeric(report), nil
	case model.KindGeometric:
		return o.repairGeometric(report), nil
	}
	return &model.RepairPlan{Diagnosis: "unrecognized report kind"}, nil
}

func (o *HeuristicOracle) repairNumeric(report model.ValidationReport) *model.RepairPlan {
	margin := report.Metrics["margin"]
	requirement := report.Metrics["requirement"]

	plan := &model.RepairPlan{
		Diagnosis: fmt.Sprintf("load margin %.2f is insufficient; propulsion must be upgraded", margin),
	}

	if o.topo.Kind == topology.KindQuadruped {
		// Target 1.5x the static requirement so the upgrade clears the
		// gate with headroom.
		target := math.Ceil(requirement * 1.5)
		plan.Directives = append(plan.Directives, model.ReplacementDirective{
			Category: "Propulsion.Actuator",
			NewQuery: fmt.Sprintf("serial bus servo %.0fkg.cm stall torque", target),
			Reason:   fmt.Sprintf("available torque covers only %.2fx of the required %.1fkg.cm", margin, requirement),
		})
		return plan
	}

	count := o.topo.MotorCount
	if count <= 0 {
		count = 4
	}
	perMotor := math.Ceil(requirement * 1.5 / float64(count) / 50.0) * 50.0
	plan.Directives = append(plan.Directives, model.ReplacementDirective{
		Category: "Propulsion.Motor",
		NewQuery: fmt.Sprintf("brushless FPV motor %.0fg thrust per motor", perMotor),
		Reason:   fmt.Sprintf("thrust-to-weight %.2f requires roughly %.0fg per motor", margin, perMotor),
	})
	if margin < 1.0 {
		// Critically overweight: also shed battery mass.
		plan.Directives = append(plan.Directives, model.ReplacementDirective{
			Category: "Power.Battery",
			NewQuery: "lightweight LiPo battery high discharge",
			Reason:   "design cannot lift its own weight; reduce the heaviest non-structural part",
		})
	}
	return plan
}

func (o *HeuristicOracle) repairGeometric(report model.ValidationReport) *model.RepairPlan {
	side := report.Metrics["side_distance_mm"]
	clearance := report.Metrics["clearance_mm"]

	plan := &model.RepairPlan{
		Diagnosis: fmt.Sprintf("clearance %.2fmm is insufficient for the current span", clearance),
	}

	if o.topo.Kind == topology.KindQuadruped {
		element := report.Metrics["element_size_mm"]
		targetSpan := math.Ceil((element + 2*DefaultClearanceTarget) * math.Sqrt2)
		plan.Directives = append(plan.Directives, model.ReplacementDirective{
			Category: "Frame.Chassis",
			NewQuery: fmt.Sprintf("quadruped chassis kit %.0fmm span", targetSpan),
			Reason:   fmt.Sprintf("leg excursion %.0fmm needs a span of at least %.0fmm", element, targetSpan),
		})
		return plan
	}

	// Shrink the prop to the largest half-inch size that still clears.
	targetMM := side - DefaultClearanceTarget
	targetInch := math.Floor(targetMM/25.4*2.0) / 2.0
	if targetInch < 1.0 {
		targetInch = 1.0
	}
	plan.Directives = append(plan.Directives, model.ReplacementDirective{
		Category: "Propulsion.Propeller",
		NewQuery: fmt.Sprintf("%.1f inch propeller", targetInch),
		Reason:   fmt.Sprintf("a %.1f inch prop leaves at least %.0fmm of tip clearance", targetInch, DefaultClearanceTarget),
	})
	return plan
}

// DefaultClearanceTarget is the gap in millimetres the heuristic aims
// for when resizing, slightly above the validator minimum.
const DefaultClearanceTarget = 12.0
