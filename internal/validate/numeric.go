// Package validate implements the two feasibility gates: the numeric
// load-margin check and the analytic geometric clearance check. Both are
// pure functions of BOM attributes and never error on missing data.
package validate

import (
	"fmt"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
)

// DefaultMinMargin is the minimum capacity/requirement ratio a design
// must reach. The comparison is inclusive: a margin of exactly
// DefaultMinMargin passes.
const DefaultMinMargin = 1.4

// NumericValidator checks whether the propulsion or actuation parts can
// carry the assembly's aggregate load.
type NumericValidator struct {
	Topo      topology.Topology
	MinMargin float64
}

// NewNumericValidator constructs a numeric validator with the default
// margin threshold.
func NewNumericValidator(topo topology.Topology) NumericValidator {
	return NumericValidator{Topo: topo, MinMargin: DefaultMinMargin}
}

// Validate computes margin = capacity / requirement and gates on it.
func (v NumericValidator) Validate(bom model.BOM) model.ValidationReport {
	minMargin := v.MinMargin
	if minMargin <= 0 {
		minMargin = DefaultMinMargin
	}

	var capacity, requirement float64
	metrics := map[string]float64{}

	massG := aggregateMassG(v.Topo, bom)
	metrics["total_mass_g"] = round2(massG)

	switch v.Topo.Kind {
	case topology.KindQuadruped:
		// Worst-case static load: two legs supporting the body mid-trot.
		// required torque (kg.cm) = (mass_kg / 2) * lever_arm_cm
		massKg := massG * wiringOverhead / 1000.0
		lever := v.Topo.LeverArmMM
		if chassis, ok := bom[model.Category("Frame.Chassis")]; ok {
			if l, ok := chassis.Attributes.Float(AttrLeverArmMM); ok && l > 0 {
				lever = l
			}
		}
		requirement = (massKg / 2.0) * (lever / 10.0)
		capacity = actuatorTorque(bom)
		metrics["lever_arm_mm"] = lever
	default:
		// Rotor: available thrust across all motors versus all-up weight.
		requirement = massG
		capacity = totalThrust(v.Topo, bom)
	}

	metrics["capacity"] = round2(capacity)
	metrics["requirement"] = round2(requirement)

	margin := 0.0
	if requirement > 0 {
		margin = round2(capacity / requirement)
	}
	metrics["margin"] = margin

	report := model.ValidationReport{
		Status:  model.StatusPass,
		Kind:    model.KindNumeric,
		Metrics: metrics,
	}

	if margin >= minMargin {
		return report
	}

	report.Status = model.StatusFail
	if margin < 1.0 {
		report.Failures = append(report.Failures, model.Failure{
			Message:  fmt.Sprintf("load margin %.2f is below 1.0: the design cannot carry its own weight (capacity %.0f vs requirement %.0f)", margin, capacity, requirement),
			Severity: model.SeverityCritical,
		})
	} else {
		report.Failures = append(report.Failures, model.Failure{
			Message:  fmt.Sprintf("load margin %.2f is below the required %.2f safety margin", margin, minMargin),
			Severity: model.SeverityWarning,
		})
	}
	return report
}

// totalThrust returns the combined motor thrust in grams. A missing
// motor or missing thrust attribute yields zero capacity, which forces
// the gate to fail rather than guess upward.
func totalThrust(topo topology.Topology, bom model.BOM) float64 {
	motor, ok := bom[model.Category("Propulsion.Motor")]
	if !ok {
		return 0
	}
	per, ok := motor.Attributes.Float(AttrThrustG)
	if !ok || per <= 0 {
		return 0
	}
	count := topo.MotorCount
	if count <= 0 {
		count = topo.Quantity(model.Category("Propulsion.Motor"))
	}
	return per * float64(count)
}

func actuatorTorque(bom model.BOM) float64 {
	act, ok := bom[model.Category("Propulsion.Actuator")]
	if !ok {
		return 0
	}
	t, ok := act.Attributes.Float(AttrTorqueKgCm)
	if !ok || t <= 0 {
		return 0
	}
	return t
}
