package validate

import (
	"testing"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadcopterBOM(thrustG float64) model.BOM {
	return model.BOM{
		"Propulsion.Motor": {
			Category: "Propulsion.Motor", Identity: "2207 motor",
			Attributes: model.Attributes{AttrWeightG: 45.0, AttrThrustG: thrustG},
		},
		"Propulsion.Propeller": {
			Category: "Propulsion.Propeller", Identity: "5in prop",
			Attributes: model.Attributes{AttrWeightG: 12.5},
		},
		"Frame": {
			Category: "Frame", Identity: "heavy frame",
			Attributes: model.Attributes{AttrWeightG: 2000.0},
		},
		"Power.Battery": {
			Category: "Power.Battery", Identity: "4S pack",
			Attributes: model.Attributes{AttrWeightG: 1177.0},
		},
	}
}

func TestNumeric_RotorMarginExactlyAtThresholdPasses(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	// Mass 3430g (sourced weights plus flight stack and camera
	// fallbacks), thrust 4 x 1200g. 4800/3430 rounds to exactly 1.40.
	report := NewNumericValidator(topo).Validate(quadcopterBOM(1200))

	assert.Equal(t, model.StatusPass, report.Status)
	assert.Equal(t, model.KindNumeric, report.Kind)
	assert.Equal(t, 1.4, report.Metrics["margin"])
	assert.Equal(t, 3430.0, report.Metrics["total_mass_g"])
	assert.Equal(t, 4800.0, report.Metrics["capacity"])
	assert.Empty(t, report.Failures)
}

func TestNumeric_RotorBelowMarginIsWarning(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	report := NewNumericValidator(topo).Validate(quadcopterBOM(1000))

	assert.Equal(t, model.StatusFail, report.Status)
	assert.Equal(t, 1.17, report.Metrics["margin"])
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityWarning, report.Failures[0].Severity)
}

func TestNumeric_RotorBelowUnityIsCritical(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	report := NewNumericValidator(topo).Validate(quadcopterBOM(800))

	assert.Equal(t, model.StatusFail, report.Status)
	assert.Equal(t, 0.93, report.Metrics["margin"])
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityCritical, report.Failures[0].Severity)
}

func TestNumeric_MissingMotorYieldsZeroCapacity(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	bom := quadcopterBOM(1200)
	delete(bom, "Propulsion.Motor")
	report := NewNumericValidator(topo).Validate(bom)

	assert.Equal(t, model.StatusFail, report.Status)
	assert.Equal(t, 0.0, report.Metrics["capacity"])
	assert.Equal(t, 0.0, report.Metrics["margin"])
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityCritical, report.Failures[0].Severity)
}

func TestNumeric_FallbackWeightsCoverUnsourcedParts(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	// Empty BOM: every category degrades to its fallback weight.
	// 4x35 + 4x5 + 120 + 200 + 15 + 8 = 503g.
	report := NewNumericValidator(topo).Validate(model.BOM{})
	assert.Equal(t, 503.0, report.Metrics["total_mass_g"])
}

func TestNumeric_QuadrupedTorqueModel(t *testing.T) {
	topo, err := topology.Load("quadruped")
	require.NoError(t, err)

	// All-fallback mass is 1700g; with the 1.15 wiring overhead the
	// static model needs (1.955/2) * 10cm = 9.775 kg.cm per leg pair.
	bom := model.BOM{
		"Propulsion.Actuator": {
			Category: "Propulsion.Actuator", Identity: "35kg servo",
			Attributes: model.Attributes{AttrTorqueKgCm: 25.0},
		},
	}
	report := NewNumericValidator(topo).Validate(bom)

	assert.Equal(t, model.StatusPass, report.Status)
	assert.InDelta(t, 9.78, report.Metrics["requirement"], 0.01)
	assert.Equal(t, 25.0, report.Metrics["capacity"])
	assert.InDelta(t, 2.56, report.Metrics["margin"], 0.01)
	assert.Equal(t, 100.0, report.Metrics["lever_arm_mm"])
}

func TestNumeric_QuadrupedLeverArmFromChassis(t *testing.T) {
	topo, err := topology.Load("quadruped")
	require.NoError(t, err)

	bom := model.BOM{
		"Propulsion.Actuator": {
			Category: "Propulsion.Actuator", Identity: "servo",
			Attributes: model.Attributes{AttrTorqueKgCm: 25.0},
		},
		"Frame.Chassis": {
			Category: "Frame.Chassis", Identity: "long-leg chassis",
			Attributes: model.Attributes{AttrLeverArmMM: 150.0},
		},
	}
	report := NewNumericValidator(topo).Validate(bom)

	assert.Equal(t, 150.0, report.Metrics["lever_arm_mm"])
	assert.InDelta(t, 14.66, report.Metrics["requirement"], 0.01)
}

func TestNumeric_RepeatedValidationIsIdentical(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	// The gate is a pure function of the BOM: re-running it must yield
	// the same status, metrics, and failures.
	v := NewNumericValidator(topo)
	bom := quadcopterBOM(1000)
	first := v.Validate(bom)
	second := v.Validate(bom)
	assert.Equal(t, first, second)
}

func TestNumeric_ThresholdOverride(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	v := NewNumericValidator(topo)
	v.MinMargin = 1.1
	report := v.Validate(quadcopterBOM(1000))
	assert.Equal(t, model.StatusPass, report.Status)
}
