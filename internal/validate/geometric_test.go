package validate

import (
	"testing"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propBOM(diameterMM float64) model.BOM {
	return model.BOM{
		"Propulsion.Propeller": {
			Category: "Propulsion.Propeller", Identity: "test prop",
			Attributes: model.Attributes{AttrDiameterMM: diameterMM},
		},
	}
}

func TestGeometric_DefaultsClearComfortably(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	// Defaults: 225mm span, 127mm prop. Side distance 225/sqrt(2) is
	// about 159.1mm, so the tips clear by about 32.1mm.
	report := NewGeometricValidator(topo).Validate(model.BOM{})

	assert.Equal(t, model.StatusPass, report.Status)
	assert.Equal(t, model.KindGeometric, report.Kind)
	assert.InDelta(t, 159.1, report.Metrics["side_distance_mm"], 0.01)
	assert.InDelta(t, 32.1, report.Metrics["clearance_mm"], 0.01)
	assert.Empty(t, report.Failures)
}

func TestGeometric_OversizedPropCollides(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	report := NewGeometricValidator(topo).Validate(propBOM(160))

	assert.Equal(t, model.StatusFail, report.Status)
	assert.InDelta(t, -0.9, report.Metrics["clearance_mm"], 0.01)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityCritical, report.Failures[0].Severity)
}

func TestGeometric_TightClearanceIsWarningFail(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	report := NewGeometricValidator(topo).Validate(propBOM(152))

	assert.Equal(t, model.StatusFail, report.Status)
	assert.InDelta(t, 7.1, report.Metrics["clearance_mm"], 0.01)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityWarning, report.Failures[0].Severity)
}

func TestGeometric_OversizedFrameWarnsButPasses(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	report := NewGeometricValidator(topo).Validate(propBOM(100))

	assert.Equal(t, model.StatusPass, report.Status)
	assert.InDelta(t, 59.1, report.Metrics["clearance_mm"], 0.01)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityWarning, report.Failures[0].Severity)
}

func TestGeometric_SpanFromFrameAttributes(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	bom := propBOM(180)
	bom["Frame"] = model.Part{
		Category: "Frame", Identity: "7in frame",
		Attributes: model.Attributes{AttrWheelbaseMM: 300.0},
	}
	report := NewGeometricValidator(topo).Validate(bom)

	assert.Equal(t, model.StatusPass, report.Status)
	assert.Equal(t, 300.0, report.Metrics["span_mm"])
	assert.InDelta(t, 32.13, report.Metrics["clearance_mm"], 0.01)
	assert.Empty(t, report.Failures)
}

func TestGeometric_RotorReportsDiskLoading(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	report := NewGeometricValidator(topo).Validate(model.BOM{})
	dl, ok := report.Metrics["disk_loading_g_cm2"]
	require.True(t, ok)
	assert.Greater(t, dl, 0.0)
}

func TestGeometric_QuadrupedLegExcursion(t *testing.T) {
	topo, err := topology.Load("quadruped")
	require.NoError(t, err)

	bom := model.BOM{
		"Frame.Chassis": {
			Category: "Frame.Chassis", Identity: "chassis kit",
			Attributes: model.Attributes{
				AttrSpanMM:       200.0,
				AttrLegExcursion: 140.0,
			},
		},
	}
	report := NewGeometricValidator(topo).Validate(bom)

	assert.Equal(t, model.StatusFail, report.Status)
	assert.Equal(t, 140.0, report.Metrics["element_size_mm"])
	assert.InDelta(t, 1.42, report.Metrics["clearance_mm"], 0.01)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, model.SeverityWarning, report.Failures[0].Severity)
	_, hasDiskLoading := report.Metrics["disk_loading_g_cm2"]
	assert.False(t, hasDiskLoading)
}

func TestGeometric_RepeatedValidationIsIdentical(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	v := NewGeometricValidator(topo)
	bom := propBOM(152)
	first := v.Validate(bom)
	second := v.Validate(bom)
	assert.Equal(t, first, second)
}

func TestFlightFeel(t *testing.T) {
	assert.Equal(t, "unknown", FlightFeel(0))
	assert.Equal(t, "ultralight (floaty)", FlightFeel(0.3))
	assert.Equal(t, "standard freestyle (balanced)", FlightFeel(0.5))
	assert.Equal(t, "racing (locked in)", FlightFeel(0.85))
	assert.Equal(t, "heavy lift (inefficient)", FlightFeel(1.3))
}

func TestGeometric_ThresholdOverride(t *testing.T) {
	topo, err := topology.Load("quadcopter")
	require.NoError(t, err)

	v := NewGeometricValidator(topo)
	v.MinClearance = 5.0
	report := v.Validate(propBOM(152))
	assert.Equal(t, model.StatusPass, report.Status)
}
