package validate

import (
	"fmt"
	"math"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
)

// DefaultMinClearance is the minimum gap in millimetres between the
// largest moving element and the frame boundary.
const DefaultMinClearance = 10.0

// oversizeClearanceMM marks frames far larger than the moving element
// needs; reported as a warning, not a failure.
const oversizeClearanceMM = 50.0

// GeometricValidator is the analytic clearance check. It runs on every
// iteration without invoking the external geometry compiler.
type GeometricValidator struct {
	Topo         topology.Topology
	MinClearance float64
}

// NewGeometricValidator constructs a geometric validator with the
// default clearance threshold.
func NewGeometricValidator(topo topology.Topology) GeometricValidator {
	return GeometricValidator{Topo: topo, MinClearance: DefaultMinClearance}
}

// Validate derives the clearance between adjacent moving elements from
// the overall span. On a true-X layout the distance between adjacent
// mount points is span / sqrt(2).
func (v GeometricValidator) Validate(bom model.BOM) model.ValidationReport {
	minClearance := v.MinClearance
	if minClearance <= 0 {
		minClearance = DefaultMinClearance
	}

	span := v.spanMM(bom)
	element := v.movingElementMM(bom)

	side := span / math.Sqrt2
	clearance := side - element

	metrics := map[string]float64{
		"span_mm":          round2(span),
		"side_distance_mm": round2(side),
		"element_size_mm":  round2(element),
		"clearance_mm":     round2(clearance),
	}

	report := model.ValidationReport{
		Status:  model.StatusPass,
		Kind:    model.KindGeometric,
		Metrics: metrics,
	}

	if v.Topo.Kind == topology.KindRotor {
		massG := aggregateMassG(v.Topo, bom)
		if dl := diskLoading(massG, element, v.Topo.MotorCount); dl > 0 {
			metrics["disk_loading_g_cm2"] = round2(dl)
		}
	}

	switch {
	case clearance < 1.0:
		report.Status = model.StatusFail
		report.Failures = append(report.Failures, model.Failure{
			Message:  fmt.Sprintf("moving elements collide: clearance %.2fmm (span %.0fmm vs element %.0fmm)", clearance, span, element),
			Severity: model.SeverityCritical,
		})
	case clearance < minClearance:
		report.Status = model.StatusFail
		report.Failures = append(report.Failures, model.Failure{
			Message:  fmt.Sprintf("clearance %.2fmm is below the required %.1fmm minimum", clearance, minClearance),
			Severity: model.SeverityWarning,
		})
	case clearance > oversizeClearanceMM:
		report.Failures = append(report.Failures, model.Failure{
			Message:  fmt.Sprintf("frame is oversized for the moving element (clearance %.2fmm); consider a smaller span or larger element", clearance),
			Severity: model.SeverityWarning,
		})
	}
	return report
}

func (v GeometricValidator) spanMM(bom model.BOM) float64 {
	for _, c := range []model.Category{"Frame", "Frame.Chassis"} {
		p, ok := bom[c]
		if !ok {
			continue
		}
		if s, ok := p.Attributes.Float(AttrSpanMM); ok && s > 0 {
			return s
		}
		if s, ok := p.Attributes.Float(AttrWheelbaseMM); ok && s > 0 {
			return s
		}
	}
	return v.Topo.DefaultSpanMM
}

func (v GeometricValidator) movingElementMM(bom model.BOM) float64 {
	switch v.Topo.Kind {
	case topology.KindQuadruped:
		if p, ok := bom[model.Category("Frame.Chassis")]; ok {
			if e, ok := p.Attributes.Float(AttrLegExcursion); ok && e > 0 {
				return e
			}
		}
	default:
		if p, ok := bom[model.Category("Propulsion.Propeller")]; ok {
			if d, ok := p.Attributes.Float(AttrDiameterMM); ok && d > 0 {
				return d
			}
		}
	}
	return v.Topo.DefaultElementMM
}

// FlightFeel classifies a rotor craft's disk loading (g/cm2) into a
// handling prediction.
func FlightFeel(diskLoadingGCm2 float64) string {
	switch {
	case diskLoadingGCm2 <= 0:
		return "unknown"
	case diskLoadingGCm2 < 0.4:
		return "ultralight (floaty)"
	case diskLoadingGCm2 < 0.7:
		return "standard freestyle (balanced)"
	case diskLoadingGCm2 < 1.0:
		return "racing (locked in)"
	default:
		return "heavy lift (inefficient)"
	}
}

// diskLoading is grams of all-up weight per square centimetre of total
// propeller disc area. Purely informational.
func diskLoading(massG, propDiameterMM float64, motorCount int) float64 {
	if propDiameterMM <= 0 || motorCount <= 0 {
		return 0
	}
	radiusCm := (propDiameterMM / 10.0) / 2.0
	area := math.Pi * radiusCm * radiusCm * float64(motorCount)
	if area <= 0 {
		return 0
	}
	return massG / area
}
