package validate

import (
	"math"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
)

// Common attribute keys read from sourced parts.
const (
	AttrWeightG      = "weight_g"
	AttrThrustG      = "thrust_g"
	AttrTorqueKgCm   = "stall_torque_kgcm"
	AttrSpanMM       = "span_mm"
	AttrWheelbaseMM  = "wheelbase_mm"
	AttrDiameterMM   = "diameter_mm"
	AttrLeverArmMM   = "lever_arm_mm"
	AttrLegExcursion = "leg_excursion_mm"
)

// wiringOverhead accounts for cables, bolts and connectors on legged
// builds, matching the static torque model's worst-case mass.
const wiringOverhead = 1.15

// aggregateMassG sums part weights across the topology's full category
// set, multiplying by per-category quantity. A missing part or missing
// weight attribute degrades to the topology's fallback weight, so the
// result is always a usable conservative estimate.
func aggregateMassG(topo topology.Topology, bom model.BOM) float64 {
	total := 0.0
	for _, name := range topo.Categories {
		c := model.Category(name)
		w := topo.FallbackWeight(c)
		if p, ok := bom[c]; ok {
			if v, ok := p.Attributes.Float(AttrWeightG); ok && v > 0 {
				w = v
			}
		}
		total += w * float64(topo.Quantity(c))
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
