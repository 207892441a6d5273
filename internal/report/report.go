// Package report renders a build result into a procurement-ready
// markdown document: outcome, bill of materials with costs, and the
// full iteration history.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/validate"
)

// LineItem is one row of the procurement manifest.
type LineItem struct {
	Category model.Category
	Identity string
	Quantity int
	Price    *float64
}

// Manifest is the cost summary of a BOM.
type Manifest struct {
	Items    []LineItem
	Total    float64
	Unpriced int
}

// QuantityFunc returns how many units of a category the assembly uses.
type QuantityFunc func(model.Category) int

// BuildManifest computes the procurement manifest from a BOM. Parts
// without a price are listed but excluded from the total.
func BuildManifest(bom model.BOM, quantity QuantityFunc) Manifest {
	var m Manifest
	for _, c := range bom.Categories() {
		p := bom[c]
		qty := 1
		if quantity != nil {
			qty = quantity(c)
		}
		item := LineItem{Category: c, Identity: p.Identity, Quantity: qty, Price: p.Price}
		m.Items = append(m.Items, item)
		if p.Price != nil {
			m.Total += *p.Price * float64(qty)
		} else {
			m.Unpriced++
		}
	}
	return m
}

// Markdown renders the full build report.
func Markdown(result model.BuildResult, manifest Manifest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Build %s\n\n", result.BuildID)
	fmt.Fprintf(&b, "- **Topology:** %s\n", result.Topology)
	fmt.Fprintf(&b, "- **Outcome:** %s\n", result.Outcome)
	fmt.Fprintf(&b, "- **Iterations:** %d\n", result.Iterations)
	if result.AssetPath != "" {
		fmt.Fprintf(&b, "- **Geometry asset:** %s\n", result.AssetPath)
	}
	b.WriteString("\n## Bill of materials\n\n")

	if len(manifest.Items) == 0 {
		b.WriteString("No parts were sourced.\n")
	} else {
		b.WriteString("| Category | Part | Qty | Price |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, item := range manifest.Items {
			price := "unknown"
			if item.Price != nil {
				price = fmt.Sprintf("$%.2f", *item.Price)
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", item.Category, item.Identity, item.Quantity, price)
		}
		fmt.Fprintf(&b, "\n**Estimated total:** $%.2f", manifest.Total)
		if manifest.Unpriced > 0 {
			fmt.Fprintf(&b, " (%d parts unpriced)", manifest.Unpriced)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Iteration history\n")
	for _, rec := range result.History {
		fmt.Fprintf(&b, "\n### Iteration %d\n\n", rec.Iteration)
		if rec.Diagnosis != "" {
			fmt.Fprintf(&b, "Repair rationale: %s\n\n", rec.Diagnosis)
		}
		for _, d := range rec.Applied {
			fmt.Fprintf(&b, "- Replaced **%s** with query %q (%s)\n", d.Category, d.NewQuery, d.Reason)
		}
		for _, e := range rec.Errors {
			fmt.Fprintf(&b, "- Unresolved **%s**: %s\n", e.Category, e.Reason)
		}
		writeReport(&b, rec.Numeric)
		writeReport(&b, rec.Geometric)
	}
	return b.String()
}

func writeReport(b *strings.Builder, r *model.ValidationReport) {
	if r == nil {
		return
	}
	fmt.Fprintf(b, "- %s gate: **%s**", r.Kind, r.Status)
	if len(r.Metrics) > 0 {
		parts := make([]string, 0, len(r.Metrics))
		for _, k := range sortedKeys(r.Metrics) {
			parts = append(parts, fmt.Sprintf("%s=%.2f", k, r.Metrics[k]))
		}
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	if dl, ok := r.Metrics["disk_loading_g_cm2"]; ok {
		fmt.Fprintf(b, "  - flight feel: %s\n", validate.FlightFeel(dl))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(b, "  - %s: %s\n", f.Severity, f.Message)
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
