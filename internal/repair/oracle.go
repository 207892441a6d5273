// Package repair turns a failed validation report into a minimal set of
// part replacement directives. Diagnosis is delegated to an oracle; the
// planner defensively validates whatever the oracle returns.
package repair

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
	"github.com/xeipuuv/gojsonschema"
)

// Oracle proposes part replacements for a failed gate. Implementations
// are external reasoning services; the planner never inspects why a
// directive was chosen.
type Oracle interface {
	Diagnose(ctx context.Context, summary Summary, report model.ValidationReport) (*model.RepairPlan, error)
}

// PartSummary is the oracle-facing view of one sourced part.
type PartSummary struct {
	Category   model.Category     `json:"category"`
	Identity   string             `json:"identity"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
	Price      *float64           `json:"price,omitempty"`
}

// Summary is the oracle-facing view of the current design.
type Summary struct {
	Topology   string        `json:"topology"`
	Categories []string      `json:"categories"`
	Parts      []PartSummary `json:"parts"`
	Missing    []string      `json:"missing,omitempty"`
}

// Summarize condenses a BOM for the oracle: identities, numeric
// attributes, and which required categories are still unsourced.
func Summarize(topo topology.Topology, bom model.BOM) Summary {
	s := Summary{
		Topology:   topo.Name,
		Categories: append([]string(nil), topo.Categories...),
	}
	for _, c := range bom.Categories() {
		p := bom[c]
		ps := PartSummary{Category: c, Identity: p.Identity, Price: p.Price}
		for k := range p.Attributes {
			if v, ok := p.Attributes.Float(k); ok {
				if ps.Attributes == nil {
					ps.Attributes = make(map[string]float64)
				}
				ps.Attributes[k] = v
			}
		}
		s.Parts = append(s.Parts, ps)
	}
	for _, name := range topo.Categories {
		if _, ok := bom[model.Category(name)]; !ok {
			s.Missing = append(s.Missing, name)
		}
	}
	return s
}

//go:embed repair_plan_schema.json
var planSchemaJSON string

// DecodePlan validates oracle output against the repair plan schema and
// parses it. Markdown code fences around the JSON are tolerated.
func DecodePlan(raw string) (*model.RepairPlan, error) {
	text := stripFences(raw)

	schemaLoader := gojsonschema.NewStringLoader(planSchemaJSON)
	docLoader := gojsonschema.NewStringLoader(text)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("validate repair plan: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			msgs = append(msgs, schemaErr.String())
		}
		return nil, fmt.Errorf("repair plan schema violation: %s", strings.Join(msgs, "; "))
	}

	var plan model.RepairPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("parse repair plan: %w", err)
	}
	return &plan, nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

const systemPrompt = `You are a hardware design repair planner. You receive the current bill
of materials of a %s build and a failed feasibility report. Propose the
minimal set of part replacements that fixes the reported failure.
Respond with JSON only, in this shape:
{"diagnosis": "...", "directives": [{"category": "...", "new_query": "...", "reason": "..."}]}
Every category must be one of: %s.
Each new_query is a product search query for the replacement part.
Return an empty directives array if no repair can fix the failure.`

// buildPrompt renders the oracle input for LLM-backed implementations.
func buildPrompt(summary Summary, report model.ValidationReport) (system, input string, err error) {
	payload, err := json.MarshalIndent(struct {
		Design Summary                `json:"design"`
		Report model.ValidationReport `json:"failed_report"`
	}{summary, report}, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal oracle input: %w", err)
	}
	system = fmt.Sprintf(systemPrompt, summary.Topology, strings.Join(summary.Categories, ", "))
	return system, string(payload), nil
}
