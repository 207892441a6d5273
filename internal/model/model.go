// Package model defines the core data structures of the design pipeline:
// parts, bills of materials, validation reports, and build results.
package model

import (
	"fmt"
	"sort"
)

// Category identifies a part slot within a topology's closed category set.
type Category string

// Attributes holds the engineering attributes extracted for a part.
// Values are float64 or string; validators only read numeric attributes.
type Attributes map[string]any

// Float returns the numeric attribute for key, if present.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// String returns the string attribute for key, if present.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Part is a single sourced component. Immutable once sourced; Identity is
// opaque (a product name or URL).
type Part struct {
	Category   Category   `json:"category"`
	Identity   string     `json:"identity"`
	Attributes Attributes `json:"attributes,omitempty"`
	Price      *float64   `json:"price,omitempty"`
	Provenance string     `json:"provenance,omitempty"`
}

// BOM maps each category to its chosen part. At most one part per
// category; replacement is always replace-by-category, never append.
type BOM map[Category]Part

// Clone returns a copy safe for per-iteration snapshots. Parts are
// immutable once sourced, so copying the map is sufficient.
func (b BOM) Clone() BOM {
	out := make(BOM, len(b))
	for c, p := range b {
		out[c] = p
	}
	return out
}

// Merge upserts every part from delta into b, keyed by category.
func (b BOM) Merge(delta BOM) {
	for c, p := range delta {
		b[c] = p
	}
}

// Categories returns the categories present in the BOM, sorted for
// deterministic iteration.
func (b BOM) Categories() []Category {
	out := make([]Category, 0, len(b))
	for c := range b {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CategoryQuery is a single sourcing request.
type CategoryQuery struct {
	Category Category `json:"category"`
	Query    string   `json:"query"`
}

// ResolutionError records that one category could not be sourced. It is
// recovered locally by the fan-out engine, never fatal to a batch.
type ResolutionError struct {
	Category Category `json:"category"`
	Query    string   `json:"query"`
	Reason   string   `json:"reason"`
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s (%q): %s", e.Category, e.Query, e.Reason)
}

// Status is a validation verdict.
type Status string

// Validation verdicts.
const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// ReportKind distinguishes the two feasibility gates.
type ReportKind string

// Feasibility gate kinds.
const (
	KindNumeric   ReportKind = "NUMERIC"
	KindGeometric ReportKind = "GEOMETRIC"
)

// Severity grades a validation failure.
type Severity string

// Failure severities.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Failure is one structured validation finding.
type Failure struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationReport is the immutable output of one validator call.
type ValidationReport struct {
	Status   Status             `json:"status"`
	Kind     ReportKind         `json:"kind"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Failures []Failure          `json:"failures,omitempty"`
}

// Passed reports whether the gate passed.
func (r ValidationReport) Passed() bool { return r.Status == StatusPass }

// ReplacementDirective instructs the controller to re-source one category.
type ReplacementDirective struct {
	Category Category `json:"category"`
	NewQuery string   `json:"new_query"`
	Reason   string   `json:"reason"`
}

// RepairPlan is the repair oracle's answer to a failed gate.
type RepairPlan struct {
	Diagnosis  string                 `json:"diagnosis"`
	Directives []ReplacementDirective `json:"directives"`
}

// Outcome is the terminal result of a build.
type Outcome string

// Terminal build outcomes.
const (
	OutcomeConverged Outcome = "CONVERGED"
	OutcomeExhausted Outcome = "EXHAUSTED"
	OutcomeAborted   Outcome = "ABORTED"
)

// IterationState is the controller's running snapshot. It advances
// strictly forward and is terminal once Outcome is set.
type IterationState struct {
	Iteration  int
	BOM        BOM
	LastReport *ValidationReport
	Terminal   bool
	Outcome    Outcome
}

// IterationRecord is one audit entry in the build history.
type IterationRecord struct {
	Iteration int                    `json:"iteration"`
	Applied   []ReplacementDirective `json:"applied_directives,omitempty"`
	Errors    []ResolutionError      `json:"resolution_errors,omitempty"`
	Numeric   *ValidationReport      `json:"numeric,omitempty"`
	Geometric *ValidationReport      `json:"geometric,omitempty"`
	Diagnosis string                 `json:"diagnosis,omitempty"`
}

// BuildResult is the full audit trail emitted on termination.
type BuildResult struct {
	BuildID    string            `json:"build_id"`
	Topology   string            `json:"topology"`
	Outcome    Outcome           `json:"outcome"`
	FinalBOM   BOM               `json:"final_bom"`
	Iterations int               `json:"iterations"`
	History    []IterationRecord `json:"history"`
	AssetPath  string            `json:"asset_path,omitempty"`
}

// ProvenanceEntry is one append-only audit record of a successful
// resolution.
type ProvenanceEntry struct {
	Category Category `json:"category"`
	Query    string   `json:"query"`
	Identity string   `json:"identity"`
}
