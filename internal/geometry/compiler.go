// Package geometry is the boundary to the external solid-modeling
// kernel. The compiler is invoked once, after a design converges; it is
// never part of the validate/repair cycle.
package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/topology"
	"github.com/partforge/partforge/internal/validate"
)

// CompileSpec is the BOM-derived input handed to the modeling kernel.
type CompileSpec struct {
	Topology  string             `json:"topology"`
	SpanMM    float64            `json:"span_mm"`
	ElementMM float64            `json:"element_mm"`
	Parts     map[string]string  `json:"parts"`
	Extra     map[string]float64 `json:"extra,omitempty"`
}

// Asset is the compiler's output: a path to renderable geometry.
type Asset struct {
	Path string `json:"path"`
}

// Compiler turns a converged design into renderable geometry.
type Compiler interface {
	Compile(ctx context.Context, spec CompileSpec) (Asset, error)
}

// SpecFromBOM derives the compile input from a converged BOM, using the
// same attribute fallbacks as the geometric validator.
func SpecFromBOM(topo topology.Topology, bom model.BOM) CompileSpec {
	gv := validate.NewGeometricValidator(topo)
	report := gv.Validate(bom)

	spec := CompileSpec{
		Topology:  topo.Name,
		SpanMM:    report.Metrics["span_mm"],
		ElementMM: report.Metrics["element_size_mm"],
		Parts:     make(map[string]string, len(bom)),
	}
	for _, c := range bom.Categories() {
		spec.Parts[string(c)] = bom[c].Identity
	}
	return spec
}

// ExecCompiler shells out to an external CAD command. The spec is
// written to stdin as JSON; the command prints the asset path on
// stdout.
type ExecCompiler struct {
	Cmd []string
}

// Compile runs the configured command.
func (c *ExecCompiler) Compile(ctx context.Context, spec CompileSpec) (Asset, error) {
	if len(c.Cmd) == 0 {
		return Asset{}, fmt.Errorf("no compiler command configured")
	}
	payload, err := json.Marshal(spec)
	if err != nil {
		return Asset{}, fmt.Errorf("marshal compile spec: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Cmd[0], c.Cmd[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Asset{}, fmt.Errorf("run geometry compiler: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return Asset{}, fmt.Errorf("geometry compiler produced no asset path")
	}
	if i := strings.IndexByte(path, '\n'); i >= 0 {
		path = strings.TrimSpace(path[:i])
	}
	return Asset{Path: path}, nil
}
