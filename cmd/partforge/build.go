package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/partforge/partforge/internal/config"
	"github.com/partforge/partforge/internal/controller"
	"github.com/partforge/partforge/internal/db"
	"github.com/partforge/partforge/internal/geometry"
	"github.com/partforge/partforge/internal/model"
	"github.com/partforge/partforge/internal/repair"
	"github.com/partforge/partforge/internal/report"
	"github.com/partforge/partforge/internal/sourcing"
	"github.com/partforge/partforge/internal/topology"
	"github.com/partforge/partforge/internal/validate"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	var topoName string
	var maxIterations int
	cmd := &cobra.Command{
		Use:          "build",
		Short:        "Source parts and iterate until the design converges",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, workDir, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(workDir)
			if err != nil {
				return err
			}
			if topoName != "" {
				cfg.Topology = topoName
			}
			if maxIterations > 0 {
				cfg.Budgets.MaxIterations = maxIterations
			}

			return runBuild(cmd.Context(), cfg, workDir, db.NewStore(storeDB))
		},
	}
	cmd.Flags().StringVar(&topoName, "topology", "", "topology to build (default from config)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the repair budget")
	return cmd
}

func runBuild(ctx context.Context, cfg config.Config, workDir string, store *db.Store) error {
	topo, err := topology.Load(cfg.Topology)
	if err != nil {
		return err
	}

	src, err := newSource(cfg, workDir)
	if err != nil {
		return err
	}
	oracle, err := newOracle(ctx, cfg, topo)
	if err != nil {
		return err
	}

	// The provenance writer needs the build id before the controller
	// runs, so the id is minted here via the store record.
	buildID, err := reserveBuild(ctx, store, topo.Name)
	if err != nil {
		return err
	}

	engine := sourcing.NewEngine(log.Logger, src,
		sourcing.WithCache(sourcing.NewCache()),
		sourcing.WithProvenance(store.Provenance(buildID)),
		sourcing.WithBatchTimeout(cfg.Sourcing.Timeout),
		sourcing.WithMaxConcurrent(cfg.Sourcing.MaxConcurrent),
	)

	numeric := validate.NewNumericValidator(topo)
	if cfg.Thresholds.MinMargin > 0 {
		numeric.MinMargin = cfg.Thresholds.MinMargin
	}
	geometric := validate.NewGeometricValidator(topo)
	if cfg.Thresholds.MinClearanceMM > 0 {
		geometric.MinClearance = cfg.Thresholds.MinClearanceMM
	}

	planner := repair.NewPlanner(log.Logger, topo, oracle)

	opts := []controller.Option{
		controller.WithMaxIterations(cfg.Budgets.MaxIterations),
		controller.WithBuildID(buildID),
	}
	if len(cfg.Compiler.Cmd) > 0 {
		opts = append(opts, controller.WithCompiler(&geometry.ExecCompiler{Cmd: cfg.Compiler.Cmd}))
	}

	ctrl := controller.New(log.Logger, topo, engine, numeric, geometric, planner, opts...)
	result, err := ctrl.Run(ctx)
	if err != nil {
		return err
	}

	manifest := report.BuildManifest(result.FinalBOM, topo.Quantity)
	md := report.Markdown(result, manifest)
	if err := store.FinishBuild(ctx, result, md); err != nil {
		return err
	}

	fmt.Println(renderSummary(result, manifest))
	return nil
}

func reserveBuild(ctx context.Context, store *db.Store, topoName string) (string, error) {
	id, err := controller.NewBuildID()
	if err != nil {
		return "", err
	}
	if err := store.CreateBuild(ctx, id, topoName); err != nil {
		return "", err
	}
	return id, nil
}

func newSource(cfg config.Config, workDir string) (sourcing.Source, error) {
	switch cfg.Sourcing.Mode {
	case config.SourcingHTTP:
		return sourcing.NewHTTPSource(cfg.Sourcing.Endpoint), nil
	case config.SourcingCatalog:
		path := cfg.Sourcing.CatalogPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		return sourcing.LoadCatalog(path)
	}
	return nil, fmt.Errorf("unknown sourcing mode %q", cfg.Sourcing.Mode)
}

func newOracle(ctx context.Context, cfg config.Config, topo topology.Topology) (repair.Oracle, error) {
	switch cfg.Oracle.Provider {
	case config.OracleHeuristic:
		return repair.NewHeuristicOracle(topo), nil
	case config.OracleGemini:
		return repair.NewGeminiOracle(ctx, apiKey(cfg, "GEMINI_API_KEY"), cfg.Oracle.Model)
	case config.OracleOpenAI:
		return repair.NewOpenAIOracle(apiKey(cfg, "OPENAI_API_KEY"), cfg.Oracle.BaseURL, cfg.Oracle.Model)
	}
	return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
}

func apiKey(cfg config.Config, fallbackEnv string) string {
	env := cfg.Oracle.APIKeyEnv
	if env == "" {
		env = fallbackEnv
	}
	return os.Getenv(env)
}

var (
	convergedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderSummary(result model.BuildResult, manifest report.Manifest) string {
	style := failedStyle
	if result.Outcome == model.OutcomeConverged {
		style = convergedStyle
	}
	out := fmt.Sprintf("%s  build %s  (%d iterations, %d parts, est. $%.2f)",
		style.Render(string(result.Outcome)), result.BuildID,
		result.Iterations, len(result.FinalBOM), manifest.Total)
	if result.AssetPath != "" {
		out += "\n" + dimStyle.Render("geometry: "+result.AssetPath)
	}
	out += "\n" + dimStyle.Render(fmt.Sprintf("run `partforge report %s` for the full report", result.BuildID))
	return out
}
