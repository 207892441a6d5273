package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/partforge/partforge/internal/db"
	"github.com/partforge/partforge/internal/model"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "runs",
		Short:        "List recorded builds, newest first",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			rows, err := db.NewStore(storeDB).ListBuilds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println(dimStyle.Render("no builds yet; run `partforge build`"))
				return nil
			}
			fmt.Println(renderRuns(rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of builds to list")
	return cmd
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func renderRuns(rows []db.BuildRow) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-22s  %-20s  %-12s  %-10s  %s",
		"BUILD", "CREATED", "TOPOLOGY", "OUTCOME", "ITERS")))
	for _, r := range rows {
		outcome := r.Outcome
		if outcome == "" {
			outcome = r.Status
		}
		line := fmt.Sprintf("%-22s  %-20s  %-12s  %-10s  %d",
			r.BuildID, r.CreatedAt, r.Topology, outcome, r.Iterations)
		switch model.Outcome(r.Outcome) {
		case model.OutcomeConverged:
			line = convergedStyle.Render(line)
		case model.OutcomeExhausted, model.OutcomeAborted:
			line = failedStyle.Render(line)
		default:
			line = dimStyle.Render(line)
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}
