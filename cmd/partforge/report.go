package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/partforge/partforge/internal/db"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:          "report <build-id>",
		Short:        "Render the stored report for a build",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			md, err := db.NewStore(storeDB).BuildReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if raw {
				fmt.Println(md)
				return nil
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				// Plain markdown still carries the full report.
				fmt.Println(md)
				return nil
			}
			out, err := renderer.Render(md)
			if err != nil {
				fmt.Println(md)
				return nil
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw markdown without styling")
	return cmd
}
