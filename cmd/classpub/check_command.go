package main

import (
	"strings"

	"github.com/spf13/cobra"

	"classpub/internal/report"
	"classpub/internal/status"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var tableFlag bool
	var detailFlag bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show the sync status of every tracked item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := report.NewConsole(cmd.OutOrStdout())
			layout, err := ctx.layout()
			if err != nil {
				return err
			}
			if err := requireRepoRoot(layout, console); err != nil {
				return err
			}
			man, err := loadManifest(layout, console)
			if err != nil {
				return err
			}

			classifier := status.NewClassifier(layout, ctx.ignore(), ctx.fingerprint())
			rep, err := classifier.Compute(man)
			if err != nil {
				return err
			}

			if tableFlag {
				console.Println(report.StatusTable(rep))
			} else {
				for _, line := range rep.Lines {
					console.Println(report.FormatLine(line))
					if !detailFlag || !line.IsFolder || line.MissingFromPending {
						continue
					}
					children, err := classifier.FolderChildren(strings.TrimSuffix(line.Path, "/"))
					if err != nil {
						return err
					}
					for _, child := range children {
						console.Println("  " + report.FormatLine(child))
					}
				}
			}
			console.Println(report.FormatCounters(rep.Counters))
			return nil
		},
	}

	cmd.Flags().BoolVar(&tableFlag, "table", false, "Render the status as a table")
	cmd.Flags().BoolVar(&detailFlag, "detail", false, "List per-file status under each tracked folder")
	return cmd
}
