package main

import (
	"github.com/spf13/cobra"

	"classpub/internal/manifest"
	"classpub/internal/report"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create pending/RELEASES.txt with header comments (idempotent)",
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
			created, err := manifest.Init(layout.ManifestPath())
			if err != nil {
				return err
			}
			if created {
				console.Println("✓ Created pending/RELEASES.txt")
			} else {
				console.Println("⚠️  pending/RELEASES.txt already exists")
			}
			return nil
		},
	}
}
