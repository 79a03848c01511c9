package main

import (
	"errors"

	"github.com/spf13/cobra"

	"classpub/internal/clean"
	"classpub/internal/report"
	"classpub/internal/syncer"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove .DS_Store files and .ipynb_checkpoints directories",
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
			if _, err := clean.Run(layout, console); err != nil {
				if errors.Is(err, syncer.ErrLockBusy) {
					console.Println("❌ Another operation is already running. If this is stale, try again shortly.")
					return silentExit(75)
				}
				return err
			}
			return nil
		},
	}
}
