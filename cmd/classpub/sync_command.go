package main

import (
	"errors"

	"github.com/spf13/cobra"

	"classpub/internal/report"
	"classpub/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var yesFlag bool
	var dryRunFlag bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy tracked content into preview/ and remove orphans",
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

			yes := ctx.assumeYes(yesFlag)
			engine := syncer.New(syncer.Params{
				Layout:      layout,
				Ignore:      ctx.ignore(),
				Fingerprint: ctx.fingerprint(),
				Console:     console,
				Logger:      ctx.ensureLogger(),
				Confirm:     ctx.confirmer(yes, cmd.OutOrStdout()),
				LockTTL:     ctx.lockTTL(),
			})

			res, err := engine.Run(cmd.Context(), man, syncer.Options{
				DryRun:    dryRunFlag,
				AssumeYes: yes,
			})
			switch {
			case errors.Is(err, syncer.ErrPreviewSymlink):
				console.Println("❌ preview/ must not be a symlink. Remove it and run again.")
				return silentExit(1)
			case errors.Is(err, syncer.ErrLockBusy):
				console.Println("❌ Another sync is already running. If this is stale, try again shortly.")
				return silentExit(75)
			case errors.Is(err, syncer.ErrAborted):
				return silentExit(130)
			case err != nil:
				return err
			}

			// Per-file failures are reported in the log and the summary;
			// the run itself still succeeds.
			for _, failure := range res.Failures {
				console.Printf("⚠️  Failed to sync %s: %v", failure.Rel, failure.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Assume yes for all prompts")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would change without writing")
	return cmd
}
