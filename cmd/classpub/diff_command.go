package main

import (
	"errors"

	"github.com/spf13/cobra"

	"classpub/internal/diffcmd"
	"classpub/internal/report"
)

func newDiffCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [item]",
		Short: "Diff preview/ against pending/ for tracked content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			console := report.NewConsole(cmd.OutOrStdout())
			layout, err := ctx.layout()
			if err != nil {
				return err
			}
			if err := requireRepoRoot(layout, console); err != nil {
				return err
			}
			if ok, _ := diffcmd.GitReady(); !ok {
				console.Println("❌ Git >= 2.20 required for diff")
				return silentExit(1)
			}
			man, err := loadManifest(layout, console)
			if err != nil {
				return err
			}

			differ := diffcmd.New(layout, ctx.ignore(), ctx.fingerprint(), console)
			if len(args) == 1 {
				err = differ.Item(man, args[0])
			} else {
				err = differ.All(man)
			}
			if errors.Is(err, diffcmd.ErrResolve) {
				return silentExit(1)
			}
			return err
		},
	}
}
