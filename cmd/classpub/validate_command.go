package main

import (
	"github.com/spf13/cobra"

	"classpub/internal/diffcmd"
	"classpub/internal/report"
	"classpub/internal/validate"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Audit the workspace structure and manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := report.NewConsole(cmd.OutOrStdout())
			layout, err := ctx.layout()
			if err != nil {
				return err
			}
			checker := validate.NewChecker(layout, ctx.ignore())
			checker.GitReady = diffcmd.GitReady
			counts := checker.Run(console)
			if counts.Failed(ctx.strict()) {
				return silentExit(1)
			}
			return nil
		},
	}
}
