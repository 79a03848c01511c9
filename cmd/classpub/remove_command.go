package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"classpub/internal/manifest"
	"classpub/internal/report"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item>",
		Short: "Remove a file or folder from the release manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			console := report.NewConsole(cmd.OutOrStdout())
			layout, err := ctx.layout()
			if err != nil {
				return err
			}
			if err := requireRepoRoot(layout, console); err != nil {
				return err
			}
			if _, err := os.Stat(layout.ManifestPath()); err != nil {
				console.Println("❌ pending/RELEASES.txt is missing")
				return silentExit(1)
			}
			rel, isFolder, err := resolveItem(layout, ctx.ignore(), console, args[0])
			if err != nil {
				return err
			}
			man, err := loadManifest(layout, console)
			if err != nil {
				return err
			}
			entry, err := man.Remove(rel, isFolder)
			if err != nil {
				if errors.Is(err, manifest.ErrNotTracked) {
					console.Printf("⚠️  %s is not in release manifest", display(rel, isFolder))
					entries := man.Entries()
					if len(entries) > 0 {
						console.Println("Currently released files:")
						for _, e := range entries {
							console.Printf("  %s", e.Raw)
						}
					}
					return nil
				}
				return err
			}
			ctx.ensureLogger().Info("removed from release", "item", entry.Raw)
			console.Printf("✓ Removed %s from release manifest", entry.Raw)
			if _, err := os.Stat(layout.PreviewPath(rel)); err == nil {
				console.Println("ℹ️  Item still exists in preview (next sync will remove it)")
			}
			return nil
		},
	}
}
