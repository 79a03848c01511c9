package main

import (
	"errors"

	"github.com/spf13/cobra"

	"classpub/internal/manifest"
	"classpub/internal/report"
	"classpub/internal/workspace"
)

// resolveItem maps a user token onto the pending tree, printing the
// not-found or ambiguity listing when resolution fails.
func resolveItem(layout workspace.Layout, ig *workspace.Ignore, console *report.Console, token string) (string, bool, error) {
	res, err := layout.Resolve(token, ig)
	if err != nil {
		console.Printf("❌ %v", err)
		return "", false, silentExit(1)
	}
	switch res.Kind {
	case workspace.ResolvedFile:
		return res.Rel, false, nil
	case workspace.ResolvedFolder:
		return res.Rel, true, nil
	case workspace.Ambiguous:
		console.Printf("❌ Ambiguous item: %s", token)
		for _, line := range report.AmbiguityListing(res.Candidates, 50) {
			console.Println(line)
		}
		return "", false, silentExit(1)
	default:
		console.Printf("❌ File or folder not found: %s", token)
		files, dirs, scanErr := layout.ScanPending(ig)
		if scanErr == nil {
			for _, line := range report.NotFoundListing(files, dirs, 200) {
				console.Println(line)
			}
		}
		return "", false, silentExit(1)
	}
}

func display(rel string, isFolder bool) string {
	if isFolder {
		return rel + "/"
	}
	return rel
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "release <item>",
		Short: "Mark a pending file or folder for release",
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
			rel, isFolder, err := resolveItem(layout, ctx.ignore(), console, args[0])
			if err != nil {
				return err
			}
			man, err := loadManifest(layout, console)
			if err != nil {
				return err
			}
			entry, err := man.Add(rel, isFolder)
			if err != nil {
				if errors.Is(err, manifest.ErrAlreadyTracked) {
					console.Printf("⚠️  %s already released", display(rel, isFolder))
					return nil
				}
				return err
			}
			ctx.ensureLogger().Info("marked for release", "item", entry.Raw)
			console.Printf("✓ Marked %s for release", entry.Raw)
			console.Println("  Run 'classpub sync' to copy to public folder")
			return nil
		},
	}
}
