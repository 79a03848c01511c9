// Package report renders user-facing console output: glyph status lines,
// counter summaries, table views, and the grouped listings shown when a
// release token cannot be resolved. Everything here writes plain strings;
// structured logging stays on the logger, never on stdout.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"classpub/internal/status"
	"classpub/internal/workspace"
)

// Console writes user-facing lines to one destination, usually stdout.
type Console struct {
	out io.Writer
}

// NewConsole wraps the writer all user-facing output goes to.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Writer exposes the underlying destination for components that need it,
// such as interactive prompts that print and then read.
func (c *Console) Writer() io.Writer {
	return c.out
}

// Printf writes one formatted line, appending the newline itself.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Println writes one literal line.
func (c *Console) Println(line string) {
	fmt.Fprintln(c.out, line)
}

// FormatLine renders one status row with its glyph and suffix. Synced rows
// carry no suffix; every other state names itself in parentheses.
func FormatLine(line status.Line) string {
	if line.MissingFromPending {
		return fmt.Sprintf("⚠️  %s (missing from pending)", line.Path)
	}
	switch line.Code {
	case status.Synced:
		return fmt.Sprintf("✅ %s", line.Path)
	case status.Touched:
		return fmt.Sprintf("👆 %s (touched)", line.Path)
	case status.Modified:
		return fmt.Sprintf("🔄 %s (modified)", line.Path)
	case status.Staged:
		return fmt.Sprintf("📋 %s (staged)", line.Path)
	case status.Untracked:
		return fmt.Sprintf("📄 %s (untracked)", line.Path)
	case status.Removed:
		return fmt.Sprintf("⚠️  %s (removed)", line.Path)
	default:
		return line.Path
	}
}

// FormatCounters renders the one-line summary printed after status lines.
func FormatCounters(c status.Counters) string {
	return fmt.Sprintf("Synced: %d, Modified: %d, Touched: %d, Staged: %d, Untracked: %d, Removed: %d",
		c.Synced, c.Modified, c.Touched, c.Staged, c.Untracked, c.Removed)
}

// StatusTable renders the report as a rounded table, one row per item. The
// NOTE column only carries the missing-from-pending marker.
func StatusTable(rep status.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"STATUS", "ITEM", "NOTE"})
	for _, line := range rep.Lines {
		note := ""
		if line.MissingFromPending {
			note = "missing from pending"
		}
		tw.AppendRow(table.Row{line.Code.String(), line.Path, note})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AlignHeader: text.AlignLeft},
		{Number: 2, AlignHeader: text.AlignLeft},
		{Number: 3, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// NotFoundListing groups the pending tree into Files: and Folders: sections
// so the user can see what a failed token could have matched.
func NotFoundListing(files, dirs []string, limit int) []string {
	var out []string
	if len(files) > 0 {
		out = append(out, "Files:")
		shown := files
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, f := range shown {
			out = append(out, "  "+f)
		}
		if len(files) > limit {
			out = append(out, fmt.Sprintf("  (+%d more)", len(files)-limit))
		}
	}
	if len(dirs) > 0 {
		out = append(out, "Folders:")
		shown := dirs
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, d := range shown {
			out = append(out, "  "+d+"/")
		}
		if len(dirs) > limit {
			out = append(out, fmt.Sprintf("  (+%d more)", len(dirs)-limit))
		}
	}
	return out
}

// AmbiguityListing renders candidate matches for an ambiguous token.
func AmbiguityListing(candidates []workspace.Candidate, limit int) []string {
	var out []string
	shown := candidates
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, c := range shown {
		if c.IsFolder {
			out = append(out, fmt.Sprintf("  %s/ (folder)", c.Rel))
		} else {
			out = append(out, fmt.Sprintf("  %s (file)", c.Rel))
		}
	}
	if len(candidates) > limit {
		out = append(out, fmt.Sprintf("  (+%d more)", len(candidates)-limit))
	}
	return out
}
