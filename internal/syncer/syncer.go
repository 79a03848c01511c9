// Package syncer reconciles the preview tree with the pending tree and the
// release manifest. A run copies new and changed files, strips notebook
// outputs from preview copies, removes orphans after confirmation, and
// prunes empty directories, in that order. One advisory lock serializes
// writers; a marker file left behind flags an interrupted run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"classpub/internal/fingerprint"
	"classpub/internal/logging"
	"classpub/internal/manifest"
	"classpub/internal/notebook"
	"classpub/internal/report"
	"classpub/internal/workspace"
)

// ErrPreviewSymlink reports that the preview root is a symlink. Syncing
// through one could write outside the workspace, so the run stops before
// touching anything.
var ErrPreviewSymlink = errors.New("preview/ must not be a symlink")

// Options selects per-run behavior.
type Options struct {
	// DryRun reports what would change without writing anything.
	DryRun bool
	// AssumeYes approves removals and stale-marker resyncs without
	// prompting.
	AssumeYes bool
}

// Failure records one file the run could not copy or remove. Failures do
// not abort the batch; the remaining files still sync.
type Failure struct {
	Rel string
	Err error
}

// Result summarizes one run. Updated and Unchanged count manifest entries;
// Removed counts individual preview files.
type Result struct {
	Updated   int
	Removed   int
	Unchanged int
	Failures  []Failure
}

// Engine runs syncs over one workspace layout.
type Engine struct {
	layout  workspace.Layout
	ignore  *workspace.Ignore
	fp      *fingerprint.Service
	console *report.Console
	log     *slog.Logger
	confirm Confirmer
	lockTTL time.Duration
}

// Params collects the collaborators an Engine needs.
type Params struct {
	Layout      workspace.Layout
	Ignore      *workspace.Ignore
	Fingerprint *fingerprint.Service
	Console     *report.Console
	Logger      *slog.Logger
	Confirm     Confirmer
	LockTTL     time.Duration
}

// New wires an Engine. A nil Confirm declines every prompt; a zero LockTTL
// falls back to 30 seconds.
func New(p Params) *Engine {
	if p.Confirm == nil {
		p.Confirm = AutoDecline()
	}
	if p.LockTTL <= 0 {
		p.LockTTL = 30 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logging.NewNop()
	}
	return &Engine{
		layout:  p.Layout,
		ignore:  p.Ignore,
		fp:      p.Fingerprint,
		console: p.Console,
		log:     p.Logger,
		confirm: p.Confirm,
		lockTTL: p.LockTTL,
	}
}

// Run executes one sync. The symlink gate runs before any mutation, so a
// symlinked preview root fails with ErrPreviewSymlink and an untouched
// workspace. A held lock fails with ErrLockBusy. A declined or aborted
// prompt during orphan removal leaves the copies in place.
func (e *Engine) Run(ctx context.Context, man *manifest.Manifest, opts Options) (Result, error) {
	var res Result

	isLink, err := e.layout.PreviewIsSymlink()
	if err != nil {
		return res, fmt.Errorf("inspect preview root: %w", err)
	}
	if isLink {
		return res, ErrPreviewSymlink
	}

	if !opts.DryRun {
		if err := os.MkdirAll(e.layout.PreviewDir, 0o755); err != nil {
			return res, fmt.Errorf("create preview root: %w", err)
		}
	}

	lock, err := AcquireLock(e.layout.Root)
	if err != nil {
		return res, err
	}
	defer lock.Unlock()

	mark := newMarker(e.layout.Root)
	forceFull, err := e.checkMarker(mark, opts)
	if err != nil {
		return res, err
	}
	if !opts.DryRun {
		if err := mark.write(); err != nil {
			e.log.Warn("marker write failed", "error", err)
		}
		defer mark.remove()
	}

	entries := man.Entries()
	p := e.buildPlan(entries, forceFull)
	e.log.Info("sync plan built", "operations", len(p.ops), "entries", len(entries), "full_resync", forceFull)

	res.Failures = e.applyOps(ctx, p.ops, opts.DryRun)
	e.stripNotebooks(entries, p, opts.DryRun)
	e.printFolderLines(entries, p)

	for _, updated := range p.entryUpdated {
		if updated {
			res.Updated++
		} else {
			res.Unchanged++
		}
	}

	removed, removeFailures, err := e.removeOrphans(man, opts)
	if err != nil {
		return res, err
	}
	res.Removed = removed
	res.Failures = append(res.Failures, removeFailures...)

	if !opts.DryRun {
		pruneEmptyDirs(e.layout.PreviewDir)
	}

	e.console.Printf("✓ Sync complete: %d updated, %d removed, %d unchanged", res.Updated, res.Removed, res.Unchanged)
	return res, nil
}

// checkMarker decides whether a leftover marker forces a full resync. Dry
// runs never prompt and never force one; the marker is only logged. With
// AssumeYes only a stale marker forces one; otherwise the user decides.
func (e *Engine) checkMarker(mark marker, opts Options) (bool, error) {
	exists, isStale := mark.stale(e.lockTTL)
	if !exists {
		return false, nil
	}
	e.log.Warn("previous sync left a marker", "stale", isStale)
	if opts.DryRun {
		return false, nil
	}
	if opts.AssumeYes {
		return isStale, nil
	}
	return e.confirm.Confirm("⚠️  Previous sync may not have completed cleanly. Perform full resync? [y/N] ")
}

func (e *Engine) scanFolder(dir string) ([]string, error) {
	return workspace.ScanFiles(dir, e.ignore)
}

// applyOps copies each planned file. A failed copy is recorded and skipped;
// the rest of the batch still runs.
func (e *Engine) applyOps(ctx context.Context, ops []op, dryRun bool) []Failure {
	var failures []Failure
	for _, o := range ops {
		if err := ctx.Err(); err != nil {
			failures = append(failures, Failure{Rel: o.rel, Err: err})
			return failures
		}
		if dryRun {
			continue
		}
		src := e.layout.PendingPath(o.rel)
		dst := e.layout.PreviewPath(o.rel)
		if err := atomicCopy(src, dst); err != nil {
			e.log.Error("copy failed", "path", o.rel, "error", err)
			failures = append(failures, Failure{Rel: o.rel, Err: err})
			continue
		}
		e.log.Debug("copied", "path", o.rel)
	}
	return failures
}

// stripNotebooks clears outputs from every notebook this run wrote, plus
// every notebook under a folder entry copied into preview for the first
// time. Stripping is best-effort; a failure logs and moves on.
func (e *Engine) stripNotebooks(entries []manifest.Entry, p plan, dryRun bool) {
	if dryRun {
		return
	}
	targets := make(map[string]struct{})
	for _, o := range p.ops {
		if notebook.IsNotebook(o.rel) {
			targets[o.rel] = struct{}{}
		}
	}
	for _, entry := range entries {
		if !entry.IsFolder || p.folderExisted[entry.Raw] {
			continue
		}
		files, err := e.scanFolder(e.layout.PreviewPath(entry.Rel))
		if err != nil {
			continue
		}
		for _, f := range files {
			if notebook.IsNotebook(f) {
				targets[entry.Rel+"/"+f] = struct{}{}
			}
		}
	}

	sorted := make([]string, 0, len(targets))
	for rel := range targets {
		sorted = append(sorted, rel)
	}
	sort.Strings(sorted)
	for _, rel := range sorted {
		if _, err := notebook.StripFile(e.layout.PreviewPath(rel)); err != nil {
			e.log.Warn("notebook strip failed", "path", rel, "error", err)
			continue
		}
		e.log.Debug("stripped notebook outputs", "path", rel)
	}
}

// printFolderLines emits the per-folder progress lines in manifest order.
func (e *Engine) printFolderLines(entries []manifest.Entry, p plan) {
	for _, entry := range entries {
		if !entry.IsFolder {
			continue
		}
		if _, err := os.Stat(e.layout.PendingPath(entry.Rel)); err != nil {
			continue
		}
		var n int
		for _, o := range p.ops {
			if o.entryRaw == entry.Raw {
				n++
			}
		}
		switch {
		case n == 0 && p.folderFileCounts[entry.Raw] == 0:
			e.console.Printf("📁 Empty folder %s/", entry.Rel)
		case n > 0 && !p.folderExisted[entry.Raw]:
			e.console.Printf("📁 Copied folder %s/ (%d files)", entry.Rel, n)
		case n > 0:
			e.console.Printf("📁 Updated folder %s/ (%d files)", entry.Rel, n)
		}
	}
}

// removeOrphans lists preview files with no covering manifest entry and,
// outside dry runs, removes them after confirmation. Dry runs print the
// list and count it without prompting. A failed removal is collected like a
// failed copy; the remaining orphans are still removed.
func (e *Engine) removeOrphans(man *manifest.Manifest, opts Options) (int, []Failure, error) {
	previewFiles, err := workspace.ScanFiles(e.layout.PreviewDir, e.ignore)
	if err != nil {
		return 0, nil, fmt.Errorf("scan preview: %w", err)
	}
	var orphans []string
	for _, rel := range previewFiles {
		if !man.Covers(rel) {
			orphans = append(orphans, rel)
		}
	}
	sort.Strings(orphans)
	if len(orphans) == 0 {
		return 0, nil, nil
	}

	e.console.Println("⚠️  These files will be REMOVED from preview (not in manifest):")
	for _, rel := range orphans {
		e.console.Printf("     - %s", rel)
	}

	if opts.DryRun {
		return len(orphans), nil, nil
	}
	approved := opts.AssumeYes
	if !approved {
		approved, err = e.confirm.Confirm("  Continue with removal? [y/N] ")
		if err != nil {
			return 0, nil, err
		}
	}
	if !approved {
		e.console.Println("  Skipped removal")
		return 0, nil, nil
	}

	removed := 0
	var failures []Failure
	for _, rel := range orphans {
		path := e.layout.PreviewPath(rel)
		if info, err := os.Lstat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := os.Remove(path); err != nil {
			e.log.Error("orphan removal failed", "path", rel, "error", err)
			failures = append(failures, Failure{Rel: rel, Err: err})
			continue
		}
		removed++
		e.log.Debug("removed orphan", "path", rel)
	}
	return removed, failures, nil
}
