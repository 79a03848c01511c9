// Package validate audits the workspace structure: required directories,
// the symlink gate on the preview root, manifest-vs-disk drift, orphan
// preview folders, case collisions that would break checkouts on
// case-insensitive filesystems, and leftover notebook checkpoints.
package validate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"classpub/internal/manifest"
	"classpub/internal/report"
	"classpub/internal/workspace"
)

const listLimit = 200

// Counts tallies findings. Errors make the run fail; warnings fail it only
// in strict mode.
type Counts struct {
	Errors   int
	Warnings int
}

// Failed reports whether the counts amount to a failing validation.
func (c Counts) Failed(strict bool) bool {
	if c.Errors > 0 {
		return true
	}
	return strict && c.Warnings > 0
}

// Checker runs validation over one workspace layout.
type Checker struct {
	layout workspace.Layout
	ignore *workspace.Ignore

	// GitReady is consulted so a missing or ancient git surfaces here
	// instead of at first diff. Nil skips the check.
	GitReady func() (bool, string)
}

// NewChecker wires a checker over the workspace layout.
func NewChecker(layout workspace.Layout, ignore *workspace.Ignore) *Checker {
	return &Checker{layout: layout, ignore: ignore}
}

// Run executes every check, printing findings as it goes, and ends with
// the completion summary.
func (c *Checker) Run(console *report.Console) Counts {
	var counts Counts
	errf := func(format string, args ...any) {
		counts.Errors++
		console.Printf("❌ "+format, args...)
	}
	warnf := func(format string, args ...any) {
		counts.Warnings++
		console.Printf("⚠️  "+format, args...)
	}

	if c.GitReady != nil {
		if ok, _ := c.GitReady(); ok {
			console.Println("✅ Git OK")
		} else {
			errf("Git >= 2.20 required for diff")
		}
	}

	if !c.layout.PendingExists() {
		errf("pending/ is missing")
	}
	if _, err := os.Stat(c.layout.ManifestPath()); err != nil {
		errf("pending/RELEASES.txt is missing")
	}
	if isLink, err := c.layout.PreviewIsSymlink(); err != nil {
		errf("Unable to access preview/ to validate symlink status")
	} else if isLink {
		errf("preview/ must not be a symlink")
	}
	previewExists := true
	if _, err := os.Stat(c.layout.PreviewDir); errors.Is(err, os.ErrNotExist) {
		previewExists = false
		warnf("preview/ is missing (informational)")
	}

	man, err := manifest.Load(c.layout.ManifestPath())
	if err != nil {
		errf("Manifest is corrupt: %v", err)
		console.Printf("✅ Validate complete: %d errors, %d warnings", counts.Errors, counts.Warnings)
		return counts
	}

	for _, entry := range man.Folders() {
		if _, err := os.Stat(c.layout.PendingPath(entry.Rel)); errors.Is(err, os.ErrNotExist) {
			warnf("%s/ (missing from pending)", entry.Rel)
		}
		if previewExists {
			if _, err := os.Stat(c.layout.PreviewPath(entry.Rel)); errors.Is(err, os.ErrNotExist) {
				warnf("preview/%s/ is missing", entry.Rel)
			}
		}
	}

	for _, line := range c.orphanPreviewFolders(man) {
		warnf("Orphan preview folder: preview/%s", line)
	}

	for _, pair := range caseCollisions(c.layout.PendingDir) {
		warnf("Potential case-collision in pending/: %s vs %s", pair[0], pair[1])
	}
	for _, pair := range caseCollisions(c.layout.PreviewDir) {
		warnf("Potential case-collision in preview/: %s vs %s", pair[0], pair[1])
	}

	for _, rel := range c.pendingCheckpoints() {
		warnf("Found .ipynb_checkpoints under pending/: %s", rel)
	}

	console.Printf("✅ Validate complete: %d errors, %d warnings", counts.Errors, counts.Warnings)
	return counts
}

// orphanPreviewFolders lists top-level preview directories no manifest
// entry accounts for.
func (c *Checker) orphanPreviewFolders(man *manifest.Manifest) []string {
	entries, err := os.ReadDir(c.layout.PreviewDir)
	if err != nil {
		return nil
	}
	trackedFiles := man.Files()
	var found []string
	for _, d := range entries {
		if !d.IsDir() || c.ignore.Dir(d.Name(), d.Name()) {
			continue
		}
		rel := d.Name()
		if man.CoveredByFolder(rel) {
			continue
		}
		prefix := rel + "/"
		containsTracked := false
		for tf := range trackedFiles {
			if strings.HasPrefix(tf, prefix) {
				containsTracked = true
				break
			}
		}
		if containsTracked {
			continue
		}
		found = append(found, rel+"/")
	}
	sort.Strings(found)
	if len(found) > listLimit {
		found = found[:listLimit]
	}
	return found
}

// caseCollisions groups every path under root by its case-folded form and
// returns the first two spellings of each group that has more than one.
func caseCollisions(root string) [][2]string {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	fold := cases.Fold()
	groups := make(map[string][]string)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		key := fold.String(rel)
		for _, seen := range groups[key] {
			if seen == rel {
				return nil
			}
		}
		groups[key] = append(groups[key], rel)
		return nil
	})

	var pairs [][2]string
	for _, spellings := range groups {
		if len(spellings) < 2 {
			continue
		}
		sort.Strings(spellings)
		pairs = append(pairs, [2]string{spellings[0], spellings[1]})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// pendingCheckpoints lists .ipynb_checkpoints directories under pending.
func (c *Checker) pendingCheckpoints() []string {
	var found []string
	_ = filepath.WalkDir(c.layout.PendingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == ".ipynb_checkpoints" {
			if rel, relErr := filepath.Rel(c.layout.PendingDir, path); relErr == nil {
				found = append(found, filepath.ToSlash(rel))
			}
			return filepath.SkipDir
		}
		return nil
	})
	sort.Strings(found)
	if len(found) > listLimit {
		found = found[:listLimit]
	}
	return found
}
