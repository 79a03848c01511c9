package status

import (
	"errors"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"classpub/internal/fingerprint"
	"classpub/internal/manifest"
	"classpub/internal/workspace"
)

// Classifier computes status codes from the current pending tree, preview
// tree, and manifest.
type Classifier struct {
	layout workspace.Layout
	ignore *workspace.Ignore
	fp     *fingerprint.Service
}

// NewClassifier wires a classifier over the workspace layout.
func NewClassifier(layout workspace.Layout, ignore *workspace.Ignore, fp *fingerprint.Service) *Classifier {
	return &Classifier{layout: layout, ignore: ignore, fp: fp}
}

// ClassifyFile applies the per-file decision order: absent from preview is
// Staged; identical content is Touched when the pending mtime is newer and
// Synced otherwise (equal or older mtimes count as Synced); differing
// content is Modified. The comparison pair is rebuilt on every call since
// the workspace may change between invocations.
func (c *Classifier) ClassifyFile(rel string) (Code, error) {
	pair, err := c.fp.Compare(c.layout.PendingPath(rel), c.layout.PreviewPath(rel))
	if err != nil {
		return Modified, err
	}
	if !pair.ExistsStaging {
		return Staged, nil
	}
	if !pair.ExistsSource || pair.SourceHash != pair.StagingHash {
		return Modified, nil
	}
	if pair.SourceMtime.After(pair.StagingMtime) {
		return Touched, nil
	}
	return Synced, nil
}

// ClassifyFolder aggregates the folder's children to the worst status:
// Modified beats Staged beats Synced; Touched children do not demote a
// folder. Folders with no files anywhere report ok=false (nothing to show).
func (c *Classifier) ClassifyFolder(rel string) (Code, bool, error) {
	srcFiles, err := workspace.ScanFiles(c.layout.PendingPath(rel), c.ignore)
	if err != nil {
		return Modified, true, err
	}
	dstFiles, err := workspace.ScanFiles(c.layout.PreviewPath(rel), c.ignore)
	if err != nil {
		return Modified, true, err
	}
	if len(srcFiles) == 0 && len(dstFiles) == 0 {
		return Synced, false, nil
	}

	srcSet := make(map[string]struct{}, len(srcFiles))
	for _, f := range srcFiles {
		srcSet[norm.NFC.String(f)] = struct{}{}
	}

	worst := Synced
	for _, f := range srcFiles {
		code, err := c.ClassifyFile(rel + "/" + f)
		if err != nil {
			return Modified, true, err
		}
		worst = worse(worst, code)
	}
	// Preview-only files under the folder mean the trees disagree.
	for _, f := range dstFiles {
		if _, ok := srcSet[norm.NFC.String(f)]; !ok {
			worst = Modified
			break
		}
	}
	return worst, true, nil
}

// FolderChildren returns per-file detail lines for one tracked folder.
func (c *Classifier) FolderChildren(rel string) ([]Line, error) {
	files, err := workspace.ScanFiles(c.layout.PendingPath(rel), c.ignore)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(files))
	for _, f := range files {
		child := rel + "/" + f
		code, err := c.ClassifyFile(child)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{Path: child, Code: code})
	}
	return lines, nil
}

// Orphans lists preview files with no covering manifest entry, sorted.
func (c *Classifier) Orphans(man *manifest.Manifest) ([]string, error) {
	previewFiles, err := workspace.ScanFiles(c.layout.PreviewDir, c.ignore)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, rel := range previewFiles {
		if man.Covers(rel) {
			continue
		}
		orphans = append(orphans, rel)
	}
	sort.Strings(orphans)
	return orphans, nil
}

// Compute builds the full status report: per-file lines for directly
// tracked files, one aggregated line per tracked folder, untracked pending
// files, and preview orphans.
func (c *Classifier) Compute(man *manifest.Manifest) (Report, error) {
	var report Report

	pendingFiles, err := workspace.ScanFiles(c.layout.PendingDir, c.ignore)
	if err != nil {
		return report, err
	}

	trackedFiles := man.Files()
	for _, rel := range pendingFiles {
		key := norm.NFC.String(rel)
		_, direct := trackedFiles[key]
		byFolder := man.CoveredByFolder(rel)
		switch {
		case direct && !byFolder:
			code, err := c.ClassifyFile(rel)
			if err != nil {
				return report, err
			}
			report.Lines = append(report.Lines, Line{Path: rel, Code: code})
			report.Counters.add(code)
		case !direct && !byFolder:
			report.Lines = append(report.Lines, Line{Path: rel, Code: Untracked})
			report.Counters.add(Untracked)
		}
		// Files under tracked folders are reported on the folder line.
	}

	for _, folder := range man.Folders() {
		display := folder.Rel + "/"
		if _, err := os.Stat(c.layout.PendingPath(folder.Rel)); errors.Is(err, os.ErrNotExist) {
			report.Lines = append(report.Lines, Line{Path: display, Code: Modified, IsFolder: true, MissingFromPending: true})
			report.Counters.add(Modified)
			continue
		}
		code, ok, err := c.ClassifyFolder(folder.Rel)
		if err != nil {
			return report, err
		}
		if !ok {
			// Empty folders stay valid manifest entries but have nothing
			// to report.
			continue
		}
		report.Lines = append(report.Lines, Line{Path: display, Code: code, IsFolder: true})
		report.Counters.add(code)
	}

	orphans, err := c.Orphans(man)
	if err != nil {
		return report, err
	}
	for _, rel := range orphans {
		report.Lines = append(report.Lines, Line{Path: rel, Code: Removed})
		report.Counters.add(Removed)
	}

	sort.SliceStable(report.Lines, func(i, j int) bool {
		a, b := report.Lines[i], report.Lines[j]
		if groupRank(a.Code) != groupRank(b.Code) {
			return groupRank(a.Code) < groupRank(b.Code)
		}
		return strings.Compare(a.Path, b.Path) < 0
	})
	return report, nil
}

func groupRank(code Code) int {
	switch code {
	case Modified:
		return 0
	case Touched:
		return 1
	case Staged:
		return 2
	case Untracked:
		return 3
	case Removed:
		return 4
	default:
		return 5
	}
}

// worse folds folder-child codes onto the aggregation order: Modified
// beats Staged beats everything else. Touched never demotes a folder, so
// it ranks with Synced.
func worse(a, b Code) Code {
	r := aggRank(a)
	if rb := aggRank(b); rb > r {
		r = rb
	}
	switch r {
	case 2:
		return Modified
	case 1:
		return Staged
	default:
		return Synced
	}
}

func aggRank(code Code) int {
	switch code {
	case Modified:
		return 2
	case Staged:
		return 1
	default:
		return 0
	}
}
