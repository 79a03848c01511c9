// Package diffcmd shows differences between the preview and pending trees
// for tracked content. Single files go through git diff --no-index; folders
// get an added/removed/changed summary computed from the trees directly.
package diffcmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"classpub/internal/fingerprint"
	"classpub/internal/manifest"
	"classpub/internal/report"
	"classpub/internal/workspace"
)

const (
	headerAll    = "📊 Diff: preview vs pending (tracked files only)"
	noDiffs      = "✅ No differences found between tracked files"
	sectionLimit = 200
)

// ErrResolve reports that an item token could not be resolved; the listing
// printed alongside tells the user what exists.
var ErrResolve = errors.New("cannot resolve item")

// GitReady reports whether a usable git (>= 2.20, needed for --no-index
// behavior this package relies on) is installed, and its version string.
func GitReady() (bool, string) {
	out, err := exec.Command("git", "--version").Output()
	if err != nil {
		return false, ""
	}
	version := strings.TrimSpace(string(out))
	fields := strings.Fields(version)
	if len(fields) < 3 {
		return false, version
	}
	parts := strings.Split(fields[2], ".")
	if len(parts) < 2 {
		return false, version
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return false, version
	}
	return major > 2 || (major == 2 && minor >= 20), version
}

// Differ runs diffs over one workspace layout.
type Differ struct {
	layout  workspace.Layout
	ignore  *workspace.Ignore
	fp      *fingerprint.Service
	console *report.Console

	// GitDiff returns the diff lines and git's exit code: 0 no changes,
	// 1 changes, anything else an invocation failure. Tests replace it.
	GitDiff func(previewPath, pendingPath string) ([]string, int)
}

// New wires a differ over the workspace layout.
func New(layout workspace.Layout, ignore *workspace.Ignore, fp *fingerprint.Service, console *report.Console) *Differ {
	return &Differ{
		layout:  layout,
		ignore:  ignore,
		fp:      fp,
		console: console,
		GitDiff: execGitDiff,
	}
}

func execGitDiff(previewPath, pendingPath string) ([]string, int) {
	cmd := exec.Command("git", "diff", "--no-index", "--", previewPath, pendingPath)
	out, err := cmd.Output()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			return nil, 2
		}
	}
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, code
}

// All diffs every manifest entry and prints the no-differences notice when
// nothing changed. Differences are not an error; only a failed git
// invocation is.
func (d *Differ) All(man *manifest.Manifest) error {
	d.console.Println(headerAll)

	anyOutput := false
	for _, entry := range man.Entries() {
		if entry.IsFolder {
			srcOK := exists(d.layout.PendingPath(entry.Rel))
			dstOK := exists(d.layout.PreviewPath(entry.Rel))
			if srcOK && dstOK {
				printed, err := d.printFolderSummary(entry.Rel)
				if err != nil {
					return err
				}
				anyOutput = anyOutput || printed
			}
			continue
		}
		if !exists(d.layout.PendingPath(entry.Rel)) || !exists(d.layout.PreviewPath(entry.Rel)) {
			continue
		}
		lines, code := d.GitDiff(d.layout.PreviewPath(entry.Rel), d.layout.PendingPath(entry.Rel))
		for _, line := range lines {
			d.console.Println(line)
		}
		switch code {
		case 0:
		case 1:
			anyOutput = true
		default:
			return fmt.Errorf("git diff failed for %s", entry.Rel)
		}
	}

	if !anyOutput {
		d.console.Println(noDiffs)
	}
	return nil
}

// Item diffs one resolved token. Tokens that resolve nowhere fall back to
// the manifest, so entries whose pending copy is gone still report which
// side has content.
func (d *Differ) Item(man *manifest.Manifest, token string) error {
	res, err := d.layout.Resolve(token, d.ignore)
	if err != nil {
		d.console.Printf("❌ %v", err)
		return ErrResolve
	}

	switch res.Kind {
	case workspace.Ambiguous:
		d.console.Printf("❌ Ambiguous item: %s", token)
		for _, line := range report.AmbiguityListing(res.Candidates, 50) {
			d.console.Println(line)
		}
		return ErrResolve
	case workspace.NotFound:
		entry, ok := manifestEntryForToken(man, token)
		if !ok {
			d.console.Printf("❌ File or folder not found: %s", token)
			files, dirs, scanErr := d.layout.ScanPending(d.ignore)
			if scanErr == nil {
				for _, line := range report.NotFoundListing(files, dirs, sectionLimit) {
					d.console.Println(line)
				}
			}
			return ErrResolve
		}
		d.printSideOnly(entry.Rel, entry.IsFolder)
		return nil
	case workspace.ResolvedFolder:
		if exists(d.layout.PreviewPath(res.Rel)) {
			_, err := d.printFolderSummary(res.Rel)
			return err
		}
		d.printSideOnly(res.Rel, true)
		return nil
	default:
		if exists(d.layout.PreviewPath(res.Rel)) {
			lines, code := d.GitDiff(d.layout.PreviewPath(res.Rel), d.layout.PendingPath(res.Rel))
			for _, line := range lines {
				d.console.Println(line)
			}
			if code != 0 && code != 1 {
				return fmt.Errorf("git diff failed for %s", res.Rel)
			}
			return nil
		}
		d.printSideOnly(res.Rel, false)
		return nil
	}
}

// printSideOnly reports which tree has the item when it is not present on
// both sides. Informational, never an error.
func (d *Differ) printSideOnly(rel string, isFolder bool) {
	display := rel
	if isFolder {
		display += "/"
	}
	srcOK := exists(d.layout.PendingPath(rel))
	dstOK := exists(d.layout.PreviewPath(rel))
	switch {
	case srcOK && !dstOK:
		if isFolder {
			added, _, _, err := d.dirDiff(rel)
			if err == nil && len(added) == 0 {
				return
			}
		}
		d.console.Printf("ℹ️  %s exists in pending but not in preview", display)
	case dstOK && !srcOK:
		d.console.Printf("ℹ️  %s exists in preview but not in pending", display)
	case !srcOK && !dstOK:
		d.console.Printf("ℹ️  %s does not exist in pending or preview", display)
	}
}

// printFolderSummary emits the Added/Removed/Changed sections for one
// folder, or nothing when the trees agree.
func (d *Differ) printFolderSummary(rel string) (bool, error) {
	added, removed, changed, err := d.dirDiff(rel)
	if err != nil {
		return false, err
	}
	if len(added) == 0 && len(removed) == 0 && len(changed) == 0 {
		return false, nil
	}

	d.console.Printf("📁 %s/ (folder has changes)", rel)
	emit := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		d.console.Println(title)
		shown := items
		if len(shown) > sectionLimit {
			shown = shown[:sectionLimit]
		}
		for _, item := range shown {
			d.console.Printf("  %s", item)
		}
		if len(items) > sectionLimit {
			d.console.Printf("  (+%d more)", len(items)-sectionLimit)
		}
	}
	emit("Added:", added)
	emit("Removed:", removed)
	emit("Changed:", changed)
	return true, nil
}

// dirDiff compares the pending and preview copies of one folder. Added is
// pending-only, removed is preview-only, changed is present on both sides
// with differing content. A failed comparison counts as changed.
func (d *Differ) dirDiff(rel string) (added, removed, changed []string, err error) {
	srcFiles, err := workspace.ScanFiles(d.layout.PendingPath(rel), d.ignore)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scan pending %s: %w", rel, err)
	}
	dstFiles, err := workspace.ScanFiles(d.layout.PreviewPath(rel), d.ignore)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scan preview %s: %w", rel, err)
	}

	dstSet := make(map[string]struct{}, len(dstFiles))
	for _, f := range dstFiles {
		dstSet[norm.NFC.String(f)] = struct{}{}
	}
	srcSet := make(map[string]struct{}, len(srcFiles))
	for _, f := range srcFiles {
		srcSet[norm.NFC.String(f)] = struct{}{}
	}

	for _, f := range srcFiles {
		if _, ok := dstSet[norm.NFC.String(f)]; !ok {
			added = append(added, f)
			continue
		}
		equal, cmpErr := d.fp.Equal(d.layout.PendingPath(rel+"/"+f), d.layout.PreviewPath(rel+"/"+f))
		if cmpErr != nil || !equal {
			changed = append(changed, f)
		}
	}
	for _, f := range dstFiles {
		if _, ok := srcSet[norm.NFC.String(f)]; !ok {
			removed = append(removed, f)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed, nil
}

// manifestEntryForToken matches a token against manifest entries so diff
// can describe tracked content whose pending copy no longer exists.
func manifestEntryForToken(man *manifest.Manifest, token string) (manifest.Entry, bool) {
	tok := workspace.NormalizeToken(token)
	tok = strings.TrimPrefix(tok, "pending/")
	bare := strings.TrimSuffix(tok, "/")
	for _, e := range man.Entries() {
		if e.Raw == tok || e.Rel == bare {
			return e, true
		}
	}
	return manifest.Entry{}, false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
