package syncer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"classpub/internal/manifest"
	"classpub/internal/notebook"
)

type opKind int

const (
	opCopy opKind = iota
	opUpdate
)

// op is one planned file copy. rel is the slash-separated path below both
// the pending and preview roots; entryRaw ties it back to the manifest
// entry that produced it.
type op struct {
	rel      string
	entryRaw string
	kind     opKind
}

// plan is the full set of copy operations plus the per-entry bookkeeping
// the summary needs.
type plan struct {
	ops              []op
	entryUpdated     map[string]bool
	folderExisted    map[string]bool
	folderFileCounts map[string]int
}

// buildPlan walks every manifest entry and decides which pending files need
// copying into preview. Entries absent from pending plan nothing. A
// comparison failure plans an update rather than skipping the file.
func (e *Engine) buildPlan(entries []manifest.Entry, forceFull bool) plan {
	p := plan{
		entryUpdated:     make(map[string]bool, len(entries)),
		folderExisted:    make(map[string]bool),
		folderFileCounts: make(map[string]int),
	}

	for _, entry := range entries {
		p.entryUpdated[entry.Raw] = false

		if entry.IsFolder {
			srcDir := e.layout.PendingPath(entry.Rel)
			if _, err := os.Stat(srcDir); err != nil {
				continue
			}
			_, statErr := os.Stat(e.layout.PreviewPath(entry.Rel))
			p.folderExisted[entry.Raw] = statErr == nil

			files, err := e.scanFolder(srcDir)
			if err != nil {
				e.log.Warn("folder scan failed", "folder", entry.Rel, "error", err)
				continue
			}
			p.folderFileCounts[entry.Raw] = len(files)
			for _, f := range files {
				rel := entry.Rel + "/" + f
				e.planFile(&p, rel, entry.Raw, forceFull)
			}
			continue
		}

		if _, err := os.Stat(e.layout.PendingPath(entry.Rel)); err != nil {
			continue
		}
		e.planFile(&p, entry.Rel, entry.Raw, forceFull)
	}
	return p
}

func (e *Engine) planFile(p *plan, rel, entryRaw string, forceFull bool) {
	dst := e.layout.PreviewPath(rel)
	if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
		p.ops = append(p.ops, op{rel: rel, entryRaw: entryRaw, kind: opCopy})
		p.entryUpdated[entryRaw] = true
		return
	}
	equal, err := e.contentEqual(e.layout.PendingPath(rel), dst)
	if err != nil {
		e.log.Warn("comparison failed", "path", rel, "error", err)
		equal = false
	}
	if forceFull || !equal {
		p.ops = append(p.ops, op{rel: rel, entryRaw: entryRaw, kind: opUpdate})
		p.entryUpdated[entryRaw] = true
	}
}

// contentEqual compares a pending file against its preview copy. Notebooks
// compare in stripped form, so a preview copy whose outputs were cleared
// still counts as equal to a pending copy that kept them.
func (e *Engine) contentEqual(src, dst string) (bool, error) {
	if !notebook.IsNotebook(src) {
		return e.fp.Equal(src, dst)
	}
	srcData, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	dstData, err := os.ReadFile(dst)
	if err != nil {
		return false, err
	}
	srcStripped, srcErr := notebook.Strip(srcData)
	dstStripped, dstErr := notebook.Strip(dstData)
	if srcErr != nil || dstErr != nil {
		// A malformed notebook falls back to raw byte comparison.
		return bytes.Equal(srcData, dstData), nil
	}
	return bytes.Equal(srcStripped, dstStripped), nil
}

// atomicCopy copies src to dst via a temp file and rename, creating parent
// directories and carrying the source mtime over so the copy does not read
// as touched afterwards.
func atomicCopy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("flush temp: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace destination: %w", err)
	}
	if info, err := os.Stat(src); err == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return nil
}

// pruneEmptyDirs removes empty directories under root, deepest first. The
// root itself always survives.
func pruneEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		_ = os.Remove(dir)
	}
}
