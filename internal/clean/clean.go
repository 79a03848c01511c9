// Package clean removes editor droppings from both trees: .DS_Store files
// and .ipynb_checkpoints directories under pending/ and preview/. It shares
// the sync lock so it never races a running sync.
package clean

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"classpub/internal/report"
	"classpub/internal/syncer"
	"classpub/internal/workspace"
)

// Counts reports what one clean pass removed.
type Counts struct {
	Files int
	Dirs  int
}

// Run sweeps both trees and prints the completion summary. A held lock
// surfaces as syncer.ErrLockBusy for the caller to map to exit 75.
func Run(layout workspace.Layout, console *report.Console) (Counts, error) {
	var counts Counts

	lock, err := syncer.AcquireLock(layout.Root)
	if err != nil {
		return counts, err
	}
	defer lock.Unlock()

	for _, root := range []string{layout.PendingDir, layout.PreviewDir} {
		if err := removeDSStore(root, &counts); err != nil {
			return counts, err
		}
		if err := removeCheckpoints(root, &counts); err != nil {
			return counts, err
		}
	}

	console.Printf("✓ Clean complete: %d files removed, %d dirs removed", counts.Files, counts.Dirs)
	return counts, nil
}

func removeDSStore(root string, counts *Counts) error {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Name() != ".DS_Store" {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		counts.Files++
		return nil
	})
}

func removeCheckpoints(root string, counts *Counts) error {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	var targets []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == ".ipynb_checkpoints" {
			targets = append(targets, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Deepest first, so nested checkpoint dirs go before their parents.
	sort.Sort(sort.Reverse(sort.StringSlice(targets)))
	for _, dir := range targets {
		if info, err := os.Lstat(dir); err != nil || info.Mode()&fs.ModeSymlink != 0 {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		counts.Dirs++
	}
	return nil
}
