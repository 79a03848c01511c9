package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ScanFiles returns sorted slash-separated relative paths of the regular
// files under root, applying the ignore filters and skipping symlinks. A
// missing root yields an empty result, not an error.
func ScanFiles(root string, ig *Ignore) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && p == root {
				return filepath.SkipAll
			}
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		relPosix := filepath.ToSlash(rel)
		if d.IsDir() {
			if p != root && ig.Dir(d.Name(), relPosix) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if ig.File(d.Name(), relPosix) {
			return nil
		}
		files = append(files, relPosix)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ScanPending enumerates both files and directories under the pending tree.
// Directories carry no trailing slash and include empty ones.
func (l Layout) ScanPending(ig *Ignore) (files []string, dirs []string, err error) {
	seen := map[string]struct{}{}
	err = filepath.WalkDir(l.PendingDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && p == l.PendingDir {
				return filepath.SkipAll
			}
			return err
		}
		if p == l.PendingDir {
			return nil
		}
		rel, relErr := filepath.Rel(l.PendingDir, p)
		if relErr != nil {
			return relErr
		}
		relPosix := filepath.ToSlash(rel)
		if d.IsDir() {
			if ig.Dir(d.Name(), relPosix) {
				return filepath.SkipDir
			}
			seen[relPosix] = struct{}{}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if ig.File(d.Name(), relPosix) {
			return nil
		}
		files = append(files, relPosix)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs, nil
}
