package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"classpub/internal/config"
)

// ErrEscapesWorkspace marks paths that resolve outside the pending workspace.
var ErrEscapesWorkspace = errors.New("path escapes workspace")

// Layout resolves the on-disk locations of the three-stage workflow: the
// pending workspace, the preview staging mirror, and the release manifest.
type Layout struct {
	Root       string
	PendingDir string
	PreviewDir string
}

// NewLayout derives a layout from the loaded configuration.
func NewLayout(cfg *config.Config) Layout {
	return Layout{
		Root:       cfg.Paths.Root,
		PendingDir: cfg.Paths.PendingDir,
		PreviewDir: cfg.Paths.PreviewDir,
	}
}

// ManifestPath returns the absolute location of the release manifest.
func (l Layout) ManifestPath() string {
	return filepath.Join(l.PendingDir, config.ManifestName)
}

// PendingPath maps a slash-separated relative path into the pending tree.
func (l Layout) PendingPath(rel string) string {
	return filepath.Join(l.PendingDir, filepath.FromSlash(rel))
}

// PreviewPath maps a slash-separated relative path into the preview tree.
func (l Layout) PreviewPath(rel string) string {
	return filepath.Join(l.PreviewDir, filepath.FromSlash(rel))
}

// PendingExists reports whether the pending workspace directory is present.
// Commands refuse to run outside a workspace root.
func (l Layout) PendingExists() bool {
	info, err := os.Stat(l.PendingDir)
	return err == nil && info.IsDir()
}

// PreviewIsSymlink reports whether the preview root exists as a symbolic
// link. A symlinked preview root is never safe to write through.
func (l Layout) PreviewIsSymlink() (bool, error) {
	info, err := os.Lstat(l.PreviewDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// NormalizeToken canonicalizes user input: separators become forward
// slashes, a leading "./" is dropped, and the string is NFC-normalized so
// composed and decomposed Unicode spellings compare equal.
func NormalizeToken(token string) string {
	s := strings.TrimSpace(token)
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimPrefix(s, "./")
	return norm.NFC.String(s)
}

// RelFromPending converts an absolute path into a slash-separated path
// relative to the pending workspace. Paths outside it fail with
// ErrEscapesWorkspace.
func (l Layout) RelFromPending(abs string) (string, error) {
	resolved, err := filepath.Abs(abs)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(l.PendingDir, resolved)
	if err != nil {
		return "", ErrEscapesWorkspace
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ErrEscapesWorkspace
	}
	return rel, nil
}
