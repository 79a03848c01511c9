// Package testsupport provides shared fixtures for package tests: temp
// workspaces with the pending/preview structure and file seeding helpers.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"classpub/internal/config"
	"classpub/internal/workspace"
)

// WorkspaceOption customizes the generated test workspace.
type WorkspaceOption func(*workspaceBuilder)

type workspaceBuilder struct {
	t      testing.TB
	layout workspace.Layout
}

// NewWorkspace produces a layout rooted at a unique temp directory with
// pending/ already created. Options seed additional structure.
func NewWorkspace(t testing.TB, opts ...WorkspaceOption) workspace.Layout {
	t.Helper()

	root := t.TempDir()
	layout := workspace.Layout{
		Root:       root,
		PendingDir: filepath.Join(root, "pending"),
		PreviewDir: filepath.Join(root, "preview"),
	}
	if err := os.MkdirAll(layout.PendingDir, 0o755); err != nil {
		t.Fatalf("mkdir pending: %v", err)
	}

	builder := &workspaceBuilder{t: t, layout: layout}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.layout
}

// WithPreview creates the preview directory up front.
func WithPreview() WorkspaceOption {
	return func(b *workspaceBuilder) {
		if err := os.MkdirAll(b.layout.PreviewDir, 0o755); err != nil {
			b.t.Fatalf("mkdir preview: %v", err)
		}
	}
}

// WithManifest writes the release manifest with one entry per line.
func WithManifest(lines ...string) WorkspaceOption {
	return func(b *workspaceBuilder) {
		body := ""
		for _, line := range lines {
			body += line + "\n"
		}
		path := filepath.Join(b.layout.PendingDir, config.ManifestName)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			b.t.Fatalf("write manifest: %v", err)
		}
	}
}
