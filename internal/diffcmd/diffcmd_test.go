package diffcmd_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"classpub/internal/diffcmd"
	"classpub/internal/fingerprint"
	"classpub/internal/manifest"
	"classpub/internal/report"
	"classpub/internal/workspace"
)

type fixture struct {
	t      *testing.T
	layout workspace.Layout
	man    *manifest.Manifest
	out    bytes.Buffer
	differ *diffcmd.Differ
	calls  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	layout := workspace.Layout{
		Root:       root,
		PendingDir: filepath.Join(root, "pending"),
		PreviewDir: filepath.Join(root, "preview"),
	}
	if err := os.MkdirAll(layout.PendingDir, 0o755); err != nil {
		t.Fatal(err)
	}
	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{t: t, layout: layout, man: man}
	f.differ = diffcmd.New(layout, workspace.NewIgnore(nil), fingerprint.New(0), report.NewConsole(&f.out))
	f.differ.GitDiff = func(previewPath, pendingPath string) ([]string, int) {
		f.calls = append(f.calls, previewPath)
		a, _ := os.ReadFile(previewPath)
		b, _ := os.ReadFile(pendingPath)
		if bytes.Equal(a, b) {
			return nil, 0
		}
		return []string{"--- " + previewPath, "+++ " + pendingPath}, 1
	}
	return f
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) track(rel string, folder bool) {
	f.t.Helper()
	if _, err := f.man.Add(rel, folder); err != nil {
		f.t.Fatal(err)
	}
}

func TestAllNoDifferences(t *testing.T) {
	f := newFixture(t)
	f.track("a.txt", false)
	f.write(f.layout.PendingPath("a.txt"), "same")
	f.write(f.layout.PreviewPath("a.txt"), "same")

	if err := f.differ.All(f.man); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	if !strings.Contains(out, "📊 Diff: preview vs pending (tracked files only)") {
		t.Fatalf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "✅ No differences found between tracked files") {
		t.Fatalf("no-diff notice missing:\n%s", out)
	}
}

func TestAllShowsFileDiff(t *testing.T) {
	f := newFixture(t)
	f.track("a.txt", false)
	f.write(f.layout.PendingPath("a.txt"), "new")
	f.write(f.layout.PreviewPath("a.txt"), "old")

	if err := f.differ.All(f.man); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	if !strings.Contains(out, "+++ ") {
		t.Fatalf("diff lines missing:\n%s", out)
	}
	if strings.Contains(out, "No differences") {
		t.Fatalf("no-diff notice with changes present:\n%s", out)
	}
}

func TestAllSkipsSideOnlyFiles(t *testing.T) {
	f := newFixture(t)
	f.track("only-pending.txt", false)
	f.write(f.layout.PendingPath("only-pending.txt"), "x")

	if err := f.differ.All(f.man); err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("git invoked for side-only file: %v", f.calls)
	}
}

func TestFolderSummarySections(t *testing.T) {
	f := newFixture(t)
	f.track("docs", true)
	f.write(f.layout.PendingPath("docs/new.md"), "n")
	f.write(f.layout.PendingPath("docs/edit.md"), "v2")
	f.write(f.layout.PreviewPath("docs/edit.md"), "v1")
	f.write(f.layout.PreviewPath("docs/gone.md"), "g")

	if err := f.differ.All(f.man); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	for _, want := range []string{
		"📁 docs/ (folder has changes)",
		"Added:", "  new.md",
		"Removed:", "  gone.md",
		"Changed:", "  edit.md",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestItemFileDiff(t *testing.T) {
	f := newFixture(t)
	f.write(f.layout.PendingPath("a.txt"), "new")
	f.write(f.layout.PreviewPath("a.txt"), "old")

	if err := f.differ.Item(f.man, "a.txt"); err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected one git call, got %v", f.calls)
	}
}

func TestItemPendingOnlyIsInformational(t *testing.T) {
	f := newFixture(t)
	f.write(f.layout.PendingPath("a.txt"), "x")

	if err := f.differ.Item(f.man, "a.txt"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), "ℹ️  a.txt exists in pending but not in preview") {
		t.Fatalf("side-only notice missing:\n%s", f.out.String())
	}
}

func TestItemManifestFallbackWhenPendingGone(t *testing.T) {
	f := newFixture(t)
	f.track("archived.txt", false)
	f.write(f.layout.PreviewPath("archived.txt"), "kept")

	if err := f.differ.Item(f.man, "archived.txt"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), "ℹ️  archived.txt exists in preview but not in pending") {
		t.Fatalf("fallback notice missing:\n%s", f.out.String())
	}
}

func TestItemNotFoundListsTree(t *testing.T) {
	f := newFixture(t)
	f.write(f.layout.PendingPath("real.txt"), "x")

	err := f.differ.Item(f.man, "imaginary.txt")
	if !errors.Is(err, diffcmd.ErrResolve) {
		t.Fatalf("expected resolve error, got %v", err)
	}
	out := f.out.String()
	if !strings.Contains(out, "❌ File or folder not found: imaginary.txt") {
		t.Fatalf("not-found message missing:\n%s", out)
	}
	if !strings.Contains(out, "Files:") || !strings.Contains(out, "  real.txt") {
		t.Fatalf("listing missing:\n%s", out)
	}
}

func TestItemAmbiguous(t *testing.T) {
	f := newFixture(t)
	f.write(f.layout.PendingPath("dir1/target"), "a")
	f.write(f.layout.PendingPath("dir2/target/inner.txt"), "b")

	err := f.differ.Item(f.man, "target")
	if !errors.Is(err, diffcmd.ErrResolve) {
		t.Fatalf("expected resolve error, got %v", err)
	}
	out := f.out.String()
	if !strings.Contains(out, "❌ Ambiguous item: target") {
		t.Fatalf("ambiguity header missing:\n%s", out)
	}
	if !strings.Contains(out, "  dir1/target (file)") || !strings.Contains(out, "  dir2/target/ (folder)") {
		t.Fatalf("candidate listing missing:\n%s", out)
	}
}
