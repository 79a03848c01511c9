package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"classpub/internal/testsupport"
	"classpub/internal/workspace"
)

func newLayout(t *testing.T) workspace.Layout {
	t.Helper()
	return testsupport.NewWorkspace(t)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	testsupport.WriteText(t, path, content)
}

func TestScanFilesAppliesIgnoreFilters(t *testing.T) {
	l := newLayout(t)
	ig := workspace.NewIgnore([]string{"*.tmp", "scratch/"})

	write(t, l.PendingPath("a.txt"), "a")
	write(t, l.PendingPath("b.tmp"), "b")
	write(t, l.PendingPath(".DS_Store"), "junk")
	write(t, l.PendingPath("RELEASES.txt"), "manifest")
	write(t, l.PendingPath("scratch/keep.txt"), "x")
	write(t, l.PendingPath(".ipynb_checkpoints/c.ipynb"), "{}")
	write(t, l.PendingPath("sec 1/café demo.ipynb"), "{}")

	files, err := workspace.ScanFiles(l.PendingDir, ig)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.txt", "sec 1/café demo.ipynb"}
	if len(files) != len(want) {
		t.Fatalf("got %v want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("got %v want %v", files, want)
		}
	}
}

func TestScanFilesSkipsSymlinks(t *testing.T) {
	l := newLayout(t)
	write(t, l.PendingPath("real.txt"), "x")
	if err := os.Symlink(l.PendingPath("real.txt"), l.PendingPath("link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := workspace.ScanFiles(l.PendingDir, workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "real.txt" {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestScanFilesMissingRoot(t *testing.T) {
	files, err := workspace.ScanFiles(filepath.Join(t.TempDir(), "absent"), workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty result, got %v", files)
	}
}

func TestScanPendingIncludesEmptyDirs(t *testing.T) {
	l := newLayout(t)
	write(t, l.PendingPath("data/a.csv"), "1")
	if err := os.MkdirAll(l.PendingPath("empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, dirs, err := l.ScanPending(workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "data/a.csv" {
		t.Fatalf("unexpected files: %v", files)
	}
	if len(dirs) != 2 || dirs[0] != "data" || dirs[1] != "empty" {
		t.Fatalf("unexpected dirs: %v", dirs)
	}
}

func TestResolveExactAndPrefix(t *testing.T) {
	l := newLayout(t)
	write(t, l.PendingPath("notebooks/hello.ipynb"), "{}")

	for _, token := range []string{"notebooks/hello.ipynb", "pending/notebooks/hello.ipynb", "./notebooks/hello.ipynb"} {
		res, err := l.Resolve(token, workspace.NewIgnore(nil))
		if err != nil {
			t.Fatalf("Resolve(%q): %v", token, err)
		}
		if res.Kind != workspace.ResolvedFile || res.Rel != "notebooks/hello.ipynb" {
			t.Fatalf("Resolve(%q) = %+v", token, res)
		}
	}

	res, err := l.Resolve("notebooks/", workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != workspace.ResolvedFolder || res.Rel != "notebooks" {
		t.Fatalf("folder resolve = %+v", res)
	}
}

func TestResolveBasenameSearch(t *testing.T) {
	l := newLayout(t)
	write(t, l.PendingPath("a/target"), "1")
	write(t, l.PendingPath("b/other.txt"), "2")

	res, err := l.Resolve("target", workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != workspace.ResolvedFile || res.Rel != "a/target" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	l := newLayout(t)
	write(t, l.PendingPath("dir1/target"), "1")
	if err := os.MkdirAll(l.PendingPath("dir2/target"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := l.Resolve("target", workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != workspace.Ambiguous {
		t.Fatalf("expected ambiguity, got %+v", res)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("unexpected candidates: %+v", res.Candidates)
	}
	if res.Candidates[0].Rel != "dir1/target" || res.Candidates[0].IsFolder {
		t.Fatalf("unexpected first candidate: %+v", res.Candidates[0])
	}
	if res.Candidates[1].Rel != "dir2/target" || !res.Candidates[1].IsFolder {
		t.Fatalf("unexpected second candidate: %+v", res.Candidates[1])
	}
}

func TestResolveAbsoluteOutsidePendingFails(t *testing.T) {
	l := newLayout(t)
	outside := filepath.Join(l.Root, "elsewhere.txt")
	write(t, outside, "x")

	if _, err := l.Resolve(outside, workspace.NewIgnore(nil)); err == nil {
		t.Fatal("expected error for absolute path outside pending/")
	}
}

func TestResolveUnicodeBasename(t *testing.T) {
	l := newLayout(t)
	write(t, l.PendingPath("sec 1/café demo.ipynb"), "{}")

	// Decomposed spelling of the same name must still match.
	res, err := l.Resolve("cafe\u0301 demo.ipynb", workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != workspace.ResolvedFile || res.Rel != "sec 1/café demo.ipynb" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPreviewIsSymlink(t *testing.T) {
	l := newLayout(t)
	ok, err := l.PreviewIsSymlink()
	if err != nil || ok {
		t.Fatalf("missing preview should not be a symlink: %v %v", ok, err)
	}

	target := filepath.Join(l.Root, "real-preview")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, l.PreviewDir); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	ok, err = l.PreviewIsSymlink()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected symlink detection")
	}
}

func TestResolveRejectsTraversalTokens(t *testing.T) {
	l := newLayout(t)
	write(t, filepath.Join(l.Root, "escape.txt"), "outside")
	write(t, l.PendingPath("inside.txt"), "inside")

	for _, token := range []string{"../escape.txt", "a/../../escape.txt", "..", "."} {
		_, err := l.Resolve(token, workspace.NewIgnore(nil))
		if !errors.Is(err, workspace.ErrEscapesWorkspace) {
			t.Fatalf("Resolve(%q): expected ErrEscapesWorkspace, got %v", token, err)
		}
	}

	// Traversal that stays inside pending/ still resolves.
	res, err := l.Resolve("sub/../inside.txt", workspace.NewIgnore(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != workspace.ResolvedFile || res.Rel != "inside.txt" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}
