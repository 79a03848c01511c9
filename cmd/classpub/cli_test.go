package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"classpub/internal/testsupport"
)

type cliEnv struct {
	root       string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pending"), 0o755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(root, "classpub.toml")
	body := fmt.Sprintf("[paths]\nroot = %q\n", root)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return &cliEnv{root: root, configPath: configPath}
}

func (e *cliEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	testsupport.WriteText(t, filepath.Join(e.root, filepath.FromSlash(rel)), content)
}

func runCLI(t *testing.T, env *cliEnv, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return out.String(), 0
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return out.String(), exitErr.code
	}
	return out.String() + err.Error(), 1
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestInitCreatesManifestOnce(t *testing.T) {
	env := setupCLITestEnv(t)

	out, code := runCLI(t, env, "init")
	if code != 0 {
		t.Fatalf("init failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Created pending/RELEASES.txt")

	out, code = runCLI(t, env, "init")
	if code != 0 {
		t.Fatalf("second init failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "⚠️  pending/RELEASES.txt already exists")
}

func TestCommandsRequireRepoRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(filepath.Join(env.root, "pending")); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{{"check"}, {"remove", "anything"}, {"sync"}} {
		out, code := runCLI(t, env, args...)
		if code != 1 {
			t.Fatalf("%v: expected exit 1, got %d:\n%s", args, code, out)
		}
		requireContains(t, out, "repository root")
	}
}

func TestReleaseAndDuplicate(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/notebooks/hello.py", "print('hi')\n")

	out, code := runCLI(t, env, "release", "notebooks/hello.py")
	if code != 0 {
		t.Fatalf("release failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Marked notebooks/hello.py for release")
	requireContains(t, out, "Run 'classpub sync' to copy to public folder")

	out, code = runCLI(t, env, "release", "notebooks/hello.py")
	if code != 0 {
		t.Fatalf("duplicate release failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "already released")
}

func TestReleaseFolderTrailingSlash(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(filepath.Join(env.root, "pending", "data"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, code := runCLI(t, env, "release", "data/")
	if code != 0 {
		t.Fatalf("release failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Marked data/ for release")
}

func TestReleaseNotFoundListsTree(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/a/file1.txt", "x")

	out, code := runCLI(t, env, "release", "zzz-nonexistent")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d:\n%s", code, out)
	}
	requireContains(t, out, "❌ File or folder not found:")
	requireContains(t, out, "Files:")
	requireContains(t, out, "  a/file1.txt")
}

func TestReleaseAmbiguous(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/dir1/target", "z")
	if err := os.MkdirAll(filepath.Join(env.root, "pending", "dir2", "target"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, code := runCLI(t, env, "release", "target")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d:\n%s", code, out)
	}
	requireContains(t, out, "❌ Ambiguous item: target")
	requireContains(t, out, "dir1/target (file)")
	requireContains(t, out, "dir2/target/ (folder)")
}

func TestRemoveRoundTripAndPreviewHint(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/notebooks/hello.py", "print('hi')\n")
	env.write(t, "preview/notebooks/hello.py", "print('hi')\n")

	runCLI(t, env, "release", "notebooks/hello.py")
	out, code := runCLI(t, env, "remove", "notebooks/hello.py")
	if code != 0 {
		t.Fatalf("remove failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Removed notebooks/hello.py from release manifest")
	requireContains(t, out, "Item still exists in preview")
}

func TestRemoveNotTrackedListsManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/images/logo.png", "png")
	env.write(t, "pending/docs/readme.md", "hi")

	runCLI(t, env, "release", "images/")
	out, code := runCLI(t, env, "remove", "docs/readme.md")
	if code != 0 {
		t.Fatalf("remove should exit 0 (%d):\n%s", code, out)
	}
	requireContains(t, out, "is not in release manifest")
	requireContains(t, out, "Currently released files:")
	requireContains(t, out, "images/")
}

func TestRemoveManifestMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/a.txt", "x")

	out, code := runCLI(t, env, "remove", "a.txt")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d:\n%s", code, out)
	}
	requireContains(t, out, "RELEASES.txt is missing")
}

func TestCheckGlyphsAndSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/x.txt", "hello")
	env.write(t, "pending/u.txt", "loose")
	runCLI(t, env, "release", "x.txt")

	out, code := runCLI(t, env, "check")
	if code != 0 {
		t.Fatalf("check failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "📋 x.txt (staged)")
	requireContains(t, out, "📄 u.txt (untracked)")
	requireContains(t, out, "Synced: 0, Modified: 0, Touched: 0, Staged: 1, Untracked: 1, Removed: 0")
}

func TestCheckTable(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/x.txt", "hello")
	runCLI(t, env, "release", "x.txt")

	out, code := runCLI(t, env, "check", "--table")
	if code != 0 {
		t.Fatalf("check --table failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "STATUS")
	requireContains(t, out, "staged")
}

func TestSyncLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/notes.md", "v1")
	runCLI(t, env, "release", "notes.md")

	out, code := runCLI(t, env, "sync", "--yes")
	if code != 0 {
		t.Fatalf("sync failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Sync complete: 1 updated, 0 removed, 0 unchanged")

	out, code = runCLI(t, env, "sync", "--yes")
	if code != 0 {
		t.Fatalf("second sync failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Sync complete: 0 updated, 0 removed, 1 unchanged")

	data, err := os.ReadFile(filepath.Join(env.root, "preview", "notes.md"))
	if err != nil || string(data) != "v1" {
		t.Fatalf("preview copy wrong: %q %v", data, err)
	}
}

func TestSyncDryRunListsOrphans(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "preview/stray.ipynb", "{}")

	out, code := runCLI(t, env, "sync", "--dry-run")
	if code != 0 {
		t.Fatalf("dry run failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "⚠️  These files will be REMOVED from preview (not in manifest):")
	requireContains(t, out, "     - stray.ipynb")
	if _, err := os.Stat(filepath.Join(env.root, "preview", "stray.ipynb")); err != nil {
		t.Fatal("dry run removed a file")
	}
}

func TestSyncSymlinkPreviewExitsOne(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.root, "elsewhere")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(env.root, "preview")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	out, code := runCLI(t, env, "sync", "--yes")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d:\n%s", code, out)
	}
	requireContains(t, out, "❌ preview/ must not be a symlink. Remove it and run again.")
}

func TestCleanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/.DS_Store", "")
	env.write(t, "pending/nb/.ipynb_checkpoints/x-checkpoint.ipynb", "{}")

	out, code := runCLI(t, env, "clean")
	if code != 0 {
		t.Fatalf("clean failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Clean complete: 1 files removed, 1 dirs removed")
}

func TestValidateStrictEscalatesWarnings(t *testing.T) {
	env := setupCLITestEnv(t)
	runCLI(t, env, "init")

	// A tracked folder missing from pending is a warning.
	env.write(t, "pending/RELEASES.txt", "ghost/\n")

	out, code := runCLI(t, env, "validate")
	if code != 0 {
		t.Fatalf("non-strict validate should pass (%d):\n%s", code, out)
	}
	requireContains(t, out, "ghost/ (missing from pending)")

	body := fmt.Sprintf("[paths]\nroot = %q\n\n[general]\nstrict = true\n", env.root)
	if err := os.WriteFile(env.configPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, code = runCLI(t, env, "validate")
	if code != 1 {
		t.Fatalf("strict validate should fail, got %d", code)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "classpub.toml")
	out, code := runCLI(t, env, "config", "init", "--path", target)
	if code != 0 {
		t.Fatalf("config init failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, code = runCLI(t, env, "config", "validate")
	if code != 0 {
		t.Fatalf("config validate failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "Configuration OK")
}

func TestReleaseTraversalTokenRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "escape.txt", "outside pending")
	env.write(t, "pending/inside.txt", "x")

	out, code := runCLI(t, env, "release", "../escape.txt")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d:\n%s", code, out)
	}
	requireContains(t, out, "escapes workspace")

	// The manifest stays loadable, so later commands keep working.
	out, code = runCLI(t, env, "check")
	if code != 0 {
		t.Fatalf("check broken after rejected release (%d):\n%s", code, out)
	}
	out, code = runCLI(t, env, "release", "inside.txt")
	if code != 0 {
		t.Fatalf("release broken after rejected token (%d):\n%s", code, out)
	}
	requireContains(t, out, "✓ Marked inside.txt for release")
}

func TestCheckDetailListsFolderChildren(t *testing.T) {
	env := setupCLITestEnv(t)
	env.write(t, "pending/course/a.txt", "a")
	env.write(t, "pending/course/b.txt", "b")
	runCLI(t, env, "release", "course/")

	out, code := runCLI(t, env, "check", "--detail")
	if code != 0 {
		t.Fatalf("check --detail failed (%d):\n%s", code, out)
	}
	requireContains(t, out, "📋 course/ (staged)")
	requireContains(t, out, "  📋 course/a.txt (staged)")
	requireContains(t, out, "  📋 course/b.txt (staged)")

	out, code = runCLI(t, env, "check")
	if code != 0 {
		t.Fatalf("check failed (%d):\n%s", code, out)
	}
	if strings.Contains(out, "course/a.txt") {
		t.Fatalf("plain check should not list folder children:\n%s", out)
	}
}
