package merge

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/wta-dev/wta/internal/wtaerrors"
)

type testRepo struct {
	mainPath string
	wtPath   string
}

func setupRepo(t *testing.T) *testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	ctx := context.Background()
	dir := t.TempDir()

	run := func(d string, args ...string) {
		cmd := exec.CommandContext(ctx, "git", append([]string{"-C", d}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	run(dir, "init", "-b", "main")
	run(dir, "config", "user.email", "test@test.com")
	run(dir, "config", "user.name", "Test User")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("base\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run(dir, "add", ".")
	run(dir, "commit", "-m", "initial")

	wtPath := filepath.Join(t.TempDir(), "agent-wt")
	run(dir, "worktree", "add", "-b", "agent-branch", wtPath, "main")

	return &testRepo{mainPath: dir, wtPath: wtPath}
}

func TestMergeSuccess(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(repo.wtPath, "new.txt"), []byte("agent work\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run := func(args ...string) {
		cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repo.wtPath}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	run("add", ".")
	run("commit", "-m", "agent change")

	eng := New(repo.mainPath)
	result, err := eng.Integrate(ctx, Merge, repo.wtPath, "agent-branch", "main")
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if !result.Success {
		t.Errorf("result.Success = false, want true")
	}
	if _, err := os.Stat(filepath.Join(repo.mainPath, "new.txt")); err != nil {
		t.Errorf("merged file missing from main worktree: %v", err)
	}
}

func TestMergeConflict(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	writeAndCommit := func(dir, content, msg string) {
		if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		for _, args := range [][]string{{"add", "."}, {"commit", "-m", msg}} {
			cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
			if out, err := cmd.CombinedOutput(); err != nil {
				t.Fatalf("git %v: %v: %s", args, err, out)
			}
		}
	}

	// Diverge: main changes f.txt, agent branch changes f.txt differently.
	writeAndCommit(repo.mainPath, "main change\n", "main edits f.txt")
	writeAndCommit(repo.wtPath, "agent change\n", "agent edits f.txt")

	eng := New(repo.mainPath)
	_, err := eng.Integrate(ctx, Merge, repo.wtPath, "agent-branch", "main")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	conflictErr, ok := err.(*wtaerrors.MergeConflictError)
	if !ok {
		t.Fatalf("expected MergeConflictError, got %T: %v", err, err)
	}
	if len(conflictErr.Files) == 0 {
		t.Error("expected at least one conflicted file")
	}

	// Working tree must be restored: merge was aborted, no lingering conflict markers.
	dirty, err := exec.CommandContext(ctx, "git", "-C", repo.mainPath, "status", "--porcelain").Output()
	if err != nil {
		t.Fatalf("git status: %v", err)
	}
	if len(dirty) != 0 {
		t.Errorf("main worktree not clean after aborted merge: %s", dirty)
	}
}

func TestSquashCreatesSingleCommit(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	run := func(dir string, args ...string) {
		cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	if err := os.WriteFile(filepath.Join(repo.wtPath, "a.txt"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	run(repo.wtPath, "add", ".")
	run(repo.wtPath, "commit", "-m", "commit 1")
	if err := os.WriteFile(filepath.Join(repo.wtPath, "b.txt"), []byte("2"), 0o644); err != nil {
		t.Fatal(err)
	}
	run(repo.wtPath, "add", ".")
	run(repo.wtPath, "commit", "-m", "commit 2")

	eng := New(repo.mainPath)
	result, err := eng.Integrate(ctx, Squash, repo.wtPath, "agent-branch", "main")
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if !result.Success {
		t.Error("result.Success = false, want true")
	}

	out, err := exec.CommandContext(ctx, "git", "-C", repo.mainPath, "rev-list", "--count", "HEAD").Output()
	if err != nil {
		t.Fatalf("rev-list: %v", err)
	}
	if string(out) != "2\n" {
		t.Errorf("commit count after squash = %s, want 2\\n (initial + 1 squashed)", out)
	}
}
