package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/wta-dev/wta/internal/wtaerrors"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	ctx := context.Background()

	run := func(args ...string) {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@test.com")
	run("config", "user.name", "Test User")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "initial")

	return dir
}

func TestCreateAndList(t *testing.T) {
	repo := initTestRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "agent-1")
	if err := mgr.Create(ctx, wtPath, "agent-1-branch", "main"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	infos, err := mgr.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List() = %d entries, want 2", len(infos))
	}
	if !infos[0].IsMain {
		t.Error("first entry should be main")
	}

	var found bool
	for _, info := range infos[1:] {
		if info.Branch == "agent-1-branch" {
			found = true
		}
	}
	if !found {
		t.Errorf("new worktree branch not found in %+v", infos)
	}
}

func TestCreateDuplicateBranchFails(t *testing.T) {
	repo := initTestRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	path1 := filepath.Join(t.TempDir(), "a")
	if err := mgr.Create(ctx, path1, "dup-branch", "main"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	path2 := filepath.Join(t.TempDir(), "b")
	err := mgr.Create(ctx, path2, "dup-branch", "main")
	if err == nil {
		t.Fatal("expected error creating duplicate branch")
	}
	var branchErr *wtaerrors.BranchAlreadyExistsError
	if !asBranchExists(err, &branchErr) {
		t.Errorf("expected BranchAlreadyExistsError, got %v (%T)", err, err)
	}
}

func asBranchExists(err error, target **wtaerrors.BranchAlreadyExistsError) bool {
	be, ok := err.(*wtaerrors.BranchAlreadyExistsError)
	if ok {
		*target = be
	}
	return ok
}

func TestRemove(t *testing.T) {
	repo := initTestRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "agent-2")
	if err := mgr.Create(ctx, wtPath, "agent-2-branch", "main"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mgr.Remove(ctx, wtPath, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	infos, err := mgr.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("List() = %d entries after remove, want 1", len(infos))
	}
}

// TestBranchExistsFindsOriginOnlyBranch covers the case where a branch was
// pushed by someone else and fetched, but never checked out locally:
// BranchExists must still report it present via refs/remotes/origin.
func TestBranchExistsFindsOriginOnlyBranch(t *testing.T) {
	repo := initTestRepo(t)
	origin := t.TempDir()
	ctx := context.Background()

	run := func(dir string, args ...string) {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	run(origin, "init", "--bare", "-b", "main")
	run(repo, "remote", "add", "origin", origin)
	run(repo, "push", "origin", "main")
	run(repo, "checkout", "-b", "origin-only")
	run(repo, "push", "origin", "origin-only")
	run(repo, "checkout", "main")
	run(repo, "branch", "-D", "origin-only")

	mgr := New(repo)
	if mgr.refExists(ctx, "refs/heads/origin-only") {
		t.Fatal("local branch should have been deleted")
	}
	if !mgr.BranchExists(ctx, "origin-only") {
		t.Error("BranchExists(origin-only) = false, want true via refs/remotes/origin")
	}
}

func TestDefaultBranch(t *testing.T) {
	repo := initTestRepo(t)
	mgr := New(repo)

	branch, err := mgr.DefaultBranch(context.Background())
	if err != nil {
		t.Fatalf("DefaultBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("DefaultBranch() = %q, want main", branch)
	}
}

func TestHasUncommittedChanges(t *testing.T) {
	repo := initTestRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	dirty, err := mgr.HasUncommittedChanges(ctx, repo)
	if err != nil {
		t.Fatalf("HasUncommittedChanges: %v", err)
	}
	if dirty {
		t.Error("clean repo reported dirty")
	}

	if err := os.WriteFile(filepath.Join(repo, "new.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirty, err = mgr.HasUncommittedChanges(ctx, repo)
	if err != nil {
		t.Fatalf("HasUncommittedChanges: %v", err)
	}
	if !dirty {
		t.Error("dirty repo reported clean")
	}
}
