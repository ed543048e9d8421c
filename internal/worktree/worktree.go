// Package worktree wraps the `git worktree` subcommands used to give each
// agent its own isolated checkout.
package worktree

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wta-dev/wta/internal/logging"
	"github.com/wta-dev/wta/internal/wtaerrors"
)

// Manager wraps git worktree operations rooted at a single repository.
type Manager struct {
	repoPath string
}

// New returns a Manager rooted at repoPath, the path to the main checkout
// (or any linked worktree — git resolves worktree commands relative to the
// common .git directory regardless of which working copy issues them).
func New(repoPath string) *Manager {
	return &Manager{repoPath: repoPath}
}

// Info describes a single entry from `git worktree list --porcelain`.
type Info struct {
	Path     string
	Branch   string // "" for a detached-HEAD worktree
	IsMain   bool
	Detached bool
}

func (m *Manager) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = m.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return string(out), &wtaerrors.CommandFailedError{
			Command: append([]string{"git"}, args...),
			Code:    exitCode,
			Stderr:  string(out),
		}
	}
	return string(out), nil
}

// BranchExists reports whether branch exists either as a local branch or as
// an origin remote-tracking ref, so a branch someone else pushed (but never
// fetched into a local branch) still counts.
func (m *Manager) BranchExists(ctx context.Context, branch string) bool {
	return m.refExists(ctx, "refs/heads/"+branch) || m.refExists(ctx, "refs/remotes/origin/"+branch)
}

func (m *Manager) refExists(ctx context.Context, ref string) bool {
	cmd := exec.CommandContext(ctx, "git", "show-ref", "--verify", "--quiet", ref)
	cmd.Dir = m.repoPath
	return cmd.Run() == nil
}

// Create adds a new worktree at path on a new branch created from baseBranch.
// Returns WorktreeAlreadyExistsError / BranchAlreadyExistsError for the
// obvious pre-conditions so callers don't have to scrape stderr.
func (m *Manager) Create(ctx context.Context, path, branch, baseBranch string) error {
	if m.BranchExists(ctx, branch) {
		return &wtaerrors.BranchAlreadyExistsError{Branch: branch}
	}

	log := logging.WithComponent("worktree")
	log.Info("creating worktree", "path", path, "branch", branch, "base", baseBranch)

	out, err := m.run(ctx, "worktree", "add", "-b", branch, path, baseBranch)
	if err != nil {
		if strings.Contains(out, "already exists") {
			return &wtaerrors.WorktreeAlreadyExistsError{Path: path}
		}
		return err
	}
	return nil
}

// CheckoutExisting adds a worktree at path checking out an already-existing
// branch, rather than creating a new one.
func (m *Manager) CheckoutExisting(ctx context.Context, path, branch string) error {
	if !m.BranchExists(ctx, branch) {
		return &wtaerrors.WorktreeNotFoundError{Path: branch}
	}
	_, err := m.run(ctx, "worktree", "add", path, branch)
	return err
}

// Remove deletes the worktree at path. If force is false, git refuses when
// the worktree has uncommitted changes.
func (m *Manager) Remove(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}
	_, err := m.run(ctx, args...)
	return err
}

// List returns every worktree registered against the repository, the main
// checkout first.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	out, err := m.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

func parsePorcelain(raw string) []Info {
	var infos []Info
	var cur *Info

	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur != nil {
				infos = append(infos, *cur)
			}
			cur = &Info{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			if cur != nil {
				branch := strings.TrimPrefix(line, "branch ")
				cur.Branch = strings.TrimPrefix(branch, "refs/heads/")
			}
		case line == "detached":
			if cur != nil {
				cur.Detached = true
			}
		}
	}
	if cur != nil {
		infos = append(infos, *cur)
	}
	for i := range infos {
		infos[i].IsMain = i == 0
	}
	return infos
}

// DefaultBranch returns the repository's configured default branch, trying
// the origin HEAD symref first and falling back to a main/master heuristic.
// It follows the same order as branchresolve but runs its own git commands
// and neither reads nor writes the branchresolve cache.
func (m *Manager) DefaultBranch(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "symbolic-ref", "refs/remotes/origin/HEAD")
	cmd.Dir = m.repoPath
	out, err := cmd.Output()
	if err == nil {
		ref := strings.TrimSpace(string(out))
		parts := strings.Split(ref, "/")
		return parts[len(parts)-1], nil
	}

	if m.BranchExists(ctx, "main") {
		return "main", nil
	}
	if m.BranchExists(ctx, "master") {
		return "master", nil
	}
	return "", fmt.Errorf("could not determine default branch")
}

// HasUncommittedChanges reports whether the worktree at path has a dirty
// index or working tree.
func (m *Manager) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", path, "status", "--porcelain")
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}
