// Package merge implements the three local-integration strategies
// (merge, rebase, squash) used to fold an agent's branch back into the
// repository's base branch, with conflict detection and abort.
package merge

import (
	"context"
	"os/exec"
	"strings"

	"github.com/wta-dev/wta/internal/wtaerrors"
)

// Strategy is one of the three supported integration approaches.
type Strategy string

const (
	Merge  Strategy = "merge"
	Rebase Strategy = "rebase"
	Squash Strategy = "squash"
)

// Result is returned on a successful integration.
type Result struct {
	Success bool
	Message string
}

// Engine runs integration strategies against a single repository's main
// working tree.
type Engine struct {
	repoPath string
}

// New returns an Engine rooted at repoPath, the main checkout (not the
// agent's worktree) that receives the integrated change.
func New(repoPath string) *Engine {
	return &Engine{repoPath: repoPath}
}

func (e *Engine) git(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// isConflict scans stderr/combined-output for either case variant of the
// conflict sentinel git emits.
func isConflict(output string) bool {
	return strings.Contains(output, "CONFLICT") || strings.Contains(output, "conflict")
}

func (e *Engine) conflictedFiles(ctx context.Context, dir string) []string {
	out, err := e.git(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}

// Integrate checks out baseBranch in the main working tree, then applies
// strategy to fold branch (checked out in a separate agent worktree) into
// it. On a detected conflict, the in-progress operation is aborted and a
// MergeConflictError carrying the conflicted paths is returned; the working
// tree holds no partial merge, though baseBranch stays checked out in the
// main working tree.
func (e *Engine) Integrate(ctx context.Context, strategy Strategy, worktreePath, branch, baseBranch string) (*Result, error) {
	if _, err := e.git(ctx, e.repoPath, "checkout", baseBranch); err != nil {
		return nil, &wtaerrors.CommandFailedError{Command: []string{"git", "checkout", baseBranch}}
	}

	switch strategy {
	case Merge:
		return e.merge(ctx, branch)
	case Rebase:
		return e.rebase(ctx, worktreePath, branch, baseBranch)
	case Squash:
		return e.squash(ctx, branch)
	default:
		return nil, &wtaerrors.ExternalProcessFailedError{Msg: "unknown merge strategy: " + string(strategy)}
	}
}

func (e *Engine) merge(ctx context.Context, branch string) (*Result, error) {
	out, err := e.git(ctx, e.repoPath, "merge", branch, "--no-edit")
	if err != nil && isConflict(out) {
		files := e.conflictedFiles(ctx, e.repoPath)
		_, _ = e.git(ctx, e.repoPath, "merge", "--abort")
		return nil, &wtaerrors.MergeConflictError{Files: files}
	}
	if err != nil {
		return nil, &wtaerrors.CommandFailedError{Command: []string{"git", "merge", branch}, Stderr: out}
	}
	return &Result{Success: true, Message: "merged " + branch}, nil
}

func (e *Engine) rebase(ctx context.Context, worktreePath, branch, baseBranch string) (*Result, error) {
	out, err := e.git(ctx, worktreePath, "rebase", baseBranch)
	if err != nil && isConflict(out) {
		files := e.conflictedFiles(ctx, worktreePath)
		_, _ = e.git(ctx, worktreePath, "rebase", "--abort")
		return nil, &wtaerrors.MergeConflictError{Files: files}
	}
	if err != nil {
		return nil, &wtaerrors.CommandFailedError{Command: []string{"git", "rebase", baseBranch}, Stderr: out}
	}

	out, err = e.git(ctx, e.repoPath, "merge", "--ff-only", branch)
	if err != nil {
		return nil, &wtaerrors.CommandFailedError{Command: []string{"git", "merge", "--ff-only", branch}, Stderr: out}
	}
	return &Result{Success: true, Message: "rebased and fast-forwarded " + branch}, nil
}

func (e *Engine) squash(ctx context.Context, branch string) (*Result, error) {
	out, err := e.git(ctx, e.repoPath, "merge", "--squash", branch)
	if err != nil && isConflict(out) {
		files := e.conflictedFiles(ctx, e.repoPath)
		_, _ = e.git(ctx, e.repoPath, "reset", "--hard", "HEAD")
		return nil, &wtaerrors.MergeConflictError{Files: files}
	}
	if err != nil {
		return nil, &wtaerrors.CommandFailedError{Command: []string{"git", "merge", "--squash", branch}, Stderr: out}
	}

	out, err = e.git(ctx, e.repoPath, "commit", "--no-edit")
	if err != nil {
		return nil, &wtaerrors.CommandFailedError{Command: []string{"git", "commit", "--no-edit"}, Stderr: out}
	}
	return &Result{Success: true, Message: "squashed " + branch}, nil
}
