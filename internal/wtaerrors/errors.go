// Package wtaerrors defines the typed error categories surfaced by the
// orchestrator and its collaborators. Each category is a distinct Go type
// so callers can discriminate with errors.As instead of string matching.
package wtaerrors

import "fmt"

// AgentNotFoundError is returned when an id has no matching registry entry.
type AgentNotFoundError struct {
	ID string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found", e.ID)
}

// AgentStillRunningError is returned when a mutating operation requires the
// agent to be in a terminal state and it is not.
type AgentStillRunningError struct {
	ID string
}

func (e *AgentStillRunningError) Error() string {
	return fmt.Sprintf("agent %q is still running", e.ID)
}

// AgentAlreadyCompletedError is returned when an operation that only makes
// sense for a Running agent is attempted on one already in a terminal state.
type AgentAlreadyCompletedError struct {
	ID     string
	Status string
}

func (e *AgentAlreadyCompletedError) Error() string {
	return fmt.Sprintf("agent %q is already %s", e.ID, e.Status)
}

// WorktreeNotFoundError is returned when an operation expects a worktree
// path to exist and it does not.
type WorktreeNotFoundError struct {
	Path string
}

func (e *WorktreeNotFoundError) Error() string {
	return fmt.Sprintf("worktree not found: %s", e.Path)
}

// WorktreeAlreadyExistsError is returned when the target worktree path is
// already occupied.
type WorktreeAlreadyExistsError struct {
	Path string
}

func (e *WorktreeAlreadyExistsError) Error() string {
	return fmt.Sprintf("worktree already exists: %s", e.Path)
}

// BranchAlreadyExistsError is returned when create() is asked to create a
// branch that already exists.
type BranchAlreadyExistsError struct {
	Branch string
}

func (e *BranchAlreadyExistsError) Error() string {
	return fmt.Sprintf("branch already exists: %s", e.Branch)
}

// NotAGitRepositoryError is returned when the orchestrator cannot locate a
// repository root by walking up from the current directory.
type NotAGitRepositoryError struct {
	Path string
}

func (e *NotAGitRepositoryError) Error() string {
	return fmt.Sprintf("not a git repository (or any parent up to %s)", e.Path)
}

// MergeConflictError carries the list of conflicted paths detected during
// a merge/rebase/squash attempt. The caller's working tree has already been
// restored (merge/rebase/squash aborted) by the time this is returned.
type MergeConflictError struct {
	Files []string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict in %d file(s): %v", len(e.Files), e.Files)
}

// TmuxSessionNotFoundError is returned when an operation expects a tmux
// session to exist and it does not.
type TmuxSessionNotFoundError struct {
	Session string
}

func (e *TmuxSessionNotFoundError) Error() string {
	return fmt.Sprintf("tmux session not found: %s", e.Session)
}

// TmuxWindowNotFoundError is returned when an operation expects a tmux
// window to exist and it does not.
type TmuxWindowNotFoundError struct {
	Window string
}

func (e *TmuxWindowNotFoundError) Error() string {
	return fmt.Sprintf("tmux window not found: %s", e.Window)
}

// TmuxError wraps any other tmux failure not covered by a more specific
// error type above.
type TmuxError struct {
	Msg string
}

func (e *TmuxError) Error() string {
	return fmt.Sprintf("tmux: %s", e.Msg)
}

// CommandFailedError is an unclassified non-zero subprocess exit, retaining
// enough context (command, exit code, stderr) for diagnosis.
type CommandFailedError struct {
	Command []string
	Code    int
	Stderr  string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %v failed (exit %d): %s", e.Command, e.Code, e.Stderr)
}

// ExternalProcessFailedError wraps failures launching the editor, VS Code,
// or the provider CLI itself.
type ExternalProcessFailedError struct {
	Msg string
}

func (e *ExternalProcessFailedError) Error() string {
	return e.Msg
}

// StateCorruptedError indicates the registry JSON could not be parsed. This
// is fatal to the current invocation; operators must recover manually.
type StateCorruptedError struct {
	Path string
	Err  error
}

func (e *StateCorruptedError) Error() string {
	return fmt.Sprintf("state file %s is corrupted: %v", e.Path, e.Err)
}

func (e *StateCorruptedError) Unwrap() error {
	return e.Err
}
