// Package orchestrator is the single owner of the agent registry. It ties
// together the worktree, tmux, provider, state, merge, and branchresolve
// packages into the lifecycle operations the CLI and HTTP projection call.
// All mutating methods must be serialized by the caller; Orchestrator holds
// its own mutex to make that trivial for callers that share one instance
// (the HTTP server).
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wta-dev/wta/internal/branchresolve"
	"github.com/wta-dev/wta/internal/eventlog"
	"github.com/wta-dev/wta/internal/logging"
	"github.com/wta-dev/wta/internal/merge"
	"github.com/wta-dev/wta/internal/provider"
	"github.com/wta-dev/wta/internal/state"
	"github.com/wta-dev/wta/internal/tmux"
	"github.com/wta-dev/wta/internal/worktree"
	"github.com/wta-dev/wta/internal/wtaerrors"
)

const (
	worktreesSubdir = ".worktrees"
	stateSubdir     = ".worktree-agents"
)

// Orchestrator is the sole writer of the registry for one repository.
type Orchestrator struct {
	mu sync.Mutex

	repoRoot     string
	worktreesDir string
	stateDir     string
	promptsDir   string
	statusDir    string

	reg      *state.Registry
	wt       *worktree.Manager
	tm       *tmux.Manager
	merger   *merge.Engine
	resolver *branchresolve.Resolver
	events   *eventlog.Log

	log *slog.Logger
}

// Config controls optional collaborators wired in at construction.
type Config struct {
	DefaultMergeStrategy merge.Strategy
	EventLog             *eventlog.Log // nil disables audit recording
}

// New discovers the repository root by walking up from the current
// directory (via `git rev-parse --show-toplevel`), ensures the worktrees
// and state directories exist, and loads the registry.
func New(ctx context.Context, cfg Config) (*Orchestrator, error) {
	repoRoot, err := discoverRepoRoot(ctx)
	if err != nil {
		return nil, err
	}

	worktreesDir := filepath.Join(repoRoot, worktreesSubdir)
	stateDir := filepath.Join(repoRoot, stateSubdir)
	promptsDir := filepath.Join(stateDir, "prompts")
	statusDir := filepath.Join(stateDir, "status")

	for _, dir := range []string{worktreesDir, stateDir, promptsDir, statusDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	reg, err := state.LoadOrCreate(stateDir)
	if err != nil {
		return nil, err
	}

	session := sessionName(repoRoot)

	return &Orchestrator{
		repoRoot:     repoRoot,
		worktreesDir: worktreesDir,
		stateDir:     stateDir,
		promptsDir:   promptsDir,
		statusDir:    statusDir,
		reg:          reg,
		wt:           worktree.New(repoRoot),
		tm:           tmux.New(session),
		merger:       merge.New(repoRoot),
		resolver:     branchresolve.New(repoRoot, stateDir),
		events:       cfg.EventLog,
		log:          logging.WithComponent("orchestrator"),
	}, nil
}

func discoverRepoRoot(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		cwd, _ := os.Getwd()
		return "", &wtaerrors.NotAGitRepositoryError{Path: cwd}
	}
	return strings.TrimSpace(string(out)), nil
}

// sessionName derives "wta-<basename>-<hex6>" from the repository's
// absolute path, so two differently-located checkouts of the same-named
// project never collide on a single tmux session.
func sessionName(repoRoot string) string {
	sum := sha256.Sum256([]byte(repoRoot))
	hex6 := fmt.Sprintf("%x", sum[:3])
	return fmt.Sprintf("wta-%s-%s", filepath.Base(repoRoot), hex6)
}

// RepoRoot returns the repository root this orchestrator owns.
func (o *Orchestrator) RepoRoot() string { return o.repoRoot }

// TmuxSessionName returns the tmux session this orchestrator's agents run
// in, for callers that need to manage the session directly (tests, cleanup
// tooling).
func (o *Orchestrator) TmuxSessionName() string { return o.tm.Session() }

// WorktreesDir returns the directory new agent worktrees are created under.
func (o *Orchestrator) WorktreesDir() string { return o.worktreesDir }

// LaunchRequest describes a new agent to launch.
type LaunchRequest struct {
	Task       string
	Branch     string // user-supplied; "" to auto-generate wta/<id>
	BaseBranch string // user-supplied; "" to use current HEAD branch (the default branch if HEAD is detached)
	Provider   provider.Name
	ExtraArgs  []string
}

// Launch allocates an id, prepares the worktree and tmux window, and starts
// the provider subprocess, returning the new agent's id.
func (o *Orchestrator) Launch(ctx context.Context, req LaunchRequest) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !req.Provider.Valid() {
		return "", fmt.Errorf("invalid provider: %s", req.Provider)
	}

	id := o.reg.Next()
	worktreePath := filepath.Join(o.worktreesDir, id)

	branch, baseBranch, err := o.resolveLaunchBranch(ctx, id, req, worktreePath)
	if err != nil {
		return "", err
	}

	o.propagateClaudeSettings(worktreePath)

	if err := o.tm.CreateWindow(ctx, id, worktreePath); err != nil {
		return "", err
	}

	promptFile := filepath.Join(o.promptsDir, id+".txt")
	statusFile := filepath.Join(o.statusDir, id+".json")
	if err := writePromptFile(promptFile, req.Task, statusFile); err != nil {
		return "", err
	}

	command := provider.Build(req.Provider, worktreePath, promptFile, o.statusDir, req.ExtraArgs)
	if err := o.tm.SendKeys(ctx, id, command); err != nil {
		return "", err
	}

	agent := &state.Agent{
		ID:           id,
		Task:         req.Task,
		Branch:       branch,
		BaseBranch:   baseBranch,
		WorktreePath: worktreePath,
		TmuxSession:  o.tm.Session(),
		TmuxWindow:   id,
		Status:       state.StatusRunning,
		Provider:     string(req.Provider),
		LaunchedAt:   time.Now().UTC(),
	}
	if err := o.reg.AddAgent(agent); err != nil {
		return "", err
	}

	o.events.Record(ctx, id, eventlog.Launched, fmt.Sprintf("provider=%s branch=%s", req.Provider, branch))
	o.log.Info("launched agent", "id", id, "branch", branch, "provider", req.Provider)
	return id, nil
}

func (o *Orchestrator) resolveLaunchBranch(ctx context.Context, id string, req LaunchRequest, worktreePath string) (branch, baseBranch string, err error) {
	if err := o.tm.EnsureSession(ctx); err != nil {
		return "", "", err
	}

	if req.Branch != "" && o.wt.BranchExists(ctx, req.Branch) {
		if err := o.wt.CheckoutExisting(ctx, worktreePath, req.Branch); err != nil {
			return "", "", err
		}
		return req.Branch, req.Branch, nil
	}

	branch = req.Branch
	if branch == "" {
		branch = "wta/" + id
	}

	base := req.BaseBranch
	if base == "" {
		out, headErr := exec.CommandContext(ctx, "git", "-C", o.repoRoot, "rev-parse", "--abbrev-ref", "HEAD").Output()
		base = strings.TrimSpace(string(out))
		if headErr != nil || base == "" || base == "HEAD" {
			base, err = o.resolver.Resolve(ctx)
			if err != nil {
				return "", "", err
			}
		}
	}

	if err := o.wt.Create(ctx, worktreePath, branch, base); err != nil {
		return "", "", err
	}
	return branch, base, nil
}

// propagateClaudeSettings recursively copies <repo>/.claude into the new
// worktree, if present, so provider permission settings carry over.
// Failure is logged and ignored per spec.
func (o *Orchestrator) propagateClaudeSettings(worktreePath string) {
	src := filepath.Join(o.repoRoot, ".claude")
	if _, err := os.Stat(src); err != nil {
		return
	}
	if err := copyDir(src, filepath.Join(worktreePath, ".claude")); err != nil {
		o.log.Warn("failed to propagate .claude settings", "error", err)
	}
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}

func writePromptFile(path, task, statusFile string) error {
	contents := fmt.Sprintf(`%s

When you are finished, write a JSON status file to %s with the shape:
{"status": "completed"|"failed", "summary": "...", "files_changed": ["..."], "error": null|"..."}
`, task, statusFile)
	return os.WriteFile(path, []byte(contents), 0o644)
}

// statusFileContents is the JSON shape a provider subprocess writes on
// completion.
type statusFileContents struct {
	Status       string   `json:"status"`
	Summary      string   `json:"summary"`
	FilesChanged []string `json:"files_changed"`
	Error        *string  `json:"error"`
}

func (o *Orchestrator) statusFilePath(id string) string {
	return filepath.Join(o.statusDir, id+".json")
}

func (o *Orchestrator) promptFilePath(id string) string {
	return filepath.Join(o.promptsDir, id+".txt")
}

// CheckStatus reconciles the given agent against the status file and tmux
// window state, returning its (possibly updated) status. No-ops for agents
// already in a terminal state.
func (o *Orchestrator) CheckStatus(ctx context.Context, id string) (state.Status, error) {
	agent, ok := o.reg.Get(id)
	if !ok {
		return "", &wtaerrors.AgentNotFoundError{ID: id}
	}
	if agent.Status != state.StatusRunning {
		return agent.Status, nil
	}

	if sf, ok := readStatusFile(o.statusFilePath(id)); ok {
		switch sf.Status {
		case "completed":
			o.transitionTerminal(ctx, agent, state.StatusCompleted)
		case "failed":
			o.transitionTerminal(ctx, agent, state.StatusFailed)
		}
		return agent.Status, o.reg.Save()
	}

	if !o.tm.WindowExists(ctx, agent.TmuxWindow) {
		o.transitionTerminal(ctx, agent, state.StatusFailed)
		return agent.Status, o.reg.Save()
	}

	return state.StatusRunning, nil
}

func (o *Orchestrator) transitionTerminal(ctx context.Context, agent *state.Agent, to state.Status) {
	now := time.Now().UTC()
	agent.Status = to
	agent.CompletedAt = &now
	_ = o.tm.KillWindow(ctx, agent.TmuxWindow)
	o.events.Record(ctx, agent.ID, eventlog.StatusChanged, "status="+string(to))
}

func readStatusFile(path string) (*statusFileContents, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var sf statusFileContents
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, false
	}
	if sf.Status != "completed" && sf.Status != "failed" {
		return nil, false
	}
	return &sf, true
}

// Merge delegates to the merge engine and, on success, removes the
// worktree/branch/prompt/status artifacts and transitions the agent to
// Merged. Requires force unless the agent has already reconciled out of
// Running.
func (o *Orchestrator) Merge(ctx context.Context, id string, strategy merge.Strategy, force bool) (*merge.Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.CheckStatus(ctx, id); err != nil {
		return nil, err
	}
	agent, _ := o.reg.Get(id)

	if agent.Status == state.StatusRunning && !force {
		return nil, &wtaerrors.AgentStillRunningError{ID: id}
	}
	if agent.BaseBranch == agent.Branch {
		return nil, fmt.Errorf("agent %s has no base to merge into (attached to pre-existing branch)", id)
	}

	result, err := o.merger.Integrate(ctx, strategy, agent.WorktreePath, agent.Branch, agent.BaseBranch)
	if err != nil {
		return nil, err
	}

	o.cleanupAgentResources(ctx, agent)
	agent.Status = state.StatusMerged
	o.events.Record(ctx, id, eventlog.Merged, "strategy="+string(strategy))
	return result, o.reg.Save()
}

// Remove tears down an agent's resources and erases it from the registry.
// force is required only when the agent is genuinely still running (status
// Running AND its tmux window still exists); a dead window means the agent
// is not truly running regardless of recorded status.
func (o *Orchestrator) Remove(ctx context.Context, id string, force bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.CheckStatus(ctx, id); err != nil {
		return err
	}
	agent, _ := o.reg.Get(id)

	stillRunning := agent.Status == state.StatusRunning && o.tm.WindowExists(ctx, agent.TmuxWindow)
	if stillRunning && !force {
		return &wtaerrors.AgentStillRunningError{ID: id}
	}

	o.cleanupAgentResources(ctx, agent)
	o.events.Record(ctx, id, eventlog.Removed, "")
	return o.reg.Remove(id)
}

// cleanupAgentResources kills the tmux window, removes the worktree,
// deletes the local branch (kept when the agent was attached to a
// pre-existing branch), and deletes the prompt/status files. Every step is
// best-effort and never returned, since the caller is already committed to
// erasing the registry entry: window, worktree and branch failures are
// logged, prompt/status file removal errors are ignored.
func (o *Orchestrator) cleanupAgentResources(ctx context.Context, agent *state.Agent) {
	if err := o.tm.KillWindow(ctx, agent.TmuxWindow); err != nil {
		o.log.Warn("failed to kill tmux window", "id", agent.ID, "error", err)
	}
	if err := o.wt.Remove(ctx, agent.WorktreePath, true); err != nil {
		o.log.Warn("failed to remove worktree", "id", agent.ID, "error", err)
	}
	if agent.BaseBranch != agent.Branch {
		cmd := exec.CommandContext(ctx, "git", "-C", o.repoRoot, "branch", "-D", agent.Branch)
		if out, err := cmd.CombinedOutput(); err != nil {
			o.log.Warn("failed to delete branch", "id", agent.ID, "branch", agent.Branch, "error", err, "output", string(out))
		}
	}
	_ = os.Remove(o.promptFilePath(agent.ID))
	_ = os.Remove(o.statusFilePath(agent.ID))
}

// PruneFilter selects which agents Prune acts on.
type PruneFilter struct {
	All      bool
	Status   state.Status // used when All is false and Inactive is false
	Inactive bool         // Completed, Failed, or Merged
}

func (f PruneFilter) matches(agent *state.Agent) bool {
	if f.All {
		return true
	}
	if f.Inactive {
		return agent.Status == state.StatusCompleted || agent.Status == state.StatusFailed || agent.Status == state.StatusMerged
	}
	return agent.Status == f.Status
}

// Prune cleans up and erases every agent matching filter, returning the ids
// removed. Running agents are reconciled first (status file / window-gone
// check) so a dead window doesn't masquerade as still active and escape an
// --inactive prune.
func (o *Orchestrator) Prune(ctx context.Context, filter PruneFilter) ([]string, error) {
	for _, agent := range o.List() {
		if agent.Status == state.StatusRunning {
			_, _ = o.CheckStatus(ctx, agent.ID)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var toRemove []*state.Agent
	for _, agent := range o.reg.Agents {
		if filter.matches(agent) {
			toRemove = append(toRemove, agent)
		}
	}

	var removed []string
	for _, agent := range toRemove {
		o.cleanupAgentResources(ctx, agent)
		o.events.Record(ctx, agent.ID, eventlog.Pruned, "")
		if err := o.reg.Remove(agent.ID); err != nil {
			return removed, err
		}
		removed = append(removed, agent.ID)
	}
	return removed, nil
}

// List returns every agent in the registry in insertion order.
func (o *Orchestrator) List() []*state.Agent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reg.Agents
}

// Get returns a single agent by id.
func (o *Orchestrator) Get(id string) (*state.Agent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reg.Get(id)
}

// Attach foregrounds the tmux window hosting the agent's provider process.
func (o *Orchestrator) Attach(id string) error {
	agent, ok := o.Get(id)
	if !ok {
		return &wtaerrors.AgentNotFoundError{ID: id}
	}
	return o.tm.Attach(agent.TmuxWindow)
}

// GetOutput captures the last n lines of the agent's tmux pane, or a
// placeholder if the window is gone.
func (o *Orchestrator) GetOutput(ctx context.Context, id string, n int) (string, error) {
	agent, ok := o.Get(id)
	if !ok {
		return "", &wtaerrors.AgentNotFoundError{ID: id}
	}
	out, err := o.tm.CapturePane(ctx, agent.TmuxWindow, n)
	if err != nil {
		return "(window closed, no output available)", nil
	}
	return out, nil
}

// OpenVSCode launches the `code` editor against the agent's worktree.
func (o *Orchestrator) OpenVSCode(id string) error {
	agent, ok := o.Get(id)
	if !ok {
		return &wtaerrors.AgentNotFoundError{ID: id}
	}
	cmd := exec.Command("code", agent.WorktreePath)
	if err := cmd.Start(); err != nil {
		return &wtaerrors.ExternalProcessFailedError{Msg: fmt.Sprintf("failed to launch editor: %v", err)}
	}
	return nil
}

// DiffResult is the parsed output of a diff between an agent's branch and
// the branch it was forked from.
type DiffResult struct {
	Text         string   `json:"text"`
	FilesChanged []string `json:"files_changed"`
	Insertions   int      `json:"insertions"`
	Deletions    int      `json:"deletions"`
}

// Diff runs `git diff <base>...HEAD` inside the agent's worktree and parses
// the accompanying --shortstat line.
func (o *Orchestrator) Diff(ctx context.Context, id string) (*DiffResult, error) {
	agent, ok := o.Get(id)
	if !ok {
		return nil, &wtaerrors.AgentNotFoundError{ID: id}
	}

	spec := agent.BaseBranch + "...HEAD"
	text, err := o.gitInWorktree(ctx, agent.WorktreePath, "diff", spec)
	if err != nil {
		return nil, err
	}
	files, err := o.gitInWorktree(ctx, agent.WorktreePath, "diff", "--name-only", spec)
	if err != nil {
		return nil, err
	}
	stat, err := o.gitInWorktree(ctx, agent.WorktreePath, "diff", "--shortstat", spec)
	if err != nil {
		return nil, err
	}

	result := &DiffResult{Text: text}
	for _, f := range strings.Split(strings.TrimSpace(files), "\n") {
		if f != "" {
			result.FilesChanged = append(result.FilesChanged, f)
		}
	}
	result.Insertions, result.Deletions = parseShortstat(stat)
	return result, nil
}

func (o *Orchestrator) gitInWorktree(ctx context.Context, worktreePath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", worktreePath}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", &wtaerrors.CommandFailedError{Command: append([]string{"git"}, args...), Stderr: string(out)}
	}
	return string(out), nil
}

// parseShortstat extracts insertion/deletion counts from a line like
// " 3 files changed, 12 insertions(+), 4 deletions(-)".
func parseShortstat(line string) (insertions, deletions int) {
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, "insertion"):
			fmt.Sscanf(part, "%d", &insertions)
		case strings.Contains(part, "deletion"):
			fmt.Sscanf(part, "%d", &deletions)
		}
	}
	return insertions, deletions
}

// CreatePRRequest describes a pull request to open for an agent's branch.
type CreatePRRequest struct {
	Title string
	Body  string
	Force bool // skip the terminal-status check
}

// CreatePR pushes the agent's branch and shells out to the GitHub CLI to
// open a pull request against the base branch. The agent must be in a
// terminal status unless force is set.
func (o *Orchestrator) CreatePR(ctx context.Context, id string, req CreatePRRequest) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	agent, ok := o.reg.Get(id)
	if !ok {
		return "", &wtaerrors.AgentNotFoundError{ID: id}
	}
	if agent.Status == state.StatusRunning && !req.Force {
		return "", &wtaerrors.AgentStillRunningError{ID: id}
	}

	pushCmd := exec.CommandContext(ctx, "git", "-C", agent.WorktreePath, "push", "-u", "origin", agent.Branch)
	if out, err := pushCmd.CombinedOutput(); err != nil {
		return "", &wtaerrors.CommandFailedError{Command: []string{"git", "push"}, Stderr: string(out)}
	}

	title := req.Title
	if title == "" {
		title = agent.Task
	}
	args := []string{"pr", "create", "--base", agent.BaseBranch, "--head", agent.Branch, "--title", title}
	if req.Body != "" {
		args = append(args, "--body", req.Body)
	} else {
		args = append(args, "--body", "")
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = agent.WorktreePath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &wtaerrors.ExternalProcessFailedError{Msg: fmt.Sprintf("gh pr create: %v: %s", err, out)}
	}

	url := strings.TrimSpace(string(out))
	o.events.Record(ctx, id, eventlog.PRCreated, url)
	return url, nil
}
