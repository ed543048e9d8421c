// Package tmux wraps the tmux CLI for session and window lifecycle
// management. There is one session per repository and one window per agent.
package tmux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/wta-dev/wta/internal/wtaerrors"
)

// Manager drives a single tmux session.
type Manager struct {
	session string
}

// New returns a Manager bound to the given session name.
func New(session string) *Manager {
	return &Manager{session: session}
}

// Session returns the tmux session name this Manager drives.
func (m *Manager) Session() string {
	return m.session
}

// ShellQuote wraps a string in single quotes, escaping any embedded single
// quotes, so it is safe to splice into a shell command.
func ShellQuote(input string) string {
	if input == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(input, "'", `'"'"'`) + "'"
}

func (m *Manager) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &wtaerrors.TmuxError{Msg: fmt.Sprintf("tmux %s: %v: %s", strings.Join(args, " "), err, out)}
	}
	return string(out), nil
}

// SessionExists reports whether the session is currently alive.
func (m *Manager) SessionExists(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "tmux", "has-session", "-t", m.session)
	return cmd.Run() == nil
}

// EnsureSession creates the session (with a window named "main") if it does
// not already exist. Idempotent.
func (m *Manager) EnsureSession(ctx context.Context) error {
	if m.SessionExists(ctx) {
		return nil
	}
	_, err := m.run(ctx, "new-session", "-d", "-s", m.session, "-n", "main")
	return err
}

// CreateWindow adds a window to the session, starting in cwd.
func (m *Manager) CreateWindow(ctx context.Context, name, cwd string) error {
	if err := m.EnsureSession(ctx); err != nil {
		return err
	}
	_, err := m.run(ctx, "new-window", "-t", m.session, "-n", name, "-c", cwd)
	return err
}

// WindowExists is a non-throwing probe for whether a named window is still
// present in the session.
func (m *Manager) WindowExists(ctx context.Context, window string) bool {
	cmd := exec.CommandContext(ctx, "tmux", "list-windows", "-t", m.session, "-F", "#{window_name}")
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == window {
			return true
		}
	}
	return false
}

// SendKeys types text into the window's input stream and presses Enter,
// the mechanism by which a command is dispatched into the running shell.
func (m *Manager) SendKeys(ctx context.Context, window, text string) error {
	target := m.session + ":" + window
	_, err := m.run(ctx, "send-keys", "-t", target, text, "Enter")
	return err
}

// CapturePane snapshots the last n lines of the window's visible buffer.
func (m *Manager) CapturePane(ctx context.Context, window string, n int) (string, error) {
	target := m.session + ":" + window
	out, err := m.run(ctx, "capture-pane", "-t", target, "-p", "-S", "-"+strconv.Itoa(n))
	if err != nil {
		return "", &wtaerrors.TmuxWindowNotFoundError{Window: window}
	}
	// -S -n starts n lines into the history and runs to the end of the
	// visible pane, so drop trailing blank rows and keep only the last n.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// KillWindow terminates the window and, with it, its child process tree.
// Errors are non-fatal to callers that only want best-effort cleanup.
func (m *Manager) KillWindow(ctx context.Context, window string) error {
	target := m.session + ":" + window
	_, err := m.run(ctx, "kill-window", "-t", target)
	return err
}

// Attach forks the tmux client into the current terminal, foregrounding the
// session (and, if window is non-empty, a specific window) so a human can
// observe. It blocks until the user detaches.
func (m *Manager) Attach(window string) error {
	target := m.session
	if window != "" {
		target = m.session + ":" + window
	}

	var cmd *exec.Cmd
	if os.Getenv("TMUX") != "" {
		cmd = exec.Command("tmux", "switch-client", "-t", target)
	} else {
		cmd = exec.Command("tmux", "attach-session", "-t", target)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
