package tmux

import (
	"context"
	"os/exec"
	"testing"

	"github.com/google/uuid"
)

func requireTmux(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not available")
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "''"},
		{"hello", "'hello'"},
		{"it's", `'it'"'"'s'`},
	}
	for _, tt := range tests {
		if got := ShellQuote(tt.input); got != tt.want {
			t.Errorf("ShellQuote(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	requireTmux(t)
	ctx := context.Background()

	session := "wta-test-" + uuid.NewString()[:8]
	mgr := New(session)
	t.Cleanup(func() {
		_, _ = exec.CommandContext(ctx, "tmux", "kill-session", "-t", session).CombinedOutput()
	})

	if mgr.SessionExists(ctx) {
		t.Fatal("session should not exist yet")
	}

	if err := mgr.EnsureSession(ctx); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if !mgr.SessionExists(ctx) {
		t.Fatal("session should exist after EnsureSession")
	}

	// Idempotent: calling again must not error.
	if err := mgr.EnsureSession(ctx); err != nil {
		t.Fatalf("EnsureSession (idempotent): %v", err)
	}

	if err := mgr.CreateWindow(ctx, "agent-1", "/tmp"); err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if !mgr.WindowExists(ctx, "agent-1") {
		t.Fatal("window should exist after CreateWindow")
	}
	if mgr.WindowExists(ctx, "no-such-window") {
		t.Fatal("WindowExists should be false for a nonexistent window")
	}

	if err := mgr.SendKeys(ctx, "agent-1", "echo hello-wta"); err != nil {
		t.Fatalf("SendKeys: %v", err)
	}

	if err := mgr.KillWindow(ctx, "agent-1"); err != nil {
		t.Fatalf("KillWindow: %v", err)
	}
	if mgr.WindowExists(ctx, "agent-1") {
		t.Fatal("window should be gone after KillWindow")
	}
}
