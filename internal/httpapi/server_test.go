package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/wta-dev/wta/internal/orchestrator"
	"github.com/wta-dev/wta/internal/provider"
)

func requireTools(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not available")
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	requireTools(t)

	dir := t.TempDir()
	ctx := context.Background()
	run := func(args ...string) {
		cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
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

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	orch, err := orchestrator.New(ctx, orchestrator.Config{})
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}

	return New(Config{Host: "127.0.0.1", Port: 0}, orch)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestHandleListAgentsEmpty(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	w := httptest.NewRecorder()
	s.handleListAgents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var agents []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&agents); err != nil {
		t.Fatal(err)
	}
	if len(agents) != 0 {
		t.Errorf("agents = %v, want empty", agents)
	}
}

func TestHandleGetAgentNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents/99", nil)
	req.SetPathValue("id", "99")
	w := httptest.NewRecorder()
	s.handleGetAgent(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleRemoveRunningWithoutForceConflicts(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	id, err := s.orch.Launch(ctx, orchestrator.LaunchRequest{Task: "t", Provider: provider.Opencode})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	t.Cleanup(func() {
		_, _ = exec.Command("tmux", "kill-session", "-t", s.orch.TmuxSessionName()).CombinedOutput()
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/agents/"+id, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	s.handleRemove(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/agents/"+id+"?force=true", nil)
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	s.handleRemove(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("forced status = %d, want 204", w.Code)
	}
}

func TestIsLocalhost(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3847", true},
		{"http://127.0.0.1:3847", true},
		{"https://localhost", true},
		{"http://localhost.evil.com", false},
		{"https://example.com", false},
	}
	for _, tc := range cases {
		if got := isLocalhost(tc.origin); got != tc.want {
			t.Errorf("isLocalhost(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}
