// Package httpapi is a read-mostly HTTP projection of the orchestrator's
// operations, guarded by a single mutex per request the way the teacher's
// gateway package guards its session/task state.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wta-dev/wta/internal/logging"
	"github.com/wta-dev/wta/internal/merge"
	"github.com/wta-dev/wta/internal/orchestrator"
	"github.com/wta-dev/wta/internal/state"
	"github.com/wta-dev/wta/internal/wtaerrors"
)

//go:embed dashboard_dist
var embeddedDashboard embed.FS

// Config controls the HTTP server's bind address and auth.
type Config struct {
	Host      string
	Port      int
	AuthToken string // "" disables token auth; the websocket's localhost-only origin check still applies
}

// Server wraps an *orchestrator.Orchestrator with an HTTP surface. Every
// handler acquires mu before touching the orchestrator, so at most one
// request mutates state at a time — mirroring §5's single-writer model.
type Server struct {
	cfg  Config
	orch *orchestrator.Orchestrator

	mu       sync.Mutex
	upgrader websocket.Upgrader

	httpServer *http.Server
	log        interface {
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}
}

// New returns a Server projecting orch over HTTP.
func New(cfg Config, orch *orchestrator.Orchestrator) *Server {
	return &Server{
		cfg:  cfg,
		orch: orch,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return isLocalhost(origin)
			},
		},
		log: logging.WithComponent("httpapi"),
	}
}

var localhostPrefixes = []string{
	"http://localhost", "http://127.0.0.1",
	"https://localhost", "https://127.0.0.1",
}

// isLocalhost reports whether origin is exactly one of the allowed
// localhost prefixes, or that prefix followed by a port. This rejects
// subdomain-attack origins like "http://localhost.evil.com".
func isLocalhost(origin string) bool {
	for _, prefix := range localhostPrefixes {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}

// Start registers all routes and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/agents", s.withAuth(s.handleListAgents))
	mux.HandleFunc("GET /api/agents/{id}", s.withAuth(s.handleGetAgent))
	mux.HandleFunc("GET /api/agents/{id}/diff", s.withAuth(s.handleDiff))
	mux.HandleFunc("POST /api/agents/{id}/merge", s.withAuth(s.handleMerge))
	mux.HandleFunc("POST /api/agents/{id}/pr", s.withAuth(s.handlePR))
	mux.HandleFunc("GET /api/agents/{id}/output", s.withAuth(s.handleOutput))
	mux.HandleFunc("DELETE /api/agents/{id}", s.withAuth(s.handleRemove))
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.serveDashboard(mux)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("starting dashboard server", "addr", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.AuthToken == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.cfg.AuthToken {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid or missing auth token"))
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	for _, agent := range s.orch.List() {
		if agent.Status == state.StatusRunning {
			_, _ = s.orch.CheckStatus(ctx, agent.ID)
		}
	}
	writeJSON(w, http.StatusOK, s.orch.List())
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	if _, err := s.orch.CheckStatus(r.Context(), id); err != nil {
		writeErrorFor(w, err)
		return
	}
	agent, ok := s.orch.Get(id)
	if !ok {
		writeErrorFor(w, &wtaerrors.AgentNotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body struct {
		Strategy string `json:"strategy"`
		Force    bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := r.PathValue("id")
	result, err := s.orch.Merge(r.Context(), id, merge.Strategy(body.Strategy), body.Force)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	force := r.URL.Query().Get("force") == "true"
	if err := s.orch.Remove(r.Context(), id, force); err != nil {
		writeErrorFor(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	diff, err := s.orch.Diff(r.Context(), id)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handlePR(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := r.PathValue("id")
	url, err := s.orch.CreatePR(r.Context(), id, orchestrator.CreatePRRequest{
		Title: body.Title,
		Body:  body.Body,
		Force: body.Force,
	})
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	lines := 100
	if raw := r.URL.Query().Get("lines"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			lines = n
		}
	}

	out, err := s.orch.GetOutput(r.Context(), id, lines)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeErrorFor maps domain error types to the appropriate HTTP status;
// anything unrecognized falls back to 500, matching §6's "Errors are
// returned as 500" default.
func writeErrorFor(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *wtaerrors.AgentNotFoundError:
		writeError(w, http.StatusNotFound, err)
	case *wtaerrors.AgentStillRunningError:
		writeError(w, http.StatusConflict, err)
	case *wtaerrors.MergeConflictError:
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func dashboardFS() fs.FS {
	sub, err := fs.Sub(embeddedDashboard, "dashboard_dist")
	if err != nil {
		return nil
	}
	return sub
}
