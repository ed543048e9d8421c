package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// pushInterval is how often a connected dashboard client receives a fresh
// agent-list snapshot.
const pushInterval = 2 * time.Second

// handleWebSocket upgrades the connection and pushes periodic snapshots of
// the agent list until the client disconnects. There is no client->server
// message protocol; this is a one-way live view.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	if err := s.pushSnapshot(ctx, conn); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pushSnapshot(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	s.mu.Lock()
	for _, agent := range s.orch.List() {
		_, _ = s.orch.CheckStatus(ctx, agent.ID)
	}
	agents := s.orch.List()
	s.mu.Unlock()

	payload, err := json.Marshal(map[string]any{"agents": agents})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
