package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const watchWriteTimeout = 5 * time.Second

// handleWatch upgrades to a WebSocket and streams change notifications for
// the project until the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "project", projectID, "error", err)
		return
	}
	defer conn.CloseNow()

	sub := s.hub.Subscribe(projectID)
	defer sub.Cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case n := <-sub.C:
			data, err := json.Marshal(n)
			if err != nil {
				s.logger.Error("notification encoding failed", "project", projectID, "error", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, watchWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
