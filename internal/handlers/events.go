package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lifetrack-app/lifetrack-backend/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var journalUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// Events streams a user's own journal events over WebSocket.
type Events struct {
	hub *events.Hub
}

func NewEvents(hub *events.Hub) *Events {
	return &Events{hub: hub}
}

// Stream handles GET /ws/journal. The route sits behind the auth
// middleware, which accepts the bearer token from the Authorization
// header or the `token` query parameter for browser WebSocket clients.
// The stream is server-to-client only: every entry.created,
// entry.updated, and entry.deleted event for the caller's own entries,
// until disconnect. Client frames are discarded.
func (h *Events) Stream(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	conn, err := journalUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error.
		return
	}
	defer conn.Close()

	ch, cancel := h.hub.Subscribe(p.ID)
	defer cancel()

	// Reader goroutine: consume and discard client frames so pongs and
	// close frames are processed, and signal when the peer goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		}
	}()

	pings := time.NewTicker(wsPingPeriod)
	defer pings.Stop()

	for {
		select {
		case evt, open := <-ch:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-pings.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
