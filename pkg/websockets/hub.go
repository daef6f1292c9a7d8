package websockets

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub publishes to sockets held by this process. The local development server uses it
// in place of API Gateway.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{conns: map[string]*websocket.Conn{}}
}

var _ Publisher = (*Hub)(nil)

func (h *Hub) Register(connectionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connectionID] = conn
}

func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connectionID)
}

// Publish writes the message to every registered socket. A failed write drops the socket.
func (h *Hub) Publish(_ context.Context, message Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		if err := conn.WriteJSON(message); err != nil {
			slog.Warn("dropping local websocket", "connectionId", id, "error", err)
			conn.Close()
			delete(h.conns, id)
		}
	}
	return nil
}

// Len returns the number of registered sockets.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
