// Package chat serves question-answer conversations over WebSocket. Each
// connection is one conversation; turns within it are strictly sequential.
package chat

import (
	"sync"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/gorilla/websocket"
)

// Hub tracks live conversations by id.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*websocket.Conn),
	}
}

// Register adds a conversation to the hub.
func (h *Hub) Register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
}

// Unregister removes a conversation. Unknown ids are a no-op, so teardown
// paths can call it unconditionally.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// Send writes one text message to the conversation with the given id. A
// conversation that has already been unregistered yields ErrChannelClosed.
func (h *Hub) Send(id string, message []byte) error {
	h.mu.Lock()
	conn, ok := h.conns[id]
	h.mu.Unlock()

	if !ok {
		return domain.ErrChannelClosed
	}
	return conn.WriteMessage(websocket.TextMessage, message)
}

// Count returns the number of live conversations.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
