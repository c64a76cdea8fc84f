package chat

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Responder defines the interface for answering one question
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests into chat conversations.
type Handler struct {
	hub       *Hub
	responder Responder
}

// NewHandler creates a new Handler instance
func NewHandler(hub *Hub, responder Responder) *Handler {
	return &Handler{
		hub:       hub,
		responder: responder,
	}
}

// ServeHTTP runs one conversation. Messages are handled strictly in order:
// the next question is not read until the previous answer has been sent.
// On a pipeline failure the client receives a single diagnostic message and
// the connection is closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	h.hub.Register(id, conn)
	defer func() {
		h.hub.Unregister(id)
		conn.Close()
		log.Printf("conversation %s closed", id)
	}()

	log.Printf("conversation %s opened", id)

	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("conversation %s read error: %v", id, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		answer, err := h.responder.Respond(r.Context(), string(message))
		if err != nil {
			log.Printf("conversation %s respond error: %v", id, err)
			// best effort diagnostic before closing
			_ = h.hub.Send(id, []byte("Error: "+err.Error()))
			return
		}

		if err := h.hub.Send(id, []byte(answer)); err != nil {
			log.Printf("conversation %s write error: %v", id, err)
			return
		}
	}
}
