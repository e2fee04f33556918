package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// UpdateSource publishes pipeline updates.
type UpdateSource interface {
	AddListener(fn func(app.Update))
}

// LandmarksHandler broadcasts camera pipeline updates, landmarks included, via WebSocket.
type LandmarksHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewLandmarksHandler creates a LandmarksHandler fed by src.
func NewLandmarksHandler(src UpdateSource) *LandmarksHandler {
	h := &LandmarksHandler{
		clients: make(map[*websocket.Conn]bool),
	}
	src.AddListener(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade error")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast sends one update to all connected clients.
func (h *LandmarksHandler) broadcast(u app.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(u)
	if err != nil {
		log.WithError(err).Error("failed to encode update")
		return
	}

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.WithError(err).Debug("dropping landmarks client")
			delete(h.clients, conn)
		}
	}
}
