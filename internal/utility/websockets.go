package utility

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event names pushed to a user's open clients.
const (
	EventPlansChanged   = "PLANS_CHANGED"
	EventHistoryCleared = "HISTORY_CLEARED"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow CORS for development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub holds the active connections of every user. A user may have several
// devices or tabs open at once.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]struct{})}
}

// Register a new client connection
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[userID][conn] = struct{}{}
	log.Info().Str("user_id", userID).Msg("WebSocket Client Connected")
}

// Unregister a client (when the app closes the socket)
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, conn)
}

func (h *Hub) removeLocked(userID string, conn *websocket.Conn) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
		log.Info().Str("user_id", userID).Msg("WebSocket Client Disconnected")
	}
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Notify sends event to every connection of userID, dropping connections that fail.
func (h *Hub) Notify(userID, event string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to send WS message, removing client")
			h.removeLocked(userID, conn)
		}
	}
}
