package game

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// upgrader is used to upgrade an HTTP connection to a persistent WebSocket connection.
var upgrader = websocket.Upgrader{
	// Allow connections from any origin (for development).
	// In production, restrict this to the game client's origin.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler handles the WebSocket route that binds a connection to a
// game room: GET /game/ws/pong/{roomID}/{name}.
type WSHandler struct {
	registry *Registry
}

func NewWSHandler(registry *Registry) *WSHandler {
	return &WSHandler{registry: registry}
}

// ServeHTTP upgrades the connection, joins it to its room, and then runs
// the session's read loop for the lifetime of the connection.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	matchID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil || name == "" {
		http.Error(w, "invalid room identifier", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	sess := NewSession(conn)
	room, player, err := h.registry.Join(r.Context(), matchID, name, sess)
	if err != nil {
		slog.Info("Join rejected", "matchID", matchID, "username", name, "error", err)
		deadline := time.Now().Add(writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), deadline)
		conn.Close()
		return
	}

	slog.Info("Player joined game room", "matchID", matchID, "username", name, "player", player)
	sess.ReadLoop(room, player)
}
