package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler принимает список разрешённых Origin; пустой список или "*" разрешает всё.
func NewWebSocketHandler(hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// ServeRoom returns a handler that subscribes the connection to room.
// Access control for the room is done by the router.
func (h *WebSocketHandler) ServeRoom(room string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !realtime.IsKnownRoom(room) {
			notFoundResponse(w, r, "unknown room")
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade сам отвечает клиенту ошибкой.
			h.logger.Warn("websocket upgrade failed", "room", room, "error", err)
			return
		}
		h.hub.Attach(conn, room)
	}
}
