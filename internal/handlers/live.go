package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/services"
)

// LiveHandler upgrades browser connections onto the live channel. Each tab
// becomes one session in the hub; inbound click messages go straight to
// the click processor.
type LiveHandler struct {
	hub      *broker.Hub
	clicks   *services.ClickService
	upgrader websocket.Upgrader
}

func NewLiveHandler(hub *broker.Hub, clicks *services.ClickService, allowedOrigins []string) *LiveHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &LiveHandler{
		hub:    hub,
		clicks: clicks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Same-origin requests carry no Origin header.
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Connect upgrades the request and registers the session with the hub.
func (h *LiveHandler) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		slog.Debug("websocket upgrade rejected", slog.Any("error", err))
		return
	}

	session := h.hub.Register(conn, h.clicks.HandleMessage)
	slog.Info("live session connected",
		slog.String("session_id", session.ID),
		slog.Int("total_sessions", h.hub.Count()))
}
