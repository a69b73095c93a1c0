package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/models"
)

// NotificationHandler lets an admin push a timed notification to every
// connected session.
type NotificationHandler struct {
	hub *broker.Hub
}

func NewNotificationHandler(hub *broker.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

func (h *NotificationHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	h.hub.Broadcast(broker.Event{
		Type: broker.EventNotification,
		Data: models.Notification{Text: req.Text, Duration: req.Duration},
	})
	w.WriteHeader(http.StatusNoContent)
}
