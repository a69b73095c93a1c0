package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/models"
	"github.com/bonkboard/backend/internal/services"
)

// MilestoneHandler serves the milestone list and the admin-gated CRUD
// surface. Every successful mutation is broadcast to all live sessions.
type MilestoneHandler struct {
	milestones *services.MilestoneService
	hub        *broker.Hub
}

func NewMilestoneHandler(milestones *services.MilestoneService, hub *broker.Hub) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones, hub: hub}
}

// List returns milestones, filterable by reached state and associated sound.
func (h *MilestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	var reached *bool
	if v := r.URL.Query().Get("reached"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reached must be a boolean")
			return
		}
		reached = &b
	}

	var soundID *int64
	if v := r.URL.Query().Get("sound"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "sound must be a number")
			return
		}
		soundID = &id
	}

	writeJSON(w, http.StatusOK, h.milestones.List(reached, soundID))
}

// Create adds a new milestone threshold.
func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be a positive number")
		return
	}

	milestone, err := h.milestones.Add(r.Context(), req.Count, req.Reached, req.Timestamp, req.SoundID)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	h.hub.Broadcast(broker.Event{Type: broker.EventMilestoneAdd, Data: milestone})
	writeJSON(w, http.StatusCreated, milestone)
}

// Modify updates the given fields of a milestone.
func (h *MilestoneHandler) Modify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid milestone ID")
		return
	}

	var req models.UpdateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	milestone, err := h.milestones.Modify(r.Context(), id, services.UpdateMilestoneParams{
		Count:     req.Count,
		Reached:   req.Reached,
		Timestamp: req.Timestamp,
		SoundID:   req.SoundID,
	})
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	h.hub.Broadcast(broker.Event{Type: broker.EventMilestoneModify, Data: milestone})
	writeJSON(w, http.StatusOK, milestone)
}

// Delete removes a milestone.
func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid milestone ID")
		return
	}

	milestone, err := h.milestones.Remove(r.Context(), id)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	h.hub.Broadcast(broker.Event{Type: broker.EventMilestoneDelete, Data: milestone})
	writeJSON(w, http.StatusOK, milestone)
}
