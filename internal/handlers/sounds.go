package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bonkboard/backend/internal/apperr"
	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/services"
)

const maxUploadBytes = 16 << 20 // 16 MB

// SoundHandler serves the sound list and the admin-gated CRUD surface.
// Every successful mutation is broadcast to all live sessions.
type SoundHandler struct {
	sounds *services.SoundService
	hub    *broker.Hub
}

func NewSoundHandler(sounds *services.SoundService, hub *broker.Hub) *SoundHandler {
	return &SoundHandler{sounds: sounds, hub: hub}
}

// List returns sounds, filterable by source and count thresholds.
func (h *SoundHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCountFilter(r)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	var source *string
	if v := r.URL.Query().Get("source"); v != "" {
		source = &v
	}

	sounds, err := h.sounds.List(source, filter)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, sounds)
}

// Upload stores a new sound clip from a multipart form: metadata fields
// plus the audio payload under "file".
func (h *SoundHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	audio, err := readFilePart(r)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	sound, err := h.sounds.Upload(r.Context(), services.UploadSoundParams{
		Filename:    r.FormValue("filename"),
		DisplayName: r.FormValue("displayName"),
		Source:      r.FormValue("source"),
		Count:       r.FormValue("count"),
		Association: r.FormValue("association"),
	}, audio)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	h.hub.Broadcast(broker.Event{Type: broker.EventSoundUpload, Data: sound})
	writeJSON(w, http.StatusCreated, sound)
}

// Modify updates a sound's metadata and optionally replaces its audio.
// Only form fields that are present are applied.
func (h *SoundHandler) Modify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sound ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var params services.UpdateSoundParams
	params.Filename = formValuePtr(r, "filename")
	params.DisplayName = formValuePtr(r, "displayName")
	params.Source = formValuePtr(r, "source")
	params.Association = formValuePtr(r, "association")
	if raw := formValuePtr(r, "count"); raw != nil {
		count, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "count must be a number")
			return
		}
		params.Count = &count
	}

	var audio []byte
	if _, ok := r.MultipartForm.File["file"]; ok {
		audio, err = readFilePart(r)
		if err != nil {
			respondServiceError(r.Context(), w, err)
			return
		}
	}

	sound, err := h.sounds.Modify(r.Context(), id, params, audio)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	h.hub.Broadcast(broker.Event{Type: broker.EventSoundModify, Data: sound})
	writeJSON(w, http.StatusOK, sound)
}

// Delete removes a sound, its record, and its backing file.
func (h *SoundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sound ID")
		return
	}

	sound, err := h.sounds.Remove(r.Context(), id)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	h.hub.Broadcast(broker.Event{Type: broker.EventSoundDelete, Data: sound})
	writeJSON(w, http.StatusOK, sound)
}

func readFilePart(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, apperr.Invalid("audio file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return data, nil
}

// formValuePtr returns the field's value if it was present in the form.
func formValuePtr(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
