package handlers

import (
	"net/http"
	"strconv"

	"github.com/bonkboard/backend/internal/apperr"
	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/models"
	"github.com/bonkboard/backend/internal/services"
)

// StatsHandler serves the read-only statistics surface: the counter, the
// summary, the per-day and per-month series, and connection info.
type StatsHandler struct {
	stats *services.StatsService
	hub   *broker.Hub
}

func NewStatsHandler(stats *services.StatsService, hub *broker.Hub) *StatsHandler {
	return &StatsHandler{stats: stats, hub: hub}
}

// Connection returns where the live channel lives and how many tabs are on it.
func (h *StatsHandler) Connection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ConnectionResponse{
		LivePath: "/live",
		Sessions: h.hub.Count(),
	})
}

// Counter returns the all-time click count.
func (h *StatsHandler) Counter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.CounterResponse{Counter: h.stats.AllTime()})
}

// Summary returns every counter window.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Summary())
}

// Stats returns per-day counts, dense over the requested range, optionally
// count-filtered.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCountFilter(r)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	result, err := h.stats.Query(r.URL.Query().Get("from"), r.URL.Query().Get("to"), filter)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Chart returns per-month counts, dense over the requested range, optionally
// count-filtered.
func (h *StatsHandler) Chart(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCountFilter(r)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}

	result, err := h.stats.QueryChart(r.URL.Query().Get("from"), r.URL.Query().Get("to"), filter)
	if err != nil {
		respondServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseCountFilter reads the equals/over/under query parameters.
func parseCountFilter(r *http.Request) (services.CountFilter, error) {
	var filter services.CountFilter
	for name, dst := range map[string]**int64{
		"equals": &filter.Equals,
		"over":   &filter.Over,
		"under":  &filter.Under,
	} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return services.CountFilter{}, apperr.Invalid("%s must be a number", name)
		}
		*dst = &v
	}
	return filter, nil
}
