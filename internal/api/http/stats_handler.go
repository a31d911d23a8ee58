package http

import (
	"net/http"
	"time"

	"mould-rental-backend/internal/service"
)

type StatsHandler struct {
	statsSvc service.StatsService
}

func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// GetStats serves the dashboard counters. ?at= pins the instant, mainly for
// reports on past days.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	at, err := parseTime(r, "at")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	stats, err := h.statsSvc.GetDashboardStats(r.Context(), at)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
