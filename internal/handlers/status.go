package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"slackassist/internal/services"
)

type StatusHandler struct {
	status *services.StatusService
}

func NewStatusHandler(status *services.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

// HandleStatus handles GET /api/status. The optional hours query parameter
// sets the lookback window, defaulting to 24.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid hours parameter", http.StatusBadRequest)
			return
		}
		hours = parsed
	}

	report, err := h.status.Report(r.Context(), hours)
	if err != nil {
		slog.Error("Status report failed", slog.Any("error", err))
		http.Error(w, "Failed to build status report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		slog.Error("Failed to encode status response", slog.Any("error", err))
	}
}
