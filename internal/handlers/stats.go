package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"slackassist/internal/storage"
)

type StatsHandler struct {
	store storage.Store
}

func NewStatsHandler(store storage.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// HandleStats handles GET /api/stats, reporting embedding coverage over the
// message cache.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.EmbeddingStats(r.Context())
	if err != nil {
		slog.Error("Failed to get embedding stats", slog.Any("error", err))
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		slog.Error("Failed to encode stats response", slog.Any("error", err))
	}
}
