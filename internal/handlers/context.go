package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"slackassist/internal/services"
)

type ContextHandler struct {
	search *services.SearchService
}

func NewContextHandler(search *services.SearchService) *ContextHandler {
	return &ContextHandler{search: search}
}

type contextRequest struct {
	Link  string `json:"link"`
	Limit int    `json:"limit,omitempty"`
}

// HandleContext handles POST /api/context: it resolves a Slack permalink
// against the cache and returns the message with its thread and related
// discussion.
func (h *ContextHandler) HandleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Link == "" {
		http.Error(w, "Link is required", http.StatusBadRequest)
		return
	}

	result, err := h.search.FindContext(r.Context(), req.Link, req.Limit)
	if err != nil {
		slog.Error("Context lookup failed", slog.String("link", req.Link), slog.Any("error", err))
		http.Error(w, "Context lookup failed: "+err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("Failed to encode context response", slog.Any("error", err))
	}
}
