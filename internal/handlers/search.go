package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"slackassist/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query       string `json:"query"`
	Limit       int    `json:"limit,omitempty"`
	UseSlackAPI bool   `json:"use_slack_api,omitempty"`
}

type searchResponse struct {
	Results []services.Result `json:"results"`
	Count   int               `json:"count"`
}

// HandleSearch handles POST /api/search.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Query == "" {
		http.Error(w, "Query is required", http.StatusBadRequest)
		return
	}

	results, err := h.search.Search(r.Context(), req.Query, req.Limit, req.UseSlackAPI)
	if err != nil {
		slog.Error("Search failed", slog.String("query", req.Query), slog.Any("error", err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []services.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(searchResponse{Results: results, Count: len(results)}); err != nil {
		slog.Error("Failed to encode search response", slog.Any("error", err))
	}
}
