package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"slackassist/internal/services"
	"slackassist/internal/storage"
)

// fakeStore backs the handler tests with canned data. Methods the handlers
// never reach stay on the embedded nil interface.
type fakeStore struct {
	storage.Store

	textHits []storage.MessageHit
	mentions []storage.MessageHit
	messages map[string]*storage.Message
	stats    *storage.EmbeddingStats
}

func (f *fakeStore) SearchText(ctx context.Context, query string, limit int) ([]storage.MessageHit, error) {
	return f.textHits, nil
}

func (f *fakeStore) GetMessage(ctx context.Context, channelID, ts string) (*storage.Message, error) {
	return f.messages[channelID+":"+ts], nil
}

func (f *fakeStore) GetThreadMessages(ctx context.Context, channelID, threadTS string) ([]*storage.Message, error) {
	return nil, nil
}

func (f *fakeStore) GetMentions(ctx context.Context, userID string, since time.Time) ([]storage.MessageHit, error) {
	return f.mentions, nil
}

func (f *fakeStore) GetDMMessages(ctx context.Context, since time.Time) ([]storage.MessageHit, error) {
	return nil, nil
}

func (f *fakeStore) GetThreadActivity(ctx context.Context, userID string, since time.Time) ([]storage.MessageHit, error) {
	return nil, nil
}

func (f *fakeStore) GetPendingReminders(ctx context.Context, userID string) ([]*storage.Reminder, error) {
	return nil, nil
}

func (f *fakeStore) EmbeddingStats(ctx context.Context) (*storage.EmbeddingStats, error) {
	return f.stats, nil
}

func TestHandleSearchInvalidBody(t *testing.T) {
	handler := NewSearchHandler(services.NewSearchService(&fakeStore{}, nil, nil))

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	handler.HandleSearch(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleSearchMissingQuery(t *testing.T) {
	handler := NewSearchHandler(services.NewSearchService(&fakeStore{}, nil, nil))

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"limit": 5}`))
	w := httptest.NewRecorder()
	handler.HandleSearch(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleSearchSuccess(t *testing.T) {
	store := &fakeStore{
		textHits: []storage.MessageHit{
			{
				Message: storage.Message{
					ChannelID: "C1",
					TS:        "100.000001",
					Text:      "the deploy finished",
				},
				ChannelName: "general",
			},
		},
	}
	handler := NewSearchHandler(services.NewSearchService(store, nil, nil))

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"query": "deploy"}`))
	w := httptest.NewRecorder()
	handler.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []services.Result `json:"results"`
		Count   int               `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Errorf("count = %d, results = %d, want 1", resp.Count, len(resp.Results))
	}
	if resp.Results[0].MatchType != "text" {
		t.Errorf("match type = %q, want text", resp.Results[0].MatchType)
	}
}

func TestHandleSearchEmptyResults(t *testing.T) {
	handler := NewSearchHandler(services.NewSearchService(&fakeStore{}, nil, nil))

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"query": "nothing"}`))
	w := httptest.NewRecorder()
	handler.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("empty results should encode as [], got: %s", w.Body.String())
	}
}

func TestHandleStatusDefaultWindow(t *testing.T) {
	store := &fakeStore{
		mentions: []storage.MessageHit{
			{Message: storage.Message{ChannelID: "C1", TS: "100.000001", Text: "<@U1> ping"}},
		},
	}
	handler := NewStatusHandler(services.NewStatusService(store, "U1"))

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	handler.HandleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var report services.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(report.Items) != 1 {
		t.Errorf("items = %d, want 1", len(report.Items))
	}
}

func TestHandleStatusInvalidHours(t *testing.T) {
	handler := NewStatusHandler(services.NewStatusService(&fakeStore{}, "U1"))

	for _, hours := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest("GET", "/api/status?hours="+hours, nil)
		w := httptest.NewRecorder()
		handler.HandleStatus(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("hours=%s: status = %d, want 400", hours, w.Code)
		}
	}
}

func TestHandleContextMissingLink(t *testing.T) {
	handler := NewContextHandler(services.NewSearchService(&fakeStore{}, nil, nil))

	req := httptest.NewRequest("POST", "/api/context", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.HandleContext(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleContextUncachedMessage(t *testing.T) {
	store := &fakeStore{messages: map[string]*storage.Message{}}
	handler := NewContextHandler(services.NewSearchService(store, nil, nil))

	body := `{"link": "https://myteam.slack.com/archives/C1/p100000001"}`
	req := httptest.NewRequest("POST", "/api/context", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleContext(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleContextSuccess(t *testing.T) {
	store := &fakeStore{
		messages: map[string]*storage.Message{
			"C1:100.000001": {
				ID:        1,
				ChannelID: "C1",
				TS:        "100.000001",
				Text:      "the message in question",
			},
		},
	}
	handler := NewContextHandler(services.NewSearchService(store, nil, nil))

	body := `{"link": "https://myteam.slack.com/archives/C1/p100000001"}`
	req := httptest.NewRequest("POST", "/api/context", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleContext(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var result services.ContextResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Message.Text != "the message in question" {
		t.Errorf("message text = %q", result.Message.Text)
	}
}

func TestHandleStats(t *testing.T) {
	store := &fakeStore{
		stats: &storage.EmbeddingStats{
			TotalMessages:    200,
			EmbeddedMessages: 150,
			CoveragePct:      75.0,
		},
	}
	handler := NewStatsHandler(store)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var stats storage.EmbeddingStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalMessages != 200 || stats.EmbeddedMessages != 150 {
		t.Errorf("stats = %+v", stats)
	}
}
