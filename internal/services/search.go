package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	slackapi "slackassist/internal/integrations/slack"
	"slackassist/internal/metrics"
	"slackassist/internal/storage"
)

const defaultSearchLimit = 20

// Embedder turns text into a query vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SlackSearcher is the optional live search backend. Nil means cache-only.
type SlackSearcher interface {
	SearchMessages(ctx context.Context, query string, count int) ([]slackapi.SearchHit, error)
}

// Result is one search hit, merged from whichever backends matched it.
type Result struct {
	Message     storage.Message `json:"message"`
	ChannelName string          `json:"channel_name,omitempty"`
	UserName    string          `json:"user_name,omitempty"`
	Score       float64         `json:"score"`
	Link        string          `json:"link"`
	MatchType   string          `json:"match_type"` // vector, text, slack_api
}

// SearchService merges semantic, substring and live Slack search over the
// message cache. Results are deduplicated by (channel, ts), keeping the
// highest score.
type SearchService struct {
	store    storage.Store
	embedder Embedder
	slack    SlackSearcher
}

func NewSearchService(store storage.Store, embedder Embedder, slack SlackSearcher) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
		slack:    slack,
	}
}

// Search runs the enabled backends and merges their results. Vector search is
// skipped when no embedder is configured, Slack search when useSlackAPI is
// false or no searcher is configured. Backend failures degrade to the
// remaining backends instead of failing the whole search.
func (s *SearchService) Search(ctx context.Context, query string, limit int, useSlackAPI bool) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	start := time.Now()
	merged := make(map[string]Result)

	if s.embedder != nil {
		if err := s.vectorSearch(ctx, query, limit, merged); err != nil {
			slog.Warn("Vector search failed, falling back to text search", slog.Any("error", err))
		}
	}

	if err := s.textSearch(ctx, query, limit, merged); err != nil {
		slog.Warn("Text search failed", slog.Any("error", err))
	}

	if useSlackAPI && s.slack != nil {
		if err := s.slackSearch(ctx, query, limit, merged); err != nil {
			slog.Warn("Slack API search failed", slog.Any("error", err))
		}
	}

	results := make([]Result, 0, len(merged))
	for _, r := range merged {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	slog.Debug("Search completed",
		slog.String("query", query),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

func (s *SearchService) vectorSearch(ctx context.Context, query string, limit int, merged map[string]Result) error {
	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		metrics.SearchesProcessed.WithLabelValues("vector", "error").Inc()
		return err
	}

	hits, err := s.store.SearchSimilar(ctx, embedding, limit)
	if err != nil {
		metrics.SearchesProcessed.WithLabelValues("vector", "error").Inc()
		return err
	}

	for _, h := range hits {
		s.merge(merged, Result{
			Message:     h.Message,
			ChannelName: h.ChannelName,
			UserName:    h.UserName,
			Score:       h.Similarity,
			Link:        slackapi.MessageLink(h.Message.ChannelID, h.Message.TS, h.Message.ThreadTS),
			MatchType:   "vector",
		})
	}
	metrics.SearchesProcessed.WithLabelValues("vector", "success").Inc()
	return nil
}

func (s *SearchService) textSearch(ctx context.Context, query string, limit int, merged map[string]Result) error {
	hits, err := s.store.SearchText(ctx, query, limit)
	if err != nil {
		metrics.SearchesProcessed.WithLabelValues("text", "error").Inc()
		return err
	}

	for _, h := range hits {
		s.merge(merged, Result{
			Message:     h.Message,
			ChannelName: h.ChannelName,
			UserName:    h.UserName,
			Score:       textScore(h.Message.Text, query),
			Link:        slackapi.MessageLink(h.Message.ChannelID, h.Message.TS, h.Message.ThreadTS),
			MatchType:   "text",
		})
	}
	metrics.SearchesProcessed.WithLabelValues("text", "success").Inc()
	return nil
}

func (s *SearchService) slackSearch(ctx context.Context, query string, limit int, merged map[string]Result) error {
	hits, err := s.slack.SearchMessages(ctx, query, limit)
	if err != nil {
		metrics.SearchesProcessed.WithLabelValues("slack_api", "error").Inc()
		return err
	}

	for _, h := range hits {
		link := h.Permalink
		if link == "" {
			link = slackapi.MessageLink(h.ChannelID, h.TS, h.ThreadTS)
		}
		s.merge(merged, Result{
			Message: storage.Message{
				ChannelID: h.ChannelID,
				TS:        h.TS,
				UserID:    h.UserID,
				Text:      h.Text,
				ThreadTS:  h.ThreadTS,
				CreatedAt: slackapi.ParseTimestamp(h.TS),
			},
			ChannelName: h.ChannelName,
			UserName:    h.UserName,
			Score:       0.5,
			Link:        link,
			MatchType:   "slack_api",
		})
	}
	metrics.SearchesProcessed.WithLabelValues("slack_api", "success").Inc()
	return nil
}

// merge keeps the higher-scoring result when two backends match the same
// message.
func (s *SearchService) merge(merged map[string]Result, r Result) {
	key := r.Message.ChannelID + ":" + r.Message.TS
	if existing, ok := merged[key]; ok && existing.Score >= r.Score {
		return
	}
	merged[key] = r
}

// textScore ranks substring matches higher the earlier the query appears in
// the message.
func textScore(text, query string) float64 {
	if text == "" {
		return 0
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 {
		return 0.1
	}
	return 1.0 - float64(idx)/float64(len(text))
}

// ContextResult is a message resolved from a permalink together with its
// surrounding thread and related discussion.
type ContextResult struct {
	Message storage.Message    `json:"message"`
	Thread  []*storage.Message `json:"thread,omitempty"`
	Related []Result           `json:"related,omitempty"`
}

// FindContext resolves a Slack permalink against the cache and gathers
// context around the message: its thread, if any, plus messages similar to
// its text.
func (s *SearchService) FindContext(ctx context.Context, link string, limit int) (*ContextResult, error) {
	channelID, ts, err := slackapi.ParseMessageLink(link)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, channelID, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to look up message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message %s in %s is not cached yet", ts, channelID)
	}

	result := &ContextResult{Message: *msg}

	threadTS := msg.ThreadTS
	if threadTS == "" && msg.IsThreadParent() {
		threadTS = msg.TS
	}
	if threadTS != "" {
		thread, err := s.store.GetThreadMessages(ctx, channelID, threadTS)
		if err != nil {
			return nil, fmt.Errorf("failed to load thread: %w", err)
		}
		result.Thread = thread
	}

	if msg.Text != "" {
		related, err := s.Search(ctx, msg.Text, limit, false)
		if err == nil {
			// The message itself always matches; drop it.
			filtered := related[:0]
			for _, r := range related {
				if r.Message.ChannelID == msg.ChannelID && r.Message.TS == msg.TS {
					continue
				}
				filtered = append(filtered, r)
			}
			result.Related = filtered
		}
	}

	return result, nil
}
