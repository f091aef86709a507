package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	slackapi "slackassist/internal/integrations/slack"
	"slackassist/internal/storage"
)

type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

const previewLength = 100

// StatusItem is one thing needing the user's attention: a mention, a DM or
// activity in a thread they participate in.
type StatusItem struct {
	Priority    Priority  `json:"priority"`
	Kind        string    `json:"kind"` // mention, dm, thread_reply
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
	Preview     string    `json:"preview"`
	Link        string    `json:"link"`
	Timestamp   time.Time `json:"timestamp"`
}

// Report is a prioritized snapshot of recent activity directed at the user.
type Report struct {
	Items       []StatusItem        `json:"items"`
	Reminders   []*storage.Reminder `json:"reminders,omitempty"`
	Since       time.Time           `json:"since"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// StatusService builds attention reports from the message cache. Mentions are
// critical, DMs high, replies in the user's threads medium.
type StatusService struct {
	store  storage.Store
	userID string
}

func NewStatusService(store storage.Store, userID string) *StatusService {
	return &StatusService{store: store, userID: userID}
}

// Report collects everything directed at the user within the lookback window,
// sorted by priority and recency.
func (s *StatusService) Report(ctx context.Context, hoursBack int) (*Report, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}
	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	report := &Report{
		Since:       since,
		GeneratedAt: time.Now(),
	}

	mentions, err := s.store.GetMentions(ctx, s.userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get mentions: %w", err)
	}
	for _, h := range mentions {
		report.Items = append(report.Items, s.item(h, PriorityCritical, "mention"))
	}

	dms, err := s.store.GetDMMessages(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get DM messages: %w", err)
	}
	for _, h := range dms {
		// The user's own DM messages are not actionable.
		if h.Message.UserID == s.userID {
			continue
		}
		report.Items = append(report.Items, s.item(h, PriorityHigh, "dm"))
	}

	threads, err := s.store.GetThreadActivity(ctx, s.userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread activity: %w", err)
	}
	for _, h := range threads {
		report.Items = append(report.Items, s.item(h, PriorityMedium, "thread_reply"))
	}

	// Mentions also show up in the DM and thread queries; keep each message
	// once at its highest priority.
	report.Items = dedupeItems(report.Items)

	sort.SliceStable(report.Items, func(i, j int) bool {
		if report.Items[i].Priority != report.Items[j].Priority {
			return report.Items[i].Priority < report.Items[j].Priority
		}
		return report.Items[i].Timestamp.After(report.Items[j].Timestamp)
	})

	reminders, err := s.store.GetPendingReminders(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", err)
	}
	report.Reminders = reminders

	slog.Debug("Status report generated",
		slog.Int("items", len(report.Items)),
		slog.Int("reminders", len(report.Reminders)),
		slog.Int("hours_back", hoursBack))
	return report, nil
}

func (s *StatusService) item(h storage.MessageHit, priority Priority, kind string) StatusItem {
	return StatusItem{
		Priority:    priority,
		Kind:        kind,
		ChannelID:   h.Message.ChannelID,
		ChannelName: h.ChannelName,
		UserName:    h.UserName,
		Preview:     truncatePreview(h.Message.Text),
		Link:        slackapi.MessageLink(h.Message.ChannelID, h.Message.TS, h.Message.ThreadTS),
		Timestamp:   h.Message.CreatedAt,
	}
}

func dedupeItems(items []StatusItem) []StatusItem {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key := it.ChannelID + ":" + it.Link
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// truncatePreview shortens message text for display, cutting on runes so
// multibyte text is never split.
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
