package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Channel is a cached Slack conversation: public/private channel, group DM
// (mpim) or direct message (im).
type Channel struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ChannelType string          `json:"channel_type"` // public_channel, private_channel, mpim, im
	IsArchived  bool            `json:"is_archived"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// User is a cached projection of a Slack user. Slack owns this data; rows
// here are only ever refreshed, never authoritative.
type User struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	RealName    string          `json:"real_name"`
	DisplayName string          `json:"display_name"`
	IsBot       bool            `json:"is_bot"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Message is a cached Slack message. TS is the Slack timestamp string, which
// is unique per channel and is the dedup key for re-ingestion. ThreadTS links
// replies to their parent by timestamp only; there is no foreign key, since a
// parent can arrive after its replies during incremental sync.
type Message struct {
	ID          int64           `json:"id"`
	ChannelID   string          `json:"channel_id"`
	TS          string          `json:"ts"`
	UserID      string          `json:"user_id,omitempty"`
	Text        string          `json:"text,omitempty"`
	ThreadTS    string          `json:"thread_ts,omitempty"`
	ReplyCount  int             `json:"reply_count"`
	IsEdited    bool            `json:"is_edited"`
	MessageType string          `json:"message_type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// IsThreadReply reports whether the message is a reply inside a thread.
func (m *Message) IsThreadReply() bool {
	return m.ThreadTS != "" && m.ThreadTS != m.TS
}

// IsThreadParent reports whether the message anchors a thread.
func (m *Message) IsThreadParent() bool {
	return m.ReplyCount > 0
}

// Reaction is a single emoji reaction by a single user on a message.
type Reaction struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	Name      string    `json:"name"` // emoji name without colons
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SyncState is the per-channel incremental sync cursor: the newest message
// timestamp that has been fully ingested.
type SyncState struct {
	ChannelID  string    `json:"channel_id"`
	LastTS     string    `json:"last_ts"`
	LastSyncAt time.Time `json:"last_sync_at"`
}

// Reminder mirrors a Slack reminder. The ID is Slack's reminder ID.
type Reminder struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Text       string          `json:"text,omitempty"`
	Time       *time.Time      `json:"time,omitempty"`
	CompleteTS *time.Time      `json:"complete_ts,omitempty"`
	Recurring  bool            `json:"recurring"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// MessageHit is a message enriched with display names and, for vector
// search, a similarity score.
type MessageHit struct {
	Message     Message `json:"message"`
	ChannelName string  `json:"channel_name,omitempty"`
	UserName    string  `json:"user_name,omitempty"`
	Similarity  float64 `json:"similarity,omitempty"`
}

// EmbeddingStats summarizes embedding coverage over the message cache.
type EmbeddingStats struct {
	TotalMessages    int64   `json:"total_messages"`
	EmbeddedMessages int64   `json:"embedded_messages"`
	CoveragePct      float64 `json:"coverage_pct"`
}

type Store interface {
	// Channels
	UpsertChannel(ctx context.Context, ch *Channel) error
	GetChannel(ctx context.Context, channelID string) (*Channel, error)
	ListChannels(ctx context.Context) ([]*Channel, error)

	// Users
	UpsertUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, userID string) (*User, error)

	// Messages
	UpsertMessage(ctx context.Context, m *Message) (int64, error)
	GetMessage(ctx context.Context, channelID, ts string) (*Message, error)
	GetMessageByID(ctx context.Context, messageID int64) (*Message, error)
	GetMessagesSince(ctx context.Context, channelID, sinceTS string, limit int) ([]*Message, error)
	GetThreadMessages(ctx context.Context, channelID, threadTS string) ([]*Message, error)
	SearchText(ctx context.Context, query string, limit int) ([]MessageHit, error)

	// Reactions
	ReplaceReactions(ctx context.Context, messageID int64, reactions []Reaction) error
	GetReactions(ctx context.Context, messageID int64) ([]Reaction, error)

	// Embeddings
	UpsertEmbedding(ctx context.Context, messageID int64, embedding []float32, model string) error
	GetMessagesWithoutEmbeddings(ctx context.Context, limit int) ([]*Message, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]MessageHit, error)
	EmbeddingStats(ctx context.Context) (*EmbeddingStats, error)

	// Sync cursors
	GetSyncState(ctx context.Context, channelID string) (*SyncState, error)
	UpsertSyncState(ctx context.Context, state *SyncState) error

	// Reminders
	UpsertReminder(ctx context.Context, r *Reminder) error
	GetPendingReminders(ctx context.Context, userID string) ([]*Reminder, error)

	// Status queries
	GetMentions(ctx context.Context, userID string, since time.Time) ([]MessageHit, error)
	GetDMMessages(ctx context.Context, since time.Time) ([]MessageHit, error)
	GetThreadActivity(ctx context.Context, userID string, since time.Time) ([]MessageHit, error)

	CreateVectorIndex(ctx context.Context) error
	Close() error
}
