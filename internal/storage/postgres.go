package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and applies the schema. Schema
// application is idempotent; running it against an initialized database is
// a no-op.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewPostgresStoreFromDB wraps an existing connection without touching the
// schema. Used by tests and by callers that manage the pool themselves.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// schemaStatements creates the seven cache tables. Order matters: messages
// reference channels, reactions and embeddings reference messages, and
// sync_state references channels.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector;`,

	`CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT,
		channel_type TEXT NOT NULL,
		is_archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		metadata JSONB NOT NULL DEFAULT '{}'
	);`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT,
		real_name TEXT,
		display_name TEXT,
		is_bot BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		metadata JSONB NOT NULL DEFAULT '{}'
	);`,

	// thread_ts is deliberately not a foreign key: a thread parent can
	// arrive after its replies during incremental sync.
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		channel_id TEXT NOT NULL REFERENCES channels(id),
		ts TEXT NOT NULL,
		user_id TEXT,
		text TEXT,
		thread_ts TEXT,
		reply_count INTEGER NOT NULL DEFAULT 0,
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		message_type TEXT NOT NULL DEFAULT 'message',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		metadata JSONB NOT NULL DEFAULT '{}',
		UNIQUE (channel_id, ts)
	);`,

	`CREATE TABLE IF NOT EXISTS reactions (
		id BIGSERIAL PRIMARY KEY,
		message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE (message_id, name, user_id)
	);`,

	`CREATE TABLE IF NOT EXISTS message_embeddings (
		id BIGSERIAL PRIMARY KEY,
		message_id BIGINT NOT NULL UNIQUE REFERENCES messages(id) ON DELETE CASCADE,
		embedding VECTOR(1536),
		model TEXT NOT NULL DEFAULT 'text-embedding-ada-002',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS sync_state (
		channel_id TEXT PRIMARY KEY REFERENCES channels(id),
		last_ts TEXT,
		last_sync_at TIMESTAMP WITH TIME ZONE
	);`,

	`CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		text TEXT,
		time TIMESTAMP WITH TIME ZONE,
		complete_ts TIMESTAMP WITH TIME ZONE,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		metadata JSONB NOT NULL DEFAULT '{}'
	);`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_messages_channel_ts ON messages(channel_id, ts);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(channel_id, thread_ts) WHERE thread_ts IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_reactions_message ON reactions(message_id);`,
	`CREATE INDEX IF NOT EXISTS idx_reactions_user ON reactions(user_id);`,
}

func (s *PostgresStore) initSchema() error {
	slog.Info("Initializing database schema...")

	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	for _, stmt := range indexStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// The ivfflat index on message_embeddings.embedding is NOT created here.
	// Maintaining it during bulk ingestion slows inserts badly and ivfflat
	// lists are only representative once real data exists; create it with
	// CreateVectorIndex after the initial backfill.
	slog.Info("Database schema initialized")
	return nil
}

// CreateVectorIndex builds the deferred similarity index over message
// embeddings. Intended to run once after bulk ingestion.
func (s *PostgresStore) CreateVectorIndex(ctx context.Context) error {
	stmt := `CREATE INDEX IF NOT EXISTS idx_message_embeddings_embedding
		ON message_embeddings USING ivfflat (embedding vector_cosine_ops);`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// nullString maps "" to SQL NULL so empty optional fields do not shadow the
// distinction the schema keeps.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// metaOrEmpty normalizes absent metadata to the empty JSON object the
// schema defaults to.
func metaOrEmpty(m json.RawMessage) []byte {
	if len(m) == 0 {
		return []byte("{}")
	}
	return []byte(m)
}
