package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const messageColumns = `m.id, m.channel_id, m.ts, COALESCE(m.user_id, ''), COALESCE(m.text, ''),
	COALESCE(m.thread_ts, ''), m.reply_count, m.is_edited, m.message_type,
	m.created_at, m.updated_at, m.metadata`

func scanMessage(row interface {
	Scan(dest ...interface{}) error
}) (*Message, error) {
	m := &Message{}
	var metadata []byte
	err := row.Scan(
		&m.ID, &m.ChannelID, &m.TS, &m.UserID, &m.Text,
		&m.ThreadTS, &m.ReplyCount, &m.IsEdited, &m.MessageType,
		&m.CreatedAt, &m.UpdatedAt, &metadata,
	)
	if err != nil {
		return nil, err
	}
	m.Metadata = metadata
	return m, nil
}

// UpsertMessage inserts a message or, if (channel_id, ts) already exists,
// refreshes its mutable fields. Returns the surrogate database ID either way,
// which makes re-ingestion of overlapping history idempotent.
func (s *PostgresStore) UpsertMessage(ctx context.Context, m *Message) (int64, error) {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	messageType := m.MessageType
	if messageType == "" {
		messageType = "message"
	}

	query := `
		INSERT INTO messages (
			channel_id, ts, user_id, text, thread_ts, reply_count,
			is_edited, message_type, created_at, updated_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), $10)
		ON CONFLICT (channel_id, ts) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			text = EXCLUDED.text,
			thread_ts = EXCLUDED.thread_ts,
			reply_count = EXCLUDED.reply_count,
			is_edited = EXCLUDED.is_edited,
			updated_at = NOW(),
			metadata = EXCLUDED.metadata
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		m.ChannelID, m.TS, nullString(m.UserID), nullString(m.Text), nullString(m.ThreadTS),
		m.ReplyCount, m.IsEdited, messageType, createdAt, metaOrEmpty(m.Metadata),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert message: %w", err)
	}

	return id, nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, channelID, ts string) (*Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages m WHERE m.channel_id = $1 AND m.ts = $2`, messageColumns)

	m, err := scanMessage(s.db.QueryRowContext(ctx, query, channelID, ts))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMessageByID(ctx context.Context, messageID int64) (*Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages m WHERE m.id = $1`, messageColumns)

	m, err := scanMessage(s.db.QueryRowContext(ctx, query, messageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}
	return m, nil
}

// GetMessagesSince returns messages after sinceTS in ascending ts order.
// With an empty cursor it returns the most recent messages instead.
func (s *PostgresStore) GetMessagesSince(ctx context.Context, channelID, sinceTS string, limit int) ([]*Message, error) {
	var rows *sql.Rows
	var err error

	if sinceTS != "" {
		query := fmt.Sprintf(`
			SELECT %s FROM messages m
			WHERE m.channel_id = $1 AND m.ts > $2
			ORDER BY m.ts ASC
			LIMIT $3
		`, messageColumns)
		rows, err = s.db.QueryContext(ctx, query, channelID, sinceTS, limit)
	} else {
		query := fmt.Sprintf(`
			SELECT %s FROM messages m
			WHERE m.channel_id = $1
			ORDER BY m.ts DESC
			LIMIT $2
		`, messageColumns)
		rows, err = s.db.QueryContext(ctx, query, channelID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// GetThreadMessages returns the parent and all replies of a thread in ts
// order. Matching is by timestamp, so it works even when the parent row has
// not been ingested yet.
func (s *PostgresStore) GetThreadMessages(ctx context.Context, channelID, threadTS string) ([]*Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages m
		WHERE m.channel_id = $1 AND (m.ts = $2 OR m.thread_ts = $2)
		ORDER BY m.ts ASC
	`, messageColumns)

	rows, err := s.db.QueryContext(ctx, query, channelID, threadTS)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// SearchText is a substring search over message text, newest first, with
// channel and user display names joined in.
func (s *PostgresStore) SearchText(ctx context.Context, query string, limit int) ([]MessageHit, error) {
	stmt := fmt.Sprintf(`
		SELECT %s, COALESCE(c.name, ''), COALESCE(u.display_name, u.name, '')
		FROM messages m
		LEFT JOIN channels c ON m.channel_id = c.id
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.text ILIKE $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`, messageColumns)

	rows, err := s.db.QueryContext(ctx, stmt, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	return collectHits(rows, false)
}

func collectMessages(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// collectHits scans rows of messageColumns + channel name + user name,
// optionally followed by a similarity column.
func collectHits(rows *sql.Rows, withSimilarity bool) ([]MessageHit, error) {
	var hits []MessageHit
	for rows.Next() {
		var hit MessageHit
		var metadata []byte

		dest := []interface{}{
			&hit.Message.ID, &hit.Message.ChannelID, &hit.Message.TS,
			&hit.Message.UserID, &hit.Message.Text, &hit.Message.ThreadTS,
			&hit.Message.ReplyCount, &hit.Message.IsEdited, &hit.Message.MessageType,
			&hit.Message.CreatedAt, &hit.Message.UpdatedAt, &metadata,
			&hit.ChannelName, &hit.UserName,
		}
		if withSimilarity {
			dest = append(dest, &hit.Similarity)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan message hit: %w", err)
		}
		hit.Message.Metadata = metadata
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
