package storage

import (
	"context"
	"fmt"
	"time"
)

// GetMentions returns recent messages whose text mentions the user.
func (s *PostgresStore) GetMentions(ctx context.Context, userID string, since time.Time) ([]MessageHit, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(c.name, ''), COALESCE(u.display_name, u.name, '')
		FROM messages m
		LEFT JOIN channels c ON m.channel_id = c.id
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.text LIKE $1 AND m.created_at > $2
		ORDER BY m.created_at DESC
		LIMIT 50
	`, messageColumns)

	// Slack encodes mentions as <@USERID> in message text.
	pattern := "%<@" + userID + ">%"

	rows, err := s.db.QueryContext(ctx, query, pattern, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get mentions: %w", err)
	}
	defer rows.Close()

	return collectHits(rows, false)
}

// GetDMMessages returns recent messages from direct-message channels.
func (s *PostgresStore) GetDMMessages(ctx context.Context, since time.Time) ([]MessageHit, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(c.name, ''), COALESCE(u.display_name, u.name, '')
		FROM messages m
		JOIN channels c ON m.channel_id = c.id
		LEFT JOIN users u ON m.user_id = u.id
		WHERE c.channel_type = 'im' AND m.created_at > $1
		ORDER BY m.created_at DESC
		LIMIT 50
	`, messageColumns)

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get DM messages: %w", err)
	}
	defer rows.Close()

	return collectHits(rows, false)
}

// GetThreadActivity returns other people's recent messages in threads the
// user has participated in.
func (s *PostgresStore) GetThreadActivity(ctx context.Context, userID string, since time.Time) ([]MessageHit, error) {
	query := fmt.Sprintf(`
		WITH user_threads AS (
			SELECT DISTINCT channel_id, COALESCE(thread_ts, ts) AS thread_ts
			FROM messages
			WHERE user_id = $1
		)
		SELECT %s, COALESCE(c.name, ''), COALESCE(u.display_name, u.name, '')
		FROM messages m
		JOIN user_threads ut ON m.channel_id = ut.channel_id
			AND (m.ts = ut.thread_ts OR m.thread_ts = ut.thread_ts)
		JOIN channels c ON m.channel_id = c.id
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.user_id != $1 AND m.created_at > $2
		ORDER BY m.created_at DESC
		LIMIT 100
	`, messageColumns)

	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread activity: %w", err)
	}
	defer rows.Close()

	return collectHits(rows, false)
}
