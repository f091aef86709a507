package storage

import (
	"context"
	"fmt"
)

// ReplaceReactions swaps the full reaction set for a message. Slack reports
// reactions as totals per message, not as deltas, so replacement is the only
// way to pick up removals.
func (s *PostgresStore) ReplaceReactions(ctx context.Context, messageID int64, reactions []Reaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reactions WHERE message_id = $1`, messageID); err != nil {
		return fmt.Errorf("failed to delete reactions: %w", err)
	}

	insert := `
		INSERT INTO reactions (message_id, name, user_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (message_id, name, user_id) DO NOTHING
	`
	for _, r := range reactions {
		if _, err := tx.ExecContext(ctx, insert, messageID, r.Name, r.UserID); err != nil {
			return fmt.Errorf("failed to insert reaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reactions: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetReactions(ctx context.Context, messageID int64) ([]Reaction, error) {
	query := `
		SELECT id, message_id, name, user_id, created_at
		FROM reactions
		WHERE message_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions: %w", err)
	}
	defer rows.Close()

	var reactions []Reaction
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.Name, &r.UserID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, r)
	}

	return reactions, rows.Err()
}
