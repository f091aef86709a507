package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *PostgresStore) UpsertReminder(ctx context.Context, r *Reminder) error {
	query := `
		INSERT INTO reminders (
			id, user_id, text, time, complete_ts, recurring,
			created_at, updated_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), $7)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			time = EXCLUDED.time,
			complete_ts = EXCLUDED.complete_ts,
			recurring = EXCLUDED.recurring,
			updated_at = NOW(),
			metadata = EXCLUDED.metadata
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, nullString(r.Text), nullTime(r.Time), nullTime(r.CompleteTS),
		r.Recurring, metaOrEmpty(r.Metadata))
	if err != nil {
		return fmt.Errorf("failed to upsert reminder: %w", err)
	}

	return nil
}

// GetPendingReminders returns a user's incomplete reminders, soonest first.
func (s *PostgresStore) GetPendingReminders(ctx context.Context, userID string) ([]*Reminder, error) {
	query := `
		SELECT id, user_id, COALESCE(text, ''), time, complete_ts, recurring,
		       created_at, updated_at, metadata
		FROM reminders
		WHERE user_id = $1 AND complete_ts IS NULL
		ORDER BY time ASC NULLS LAST
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r := &Reminder{}
		var remindAt, completeTS sql.NullTime
		var metadata []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &remindAt, &completeTS, &r.Recurring,
			&r.CreatedAt, &r.UpdatedAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if remindAt.Valid {
			t := remindAt.Time
			r.Time = &t
		}
		if completeTS.Valid {
			t := completeTS.Time
			r.CompleteTS = &t
		}
		r.Metadata = metadata
		reminders = append(reminders, r)
	}

	return reminders, rows.Err()
}
