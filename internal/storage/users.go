package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *PostgresStore) UpsertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, name, real_name, display_name, is_bot, updated_at, metadata)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			real_name = EXCLUDED.real_name,
			display_name = EXCLUDED.display_name,
			is_bot = EXCLUDED.is_bot,
			updated_at = NOW(),
			metadata = EXCLUDED.metadata
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, nullString(u.Name), nullString(u.RealName), nullString(u.DisplayName), u.IsBot, metaOrEmpty(u.Metadata))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(real_name, ''), COALESCE(display_name, ''),
		       is_bot, updated_at, metadata
		FROM users
		WHERE id = $1
	`

	u := &User{}
	var metadata []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Name, &u.RealName, &u.DisplayName, &u.IsBot, &u.UpdatedAt, &metadata,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Metadata = metadata
	return u, nil
}
