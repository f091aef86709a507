package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func (s *PostgresStore) UpsertChannel(ctx context.Context, ch *Channel) error {
	createdAt := ch.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO channels (id, name, channel_type, is_archived, created_at, updated_at, metadata)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			channel_type = EXCLUDED.channel_type,
			is_archived = EXCLUDED.is_archived,
			updated_at = NOW(),
			metadata = EXCLUDED.metadata
	`

	_, err := s.db.ExecContext(ctx, query,
		ch.ID, nullString(ch.Name), ch.ChannelType, ch.IsArchived, createdAt, metaOrEmpty(ch.Metadata))
	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetChannel(ctx context.Context, channelID string) (*Channel, error) {
	query := `
		SELECT id, COALESCE(name, ''), channel_type, is_archived, created_at, updated_at, metadata
		FROM channels
		WHERE id = $1
	`

	ch := &Channel{}
	var metadata []byte
	err := s.db.QueryRowContext(ctx, query, channelID).Scan(
		&ch.ID, &ch.Name, &ch.ChannelType, &ch.IsArchived, &ch.CreatedAt, &ch.UpdatedAt, &metadata,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	ch.Metadata = metadata
	return ch, nil
}

// ListChannels returns all non-archived channels.
func (s *PostgresStore) ListChannels(ctx context.Context) ([]*Channel, error) {
	query := `
		SELECT id, COALESCE(name, ''), channel_type, is_archived, created_at, updated_at, metadata
		FROM channels
		WHERE is_archived = FALSE
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		ch := &Channel{}
		var metadata []byte
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.ChannelType, &ch.IsArchived, &ch.CreatedAt, &ch.UpdatedAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		ch.Metadata = metadata
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

func (s *PostgresStore) GetSyncState(ctx context.Context, channelID string) (*SyncState, error) {
	query := `SELECT channel_id, COALESCE(last_ts, ''), last_sync_at FROM sync_state WHERE channel_id = $1`

	state := &SyncState{}
	var lastSyncAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, channelID).Scan(&state.ChannelID, &state.LastTS, &lastSyncAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncAt.Valid {
		state.LastSyncAt = lastSyncAt.Time
	}
	return state, nil
}

// UpsertSyncState advances the per-channel sync cursor.
func (s *PostgresStore) UpsertSyncState(ctx context.Context, state *SyncState) error {
	query := `
		INSERT INTO sync_state (channel_id, last_ts, last_sync_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (channel_id) DO UPDATE SET
			last_ts = EXCLUDED.last_ts,
			last_sync_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, state.ChannelID, nullString(state.LastTS))
	if err != nil {
		return fmt.Errorf("failed to upsert sync state: %w", err)
	}

	return nil
}
