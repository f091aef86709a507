package storage

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// UpsertEmbedding stores the embedding for a message. The UNIQUE constraint
// on message_id keeps this one-to-one: regenerating replaces, never
// accumulates.
func (s *PostgresStore) UpsertEmbedding(ctx context.Context, messageID int64, embedding []float32, model string) error {
	query := `
		INSERT INTO message_embeddings (message_id, embedding, model, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (message_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			created_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, messageID, pgvector.NewVector(embedding), model)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	return nil
}

// GetMessagesWithoutEmbeddings returns messages with non-empty text that
// have no embedding row yet, newest first.
func (s *PostgresStore) GetMessagesWithoutEmbeddings(ctx context.Context, limit int) ([]*Message, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		LEFT JOIN message_embeddings me ON m.id = me.message_id
		WHERE me.id IS NULL AND m.text IS NOT NULL AND m.text != ''
		ORDER BY m.created_at DESC
		LIMIT $1
	`, messageColumns)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages without embeddings: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// SearchSimilar finds the messages whose embeddings are closest to the query
// vector by cosine distance. Similarity is 1 - distance.
func (s *PostgresStore) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]MessageHit, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(c.name, ''), COALESCE(u.display_name, u.name, ''),
		       1 - (me.embedding <=> $1) AS similarity
		FROM message_embeddings me
		JOIN messages m ON me.message_id = m.id
		LEFT JOIN channels c ON m.channel_id = c.id
		LEFT JOIN users u ON m.user_id = u.id
		WHERE me.embedding IS NOT NULL
		ORDER BY me.embedding <=> $1
		LIMIT $2
	`, messageColumns)

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar messages: %w", err)
	}
	defer rows.Close()

	return collectHits(rows, true)
}

func (s *PostgresStore) EmbeddingStats(ctx context.Context) (*EmbeddingStats, error) {
	stats := &EmbeddingStats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message_embeddings`).Scan(&stats.EmbeddedMessages); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}

	if stats.TotalMessages > 0 {
		stats.CoveragePct = float64(stats.EmbeddedMessages) / float64(stats.TotalMessages) * 100
	}

	return stats, nil
}
