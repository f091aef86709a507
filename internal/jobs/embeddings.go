package jobs

import (
	"context"
	"log/slog"
	"time"

	"slackassist/internal/metrics"
	"slackassist/internal/storage"
)

const (
	embeddingBatchSize = 10
	embeddingInterval  = 60 * time.Second
)

// Embedder generates embeddings and names the model that produced them.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// EmbeddingProcessor backfills embeddings for cached messages that do not
// have one yet, a small batch at a time.
type EmbeddingProcessor struct {
	store    storage.Store
	embedder Embedder
	done     chan struct{}
}

func NewEmbeddingProcessor(store storage.Store, embedder Embedder) *EmbeddingProcessor {
	return &EmbeddingProcessor{
		store:    store,
		embedder: embedder,
		done:     make(chan struct{}),
	}
}

// Start runs the backfill loop until the context is cancelled or Stop is
// called.
func (ep *EmbeddingProcessor) Start(ctx context.Context) {
	slog.Info("Starting embedding processor",
		slog.Int("batch_size", embeddingBatchSize),
		slog.Duration("interval", embeddingInterval))

	ticker := time.NewTicker(embeddingInterval)
	defer ticker.Stop()

	ep.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping embedding processor due to context cancellation")
			return
		case <-ep.done:
			slog.Info("Stopping embedding processor")
			return
		case <-ticker.C:
			ep.processBatch(ctx)
		}
	}
}

// Stop signals the backfill loop to exit.
func (ep *EmbeddingProcessor) Stop() {
	close(ep.done)
}

func (ep *EmbeddingProcessor) processBatch(ctx context.Context) {
	messages, err := ep.store.GetMessagesWithoutEmbeddings(ctx, embeddingBatchSize)
	if err != nil {
		slog.Error("Failed to fetch messages without embeddings", slog.Any("error", err))
		return
	}

	if stats, err := ep.store.EmbeddingStats(ctx); err == nil {
		metrics.MessagesWithoutEmbeddings.Set(float64(stats.TotalMessages - stats.EmbeddedMessages))
	}

	if len(messages) == 0 {
		return
	}

	slog.Debug("Processing embedding batch", slog.Int("count", len(messages)))

	processed := 0
	for _, msg := range messages {
		if err := ep.processMessage(ctx, msg); err != nil {
			slog.Error("Failed to process message embedding",
				slog.Int64("message_id", msg.ID),
				slog.Any("error", err))
			metrics.EmbeddingGenerations.WithLabelValues("error").Inc()
			continue
		}
		processed++
		metrics.EmbeddingGenerations.WithLabelValues("success").Inc()
	}

	slog.Info("Embedding batch completed",
		slog.Int("processed", processed),
		slog.Int("failed", len(messages)-processed))
}

func (ep *EmbeddingProcessor) processMessage(ctx context.Context, msg *storage.Message) error {
	start := time.Now()

	embedding, err := ep.embedder.GenerateEmbedding(ctx, msg.Text)
	if err != nil {
		return err
	}
	metrics.EmbeddingGenerationDuration.Observe(time.Since(start).Seconds())

	return ep.store.UpsertEmbedding(ctx, msg.ID, embedding, ep.embedder.Model())
}
