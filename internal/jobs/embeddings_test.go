package jobs

import (
	"context"
	"fmt"
	"testing"

	"slackassist/internal/storage"
)

type mockEmbedder struct {
	calls  int
	failOn string
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if text == m.failOn {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	embedding := make([]float32, 1536)
	embedding[0] = 0.1
	return embedding, nil
}

func (m *mockEmbedder) Model() string { return "test-model" }

type mockEmbeddingStore struct {
	storage.Store

	pending    []*storage.Message
	embeddings map[int64][]float32
	models     map[int64]string
}

func (m *mockEmbeddingStore) GetMessagesWithoutEmbeddings(ctx context.Context, limit int) ([]*storage.Message, error) {
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *mockEmbeddingStore) UpsertEmbedding(ctx context.Context, messageID int64, embedding []float32, model string) error {
	if m.embeddings == nil {
		m.embeddings = make(map[int64][]float32)
		m.models = make(map[int64]string)
	}
	m.embeddings[messageID] = embedding
	m.models[messageID] = model
	return nil
}

func (m *mockEmbeddingStore) EmbeddingStats(ctx context.Context) (*storage.EmbeddingStats, error) {
	return &storage.EmbeddingStats{
		TotalMessages:    int64(len(m.pending) + len(m.embeddings)),
		EmbeddedMessages: int64(len(m.embeddings)),
	}, nil
}

func TestProcessBatchEmbedsPendingMessages(t *testing.T) {
	store := &mockEmbeddingStore{
		pending: []*storage.Message{
			{ID: 1, Text: "first message to embed"},
			{ID: 2, Text: "second message to embed"},
		},
	}
	embedder := &mockEmbedder{}

	processor := NewEmbeddingProcessor(store, embedder)
	processor.processBatch(context.Background())

	if len(store.embeddings) != 2 {
		t.Fatalf("embedded %d messages, want 2", len(store.embeddings))
	}
	if embedder.calls != 2 {
		t.Errorf("embedder called %d times, want 2", embedder.calls)
	}
	if store.models[1] != "test-model" {
		t.Errorf("stored model = %q, want test-model", store.models[1])
	}
	if len(store.embeddings[1]) != 1536 {
		t.Errorf("embedding dimension = %d, want 1536", len(store.embeddings[1]))
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	store := &mockEmbeddingStore{
		pending: []*storage.Message{
			{ID: 1, Text: "works"},
			{ID: 2, Text: "fails"},
			{ID: 3, Text: "works too"},
		},
	}
	embedder := &mockEmbedder{failOn: "fails"}

	processor := NewEmbeddingProcessor(store, embedder)
	processor.processBatch(context.Background())

	if len(store.embeddings) != 2 {
		t.Errorf("embedded %d messages, want 2 (failure skipped)", len(store.embeddings))
	}
	if _, ok := store.embeddings[2]; ok {
		t.Error("failed message should not have an embedding")
	}
}

func TestProcessBatchRespectsBatchSize(t *testing.T) {
	var pending []*storage.Message
	for i := 1; i <= embeddingBatchSize+5; i++ {
		pending = append(pending, &storage.Message{ID: int64(i), Text: "message"})
	}

	store := &mockEmbeddingStore{pending: pending}
	embedder := &mockEmbedder{}

	processor := NewEmbeddingProcessor(store, embedder)
	processor.processBatch(context.Background())

	if embedder.calls != embeddingBatchSize {
		t.Errorf("embedder called %d times, want batch size %d", embedder.calls, embeddingBatchSize)
	}
}

func TestProcessBatchNoPendingMessages(t *testing.T) {
	store := &mockEmbeddingStore{}
	embedder := &mockEmbedder{}

	processor := NewEmbeddingProcessor(store, embedder)
	processor.processBatch(context.Background())

	if embedder.calls != 0 {
		t.Errorf("embedder called %d times with nothing pending", embedder.calls)
	}
}
