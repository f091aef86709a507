package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slackassist/internal/config"
	slackapi "slackassist/internal/integrations/slack"
	"slackassist/internal/services"
	"slackassist/internal/storage"
)

// app bundles the pieces every command needs: validated config, the store
// and an authenticated Slack client.
type app struct {
	cfg    *config.Config
	store  *storage.PostgresStore
	client *slackapi.Client
}

// setupApp loads config, connects to Postgres and authenticates with Slack.
// Callers must Close the returned app.
func setupApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	store, err := connectStore(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	client := slackapi.NewClient(cfg.SlackUserToken)
	if err := client.Authenticate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: store, client: client}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close store", slog.Any("error", err))
	}
}

// embedder returns the embedding service when an OpenAI key is configured,
// nil otherwise. Commands that can run without embeddings treat nil as
// "vector search disabled".
func (a *app) embedder() *services.EmbeddingService {
	if a.cfg.OpenAIAPIKey == "" {
		return nil
	}
	return services.NewEmbeddingService(a.cfg.OpenAIAPIKey, a.cfg.EmbeddingModel)
}

// searchService wires the search backends. The embedder may be nil; Slack
// search is always available since commands require an authenticated client.
func (a *app) searchService() *services.SearchService {
	var embedder services.Embedder
	if e := a.embedder(); e != nil {
		embedder = e
	}
	return services.NewSearchService(a.store, embedder, a.client)
}

// connectStore opens the database with a short retry loop, since at boot the
// database container may still be coming up.
func connectStore(databaseURL string) (*storage.PostgresStore, error) {
	var store *storage.PostgresStore
	var err error

	for attempt := 1; attempt <= 5; attempt++ {
		store, err = storage.NewPostgresStore(databaseURL)
		if err == nil {
			return store, nil
		}
		slog.Warn("Database connection failed, retrying...",
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
