package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"slackassist/internal/handlers"
	"slackassist/internal/jobs"
	"slackassist/internal/middleware"
	"slackassist/internal/services"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the polling daemon with the HTTP API",
		Long: `Starts the background Slack poller and the embedding backfill
processor, and serves the search, status and context endpoints over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	poller := jobs.NewPoller(a.client, a.store, a.cfg.PollInterval)
	go poller.Start(jobCtx)

	embedder := a.embedder()
	if embedder != nil {
		processor := jobs.NewEmbeddingProcessor(a.store, embedder)
		go processor.Start(jobCtx)
	} else {
		slog.Warn("OPENAI_API_KEY not set, embedding generation disabled")
	}

	searchSvc := a.searchService()
	statusSvc := services.NewStatusService(a.store, a.client.UserID())

	searchHandler := handlers.NewSearchHandler(searchSvc)
	statusHandler := handlers.NewStatusHandler(statusSvc)
	contextHandler := handlers.NewContextHandler(searchSvc)
	statsHandler := handlers.NewStatsHandler(a.store)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := a.store.Ping(r.Context()); err != nil {
			http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.APIRateLimitMiddleware())
	api.HandleFunc("/search", searchHandler.HandleSearch).Methods("POST")
	api.HandleFunc("/status", statusHandler.HandleStatus).Methods("GET")
	api.HandleFunc("/context", contextHandler.HandleContext).Methods("POST")
	api.HandleFunc("/stats", statsHandler.HandleStats).Methods("GET")

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting HTTP server", slog.String("port", a.cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-stop:
		slog.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down")
	}

	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", slog.Any("error", err))
		return err
	}

	slog.Info("Server stopped")
	return nil
}
