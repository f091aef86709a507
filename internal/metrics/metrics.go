package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackassist_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackassist_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Poller metrics
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackassist_poll_cycles_total",
			Help: "Total number of poll cycles",
		},
		[]string{"status"},
	)

	ChannelsSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackassist_channels_synced_total",
			Help: "Total number of channel upserts from Slack",
		},
	)

	MessagesSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackassist_messages_synced_total",
			Help: "Total number of messages synced",
		},
		[]string{"status"},
	)

	ReactionsSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackassist_reactions_synced_total",
			Help: "Total number of reaction sets synced",
		},
	)

	RemindersSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackassist_reminders_synced_total",
			Help: "Total number of reminders synced",
		},
	)

	// Slack API metrics
	SlackAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackassist_slack_api_calls_total",
			Help: "Total number of Slack API calls",
		},
		[]string{"method", "status"},
	)

	// Embedding metrics
	EmbeddingGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackassist_embedding_generations_total",
			Help: "Total number of embedding generations",
		},
		[]string{"status"},
	)

	EmbeddingGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slackassist_embedding_generation_duration_seconds",
			Help:    "Duration of embedding batch generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MessagesWithoutEmbeddings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slackassist_messages_without_embeddings",
			Help: "Number of messages without embeddings",
		},
	)

	// Search metrics
	SearchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackassist_searches_processed_total",
			Help: "Total number of searches processed",
		},
		[]string{"type", "status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slackassist_search_duration_seconds",
			Help:    "Duration of search processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
