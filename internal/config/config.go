package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string
	SlackUserToken string
	OpenAIAPIKey   string
	PollInterval   time.Duration
	EmbeddingModel string
	LogLevel       string
	LogFormat      string
	Environment    string
}

func Load() *Config {
	return &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", "postgres://localhost/slackassist?sslmode=disable"),
		SlackUserToken: os.Getenv("SLACK_USER_TOKEN"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		PollInterval:   getEnvDuration("POLL_INTERVAL", 60*time.Second),
		EmbeddingModel: getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-ada-002"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "INFO"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
	}
}

func (c *Config) Validate() error {
	if c.SlackUserToken == "" {
		return fmt.Errorf("SLACK_USER_TOKEN is required")
	}
	if !strings.HasPrefix(c.SlackUserToken, "xoxp-") {
		return fmt.Errorf("SLACK_USER_TOKEN must be a user OAuth token (xoxp-...)")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// Slack rate limits conversations.history aggressively; polling faster
	// than every 10s gets the daemon throttled.
	if c.PollInterval < 10*time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 10s, got %s", c.PollInterval)
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		return fmt.Errorf("LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// ValidateForEmbeddings additionally requires an OpenAI key. Polling and
// status reporting work without one; embedding generation does not.
func (c *Config) ValidateForEmbeddings() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for embedding generation")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
