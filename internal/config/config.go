// Package config provides centralized configuration for the cardstash server.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// DBPath is the path to the SQLite database file.
	DBPath string

	// OpenAIKey is the API key for the classification model. Empty means
	// AI classification is unavailable and every card takes the
	// deterministic fallback path.
	OpenAIKey string

	// OpenAIBaseURL points the client at any OpenAI-compatible endpoint.
	// Empty means the default endpoint.
	OpenAIBaseURL string

	// OpenAIModel is the text classification model identifier.
	OpenAIModel string

	// OpenAIVisionModel is the model used when an image is inlined.
	OpenAIVisionModel string

	// MinTags and MaxTags bound the classifier's tag count.
	MinTags int
	MaxTags int

	// EnrichWorkers caps how many background enrichment tasks run at once.
	EnrichWorkers int

	// StuckAfter is how long a card may sit processing before reads
	// report it as stuck.
	StuckAfter time.Duration

	// HTTPTimeout is the overall timeout for outgoing scrape requests;
	// individual strategies apply tighter bounds.
	HTTPTimeout time.Duration

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads configuration from the environment, applying defaults. A .env
// file in the working directory is folded in first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              envOr("PORT", "8080"),
		DBPath:            envOr("DB_PATH", "cardstash.db"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel: envOr("OPENAI_VISION_MODEL", "gpt-4o"),
		MinTags:           envInt("MIN_TAGS", 3),
		MaxTags:           envInt("MAX_TAGS", 5),
		EnrichWorkers:     envInt("ENRICH_WORKERS", 4),
		StuckAfter:        envDuration("STUCK_AFTER", 2*time.Minute),
		HTTPTimeout:       envDuration("HTTP_TIMEOUT", 30*time.Second),
		CORSOrigin:        envOr("CORS_ORIGIN", "*"),
	}
}

// AIEnabled reports whether the primary AI classification path is
// configured. The unconfigured state is a capability, not an error.
func (c Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
