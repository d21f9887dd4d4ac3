package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	envKeys := []string{
		"PORT", "DB_PATH",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_VISION_MODEL",
		"MIN_TAGS", "MAX_TAGS", "ENRICH_WORKERS",
		"STUCK_AFTER", "HTTP_TIMEOUT", "CORS_ORIGIN",
	}
	saved := make(map[string]string)
	for _, k := range envKeys {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range envKeys {
			if v := saved[k]; v != "" {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}
	})

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "cardstash.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "cardstash.db")
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want %q", cfg.OpenAIModel, "gpt-4o-mini")
	}
	if cfg.MinTags != 3 || cfg.MaxTags != 5 {
		t.Errorf("tag band = %d-%d, want 3-5", cfg.MinTags, cfg.MaxTags)
	}
	if cfg.EnrichWorkers != 4 {
		t.Errorf("EnrichWorkers = %d, want 4", cfg.EnrichWorkers)
	}
	if cfg.StuckAfter != 2*time.Minute {
		t.Errorf("StuckAfter = %v, want 2m", cfg.StuckAfter)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("OPENAI_BASE_URL", "https://aiberm.com/v1")
	os.Setenv("OPENAI_MODEL", "google/gemini-2.5-flash")
	os.Setenv("OPENAI_API_KEY", "sk-test-key")
	os.Setenv("STUCK_AFTER", "90s")
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_BASE_URL")
		os.Unsetenv("OPENAI_MODEL")
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("STUCK_AFTER")
	})

	cfg := Load()

	if cfg.OpenAIBaseURL != "https://aiberm.com/v1" {
		t.Errorf("OpenAIBaseURL = %q", cfg.OpenAIBaseURL)
	}
	if cfg.OpenAIModel != "google/gemini-2.5-flash" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.StuckAfter != 90*time.Second {
		t.Errorf("StuckAfter = %v, want 90s", cfg.StuckAfter)
	}
	if !cfg.AIEnabled() {
		t.Error("AIEnabled() = false with a key set")
	}
}

func TestAIEnabled(t *testing.T) {
	if (Config{}).AIEnabled() {
		t.Error("AIEnabled() = true without a key")
	}
	if !(Config{OpenAIKey: "sk-x"}).AIEnabled() {
		t.Error("AIEnabled() = false with a key")
	}
}

func TestEnvDurationInvalid(t *testing.T) {
	os.Setenv("TEST_DUR_INVALID", "not-a-duration")
	t.Cleanup(func() { os.Unsetenv("TEST_DUR_INVALID") })

	got := envDuration("TEST_DUR_INVALID", 5*time.Second)
	if got != 5*time.Second {
		t.Errorf("envDuration with invalid value = %v, want fallback 5s", got)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	os.Setenv("TEST_INT_INVALID", "abc")
	t.Cleanup(func() { os.Unsetenv("TEST_INT_INVALID") })

	got := envInt("TEST_INT_INVALID", 42)
	if got != 42 {
		t.Errorf("envInt with invalid value = %d, want fallback 42", got)
	}
}
