package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lifesim/internal/ai"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_URL", "OPENROUTER_REASONING",
		"PORT", "DATA_DIR", "APP_TITLE", "APP_URL", "LOG_LEVEL", "SESSION_IDLE_TTL",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "3001" || cfg.DataDir != "data" || cfg.SessionIdleTTL != time.Hour {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.URL != ai.DefaultURL {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.DefaultModel() != ai.FallbackModel {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel())
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level = %v", cfg.Level())
	}
	if cfg.TraceEndpoint != "" {
		t.Errorf("TraceEndpoint = %q", cfg.TraceEndpoint)
	}
}

func TestParseOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_MODEL", "openai/gpt-4o-mini")
	t.Setenv("OPENROUTER_REASONING", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SESSION_IDLE_TTL", "15m")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://localhost:4318/v1/traces")

	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultModel() != "openai/gpt-4o-mini" || !cfg.Reasoning {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Level() != slog.LevelDebug || cfg.SessionIdleTTL != 15*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TraceEndpoint != "http://localhost:4318/v1/traces" {
		t.Errorf("TraceEndpoint = %q", cfg.TraceEndpoint)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]struct{ key, value, want string }{
		"level": {"LOG_LEVEL", "loud", "LOG_LEVEL"},
		"ttl":   {"SESSION_IDLE_TTL", "-1m", "SESSION_IDLE_TTL"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OPENROUTER_API_KEY=from-file\nPORT=9000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "8080")
	t.Cleanup(func() { os.Unsetenv("OPENROUTER_API_KEY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, environment must win over the file", cfg.Port)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load = %v", err)
	}
}
