// Package config loads server settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"lifesim/internal/ai"
)

// Config holds every server setting
type Config struct {
	APIKey    string `env:"OPENROUTER_API_KEY"`
	Model     string `env:"OPENROUTER_MODEL"`
	URL       string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	Reasoning bool   `env:"OPENROUTER_REASONING"`

	Port     string `env:"PORT" envDefault:"3001"`
	DataDir  string `env:"DATA_DIR" envDefault:"data"`
	AppTitle string `env:"APP_TITLE" envDefault:"Vibe Life Stimulator"`
	AppURL   string `env:"APP_URL" envDefault:"https://vibe-life-stimulator.vercel.app"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"1h"`

	// TraceEndpoint is an OTLP/HTTP traces URL; empty keeps spans in-process.
	TraceEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
}

// Load reads .env files if present, then the environment. Values already
// set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with. A missing API
// key is allowed: the gateway reports it per request.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("DATA_DIR must not be empty"))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL))
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

// DefaultModel is the configured model, or the built-in free model.
func (c Config) DefaultModel() string {
	return ai.SelectModel("", c.Model)
}

// Level maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
