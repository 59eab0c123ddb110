package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	LogLevel    slog.Level

	DataDir      string `env:"DATA_DIR" envDefault:"./data"`
	WatchScripts bool   `env:"WATCH_SCRIPTS" envDefault:"false"`

	HistoryBackend string `env:"HISTORY_BACKEND" envDefault:"memory"`
	RedisURL       string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath     string `env:"SQLITE_PATH"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"none"`
	ModelName       string `env:"MODEL_NAME" envDefault:"gpt-4o"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	ContentRating   string `env:"CONTENT_RATING" envDefault:"PG"`

	InventorySlots int           `env:"INVENTORY_SLOTS" envDefault:"10"`
	FrameInterval  time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.HistoryBackend = strings.ToLower(cfg.HistoryBackend)
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, "chat_history.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations the env parser cannot.
func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case "redis", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported HISTORY_BACKEND %q (want redis, sqlite or memory)", c.HistoryBackend)
	}

	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case "none":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (want openai, anthropic or none)", c.LLMProvider)
	}

	if c.InventorySlots < 0 {
		return fmt.Errorf("INVENTORY_SLOTS must not be negative")
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be positive")
	}
	return nil
}

// ScriptsDir is where authored NPC scripts live.
func (c *Config) ScriptsDir() string {
	return filepath.Join(c.DataDir, "npcs")
}

// ItemsPath is the item table.
func (c *Config) ItemsPath() string {
	return filepath.Join(c.DataDir, "items.yaml")
}

// WorldPath is the NPC roster and player spec.
func (c *Config) WorldPath() string {
	return filepath.Join(c.DataDir, "world.yaml")
}

// CharactersPath holds agent character prompts.
func (c *Config) CharactersPath() string {
	return filepath.Join(c.DataDir, "characters.yaml")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
