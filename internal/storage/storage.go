package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/npc-dialogue/internal/config"
	"github.com/jwebster45206/npc-dialogue/pkg/chat"
)

// HistoryStore persists the chat history between the player and each
// agent-driven character.
type HistoryStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// LoadHistory returns the stored history, or an empty one when the
	// character has never been spoken to.
	LoadHistory(ctx context.Context, character string) (*chat.History, error)
	SaveHistory(ctx context.Context, h *chat.History) error
	DeleteHistory(ctx context.Context, character string) error
}

// historyKey normalizes character names so "Nancy" and "nancy" share a history.
func historyKey(character string) string {
	return strings.ToLower(strings.TrimSpace(character))
}

// Open returns the history store selected by cfg.HistoryBackend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (HistoryStore, error) {
	switch cfg.HistoryBackend {
	case "redis":
		r, err := NewRedisStore(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case "sqlite":
		return OpenSQLiteStore(ctx, cfg.SQLitePath, logger)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported history backend %q", cfg.HistoryBackend)
	}
}
