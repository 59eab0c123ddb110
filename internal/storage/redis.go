package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/npc-dialogue/pkg/chat"
	"github.com/redis/go-redis/v9"
)

const historyKeyPrefix = "chat:"

// RedisStore implements HistoryStore on Redis. Each character's history
// is one JSON value under chat:<character>.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements HistoryStore interface
var _ HistoryStore = (*RedisStore)(nil)

// NewRedisStore accepts either a redis:// URL or a bare host:port.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = parsed
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStore) LoadHistory(ctx context.Context, character string) (*chat.History, error) {
	key := historyKeyPrefix + historyKey(character)
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("No chat history yet", "character", character)
			return &chat.History{Character: historyKey(character)}, nil
		}
		r.logger.Error("Failed to load chat history", "character", character, "error", err)
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	var h chat.History
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		r.logger.Error("Failed to unmarshal chat history", "character", character, "error", err)
		return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	return &h, nil
}

func (r *RedisStore) SaveHistory(ctx context.Context, h *chat.History) error {
	if h == nil {
		return fmt.Errorf("history cannot be nil")
	}
	h.Character = historyKey(h.Character)

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}

	if err := r.client.Set(ctx, historyKeyPrefix+h.Character, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save chat history", "character", h.Character, "error", err)
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	r.logger.Debug("Chat history saved", "character", h.Character, "messages", len(h.Messages))
	return nil
}

func (r *RedisStore) DeleteHistory(ctx context.Context, character string) error {
	if err := r.client.Del(ctx, historyKeyPrefix+historyKey(character)).Err(); err != nil {
		r.logger.Error("Failed to delete chat history", "character", character, "error", err)
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	return nil
}
