package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/npc-dialogue/pkg/chat"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_history (
	character  TEXT PRIMARY KEY,
	messages   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore implements HistoryStore in a local SQLite file, for playing
// without a Redis server.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ HistoryStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create chat_history table: %w", err)
	}

	logger.Info("Chat history database opened", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadHistory(ctx context.Context, character string) (*chat.History, error) {
	key := historyKey(character)

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT messages FROM chat_history WHERE character = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("No chat history yet", "character", character)
		return &chat.History{Character: key}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	h := &chat.History{Character: key}
	if err := json.Unmarshal([]byte(raw), &h.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	return h, nil
}

func (s *SQLiteStore) SaveHistory(ctx context.Context, h *chat.History) error {
	if h == nil {
		return fmt.Errorf("history cannot be nil")
	}
	h.Character = historyKey(h.Character)

	data, err := json.Marshal(h.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO chat_history (character, messages, updated_at) VALUES (?, ?, ?)
ON CONFLICT(character) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at`,
		h.Character, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		s.logger.Error("Failed to save chat history", "character", h.Character, "error", err)
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteHistory(ctx context.Context, character string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE character = ?`, historyKey(character)); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	return nil
}
