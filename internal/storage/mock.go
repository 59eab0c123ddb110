package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/jwebster45206/npc-dialogue/pkg/chat"
)

// MemoryStore keeps histories in process memory. It backs the "memory"
// history backend and the tests of packages that need a HistoryStore.
type MemoryStore struct {
	mu        sync.RWMutex
	histories map[string][]chat.ChatMessage
	pingError error
	saveError error
}

var _ HistoryStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{histories: make(map[string][]chat.ChatMessage)}
}

// SetPingError makes Ping fail with err.
func (m *MemoryStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes SaveHistory fail with err.
func (m *MemoryStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) LoadHistory(ctx context.Context, character string) (*chat.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := historyKey(character)
	return &chat.History{Character: key, Messages: slices.Clone(m.histories[key])}, nil
}

func (m *MemoryStore) SaveHistory(ctx context.Context, h *chat.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	h.Character = historyKey(h.Character)
	m.histories[h.Character] = slices.Clone(h.Messages)
	return nil
}

func (m *MemoryStore) DeleteHistory(ctx context.Context, character string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, historyKey(character))
	return nil
}
