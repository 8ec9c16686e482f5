package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

type memoryKeyValueStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKeyValueStore in-memory key-value store (lost on restart)
func NewMemoryKeyValueStore() repository.KeyValueStore {
	return &memoryKeyValueStore{
		data: make(map[string][]byte),
	}
}

func (m *memoryKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists {
		return nil, repository.ErrNotFound
	}
	// Return a copy so callers can't mutate stored bytes.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *memoryKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *memoryKeyValueStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *memoryKeyValueStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryKeyValueStore) Close() error { return nil }
