package settings

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string]map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{groups: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, group, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.groups[group][key]
	return value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, group, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.groups[group]
	if !ok {
		entries = make(map[string]string)
		m.groups[group] = entries
	}
	entries[key] = value
	return nil
}

func (m *MemoryStore) Unset(_ context.Context, group, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups[group], key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, group string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.groups[group]))
	for key := range m.groups[group] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
