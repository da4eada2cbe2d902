package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps values in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) StoreItem(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	m.mu.Lock()
	m.items[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetItem(key string, out any) bool {
	m.mu.RLock()
	raw, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return decodeInto(raw, out)
}

func (m *MemoryStore) RemoveItem(key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// SetRaw writes raw text under key without encoding it
func (m *MemoryStore) SetRaw(key, raw string) {
	m.mu.Lock()
	m.items[key] = []byte(raw)
	m.mu.Unlock()
}
