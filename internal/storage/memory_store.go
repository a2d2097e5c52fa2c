package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps collections in a map. It backs tests and the "memory"
// storage driver.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[Collection][]byte
	writes map[Collection]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[Collection][]byte),
		writes: make(map[Collection]int),
	}
}

func (m *MemoryStore) Load(_ context.Context, c Collection) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[c]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (m *MemoryStore) Save(_ context.Context, c Collection, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c] = append([]byte(nil), raw...)
	m.writes[c]++
	return nil
}

// Put seeds raw content without counting it as a write.
func (m *MemoryStore) Put(c Collection, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c] = []byte(raw)
}

// Writes returns how many times c was saved.
func (m *MemoryStore) Writes(c Collection) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[c]
}
