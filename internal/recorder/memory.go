package recorder

import (
	"context"
	"strings"
	"sync"

	"StockSentinel/internal/model"
)

// MemoryStore is an in-process Store used when SQLite is not configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []model.AlertRecord
	lists    map[string][]Entry
	requests map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists:    make(map[string][]Entry),
		requests: make(map[string]int),
	}
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, snap *model.Snapshot) error {
	recs := persistable(snap.Records)
	m.mu.Lock()
	m.records = recs
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadSnapshot(_ context.Context) ([]model.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.AlertRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MemoryStore) List(_ context.Context, name string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.lists[name]))
	copy(out, m.lists[name])
	return out, nil
}

func (m *MemoryStore) Append(_ context.Context, name string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.lists[name] {
		if cur.Value == e.Value {
			m.lists[name][i].Label = e.Label
			return nil
		}
	}
	m.lists[name] = append(m.lists[name], e)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[name]
	for i, cur := range list {
		if cur.Value == value {
			m.lists[name] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) IncrementRequest(_ context.Context, symbol string) (int, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[symbol]++
	return m.requests[symbol], nil
}

func (m *MemoryStore) RequestCounts(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.requests))
	for k, v := range m.requests {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
