package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]Entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.Expired = time.Now().After(e.ExpiresAt)
	return &e, nil
}

func (m *MemoryStore) Put(_ context.Context, e *Entry) error {
	if err := prepare(e, m.ttl, time.Now().UTC()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *e
	stored.Expired = false
	if old, ok := m.entries[e.Key]; ok {
		stored.ID = old.ID
		stored.PreviousContent = old.Content
		stored.PreviousFetchedAt = old.FetchedAt
	} else {
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		stored.PreviousContent = ""
		stored.PreviousFetchedAt = time.Time{}
	}
	e.ID = stored.ID
	m.entries[e.Key] = stored
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.entries, key)
	return nil
}

// PurgeExpired removes entries that expired more than grace ago.
func (m *MemoryStore) PurgeExpired(_ context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, e := range m.entries {
		if e.ExpiresAt.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
