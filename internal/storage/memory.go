package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Append(_ context.Context, entry Entry) (Entry, error) {
	fillDefaults(&entry, m.now)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *MemoryStore) List(_ context.Context, q Query) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	// walk backwards so equal timestamps keep the latest append first
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == q.UserID {
			out = append(out, m.entries[i])
		}
	}
	newestFirst(out)
	return applyLimit(out, q.Limit), nil
}

func (m *MemoryStore) Close() error { return nil }

func fillDefaults(e *Entry, now func() time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now().UTC()
	}
}
