package storage

import (
	"context"
	"sort"
	"time"
)

// Entry is a single journal record. Entries are immutable once appended.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"journal"`
	CreatedAt time.Time `json:"timestamp"`
}

// Query selects entries of one user, newest first. Limit <= 0 means all.
type Query struct {
	UserID string
	Limit  int
}

// Store abstracts the document store holding journal entries.
// Append assigns ID and CreatedAt when they are empty.
// List returns entries ordered by CreatedAt descending.
// Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// newestFirst sorts entries by CreatedAt descending. The sort is stable, so
// callers decide the order of entries sharing a timestamp.
func newestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func applyLimit(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
