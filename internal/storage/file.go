package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// FileStore appends entries to a JSON-lines file.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to ensure journal dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init journal file")
	}
	_ = f.Close()
	return &FileStore{path: path, now: time.Now}, nil
}

func (r *FileStore) Append(_ context.Context, entry Entry) (Entry, error) {
	fillDefaults(&entry, r.now)
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to open journal file for append")
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(entry); err != nil {
		return Entry{}, errors.Wrap(err, "failed to encode journal entry")
	}
	return entry, nil
}

func (r *FileStore) List(_ context.Context, q Query) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal file")
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var entries []Entry
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if e.UserID == q.UserID {
			entries = append(entries, e)
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan journal file")
	}

	// reverse so equal timestamps keep the latest append first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	newestFirst(entries)
	return applyLimit(entries, q.Limit), nil
}

func (r *FileStore) Close() error { return nil }
