// Package journal validates and serves per-user journal entries on top of a
// document store.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mindmate/internal/storage"
)

var (
	// ErrValidation marks a request missing required fields.
	ErrValidation = errors.New("validation failed")
	// ErrStorage marks a failure of the underlying document store.
	ErrStorage = errors.New("storage failure")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return "missing " + e.Field }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError carries a caller-safe message; Cause is for logs only.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string { return "failed to " + e.Op }

func (e *StorageError) Unwrap() error { return e.Cause }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// View is the client-facing shape of an entry.
type View struct {
	Journal   string `json:"journal"`
	Timestamp int64  `json:"timestamp"`
}

type Service struct {
	store  storage.Store
	logger *slog.Logger
}

func NewService(store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Append stores a new entry with a server-assigned id and timestamp.
func (s *Service) Append(ctx context.Context, userID, text string) (storage.Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return storage.Entry{}, &ValidationError{Field: "user_id"}
	}
	if strings.TrimSpace(text) == "" {
		return storage.Entry{}, &ValidationError{Field: "journal"}
	}

	entry, err := s.store.Append(ctx, storage.Entry{UserID: userID, Text: text})
	if err != nil {
		s.logger.ErrorContext(ctx, "journal append failed", "user_id", userID, "error", err)
		return storage.Entry{}, &StorageError{Op: "save journal", Cause: err}
	}
	return entry, nil
}

// Entries returns raw entries newest first.
func (s *Service) Entries(ctx context.Context, userID string, limit int) ([]storage.Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user_id"}
	}
	entries, err := s.store.List(ctx, storage.Query{UserID: userID, Limit: limit})
	if err != nil {
		s.logger.ErrorContext(ctx, "journal list failed", "user_id", userID, "error", err)
		return nil, &StorageError{Op: "fetch journals", Cause: err}
	}
	return entries, nil
}

// List returns the client view of a user's entries, newest first. The result
// is never nil.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]View, error) {
	entries, err := s.Entries(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(entries))
	for _, e := range entries {
		out = append(out, View{Journal: e.Text, Timestamp: storage.UnixMilli(e.CreatedAt)})
	}
	return out, nil
}

// Latest returns the newest entry of a user; ok is false when there is none.
func (s *Service) Latest(ctx context.Context, userID string) (entry storage.Entry, ok bool, err error) {
	entries, err := s.Entries(ctx, userID, 1)
	if err != nil || len(entries) == 0 {
		return storage.Entry{}, false, err
	}
	return entries[0], true, nil
}
