package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// NewSQLiteStore opens (and creates) the database at path. ":memory:" keeps
// everything in memory.
func NewSQLiteStore(ctx context.Context, path string) (Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to ensure sqlite dir")
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite: %s", path)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite")
	}

	s := &sqlStore{
		db:          db,
		placeholder: func(int) string { return "?" },
		now:         time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
