package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

func NewPostgresStore(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required for the postgres driver")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	s := &sqlStore{
		db:          db,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		now:         time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
