package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const createJournalTable = `CREATE TABLE IF NOT EXISTS journal_entry (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	journal TEXT NOT NULL,
	created_ts BIGINT NOT NULL
)`

const createJournalIndex = `CREATE INDEX IF NOT EXISTS idx_journal_entry_user_created ON journal_entry (user_id, created_ts DESC)`

// sqlStore is shared by the Postgres and SQLite drivers; they differ only in
// placeholder syntax. created_ts is stored in milliseconds.
type sqlStore struct {
	db          *sql.DB
	placeholder func(n int) string
	now         func() time.Time
}

func (s *sqlStore) migrate(ctx context.Context) error {
	for _, stmt := range []string{createJournalTable, createJournalIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate journal_entry")
		}
	}
	return nil
}

func (s *sqlStore) Append(ctx context.Context, entry Entry) (Entry, error) {
	fillDefaults(&entry, s.now)
	stmt := `INSERT INTO journal_entry (id, user_id, journal, created_ts) VALUES (` +
		s.placeholder(1) + `, ` + s.placeholder(2) + `, ` + s.placeholder(3) + `, ` + s.placeholder(4) + `)`
	if _, err := s.db.ExecContext(ctx, stmt, entry.ID, entry.UserID, entry.Text, entry.CreatedAt.UnixMilli()); err != nil {
		return Entry{}, errors.Wrap(err, "failed to insert journal_entry")
	}
	return entry, nil
}

func (s *sqlStore) List(ctx context.Context, q Query) ([]Entry, error) {
	query := `SELECT id, user_id, journal, created_ts FROM journal_entry WHERE user_id = ` + s.placeholder(1) +
		` ORDER BY created_ts DESC, id DESC`
	args := []any{q.UserID}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list journal_entry")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &ts); err != nil {
			return nil, errors.Wrap(err, "failed to scan journal_entry")
		}
		e.CreatedAt = NormalizeTimestamp(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate journal_entry")
	}
	return out, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
