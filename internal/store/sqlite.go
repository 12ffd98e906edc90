package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS components (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL,
	original_code TEXT,
	updated_at    INTEGER NOT NULL
);`

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLite stores components in one table of a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	return s.get(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) get(ctx context.Context, q queryer, id string) (Record, error) {
	var (
		rec      Record
		original sql.NullString
		updated  int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, code, original_code, updated_at FROM components WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Code, &original, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound(id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("sqlite: get %s: %w", id, err)
	}
	rec.OriginalCode = original.String
	rec.HasOriginal = original.Valid
	rec.UpdatedAt = time.UnixMilli(updated)
	return rec, nil
}

func (s *SQLite) Put(ctx context.Context, id, code string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO components (id, code, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET code = excluded.code, updated_at = excluded.updated_at`,
		id, code, s.now().UnixMilli())
	if err != nil {
		return Record{}, fmt.Errorf("sqlite: put %s: %w", id, err)
	}
	return s.get(ctx, s.db, id)
}

func (s *SQLite) Create(ctx context.Context, id, code string) (Record, error) {
	id, err := createID(id)
	if err != nil {
		return Record{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO components (id, code, original_code, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, code, code, s.now().UnixMilli())
	if err != nil {
		return Record{}, fmt.Errorf("sqlite: create %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Record{}, ErrExists(id)
	}
	return s.get(ctx, s.db, id)
}

func (s *SQLite) Reset(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := s.get(ctx, tx, id)
	if err != nil {
		return Record{}, err
	}
	if !rec.HasOriginal {
		return Record{}, ErrNoOriginal(id)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE components SET code = original_code, updated_at = ? WHERE id = ?`,
		s.now().UnixMilli(), id); err != nil {
		return Record{}, fmt.Errorf("sqlite: reset %s: %w", id, err)
	}
	rec, err = s.get(ctx, tx, id)
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("sqlite: commit: %w", err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM components ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: list: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
