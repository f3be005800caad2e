package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// SQLiteCache stores values as JSON text in a single key/value table.
type SQLiteCache[S any] struct {
	db *sql.DB
}

// OpenSQLiteCache opens (and creates if needed) the database at path. Use
// ":memory:" for a private in-memory database.
func OpenSQLiteCache[S any](ctx context.Context, path string) (*SQLiteCache[S], error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS view_sessions (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteCache[S]{db: db}, nil
}

func (s *SQLiteCache[S]) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache[S]) Set(ctx context.Context, key string, val S) error {
	data, err := sonic.MarshalString(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO view_sessions (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var val S
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM view_sessions WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return val, false, nil
	}
	if err != nil {
		return val, false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := sonic.UnmarshalString(data, &val); err != nil {
		return val, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return val, true, nil
}

func (s *SQLiteCache[S]) Del(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM view_sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM view_sessions WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}
