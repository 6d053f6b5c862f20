package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// SQLite is a KV backed by a single SQLite table keyed by namespace and key.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS entries (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		PRIMARY KEY (namespace, key)
	);`)
	return err
}

func (s *SQLite) Put(ctx context.Context, ns, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value`,
		ns, key, value)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", ns, key, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, ns, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entries WHERE namespace = ? AND key = ?`, ns, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", kerrors.ErrNotFound, ns, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", ns, key, err)
	}
	return value, nil
}

func (s *SQLite) Delete(ctx context.Context, ns, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE namespace = ? AND key = ?`, ns, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", ns, key, err)
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context, ns string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM entries WHERE namespace = ? ORDER BY key`, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", ns, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLite) Drop(ctx context.Context, ns string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE namespace = ?`, ns)
	if err != nil {
		return fmt.Errorf("failed to drop %s: %w", ns, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
