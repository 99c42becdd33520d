package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the pure-Go driver as "sqlite".
	_ "modernc.org/sqlite"
)

const memoriesSchema = `
CREATE TABLE IF NOT EXISTS memories(
	position    INTEGER NOT NULL,
	key         TEXT PRIMARY KEY,
	description TEXT NOT NULL
)`

// SQLite stores entries in a single table ordered by position.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
// The parent directory must exist. Use ":memory:" in tests.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("memory sqlite: parent directory %q: %w", dir, err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("memory sqlite: open %q: %w", path, err)
	}
	// One writer; an in-memory database also exists only on its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(memoriesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory sqlite: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, description FROM memories ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Description); err != nil {
			return nil, fmt.Errorf("load memories: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, entries []Entry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM memories"); err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO memories(position, key, description) VALUES(?, ?, ?)")
	if err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for i, e := range entries {
		if _, err = stmt.ExecContext(ctx, i, e.Key, e.Description); err != nil {
			return fmt.Errorf("save memories: key %q: %w", e.Key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
