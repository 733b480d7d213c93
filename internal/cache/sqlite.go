package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the cache in a single embedded database file at
// {dir}/cache.db. Useful when the cache directory lives on storage where
// many small files are expensive.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key     TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS handles (
	key    TEXT PRIMARY KEY,
	handle TEXT NOT NULL
);`

// NewSQLiteStore opens (creating if needed) the cache database under dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if dir == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadArtifact(key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM artifacts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) SaveArtifact(key string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO artifacts (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, payload)
	return err
}

func (s *SQLiteStore) LoadHandle(key string) (string, bool, error) {
	var handle string
	err := s.db.QueryRow(`SELECT handle FROM handles WHERE key = ?`, key).Scan(&handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return handle, true, nil
}

func (s *SQLiteStore) SaveHandle(key, handle string) error {
	_, err := s.db.Exec(`
		INSERT INTO handles (key, handle) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET handle = excluded.handle`, key, handle)
	return err
}

func (s *SQLiteStore) DeleteHandle(key string) error {
	_, err := s.db.Exec(`DELETE FROM handles WHERE key = ?`, key)
	return err
}
