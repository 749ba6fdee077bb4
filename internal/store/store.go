// Package store persists small client state (credential, active session)
// in a local SQLite key-value table.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/guidechat/internal"
	_ "modernc.org/sqlite"
)

// Durable keys
const (
	KeyAccessToken = "access_token"
	KeySessionID   = "session_id"
)

// KV is the string key-value surface the client state is kept in.
// Writes are last-writer-wins; keys are never updated together.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// SQLite is a KV backed by a single SQLite table
type SQLite struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the state database at path.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, &internal.StoreError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &internal.StoreError{Op: "open", Err: fmt.Errorf("failed to open database: %w", err)}
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &internal.StoreError{Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, &internal.StoreError{Op: "open", Err: fmt.Errorf("failed to create kv table: %w", err)}
	}

	internal.LogDebug("Opened state database at %s", path)
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database location
func (s *SQLite) Path() string {
	return s.path
}

// Get returns the value for key and whether it exists
func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &internal.StoreError{Key: key, Op: "get", Err: err}
	}
	return value, true, nil
}

// Set overwrites the value for key
func (s *SQLite) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &internal.StoreError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// Delete removes keys; missing keys are not an error
func (s *SQLite) Delete(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
			return &internal.StoreError{Key: key, Op: "delete", Err: err}
		}
	}
	return nil
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}
