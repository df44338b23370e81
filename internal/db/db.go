// Package db is the durable local store: a SQLite-backed key/value table
// holding one JSON document per persisted concern.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFile = "progress.db"

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	dataDir string
}

// Reader reads raw stored values
type Reader interface {
	ReadRaw(key string) (string, bool)
}

// Writer stores raw values
type Writer interface {
	WriteRaw(key, value string) error
}

// Open opens (creating if needed) the database in dataDir and runs any
// pending migrations
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbFile)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets a running `onboard ui` read while a CLI command writes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{conn: conn, dataDir: dataDir}
	if _, err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// DataDir returns the directory holding the database
func (db *DB) DataDir() string {
	return db.dataDir
}

// Path returns the database file path
func (db *DB) Path() string {
	return filepath.Join(db.dataDir, dbFile)
}

// withWriteLock executes fn while holding the cross-process write lock.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.dataDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// ReadRaw returns the stored value for key. Missing keys and read
// failures both report false.
func (db *DB) ReadRaw(key string) (string, bool) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		slog.Debug("db: read", "key", key, "err", err)
		return "", false
	}
	return value, true
}

// WriteRaw stores value under key, replacing any previous value
func (db *DB) WriteRaw(key, value string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	})
}

// DeleteKey removes key. Deleting a missing key is not an error.
func (db *DB) DeleteKey(key string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key)
		return err
	})
}

// Keys lists stored keys in lexical order
func (db *DB) Keys() ([]string, error) {
	rows, err := db.conn.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
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

// Read decodes the JSON document stored under key. A missing key, invalid
// JSON, or a document of the wrong shape all report false; the caller then
// falls back to defaults.
func Read[T any](r Reader, key string) (T, bool) {
	var zero T
	raw, ok := r.ReadRaw(key)
	if !ok || raw == "" {
		return zero, false
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Debug("db: decode", "key", key, "err", err)
		return zero, false
	}
	return v, true
}

// Write encodes v as JSON and stores it under key. The local store is a
// best-effort cache: encoding or write failures are logged and dropped.
func Write(w Writer, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("db: encode", "key", key, "err", err)
		return
	}
	if err := w.WriteRaw(key, string(data)); err != nil {
		slog.Debug("db: write", "key", key, "err", err)
	}
}
