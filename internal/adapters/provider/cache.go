package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores raw provider responses keyed by request fingerprint. The
// upstream data is historical and immutable, so entries never expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
	Close() error
}

// SQLiteCache persists responses in a single sqlite table.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SQLiteCache struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenCache creates a SQLiteCache at the given path, creating the table if
// needed. ":memory:" opens a shared in-memory database.
func OpenCache(path string) (*SQLiteCache, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrCache, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrCache, err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: enable WAL: %v", ErrCache, err)
		}
	}

	c := &SQLiteCache{db: db}
	if err := c.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) createTable() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			cache_key  TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("%w: create table: %v", ErrCache, err)
	}
	return nil
}

// Get returns the cached body for key, if present.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var body []byte
	err := c.db.QueryRowContext(ctx, "SELECT body FROM responses WHERE cache_key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %v", ErrCache, err)
	}
	return body, true, nil
}

// Put stores body under key, replacing any previous entry.
func (c *SQLiteCache) Put(ctx context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO responses (cache_key, body, fetched_at) VALUES (?, ?, ?)",
		key, body, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: put: %v", ErrCache, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// nopCache disables caching; every request goes to the network.
type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nopCache) Put(context.Context, string, []byte) error         { return nil }
func (nopCache) Close() error                                      { return nil }

// NopCache returns a Cache that stores nothing.
func NopCache() Cache { return nopCache{} }
