// Package sqlite stores key-value pairs in a single SQLite table.
// It uses the pure-Go modernc.org/sqlite driver so builds stay cgo-free.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/memento/pkg/core"
)

// Config holds the configuration for the SQLite store.
type Config struct {
	// Path of the database file. ":memory:" keeps everything in memory.
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Store implements core.Store on a `kv` table.
type Store struct {
	db     *sql.DB
	config Config

	mu        sync.RWMutex
	writes    int
	lastWrite *time.Time
}

// Open opens (or creates) the database at config.Path.
func Open(config Config) (*Store, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dsn := config.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if config.Path == ":memory:" {
		dsn = config.Path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	return &Store{db: db, config: config}, nil
}

// Initialize creates the kv table if it doesn't exist.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.ReadOnly {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TEXT NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: query %s: %v", core.ErrStorageUnavailable, key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	now := time.Now().UTC()
	s.config.Logger.Debug("writing value", "key", key, "bytes", len(value))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", core.ErrStorageUnavailable, key, err)
	}

	s.mu.Lock()
	s.writes++
	s.lastWrite = &now
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", core.ErrStorageUnavailable, key, err)
	}
	return nil
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Path      string     `json:"path"`
	ReadOnly  bool       `json:"read_only"`
	Writes    int        `json:"writes"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Path: s.config.Path, ReadOnly: s.config.ReadOnly, Writes: s.writes, LastWrite: s.lastWrite}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "store" }

var _ core.Store = (*Store)(nil)
var _ core.Closer = (*Store)(nil)
