package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/memento/internal/atomicfile"
	"github.com/aretw0/memento/pkg/core"
)

// ValueExt is the extension of the file backing each key.
const ValueExt = ".json"

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Config holds the configuration for the filesystem store.
type Config struct {
	Path         string
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // Receives watcher runtime errors. Optional.
}

// Store implements core.Store with one file per key under Path.
// Every Set replaces the whole value atomically (temp file + rename).
type Store struct {
	Path   string
	config Config

	mu            sync.RWMutex
	written       map[string]uint64 // xxhash of the last value this process wrote per key
	watcherActive bool
	lastWrite     *time.Time
	writes        int
	skipped       int
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		Path:    config.Path,
		config:  config,
		written: make(map[string]uint64),
	}
}

// Initialize creates the data directory (or verifies it when MustExist is set).
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("stat data path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", s.Path)
		}
		return nil
	}

	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func (s *Store) filename(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.Path, key+ValueExt), nil
}

// Get reads the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	filename, err := s.filename(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %v", core.ErrStorageUnavailable, key, err)
	}
	return data, true, nil
}

// Set replaces the value stored under key.
// Writing the bytes already on disk is skipped so an unchanged collection
// does not touch the file (and does not wake watchers).
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	filename, err := s.filename(key)
	if err != nil {
		return err
	}

	sum := xxhash.Sum64(value)
	if current, err := os.ReadFile(filename); err == nil && bytes.Equal(current, value) {
		s.mu.Lock()
		s.skipped++
		s.written[key] = sum
		s.mu.Unlock()
		s.config.Logger.Debug("value unchanged, skipping write", "key", key)
		return nil
	}

	s.config.Logger.Debug("writing value", "key", key, "path", filename, "bytes", len(value))

	// Record the hash before the rename lands so the watcher can recognise its own echo.
	s.mu.Lock()
	prev, hadPrev := s.written[key]
	s.written[key] = sum
	s.mu.Unlock()

	if err := atomicfile.Write(filename, value, 0o644); err != nil {
		s.mu.Lock()
		if hadPrev {
			s.written[key] = prev
		} else {
			delete(s.written, key)
		}
		s.mu.Unlock()
		return fmt.Errorf("%w: write %s: %v", core.ErrStorageUnavailable, key, err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastWrite = &now
	s.writes++
	s.mu.Unlock()
	return nil
}

// Remove deletes key. Missing keys are ignored.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	filename, err := s.filename(key)
	if err != nil {
		return err
	}

	s.config.Logger.Debug("removing value", "key", key, "path", filename)
	if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", core.ErrStorageUnavailable, key, err)
	}

	s.mu.Lock()
	delete(s.written, key)
	s.mu.Unlock()
	return nil
}

// Keys lists the keys currently stored.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if k, ok := keyFromName(e.Name()); ok && !e.IsDir() {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func keyFromName(name string) (string, bool) {
	base := filepath.Base(name)
	if atomicfile.IsTemp(base) || !strings.HasSuffix(base, ValueExt) {
		return "", false
	}
	key := strings.TrimSuffix(base, ValueExt)
	return key, keyRe.MatchString(key)
}

// isEcho reports whether data is exactly what this process last wrote under key.
func (s *Store) isEcho(key string, data []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.written[key]
	return ok && sum == xxhash.Sum64(data)
}

var _ core.Store = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
