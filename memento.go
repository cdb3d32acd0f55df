package memento

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/memento/internal/platform"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/export"
)

// --- Types ---

// App is the wired set of components over one store.
type App = platform.App

// Note is the stored note record.
type Note = core.Note

// Config is the file and environment configuration.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring memento.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a custom key-value store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithClock replaces time.Now across the App.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithReadOnly opens the store read-only.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist fails instead of creating a missing data directory.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the data directory into the temp sandbox.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives runtime errors of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithDispatchInterval sets how often due reminders are checked.
func WithDispatchInterval(d time.Duration) Option {
	return platform.WithDispatchInterval(d)
}

// WithExportDir sets the document directory exports are written to.
func WithExportDir(dir string) Option {
	return platform.WithExportDir(dir)
}

// WithExportFormat selects the exported file type.
func WithExportFormat(f export.Format) Option {
	return platform.WithExportFormat(f)
}

// WithSharer sets the share action run after an export.
func WithSharer(s export.Sharer) Option {
	return platform.WithSharer(s)
}

// --- Factory ---

// New opens the data directory (or adapter URI) and wires the App.
func New(ctx context.Context, uri string, opts ...Option) (*App, error) {
	return platform.New(ctx, uri, opts...)
}

// OpenStore opens only the key-value store.
func OpenStore(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	store, _, err := platform.OpenStore(ctx, uri, opts...)
	return store, err
}

// LoadConfig reads memento.yaml and MEMENTO_* environment overrides.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	return platform.LoadConfig(path, envFiles...)
}

// --- Safety & Utils ---

// ResolveDataPath determines the actual data directory based on safety rules.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// DefaultDataDir returns the data directory used when none is configured.
func DefaultDataDir() string {
	return platform.DefaultDataDir()
}
