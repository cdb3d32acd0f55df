package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/export"
)

// options holds the internal configuration for a memento App.
type options struct {
	store            core.Store
	logger           *slog.Logger
	adapter          string
	now              func() time.Time
	readOnly         bool
	mustExist        bool
	forceTemp        bool
	devSafety        bool
	watchErrors      func(error)
	dispatchInterval time.Duration
	exportDir        string
	exportFormat     export.Format
	sharer           export.Sharer
}

// Option defines a functional option for configuring memento.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:      "fs",
		now:          time.Now,
		devSafety:    true,
		exportFormat: export.FormatText,
		sharer:       export.NopSharer{},
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a custom key-value store (e.g. memory, a mock).
// The adapter selection and path resolution are skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "sqlite"
// or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithClock replaces time.Now across the App.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithReadOnly opens the store read-only. Writes return core.ErrReadOnly and
// the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist fails instead of creating a missing data directory.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithForceTemp forces the data directory into the temp sandbox.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
// By default (true) the data directory is re-rooted into a temp directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives runtime errors of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.watchErrors = fn
	}
}

// WithDispatchInterval sets how often due reminders are checked.
func WithDispatchInterval(d time.Duration) Option {
	return func(o *options) {
		o.dispatchInterval = d
	}
}

// WithExportDir sets the document directory exports are written to.
// It defaults to "exports" under the data directory.
func WithExportDir(dir string) Option {
	return func(o *options) {
		o.exportDir = dir
	}
}

// WithExportFormat selects the exported file type.
func WithExportFormat(f export.Format) Option {
	return func(o *options) {
		o.exportFormat = f
	}
}

// WithSharer sets the share action run after an export.
func WithSharer(s export.Sharer) Option {
	return func(o *options) {
		if s != nil {
			o.sharer = s
		}
	}
}
