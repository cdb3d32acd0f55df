package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/memento/pkg/adapters/fs"
	"github.com/aretw0/memento/pkg/adapters/memory"
	"github.com/aretw0/memento/pkg/adapters/sqlite"
	"github.com/aretw0/memento/pkg/core"
)

// SQLiteFileName is the database file used when the sqlite adapter is given
// a directory.
const SQLiteFileName = "memento.db"

// OpenStore builds and initializes the key-value store selected by the
// options. The uri is adapter-specific: a data directory for "fs", a
// directory or database file for "sqlite", ignored for "memory".
func OpenStore(ctx context.Context, uri string, opts ...Option) (core.Store, string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return openStore(ctx, uri, o)
}

func openStore(ctx context.Context, uri string, o *options) (core.Store, string, error) {
	if o.store != nil {
		return o.store, uri, nil
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		store core.Store
		path  string
		err   error
	)
	switch o.adapter {
	case "", "fs":
		path = resolvePath(uri, o, logger)
		store = fs.NewStore(fs.Config{
			Path:         path,
			MustExist:    o.mustExist,
			ReadOnly:     o.readOnly,
			Logger:       logger,
			ErrorHandler: o.watchErrors,
		})
	case "sqlite":
		path = resolvePath(uri, o, logger)
		dbPath := path
		if !strings.HasSuffix(dbPath, ".db") && dbPath != ":memory:" {
			if !o.readOnly && !o.mustExist {
				if err := os.MkdirAll(dbPath, 0o755); err != nil {
					return nil, "", fmt.Errorf("create data directory: %w", err)
				}
			}
			dbPath = filepath.Join(dbPath, SQLiteFileName)
		}
		if o.mustExist && dbPath != ":memory:" {
			if _, err := os.Stat(dbPath); err != nil {
				return nil, "", fmt.Errorf("database %s: %w", dbPath, err)
			}
		}
		store, err = sqlite.Open(sqlite.Config{Path: dbPath, ReadOnly: o.readOnly, Logger: logger})
		if err != nil {
			return nil, "", err
		}
	case "memory":
		store = memory.NewStore()
	default:
		return nil, "", fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := store.Initialize(ctx); err != nil {
		if c, ok := store.(core.Closer); ok {
			_ = c.Close()
		}
		return nil, "", err
	}
	return store, path, nil
}

func resolvePath(uri string, o *options, logger *slog.Logger) string {
	if uri == "" {
		uri = DefaultDataDir()
	}
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	path := ResolveDataPath(uri, useTemp)

	if useTemp && path != filepath.Clean(uri) {
		logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", path)
	} else if IsDevRun() && bypassSafety && !o.readOnly {
		logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", path)
	}
	return path
}
