package platform

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/memento/pkg/adapters/local"
	"github.com/aretw0/memento/pkg/autosave"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/export"
	"github.com/aretw0/memento/pkg/listing"
	"github.com/aretw0/memento/pkg/notes"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

// App wires every component around one store. Components receive their
// dependencies explicitly; there is no package-level state.
type App struct {
	DataDir   string
	Store     core.Store
	Notes     *notes.Repository
	Notifier  *local.Notifier
	Reminders *reminder.Scheduler
	Router    *router.Router
	Exporter  *export.Exporter
	Logger    *slog.Logger

	now              func() time.Time
	dispatchInterval time.Duration
}

// New opens the store at uri and builds the App.
//
//	app, err := platform.New("~/.memento", platform.WithLogger(logger))
func New(ctx context.Context, uri string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, path, err := openStore(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	repo := notes.NewRepository(store,
		notes.WithLogger(o.logger),
		notes.WithClock(o.now),
	)
	notifier := local.NewNotifier(store,
		local.WithLogger(o.logger),
		local.WithClock(o.now),
	)

	exportDir := o.exportDir
	if exportDir == "" {
		base := path
		if base == "" {
			base = "."
		}
		exportDir = filepath.Join(base, "exports")
	}

	return &App{
		DataDir:  path,
		Store:    store,
		Notes:    repo,
		Notifier: notifier,
		Reminders: reminder.NewScheduler(notifier, repo,
			reminder.WithClock(o.now),
			reminder.WithLogger(o.logger),
		),
		Router: router.New(store, router.WithLogger(o.logger)),
		Exporter: &export.Exporter{
			Dir:    exportDir,
			Format: o.exportFormat,
			Sharer: o.sharer,
			Logger: o.logger,
		},
		Logger:           o.logger,
		now:              o.now,
		dispatchInterval: o.dispatchInterval,
	}, nil
}

// OpenSession starts an autosave session for id, or for a new note when id
// is empty.
func (a *App) OpenSession(ctx context.Context, id string, opts ...autosave.Option) (*autosave.Session, error) {
	opts = append([]autosave.Option{autosave.WithLogger(a.Logger), autosave.WithClock(a.now)}, opts...)
	return autosave.Open(ctx, a.Notes, id, opts...)
}

// NewView returns a list view that refreshes on every repository change.
// The returned function detaches it.
func (a *App) NewView(ctx context.Context, opts ...listing.ViewOption) (*listing.View, func()) {
	opts = append([]listing.ViewOption{listing.WithLogger(a.Logger)}, opts...)
	view := listing.NewView(a.Notes, opts...)
	view.Refresh(ctx)
	unsubscribe := a.Notes.Subscribe(func() { view.Refresh(ctx) })
	return view, func() {
		unsubscribe()
		view.Close()
	}
}

// NewDispatcher returns a reminder dispatcher delivering to sink.
func (a *App) NewDispatcher(sink local.Sink) *local.Dispatcher {
	return local.NewDispatcher(a.Notifier, sink, a.dispatchInterval)
}

// Status collects the introspection state of the App's components.
func (a *App) Status() map[string]any {
	out := map[string]any{}
	for _, c := range []any{a.Store, a.Notes} {
		comp, ok := c.(introspection.Component)
		if !ok {
			continue
		}
		if in, ok := c.(introspection.Introspectable); ok {
			out[comp.ComponentType()] = in.State()
		}
	}
	return out
}

// Close releases the store.
func (a *App) Close() error {
	if c, ok := a.Store.(core.Closer); ok {
		return c.Close()
	}
	return nil
}
