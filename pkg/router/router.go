// Package router decides which note to open in response to notification
// events, whether the app is running, in the background or starting cold.
package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/memento/pkg/core"
)

// Navigator opens the editor for a note.
type Navigator func(noteID string)

// InitialSource reports the notification that launched the app, if any.
type InitialSource interface {
	InitialNotification(ctx context.Context) (Event, bool, error)
}

// InitialFunc adapts a function to InitialSource.
type InitialFunc func(ctx context.Context) (Event, bool, error)

// InitialNotification implements InitialSource.
func (f InitialFunc) InitialNotification(ctx context.Context) (Event, bool, error) {
	return f(ctx)
}

// Route returns the note to open for a foreground event.
func Route(e Event) (string, bool) {
	if !e.Actionable() {
		return "", false
	}
	return e.Payload.NoteID, true
}

// Router holds the pending slot: a note id written while the app was in the
// background and consumed once at the next startup.
type Router struct {
	store  core.Store
	key    string
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Router that keeps the pending slot in store.
func New(store core.Store, opts ...Option) *Router {
	r := &Router{
		store:  store,
		key:    core.PendingNoteKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch routes a foreground event and navigates when it names a note.
func (r *Router) Dispatch(e Event, nav Navigator) bool {
	id, ok := Route(e)
	if !ok {
		r.logger.Debug("ignoring notification event", "event", e.String())
		return false
	}
	nav(id)
	return true
}

// HandleBackground records the note of a background press in the pending
// slot. It has no other effect.
func (r *Router) HandleBackground(ctx context.Context, e Event) error {
	id, ok := Route(e)
	if !ok {
		return nil
	}
	if err := r.store.Set(ctx, r.key, []byte(id)); err != nil {
		return fmt.Errorf("%w: write pending note: %v", core.ErrStorageUnavailable, err)
	}
	r.logger.Debug("pending note recorded", "id", id)
	return nil
}

// Startup resolves the note to open on launch. The notification that
// launched the app wins; the pending slot is then left as is. Otherwise the
// pending slot is read and cleared before its id is returned.
func (r *Router) Startup(ctx context.Context, initial InitialSource) (string, bool) {
	if initial != nil {
		e, ok, err := initial.InitialNotification(ctx)
		if err != nil {
			r.logger.Warn("failed to read initial notification", "error", err)
		} else if ok {
			if id, routed := Route(e); routed {
				return id, true
			}
		}
	}

	data, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.logger.Warn("failed to read pending note", "error", err)
		return "", false
	}
	if !found || len(data) == 0 {
		return "", false
	}
	if err := r.store.Remove(ctx, r.key); err != nil {
		r.logger.Warn("failed to clear pending note", "error", err)
	}
	return string(data), true
}

// StartupNavigate runs Startup and navigates to the resolved note.
func (r *Router) StartupNavigate(ctx context.Context, initial InitialSource, nav Navigator) bool {
	id, ok := r.Startup(ctx, initial)
	if ok {
		nav(id)
	}
	return ok
}
