package notes

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/memento/pkg/core"
)

// Subscribe registers fn to run after every committed change to the
// collection, whether made through this Repository or (see Watch) by another
// process. It returns a function that removes the subscription.
func (r *Repository) Subscribe(fn func()) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	r.nextSub++
	id := r.nextSub
	r.listeners[id] = fn
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *Repository) notify() {
	r.subMu.RLock()
	ids := make([]uint64, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, r.listeners[id])
	}
	r.subMu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// Watch forwards external changes of the collection key to subscribers.
// It requires a core.Watchable store and returns once the watch is running.
func (r *Repository) Watch(ctx context.Context) error {
	w, ok := r.store.(core.Watchable)
	if !ok {
		return fmt.Errorf("store does not support watching")
	}
	events, err := w.Watch(ctx, r.key)
	if err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				r.logger.Debug("collection changed externally", "event", e.String())
				r.notify()
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("notes watch panic", "error", err)
	}))
	return nil
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Key          string `json:"key"`
	Subscribers  int    `json:"subscribers"`
	LoadFailures int    `json:"load_failures"`
	StoreType    string `json:"store_type"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	subs := len(r.listeners)
	storeType := "unknown"
	if comp, ok := r.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}
	return RepositoryState{
		Key:          r.key,
		Subscribers:  subs,
		LoadFailures: r.loadFailures,
		StoreType:    storeType,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
