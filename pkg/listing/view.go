package listing

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/debounce"
)

// QueryDelay is how long the query must stay unchanged before the list is
// recomputed.
const QueryDelay = 300 * time.Millisecond

// Source supplies the latest note collection. *notes.Repository satisfies it.
type Source interface {
	LoadAll(ctx context.Context) []core.Note
}

// View owns the visible list. Query edits are debounced; collection updates
// apply immediately with whatever query is current.
type View struct {
	source   Source
	logger   *slog.Logger
	debounce *debounce.Debouncer

	mu       sync.Mutex
	notes    []core.Note
	query    string // query the current items were computed with
	items    []core.Note
	onChange []func([]core.Note)
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithScheduler replaces the wall-clock scheduler used for the query debounce.
func WithScheduler(s debounce.Scheduler) ViewOption {
	return func(v *View) { v.debounce = debounce.New(QueryDelay, s) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ViewOption {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewView creates an empty View. source may be nil when notes are only fed
// through SetNotes.
func NewView(source Source, opts ...ViewOption) *View {
	v := &View{
		source:   source,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce: debounce.New(QueryDelay, nil),
		items:    []core.Note{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// OnChange registers fn to receive every recomputed list.
func (v *View) OnChange(fn func([]core.Note)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = append(v.onChange, fn)
}

// SetQuery schedules a recompute with q once the query has been stable for
// QueryDelay. Only the last query of a burst is applied.
func (v *View) SetQuery(q string) {
	v.debounce.Trigger(func() {
		v.mu.Lock()
		v.query = q
		v.mu.Unlock()
		v.recompute()
	})
}

// FlushQuery applies a pending query immediately.
func (v *View) FlushQuery() bool {
	return v.debounce.Flush()
}

// SetNotes replaces the collection and recomputes right away.
func (v *View) SetNotes(notes []core.Note) {
	v.mu.Lock()
	v.notes = notes
	v.mu.Unlock()
	v.recompute()
}

// Refresh reloads the collection from the source. It is the handler for
// focus and collection-changed events.
func (v *View) Refresh(ctx context.Context) {
	if v.source == nil {
		return
	}
	v.SetNotes(v.source.LoadAll(ctx))
}

// Query returns the query the current items reflect.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Items returns the current list.
func (v *View) Items() []core.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.Note(nil), v.items...)
}

// Close drops any pending query.
func (v *View) Close() {
	v.debounce.Stop()
}

func (v *View) recompute() {
	v.mu.Lock()
	items := FilterAndSort(v.notes, v.query)
	v.items = items
	listeners := append(([]func([]core.Note))(nil), v.onChange...)
	query := v.query
	v.mu.Unlock()

	v.logger.Debug("list recomputed", "query", query, "items", len(items))
	for _, fn := range listeners {
		fn(append([]core.Note(nil), items...))
	}
}
