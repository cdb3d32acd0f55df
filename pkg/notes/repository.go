// Package notes is the single source of truth for the note collection.
//
// The whole collection lives under one key of a core.Store. Every mutation
// reads the latest snapshot, edits an in-memory copy and writes the whole
// collection back (last write wins, no merge).
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/memento/pkg/core"
)

// Repository loads and saves the note collection.
type Repository struct {
	store  core.Store
	key    string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu        sync.Mutex // serializes read-modify-write cycles
	subMu     sync.RWMutex
	listeners map[uint64]func()
	nextSub   uint64

	loadFailures int
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator replaces the UUID v4 generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

// WithKey stores the collection under a key other than core.NotesKey.
func WithKey(key string) Option {
	return func(r *Repository) { r.key = key }
}

// NewRepository creates a Repository over store.
func NewRepository(store core.Store, opts ...Option) *Repository {
	r := &Repository{
		store:     store,
		key:       core.NotesKey,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		newID:     NewID,
		listeners: make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewID mints a fresh note identifier (UUID v4).
func NewID() string {
	return uuid.NewString()
}

// LoadAll returns every stored note. A missing collection yields an empty
// slice; so does unreadable or malformed storage, which is logged and never
// surfaced so the list stays renderable.
func (r *Repository) LoadAll(ctx context.Context) []core.Note {
	notes, err := r.load(ctx)
	if err != nil {
		r.subMu.Lock()
		r.loadFailures++
		r.subMu.Unlock()
		r.logger.Warn("failed to load notes, treating collection as empty", "error", err)
		return []core.Note{}
	}
	return notes
}

func (r *Repository) load(ctx context.Context) ([]core.Note, error) {
	data, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, core.ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	if !found || len(data) == 0 {
		return []core.Note{}, nil
	}

	var notes []core.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", core.ErrStorageUnavailable, r.key, err)
	}
	if notes == nil {
		notes = []core.Note{}
	}
	return notes, nil
}

// SaveAll replaces the stored collection. Encoding is deterministic: an
// unchanged collection is written back byte for byte.
func (r *Repository) SaveAll(ctx context.Context, notes []core.Note) error {
	r.mu.Lock()
	err := r.save(ctx, notes)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.notify()
	return nil
}

func (r *Repository) save(ctx context.Context, notes []core.Note) error {
	if notes == nil {
		notes = []core.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		if errors.Is(err, core.ErrStorageUnavailable) || errors.Is(err, core.ErrReadOnly) {
			return err
		}
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// mutate runs fn over the latest snapshot and writes the result back.
// Unlike LoadAll, an unreadable collection aborts the mutation so a corrupt
// blob is never overwritten by a partial one.
func (r *Repository) mutate(ctx context.Context, fn func([]core.Note) ([]core.Note, error)) error {
	r.mu.Lock()
	notes, err := r.load(ctx)
	if err == nil {
		notes, err = fn(notes)
	}
	if err == nil {
		err = r.save(ctx, notes)
	}
	r.mu.Unlock()

	if err != nil {
		return err
	}
	r.notify()
	return nil
}

// Upsert stores note, stamping Timestamp with the current time. A note with
// an empty ID receives a freshly minted one; otherwise the entry with the same
// ID is replaced, or appended when absent.
func (r *Repository) Upsert(ctx context.Context, note core.Note) (core.Note, error) {
	if note.ID == "" {
		note.ID = r.newID()
	}
	note.Timestamp = core.Millis(r.now())

	err := r.mutate(ctx, func(notes []core.Note) ([]core.Note, error) {
		if i := indexOf(notes, note.ID); i >= 0 {
			notes[i] = note
			return notes, nil
		}
		return append(notes, note), nil
	})
	if err != nil {
		return core.Note{}, err
	}
	r.logger.Debug("note saved", "id", note.ID)
	return note, nil
}

// Remove deletes the note with id. Unknown ids are a no-op.
func (r *Repository) Remove(ctx context.Context, id string) error {
	err := r.mutate(ctx, func(notes []core.Note) ([]core.Note, error) {
		return slices.DeleteFunc(notes, func(n core.Note) bool { return n.ID == id }), nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug("note removed", "id", id)
	return nil
}

// FindByID looks a note up in the latest snapshot.
func (r *Repository) FindByID(ctx context.Context, id string) (core.Note, bool) {
	notes := r.LoadAll(ctx)
	if i := indexOf(notes, id); i >= 0 {
		return notes[i], true
	}
	return core.Note{}, false
}

// TogglePin flips the pinned flag and bumps the timestamp.
func (r *Repository) TogglePin(ctx context.Context, id string) (core.Note, error) {
	return r.update(ctx, id, func(n *core.Note) { n.Pinned = !n.Pinned })
}

// SetReminder records at as the note's reminder time. Validation against the
// clock belongs to the reminder scheduler.
func (r *Repository) SetReminder(ctx context.Context, id string, at time.Time) (core.Note, error) {
	s := core.FormatReminder(at)
	return r.update(ctx, id, func(n *core.Note) { n.ReminderDate = &s })
}

// ClearReminder drops the note's reminder time.
func (r *Repository) ClearReminder(ctx context.Context, id string) (core.Note, error) {
	return r.update(ctx, id, func(n *core.Note) { n.ReminderDate = nil })
}

// Update applies fn to the stored note with id and bumps its timestamp.
// Fields fn leaves alone keep their stored values, so concurrent writers of
// different fields do not overwrite each other.
func (r *Repository) Update(ctx context.Context, id string, fn func(*core.Note)) (core.Note, error) {
	n, err := r.update(ctx, id, fn)
	if err != nil {
		return core.Note{}, err
	}
	r.logger.Debug("note updated", "id", id)
	return n, nil
}

func (r *Repository) update(ctx context.Context, id string, fn func(*core.Note)) (core.Note, error) {
	var out core.Note
	err := r.mutate(ctx, func(notes []core.Note) ([]core.Note, error) {
		i := indexOf(notes, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		fn(&notes[i])
		notes[i].Timestamp = core.Millis(r.now())
		out = notes[i]
		return notes, nil
	})
	return out, err
}

func indexOf(notes []core.Note, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(notes, func(n core.Note) bool { return n.ID == id })
}
