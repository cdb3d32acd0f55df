// Package autosave persists an editor draft after a quiet period of one
// second, so only the last edit of a burst reaches storage.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/debounce"
)

// Delay is the quiet period after the last edit before the draft is saved.
const Delay = 1000 * time.Millisecond

// State is the session's position in its save cycle.
type State int

const (
	Idle State = iota
	Editing
	Persisting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Persisting:
		return "persisting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Repository is the subset of *notes.Repository a session needs.
type Repository interface {
	FindByID(ctx context.Context, id string) (core.Note, bool)
	Upsert(ctx context.Context, note core.Note) (core.Note, error)
	Update(ctx context.Context, id string, fn func(*core.Note)) (core.Note, error)
}

// field marks a draft field the editor has changed since the last save.
type field uint8

const (
	fieldTitle field = 1 << iota
	fieldContent
	fieldPinned
)

// Session holds one editor's draft.
type Session struct {
	repo     Repository
	logger   *slog.Logger
	sched    debounce.Scheduler
	debounce *debounce.Debouncer
	now      func() time.Time
	ctx      context.Context

	saveMu sync.Mutex // held across a whole persist; one write in flight

	mu        sync.Mutex
	draft     core.Note
	dirty     field
	state     State
	rev       uint64 // bumped on every edit
	lastSaved time.Time
	lastErr   error
	closed    bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScheduler replaces the wall-clock scheduler, mostly for tests.
func WithScheduler(sched debounce.Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

// WithClock replaces time.Now for LastSaved.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Open starts a session. An empty id starts a blank draft that receives its
// identity on the first successful save; otherwise the stored note is loaded
// and ErrNotFound is returned when it does not exist.
func Open(ctx context.Context, repo Repository, id string, opts ...Option) (*Session, error) {
	s := &Session{
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		ctx:    ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debounce = debounce.New(Delay, s.sched)

	if id != "" {
		note, ok := repo.FindByID(ctx, id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		s.draft = note
	}
	return s, nil
}

// SetTitle replaces the draft title and restarts the save timer.
func (s *Session) SetTitle(title string) {
	s.edit(fieldTitle, func(n *core.Note) { n.Title = title })
}

// SetContent replaces the draft content and restarts the save timer.
func (s *Session) SetContent(content string) {
	s.edit(fieldContent, func(n *core.Note) { n.Content = content })
}

// SetPinned replaces the draft pinned flag and restarts the save timer.
// Reminders are not part of the draft; they go through reminder.Scheduler.
func (s *Session) SetPinned(pinned bool) {
	s.edit(fieldPinned, func(n *core.Note) { n.Pinned = pinned })
}

func (s *Session) edit(f field, fn func(*core.Note)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn(&s.draft)
	s.dirty |= f
	s.rev++
	if s.state != Persisting {
		s.state = Editing
	}
	s.mu.Unlock()

	s.debounce.Trigger(func() {
		if err := s.persist(s.ctx); err != nil {
			s.logger.Error("autosave failed, draft kept in memory", "id", s.ID(), "error", err)
		}
	})
}

// Flush saves the pending draft now. It also retries a draft whose last save
// failed. The returned error is the result of that save.
func (s *Session) Flush(ctx context.Context) error {
	if s.debounce.Pending() {
		s.debounce.Stop()
		return s.persist(ctx)
	}
	s.mu.Lock()
	retry := s.state == Editing
	s.mu.Unlock()
	if retry {
		return s.persist(ctx)
	}
	return nil
}

// Close flushes the draft and ends the session. Later edits are ignored.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.debounce.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// persist writes the draft. A new note is inserted whole; an existing one
// only receives the fields edited in this session, so a pin or reminder
// changed elsewhere meanwhile survives.
func (s *Session) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	draft := s.draft
	dirty := s.dirty
	rev := s.rev
	if !draft.Valid() {
		// Incomplete drafts are never written.
		s.state = Idle
		s.mu.Unlock()
		s.logger.Debug("draft incomplete, skipping save", "id", draft.ID)
		return nil
	}
	s.state = Persisting
	s.mu.Unlock()

	var (
		saved core.Note
		err   error
	)
	if draft.ID == "" {
		saved, err = s.repo.Upsert(ctx, draft)
	} else {
		saved, err = s.repo.Update(ctx, draft.ID, func(n *core.Note) { overlay(n, draft, dirty) })
		if errors.Is(err, core.ErrNotFound) {
			s.logger.Warn("note vanished while editing, saving draft again", "id", draft.ID)
			saved, err = s.repo.Upsert(ctx, draft)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Editing
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	s.lastSaved = s.now()
	s.draft.ID = saved.ID
	s.draft.Timestamp = saved.Timestamp
	s.draft.ReminderDate = saved.ReminderDate
	if s.dirty&fieldPinned == 0 {
		s.draft.Pinned = saved.Pinned
	}
	if s.rev == rev {
		s.dirty = 0
		s.state = Idle
	} else {
		s.state = Editing
	}
	s.logger.Debug("draft saved", "id", saved.ID)
	return nil
}

func overlay(n *core.Note, draft core.Note, dirty field) {
	if dirty&fieldTitle != 0 {
		n.Title = draft.Title
	}
	if dirty&fieldContent != 0 {
		n.Content = draft.Content
	}
	if dirty&fieldPinned != 0 {
		n.Pinned = draft.Pinned
	}
}

// ID returns the note id, empty until the first successful save of a new note.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.ID
}

// Draft returns a copy of the in-memory note.
func (s *Session) Draft() core.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// State returns the current save state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastSaved returns the time of the last successful save, zero if none.
func (s *Session) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Err returns the error of the last failed save, nil after a success.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
