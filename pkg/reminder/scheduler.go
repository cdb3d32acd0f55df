// Package reminder turns a chosen time into a platform notification trigger
// and records it on the note.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/memento/pkg/core"
)

const (
	// ChannelID is the single channel every reminder is posted to.
	ChannelID = "reminder"
	// DataNoteID is the payload key carrying the note id.
	DataNoteID = "note_id"
	// PressAction opens the app on tap.
	PressAction = "default"
	// Title is the fixed notification title.
	Title = "⏰ Reminder"
)

// DefaultChannel is declared before the first registration.
var DefaultChannel = Channel{
	ID:          ChannelID,
	Name:        "Reminder Notifications",
	Description: "Channel for reminder notifications",
	Importance:  ImportanceHigh,
}

// Body returns the notification body for a note title.
func Body(title string) string {
	return "Reminder for \"" + title + "\""
}

// Repository is the subset of *notes.Repository the scheduler writes through.
type Repository interface {
	SetReminder(ctx context.Context, id string, at time.Time) (core.Note, error)
	ClearReminder(ctx context.Context, id string) (core.Note, error)
}

// Scheduler registers reminder triggers and persists reminder times.
type Scheduler struct {
	notifier Notifier
	repo     Repository
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(notifier Notifier, repo Repository, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier: notifier,
		repo:     repo,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureChannel declares the reminder channel. Safe to call repeatedly.
func (s *Scheduler) EnsureChannel(ctx context.Context) error {
	if err := s.notifier.CreateChannel(ctx, DefaultChannel); err != nil {
		return fmt.Errorf("%w: create channel: %v", core.ErrNotificationRegistrationFailed, err)
	}
	return nil
}

// Schedule sets a reminder for the note at the given time.
//
// A time that is not strictly in the future fails with ErrInvalidReminderTime
// and changes nothing. The new trigger is registered and recorded on the note
// before the note's previous triggers are cancelled, so a failed reschedule
// leaves the earlier reminder pending and stored. If the note cannot be
// updated after the trigger was registered, the new trigger is cancelled again.
func (s *Scheduler) Schedule(ctx context.Context, noteID, title string, at time.Time) error {
	now := s.now()
	if !at.After(now) {
		return fmt.Errorf("%w: %s is not after %s", core.ErrInvalidReminderTime,
			at.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	if err := s.EnsureChannel(ctx); err != nil {
		return err
	}

	triggerID, err := s.notifier.Register(ctx, Trigger{
		Notification: Notification{
			Title:       Title,
			Body:        Body(title),
			ChannelID:   ChannelID,
			PressAction: PressAction,
			Data:        map[string]string{DataNoteID: noteID},
		},
		FireAt: at.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNotificationRegistrationFailed, err)
	}

	if _, err := s.repo.SetReminder(ctx, noteID, at); err != nil {
		s.logger.Error("failed to persist reminder, cancelling trigger",
			"note", noteID, "trigger", triggerID, "error", err)
		if cerr := s.notifier.Cancel(ctx, triggerID); cerr != nil {
			s.logger.Error("failed to cancel orphaned trigger", "trigger", triggerID, "error", cerr)
		}
		if errors.Is(err, core.ErrStorageUnavailable) || errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("persist reminder: %w", err)
		}
		return fmt.Errorf("%w: persist reminder: %v", core.ErrStorageUnavailable, err)
	}

	s.cancelOthers(ctx, noteID, triggerID)
	s.logger.Info("reminder scheduled", "note", noteID, "trigger", triggerID, "at", at.Format(time.RFC3339))
	return nil
}

// cancelOthers drops every pending trigger of the note except keep.
func (s *Scheduler) cancelOthers(ctx context.Context, noteID, keep string) {
	pending, err := s.notifier.Pending(ctx)
	if err != nil {
		s.logger.Warn("failed to list previous reminders", "note", noteID, "error", err)
		return
	}
	for _, t := range pending {
		if t.ID == keep || t.Notification.NoteID() != noteID {
			continue
		}
		if err := s.notifier.Cancel(ctx, t.ID); err != nil {
			s.logger.Warn("failed to cancel previous reminder", "note", noteID, "trigger", t.ID, "error", err)
		}
	}
}

// Clear cancels the note's pending reminder and drops its reminder time.
func (s *Scheduler) Clear(ctx context.Context, noteID string) error {
	if err := s.notifier.CancelForNote(ctx, noteID); err != nil {
		return fmt.Errorf("cancel reminder: %w", err)
	}
	if _, err := s.repo.ClearReminder(ctx, noteID); err != nil {
		return fmt.Errorf("clear reminder: %w", err)
	}
	s.logger.Info("reminder cleared", "note", noteID)
	return nil
}
