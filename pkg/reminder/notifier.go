package reminder

import (
	"context"
	"time"
)

// Importance is the priority a channel asks the notification layer for.
type Importance int

const (
	ImportanceDefault Importance = iota
	ImportanceHigh
)

func (i Importance) String() string {
	if i == ImportanceHigh {
		return "high"
	}
	return "default"
}

// Channel is a notification category. Declaring the same channel twice is
// harmless.
type Channel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Importance  Importance `json:"importance"`
}

// Notification is what the user sees when a trigger fires.
type Notification struct {
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	ChannelID   string            `json:"channel"`
	PressAction string            `json:"pressAction"`
	Data        map[string]string `json:"data"`
}

// NoteID returns the note the notification points at.
func (n Notification) NoteID() string {
	return n.Data[DataNoteID]
}

// Trigger is a notification registered to fire at FireAt (epoch ms).
type Trigger struct {
	ID           string       `json:"id"`
	Notification Notification `json:"notification"`
	FireAt       int64        `json:"fireAt"`
}

// Due reports whether the trigger should have fired by now.
func (t Trigger) Due(now time.Time) bool {
	return t.FireAt <= now.UnixMilli()
}

// Notifier is the platform notification layer.
type Notifier interface {
	// CreateChannel declares a channel. It must be idempotent.
	CreateChannel(ctx context.Context, ch Channel) error
	// Register schedules t and returns the id the platform assigned to it.
	Register(ctx context.Context, t Trigger) (string, error)
	// Cancel removes a pending trigger. Unknown ids are not an error.
	Cancel(ctx context.Context, triggerID string) error
	// CancelForNote removes every pending trigger whose payload names noteID.
	CancelForNote(ctx context.Context, noteID string) error
	// Pending lists the triggers that have not fired yet.
	Pending(ctx context.Context) ([]Trigger, error)
}
