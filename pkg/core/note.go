package core

import (
	"strings"
	"time"
)

// ReminderLayout is the wire format of Note.ReminderDate (ISO-8601 with milliseconds, UTC).
const ReminderLayout = "2006-01-02T15:04:05.000Z07:00"

// Note is the central entity of the domain.
// It is the only record persisted by the application.
type Note struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Timestamp    int64   `json:"timestamp"` // epoch milliseconds of the last write
	Pinned       bool    `json:"pinned"`
	ReminderDate *string `json:"reminderDate,omitempty"`
}

// Valid reports whether both title and content are non-blank.
// Only valid drafts are committed by the editor.
func (n Note) Valid() bool {
	return strings.TrimSpace(n.Title) != "" && strings.TrimSpace(n.Content) != ""
}

// Reminder parses ReminderDate. The second result is false when no reminder
// is recorded or the stored value is not a valid timestamp.
func (n Note) Reminder() (time.Time, bool) {
	if n.ReminderDate == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *n.ReminderDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatReminder renders t the way ReminderDate stores it.
func FormatReminder(t time.Time) string {
	return t.UTC().Format(ReminderLayout)
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
