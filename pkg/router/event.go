package router

import "fmt"

// EventType classifies an inbound notification event.
type EventType int

const (
	EventOther EventType = iota
	EventPress
	EventDelivered
)

func (t EventType) String() string {
	switch t {
	case EventPress:
		return "press"
	case EventDelivered:
		return "delivered"
	default:
		return "other"
	}
}

// ParseEventType maps a wire name to an EventType. Unknown names are
// EventOther.
func ParseEventType(s string) EventType {
	switch s {
	case "press":
		return EventPress
	case "delivered":
		return EventDelivered
	default:
		return EventOther
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EventType) UnmarshalText(b []byte) error {
	*t = ParseEventType(string(b))
	return nil
}

// Payload is the opaque data carried by a notification.
type Payload struct {
	NoteID string `json:"note_id,omitempty"`
}

// Event is what the notification layer reports.
type Event struct {
	Type    EventType `json:"type"`
	Payload Payload   `json:"payload"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Type, e.Payload.NoteID)
}

// Actionable reports whether the event is a press carrying a note id.
func (e Event) Actionable() bool {
	return e.Type == EventPress && e.Payload.NoteID != ""
}
