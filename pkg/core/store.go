package core

import "context"

// Well-known storage keys.
const (
	// NotesKey holds the whole note collection as one JSON array.
	NotesKey = "notes"
	// PendingNoteKey is the pending slot: a note id handed from a context
	// without UI to the next foreground startup.
	PendingNoteKey = "pendingNoteId"
	// TriggersKey holds the local notifier's scheduled triggers.
	TriggersKey = "triggers"
)

// Store defines the contract of the key-value storage the application persists into.
// Values are opaque bytes; a key that was never written is reported with found=false.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Initialize ensures the underlying storage is ready (e.g. create directories, schema migration).
	Initialize(ctx context.Context) error
}

// Watchable is implemented by stores that can report changes made outside this process.
type Watchable interface {
	// Watch emits an Event for every key matching pattern that changes.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Closer is implemented by stores holding resources (database handles).
type Closer interface {
	Close() error
}
