package core

import "errors"

// Common errors.
var (
	// ErrStorageUnavailable is reported when the key-value store cannot be read or written,
	// or returns data that cannot be decoded.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidReminderTime is returned when a reminder is not strictly in the future.
	ErrInvalidReminderTime = errors.New("invalid reminder time")

	// ErrNotificationRegistrationFailed is returned when the notification layer rejects a trigger.
	ErrNotificationRegistrationFailed = errors.New("notification registration failed")

	// ErrExportFailed wraps any failure while writing or sharing an exported note.
	ErrExportFailed = errors.New("export failed")

	ErrNotFound = errors.New("note not found")
	ErrReadOnly = errors.New("store is in read-only mode")
)
