// Package memento is the composition root of a single-user note keeper with
// timed reminders.
//
// Notes live as one JSON collection in a key-value store (a directory of
// files by default, SQLite or memory on request). Around that store the App
// wires:
//
//   - notes.Repository, the single source of truth for the collection.
//   - listing, the pinned-first, newest-first search over it.
//   - autosave.Session, a one-second debounced editor draft.
//   - reminder.Scheduler with a local notifier and dispatcher.
//   - router.Router, which picks the note to open from notification events.
//   - export.Exporter, which writes a note to a file and shares it.
//
// Usage:
//
//	app, err := memento.New(ctx, "./.memento", memento.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	note, err := app.Notes.Upsert(ctx, memento.Note{Title: "Groceries", Content: "milk"})
//	err = app.Reminders.Schedule(ctx, note.ID, note.Title, time.Now().Add(time.Hour))
package memento
