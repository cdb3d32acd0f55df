package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/memento/pkg/adapters/fs"
	"github.com/aretw0/memento/pkg/adapters/memory"
	"github.com/aretw0/memento/pkg/adapters/sqlite"
	"github.com/aretw0/memento/pkg/autosave"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/debounce"
	"github.com/aretw0/memento/pkg/listing"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

func TestOpenStore_Adapters(t *testing.T) {
	ctx := context.Background()

	t.Run("fs", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data")
		store, path, err := OpenStore(ctx, dir)
		require.NoError(t, err)
		assert.IsType(t, &fs.Store{}, store)
		assert.Equal(t, dir, path)
		assert.DirExists(t, dir)
	})

	t.Run("sqlite", func(t *testing.T) {
		dir := t.TempDir()
		store, _, err := OpenStore(ctx, dir, WithAdapter("sqlite"))
		require.NoError(t, err)
		defer store.(core.Closer).Close()
		assert.IsType(t, &sqlite.Store{}, store)
		assert.FileExists(t, filepath.Join(dir, SQLiteFileName))
	})

	t.Run("memory", func(t *testing.T) {
		store, _, err := OpenStore(ctx, "", WithAdapter("memory"))
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, store)
	})

	t.Run("injected", func(t *testing.T) {
		injected := memory.NewStore()
		store, _, err := OpenStore(ctx, "ignored", WithStore(injected))
		require.NoError(t, err)
		assert.Same(t, injected, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := OpenStore(ctx, t.TempDir(), WithAdapter("s3"))
		assert.Error(t, err)
	})

	t.Run("must exist", func(t *testing.T) {
		_, _, err := OpenStore(ctx, filepath.Join(t.TempDir(), "missing"), WithMustExist(true))
		assert.Error(t, err)
	})
}

func TestOpenStore_DevSandbox(t *testing.T) {
	outside := filepath.Join("relative-data-dir-for-test")
	_, path, err := OpenStore(context.Background(), outside)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(path) })

	assert.Equal(t, filepath.Join(os.TempDir(), "memento-dev", "relative-data-dir-for-test"), path)
	_, statErr := os.Stat(outside)
	assert.True(t, os.IsNotExist(statErr), "real path is never touched under go test")
}

func TestApp_EndToEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	app, err := New(ctx, t.TempDir(), WithClock(clock))
	require.NoError(t, err)
	defer app.Close()

	sched := debounce.NewManual()
	view, detach := app.NewView(ctx, listing.WithScheduler(sched))
	defer detach()

	session, err := app.OpenSession(ctx, "", autosave.WithScheduler(sched))
	require.NoError(t, err)
	session.SetTitle("Grocery List")
	session.SetContent("milk")
	sched.Advance(time.Second)

	id := session.ID()
	require.NotEmpty(t, id)
	require.Len(t, view.Items(), 1, "view refreshes on repository change")

	require.NoError(t, app.Reminders.Schedule(ctx, id, "Grocery List", now.Add(time.Minute)))
	pending, err := app.Notifier.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// The reminder fires while the app is in the background and is pressed.
	now = now.Add(2 * time.Minute)
	var delivered []router.Event
	dispatcher := app.NewDispatcher(func(_ context.Context, e router.Event, _ reminder.Trigger) {
		delivered = append(delivered, e)
	})
	n, err := dispatcher.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	press := router.Event{Type: router.EventPress, Payload: delivered[0].Payload}
	require.NoError(t, app.Router.HandleBackground(ctx, press))

	opened, ok := app.Router.Startup(ctx, nil)
	require.True(t, ok)
	assert.Equal(t, id, opened)

	note, ok := app.Notes.FindByID(ctx, opened)
	require.True(t, ok)
	path, err := app.Exporter.Export(ctx, note)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(app.DataDir, "exports", "Grocery List.txt"), path)

	status := app.Status()
	assert.Contains(t, status, "store")
	assert.Contains(t, status, "repository")
}
