package notes_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/memento/pkg/adapters/memory"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/notes"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Tick(d time.Duration) { c.t = c.t.Add(d) }

func newRepo(t *testing.T) (*notes.Repository, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return notes.NewRepository(store, notes.WithClock(clock.Now)), store, clock
}

func TestRepository_EmptyStore(t *testing.T) {
	repo, _, _ := newRepo(t)
	got := repo.LoadAll(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepository_UpsertFindByID(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	saved, err := repo.Upsert(ctx, core.Note{Title: "Groceries", Content: "milk"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, core.Millis(clock.Now()), saved.Timestamp)

	found, ok := repo.FindByID(ctx, saved.ID)
	require.True(t, ok)
	assert.Equal(t, saved, found)

	clock.Tick(time.Minute)
	saved.Content = "milk, eggs"
	updated, err := repo.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Greater(t, updated.Timestamp, saved.Timestamp)

	all := repo.LoadAll(ctx)
	require.Len(t, all, 1, "upsert with a known id must replace, not append")
	assert.Equal(t, "milk, eggs", all[0].Content)
}

func TestRepository_UpsertKeepsCallerID(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	_, err := repo.Upsert(ctx, core.Note{ID: "fixed", Title: "a", Content: "b"})
	require.NoError(t, err)

	_, ok := repo.FindByID(ctx, "fixed")
	assert.True(t, ok)
	_, ok = repo.FindByID(ctx, "")
	assert.False(t, ok)
}

func TestRepository_SaveAllIsByteStable(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	at := "2030-01-01T00:00:00.000Z"
	require.NoError(t, repo.SaveAll(ctx, []core.Note{
		{ID: "1", Title: "a", Content: "x", Timestamp: 10, Pinned: true},
		{ID: "2", Title: "b", Content: "y", Timestamp: 20, ReminderDate: &at},
	}))
	before, _, err := store.Get(ctx, core.NotesKey)
	require.NoError(t, err)

	require.NoError(t, repo.SaveAll(ctx, repo.LoadAll(ctx)))
	after, _, err := store.Get(ctx, core.NotesKey)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestRepository_CorruptDataLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	require.NoError(t, store.Set(ctx, core.NotesKey, []byte("{not json")))
	assert.Empty(t, repo.LoadAll(ctx))

	st := repo.State().(notes.RepositoryState)
	assert.Equal(t, 1, st.LoadFailures)
}

func TestRepository_MutationAbortsOnCorruptData(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	corrupt := []byte("[{\"id\":")
	require.NoError(t, store.Set(ctx, core.NotesKey, corrupt))

	_, err := repo.Upsert(ctx, core.Note{Title: "a", Content: "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))

	raw, _, _ := store.Get(ctx, core.NotesKey)
	assert.Equal(t, corrupt, raw, "corrupt collection must not be overwritten")
}

func TestRepository_StoreFailures(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	store.FailGet = errors.New("disk gone")
	assert.Empty(t, repo.LoadAll(ctx))
	_, ok := repo.FindByID(ctx, "x")
	assert.False(t, ok)

	store.FailGet = nil
	store.FailSet = errors.New("quota exceeded")
	_, err := repo.Upsert(ctx, core.Note{Title: "a", Content: "b"})
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.ErrorIs(t, repo.SaveAll(ctx, nil), core.ErrStorageUnavailable)
}

func TestRepository_Remove(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	a, err := repo.Upsert(ctx, core.Note{Title: "a", Content: "1"})
	require.NoError(t, err)
	b, err := repo.Upsert(ctx, core.Note{Title: "b", Content: "2"})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, a.ID))
	all := repo.LoadAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)

	require.NoError(t, repo.Remove(ctx, "unknown"), "removing an unknown id is a no-op")
	assert.Len(t, repo.LoadAll(ctx), 1)
}

func TestRepository_TogglePin(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	n, err := repo.Upsert(ctx, core.Note{Title: "a", Content: "b"})
	require.NoError(t, err)

	clock.Tick(time.Second)
	pinned, err := repo.TogglePin(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)
	assert.Equal(t, core.Millis(clock.Now()), pinned.Timestamp)

	unpinned, err := repo.TogglePin(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)

	_, err = repo.TogglePin(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_Reminder(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	n, err := repo.Upsert(ctx, core.Note{Title: "a", Content: "b"})
	require.NoError(t, err)

	at := clock.Now().Add(time.Hour)
	withReminder, err := repo.SetReminder(ctx, n.ID, at)
	require.NoError(t, err)
	got, ok := withReminder.Reminder()
	require.True(t, ok)
	assert.True(t, got.Equal(at))
	assert.Equal(t, n.Title, withReminder.Title)

	cleared, err := repo.ClearReminder(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.ReminderDate)
}

func TestRepository_Subscribe(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	calls := 0
	unsubscribe := repo.Subscribe(func() { calls++ })

	_, err := repo.Upsert(ctx, core.Note{Title: "a", Content: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	store.FailSet = errors.New("boom")
	_, err = repo.Upsert(ctx, core.Note{Title: "a", Content: "b"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "failed mutations do not notify")

	store.FailSet = nil
	unsubscribe()
	require.NoError(t, repo.SaveAll(ctx, nil))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, repo.State().(notes.RepositoryState).Subscribers)
}

func TestRepository_SubscribeChurnDoesNotGrow(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	calls := 0
	keep := repo.Subscribe(func() { calls++ })
	defer keep()
	for i := 0; i < 100; i++ {
		unsubscribe := repo.Subscribe(func() { t.Fatal("removed listener ran") })
		unsubscribe()
		unsubscribe()
	}
	assert.Equal(t, 1, repo.State().(notes.RepositoryState).Subscribers)

	require.NoError(t, repo.SaveAll(ctx, nil))
	assert.Equal(t, 1, calls)
}

func TestRepository_UpdateKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	n, err := repo.Upsert(ctx, core.Note{Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = repo.TogglePin(ctx, n.ID)
	require.NoError(t, err)
	_, err = repo.SetReminder(ctx, n.ID, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	clock.Tick(time.Second)
	got, err := repo.Update(ctx, n.ID, func(n *core.Note) { n.Content = "edited" })
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.Pinned)
	assert.NotNil(t, got.ReminderDate)
	assert.Equal(t, core.Millis(clock.Now()), got.Timestamp)

	_, err = repo.Update(ctx, "missing", func(*core.Note) {})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_WatchRequiresWatchableStore(t *testing.T) {
	repo, _, _ := newRepo(t)
	assert.Error(t, repo.Watch(context.Background()))
}
