package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/memento/pkg/adapters/fs"
	"github.com/aretw0/memento/pkg/core"
)

func setupStore(t *testing.T) *fs.Store {
	t.Helper()
	store := fs.NewStore(fs.Config{Path: filepath.Join(t.TempDir(), "data")})
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func TestStore_GetSetRemove(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.False(t, found, "a key never written is not found")

	require.NoError(t, store.Set(ctx, core.NotesKey, []byte(`[]`)))
	got, found, err := store.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, store.Remove(ctx, core.NotesKey))
	require.NoError(t, store.Remove(ctx, core.NotesKey), "removing twice is not an error")
	_, found, err = store.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_RejectsUnsafeKeys(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, store.Set(ctx, key, []byte("x")), "key %q", key)
	}
}

func TestStore_SkipsUnchangedWrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, core.NotesKey, []byte(`[{"id":"a"}]`)))
	filename := filepath.Join(store.Path, core.NotesKey+fs.ValueExt)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filename, old, old))

	require.NoError(t, store.Set(ctx, core.NotesKey, []byte(`[{"id":"a"}]`)))
	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "identical value must not rewrite the file")

	state := store.State().(fs.StoreState)
	assert.Equal(t, 1, state.Writes)
	assert.Equal(t, 1, state.SkippedWrites)
}

func TestStore_WritesSameLengthChange(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, core.NotesKey, []byte(`[{"id":"a"}]`)))
	require.NoError(t, store.Set(ctx, core.NotesKey, []byte(`[{"id":"b"}]`)))

	got, found, err := store.Get(ctx, core.NotesKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `[{"id":"b"}]`, string(got))

	state := store.State().(fs.StoreState)
	assert.Equal(t, 2, state.Writes)
	assert.Equal(t, 0, state.SkippedWrites)
}

func TestStore_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	store := fs.NewStore(fs.Config{Path: dir, ReadOnly: true})
	require.NoError(t, store.Initialize(context.Background()))

	err := store.Set(context.Background(), core.NotesKey, []byte(`[]`))
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.ErrorIs(t, store.Remove(context.Background(), core.NotesKey), core.ErrReadOnly)
}

func TestStore_MustExist(t *testing.T) {
	store := fs.NewStore(fs.Config{Path: filepath.Join(t.TempDir(), "missing"), MustExist: true})
	assert.Error(t, store.Initialize(context.Background()))
}

func TestStore_Keys(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, core.NotesKey, []byte(`[]`)))
	require.NoError(t, store.Set(ctx, core.PendingNoteKey, []byte(`"x"`)))
	require.NoError(t, os.WriteFile(filepath.Join(store.Path, "README.txt"), []byte("hi"), 0o644))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{core.NotesKey, core.PendingNoteKey}, keys)
}
