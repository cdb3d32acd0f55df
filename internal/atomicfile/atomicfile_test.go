package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	t.Run("creates new file", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "notes.json")
		require.NoError(t, Write(filename, []byte("[]"), 0o644))

		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got))
	})

	t.Run("overwrites and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "notes.json")
		require.NoError(t, os.WriteFile(filename, []byte("old"), 0o644))
		require.NoError(t, Write(filename, []byte("new"), 0o644))

		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, IsTemp(e.Name()), "leftover temp file %s", e.Name())
		}
	})

	t.Run("fails if directory missing", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing", "notes.json")
		assert.Error(t, Write(filename, []byte("x"), 0o644))
	})
}

func TestIsTemp(t *testing.T) {
	assert.True(t, IsTemp("/a/b/"+TempPrefix+"123"))
	assert.False(t, IsTemp("/a/b/notes.json"))
}
