package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Set("threads", `[{"id":"t1","title":"Thread 1"}]`))
	require.NoError(t, store.Set("currentThreadId", "t1"))

	// Reopen from disk and verify both keys survived.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	threads, err := reopened.Get("threads")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"t1","title":"Thread 1"}]`, threads)

	active, err := reopened.Get("currentThreadId")
	require.NoError(t, err)
	assert.Equal(t, "t1", active)
}

func TestFileStore_MissingKey(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	_, err = store.Get("threads")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())

	// The store must remain writable after a corrupt open.
	require.NoError(t, store.Set("currentThreadId", "t1"))
	value, err := store.Get("currentThreadId")
	require.NoError(t, err)
	assert.Equal(t, "t1", value)
}

func TestFileStore_SetIsDurableBeforeReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("currentThreadId", "t9"))

	// The file on disk already reflects the write by the time Set returned.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "t9")
}

func TestFileStore_Delete(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, store.Set("threads", "[]"))
	require.NoError(t, store.Delete("threads"))
	_, err = store.Get("threads")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete("threads"))
}

func TestFileStore_Keys(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, store.Set("threads", "[]"))
	require.NoError(t, store.Set("currentThreadId", "t1"))
	assert.Equal(t, []string{"currentThreadId", "threads"}, store.Keys())
}
