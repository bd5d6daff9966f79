package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	items := []OfflineItem{
		{ID: "a", Type: OpTaskProgress, TaskID: 1, Value: 5},
		{ID: "b", Type: OpChatMessage, ChallengeID: 2, Content: "hi"},
	}
	require.NoError(t, store.Put("offline-data", items))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	var got []OfflineItem
	ok, err := reopened.Get("offline-data", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items, got)
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "client.json"))
	require.NoError(t, err)

	var v string
	ok, err := store.Get("never-written", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Delete("k"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	var v string
	ok, err := reopened.Get("k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Put("k", map[string]int{"n": 3}))

	var got map[string]int
	ok, err := store.Get("k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got["n"])

	require.NoError(t, store.Delete("k"))
	ok, err = store.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
