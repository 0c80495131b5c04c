package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTripAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first, err := NewFileStore(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyToken, "t1"))
	require.NoError(t, first.Set(ctx, KeyUser, storedUser{ID: "u1"}))

	second, err := NewFileStore(path, "")
	require.NoError(t, err)

	var token string
	require.True(t, second.Get(ctx, KeyToken, &token))
	assert.Equal(t, "t1", token)

	info, err := os.Stat(path + keyFileSuffix)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreDoesNotWritePlaintext(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewFileStore(path, "s3cret")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyToken, "very-visible-token"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "very-visible-token")
}

func TestFileStoreWrongSecretReadsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewFileStore(path, "one")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyToken, "t1"))

	other, err := NewFileStore(path, "two")
	require.NoError(t, err)

	var token string
	assert.False(t, other.Get(ctx, KeyToken, &token))
}

func TestFileStoreCorruptDocumentReadsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	store, err := NewFileStore(path, "secret")
	require.NoError(t, err)

	var token string
	assert.False(t, store.Get(ctx, KeyToken, &token))

	require.NoError(t, store.Set(ctx, KeyToken, "t2"))
	require.True(t, store.Get(ctx, KeyToken, &token))
	assert.Equal(t, "t2", token)
}

func TestFileStoreEntriesAreBoundToKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewFileStore(path, "secret")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyToken, "t1"))

	store.mu.Lock()
	doc := store.loadLocked()
	doc[KeyUser] = doc[KeyToken]
	require.NoError(t, store.saveLocked(doc))
	store.mu.Unlock()

	var value string
	assert.False(t, store.Get(ctx, KeyUser, &value))
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	store, err := NewFileStore(path, "secret")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyToken, "t1"))

	store.Clear(ctx)
	store.Clear(ctx)
	store.Remove(ctx, KeyToken)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("  ", "secret")
	assert.Error(t, err)
}
