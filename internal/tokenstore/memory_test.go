package tokenstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, KeyToken, "t1"))
	require.NoError(t, store.Set(ctx, KeyUser, storedUser{ID: "u1", Email: "a@b.c"}))

	var token string
	require.True(t, store.Get(ctx, KeyToken, &token))
	assert.Equal(t, "t1", token)

	var user storedUser
	require.True(t, store.Get(ctx, KeyUser, &user))
	assert.Equal(t, "u1", user.ID)

	store.Remove(ctx, KeyToken)
	assert.False(t, store.Get(ctx, KeyToken, &token))

	store.Clear(ctx)
	assert.False(t, store.Get(ctx, KeyUser, &user))
}

func TestMemoryStoreCorruptEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetRaw(KeyUser, []byte("{not json"))

	var user storedUser
	assert.False(t, store.Get(ctx, KeyUser, &user))
}

func TestSetRejectsUnencodableValue(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, NewMemoryStore().Set(ctx, "bad", make(chan int)))
	assert.Error(t, NopStore{}.Set(ctx, "bad", func() {}))
}

func TestRemoveAndClearOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.NotPanics(t, func() {
		store.Remove(ctx, "missing")
		store.Clear(ctx)
		store.Clear(ctx)
	})
}

func TestNopStoreForgetsEverything(t *testing.T) {
	ctx := context.Background()
	var store Store = NopStore{}

	require.NoError(t, store.Set(ctx, KeyToken, "t1"))

	var token string
	assert.False(t, store.Get(ctx, KeyToken, &token))
}
