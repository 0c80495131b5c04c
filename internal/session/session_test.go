package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zurura-client/internal/event"
	"zurura-client/internal/model"
	"zurura-client/internal/tokenstore"
)

var now = time.Unix(1_700_000_000, 0)

func clock() time.Time { return now }

func jwtExpiringIn(t *testing.T, d time.Duration) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": now.Add(d).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return signed
}

func TestNewRestoresStoredSession(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, tokenstore.KeyToken, "t1"))
	require.NoError(t, store.Set(ctx, tokenstore.KeyUser, model.User{ID: "u1"}))

	s := New(ctx, store, WithClock(clock))

	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated(ctx))
	user, ok := s.User(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}

func TestNewDropsExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, tokenstore.KeyToken, jwtExpiringIn(t, -time.Minute)))
	require.NoError(t, store.Set(ctx, tokenstore.KeyUser, model.User{ID: "u1"}))

	s := New(ctx, store, WithClock(clock))

	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token(ctx))
	var raw string
	assert.False(t, store.Get(ctx, tokenstore.KeyToken, &raw))
}

func TestTokenIsReadFromStoreEachTime(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	s := New(ctx, store, WithClock(clock))

	assert.Empty(t, s.Token(ctx))

	valid := jwtExpiringIn(t, time.Hour)
	require.NoError(t, store.Set(ctx, tokenstore.KeyToken, valid))
	assert.Equal(t, valid, s.Token(ctx))

	store.Remove(ctx, tokenstore.KeyToken)
	assert.Empty(t, s.Token(ctx))
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus(nil)
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	s := New(ctx, tokenstore.NewMemoryStore(), WithClock(clock), WithBus(bus))
	require.Equal(t, StateAnonymous, s.State())

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), model.ErrAuthInProgress)

	failure := errors.New("Invalid credentials")
	s.Fail(failure)
	assert.Equal(t, StateError, s.State())
	assert.Equal(t, failure, s.Err())

	require.NoError(t, s.Begin())
	assert.Nil(t, s.Err())
	require.NoError(t, s.Establish(ctx, "t1", model.User{ID: "u1"}))
	assert.Equal(t, StateAuthenticated, s.State())

	s.End(ctx)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token(ctx))

	assert.Equal(t, event.TypeSessionAuthenticated, (<-events).Type)
	assert.Equal(t, event.TypeSessionLoggedOut, (<-events).Type)
}

func TestExpireOnlyForCurrentToken(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	s := New(ctx, store)
	require.NoError(t, s.Establish(ctx, "t2", model.User{ID: "u1"}))

	assert.False(t, s.Expire(ctx, ""))
	assert.False(t, s.Expire(ctx, "t1"))
	assert.Equal(t, "t2", s.Token(ctx))

	assert.True(t, s.Expire(ctx, "t2"))
	assert.False(t, s.Expire(ctx, "t2"))
	assert.Equal(t, StateAnonymous, s.State())
	_, ok := s.User(ctx)
	assert.False(t, ok)
}

func TestConcurrentExpireClearsOnce(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, tokenstore.NewMemoryStore())
	require.NoError(t, s.Establish(ctx, "t1", model.User{ID: "u1"}))

	var cleared atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Expire(ctx, "t1") {
				cleared.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), cleared.Load())
}

func TestIsAuthenticatedFollowsStore(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	s := New(ctx, store, WithClock(clock))
	require.NoError(t, s.Establish(ctx, jwtExpiringIn(t, time.Hour), model.User{ID: "u1"}))
	require.True(t, s.IsAuthenticated(ctx))

	store.Clear(ctx)

	assert.False(t, s.IsAuthenticated(ctx))
	assert.Equal(t, StateAnonymous, s.State())
}

func TestSetUserOnlyWhenAuthenticated(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	s := New(ctx, store)

	s.SetUser(ctx, model.User{ID: "ghost"})
	_, ok := s.User(ctx)
	assert.False(t, ok)

	require.NoError(t, s.Establish(ctx, "t1", model.User{ID: "u1", FirstName: "Old"}))
	s.SetUser(ctx, model.User{ID: "u1", FirstName: "New"})

	var persisted model.User
	require.True(t, store.Get(ctx, tokenstore.KeyUser, &persisted))
	assert.Equal(t, "New", persisted.FirstName)
}

func TestRoleFallsBackToTokenClaim(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": "driver",
		"exp":  now.Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, tokenstore.KeyToken, raw))

	s := New(ctx, store, WithClock(clock))
	assert.Equal(t, model.RoleDriver, s.Role(ctx))

	s.SetUser(ctx, model.User{ID: "u1", Role: model.RoleOperator})
	assert.Equal(t, model.RoleOperator, s.Role(ctx))

	s.End(ctx)
	assert.Empty(t, s.Role(ctx))
}

func TestRemaining(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	s := New(ctx, store, WithClock(clock))

	_, ok := s.Remaining(ctx)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, tokenstore.KeyToken, jwtExpiringIn(t, 20*time.Minute)))
	left, ok := s.Remaining(ctx)
	require.True(t, ok)
	assert.Equal(t, 20*time.Minute, left)

	require.NoError(t, store.Set(ctx, tokenstore.KeyToken, "opaque"))
	_, ok = s.Remaining(ctx)
	assert.False(t, ok)
}
