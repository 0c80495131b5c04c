package tokenstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string]map[string]struct{}
	ttls   map[string]time.Duration
	down   bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: map[string]string{},
		sets:   map[string]map[string]struct{}{},
		ttls:   map[string]time.Duration{},
	}
}

var errRedisDown = errors.New("dial tcp: connection refused")

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewStringResult("", errRedisDown)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewStatusResult("", errRedisDown)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewIntResult(0, errRedisDown)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			n++
		}
		delete(f.values, key)
		delete(f.sets, key)
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[key]
	if !ok {
		set = map[string]struct{}{}
		f.sets[key] = set
	}
	for _, member := range members {
		set[member.(string)] = struct{}{}
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, member := range members {
		delete(f.sets[key], member.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewStringSliceResult(nil, errRedisDown)
	}
	members := make([]string, 0, len(f.sets[key]))
	for member := range f.sets[key] {
		members = append(members, member)
	}
	return redis.NewStringSliceResult(members, nil)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	store := NewRedisStore(rdb, "cli", WithRedisTTL(time.Hour))

	require.NoError(t, store.Set(ctx, KeyToken, "t1"))
	assert.Contains(t, rdb.values, "zurura:cli:auth-token")
	assert.Equal(t, time.Hour, rdb.ttls["zurura:cli:auth-token"])

	var token string
	require.True(t, store.Get(ctx, KeyToken, &token))
	assert.Equal(t, "t1", token)

	store.Remove(ctx, KeyToken)
	assert.False(t, store.Get(ctx, KeyToken, &token))
}

func TestRedisStoreClearRemovesIndexedKeys(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	store := NewRedisStore(rdb, "cli")
	other := NewRedisStore(rdb, "other")

	require.NoError(t, store.Set(ctx, KeyToken, "t1"))
	require.NoError(t, store.Set(ctx, "extra", 42))
	require.NoError(t, other.Set(ctx, KeyToken, "t2"))

	store.Clear(ctx)

	var n int
	assert.False(t, store.Get(ctx, "extra", &n))
	var token string
	assert.False(t, store.Get(ctx, KeyToken, &token))
	require.True(t, other.Get(ctx, KeyToken, &token))
	assert.Equal(t, "t2", token)
}

func TestRedisStoreUnavailableReadsAbsent(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.down = true
	store := NewRedisStore(rdb, "")

	assert.NoError(t, store.Set(ctx, KeyToken, "t1"))

	var token string
	assert.False(t, store.Get(ctx, KeyToken, &token))
	assert.NotPanics(t, func() { store.Clear(ctx) })
}
