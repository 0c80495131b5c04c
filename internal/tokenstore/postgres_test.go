package tokenstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV mimics the client_kv table for the three statement shapes the
// store issues.
type fakeKV struct {
	mu      sync.Mutex
	rows    map[string][]byte
	execErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{rows: map[string][]byte{}}
}

func (f *fakeKV) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}

	namespace := args[0].(string)
	switch {
	case strings.HasPrefix(strings.TrimSpace(sql), "INSERT"):
		f.rows[namespace+"/"+args[1].(string)] = args[2].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case len(args) == 2:
		delete(f.rows, namespace+"/"+args[1].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	default:
		for key := range f.rows {
			if strings.HasPrefix(key, namespace+"/") {
				delete(f.rows, key)
			}
		}
		return pgconn.NewCommandTag("DELETE"), nil
	}
}

func (f *fakeKV) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.rows[args[0].(string)+"/"+args[1].(string)]
	return fakeRow{data: data, found: ok}
}

type fakeRow struct {
	data  []byte
	found bool
}

func (r fakeRow) Scan(dest ...any) error {
	if !r.found {
		return pgx.ErrNoRows
	}
	*(dest[0].(*[]byte)) = r.data
	return nil
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresStore(newFakeKV(), "laptop", nil)

	require.NoError(t, store.Set(ctx, KeyToken, "t1"))

	var token string
	require.True(t, store.Get(ctx, KeyToken, &token))
	assert.Equal(t, "t1", token)

	store.Remove(ctx, KeyToken)
	assert.False(t, store.Get(ctx, KeyToken, &token))
}

func TestPostgresStoreNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := newFakeKV()
	a := NewPostgresStore(db, "a", nil)
	b := NewPostgresStore(db, "b", nil)

	require.NoError(t, a.Set(ctx, KeyToken, "ta"))
	require.NoError(t, b.Set(ctx, KeyToken, "tb"))

	a.Clear(ctx)

	var token string
	assert.False(t, a.Get(ctx, KeyToken, &token))
	require.True(t, b.Get(ctx, KeyToken, &token))
	assert.Equal(t, "tb", token)
}

func TestPostgresStoreSwallowsWriteFailures(t *testing.T) {
	ctx := context.Background()
	db := newFakeKV()
	db.execErr = errors.New("connection refused")
	store := NewPostgresStore(db, "", nil)

	assert.NoError(t, store.Set(ctx, KeyToken, "t1"))
	assert.NotPanics(t, func() {
		store.Remove(ctx, KeyToken)
		store.Clear(ctx)
	})
}
