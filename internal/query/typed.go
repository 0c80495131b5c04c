package query

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is what a view renders for one query. IsLoading means no data yet;
// IsFetching means a request is outstanding, with or without data.
type State[T any] struct {
	Data       T
	HasData    bool
	IsLoading  bool
	IsFetching bool
	Err        error
	Status     Status
	FetchedAt  time.Time
}

type queryConfig struct {
	staleTime *time.Duration
	enabled   func(ctx context.Context) bool
}

type QueryOption func(*queryConfig)

// StaleTime overrides the client's freshness window for this query.
func StaleTime(d time.Duration) QueryOption {
	return func(cfg *queryConfig) {
		cfg.staleTime = &d
	}
}

// Enabled gates the query. A disabled query never sends a request.
func Enabled(fn func(ctx context.Context) bool) QueryOption {
	return func(cfg *queryConfig) {
		cfg.enabled = fn
	}
}

// Query binds a key to its fetch function.
type Query[T any] struct {
	client *Client
	key    Key
	fetch  func(ctx context.Context) (T, error)
	cfg    queryConfig
}

func NewQuery[T any](client *Client, key Key, fetch func(ctx context.Context) (T, error), opts ...QueryOption) *Query[T] {
	q := &Query[T]{client: client, key: key, fetch: fetch}
	for _, opt := range opts {
		opt(&q.cfg)
	}
	return q
}

func (q *Query[T]) Key() Key {
	return q.key
}

func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	if !q.enabledFor(ctx) {
		var zero T
		return zero, ErrDisabled
	}
	return typed[T](q.client.Fetch(ctx, q.key, q.staleTime(), q.untyped))
}

func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	if !q.enabledFor(ctx) {
		var zero T
		return zero, ErrDisabled
	}
	return typed[T](q.client.Refetch(ctx, q.key, q.staleTime(), q.untyped))
}

func (q *Query[T]) State(ctx context.Context) State[T] {
	raw := q.client.state(q.key)

	st := State[T]{
		HasData:    raw.HasValue,
		IsFetching: raw.IsFetching,
		Err:        raw.Err,
		FetchedAt:  raw.FetchedAt,
	}
	if raw.HasValue {
		st.Data, _ = raw.Value.(T)
	}
	st.IsLoading = raw.IsFetching && !raw.HasValue

	switch {
	case !q.enabledFor(ctx):
		st.Status = StatusIdle
	case raw.Err != nil:
		st.Status = StatusError
	case raw.HasValue:
		st.Status = StatusSuccess
	case raw.IsFetching:
		st.Status = StatusLoading
	default:
		st.Status = StatusIdle
	}
	return st
}

// SetData stores value under the query's key with the query's stale time.
func (q *Query[T]) SetData(value T) {
	q.client.SetData(q.key, value, q.staleTime())
}

func (q *Query[T]) untyped(ctx context.Context) (any, error) {
	return q.fetch(ctx)
}

func (q *Query[T]) staleTime() time.Duration {
	if q.cfg.staleTime != nil {
		return *q.cfg.staleTime
	}
	return q.client.StaleTime()
}

func (q *Query[T]) enabledFor(ctx context.Context) bool {
	return q.cfg.enabled == nil || q.cfg.enabled(ctx)
}

func typed[T any](value any, err error) (T, error) {
	out, _ := value.(T)
	return out, err
}

type MutationHooks[A, R any] struct {
	// OnSuccess runs before Mutate returns, so invalidations it performs are
	// visible to every read issued afterwards.
	OnSuccess func(ctx context.Context, arg A, result R)
	OnError   func(ctx context.Context, arg A, err error)
}

type Mutation[A, R any] struct {
	fn      func(ctx context.Context, arg A) (R, error)
	hooks   MutationHooks[A, R]
	mu      sync.Mutex
	pending int
	lastErr error
}

func NewMutation[A, R any](fn func(ctx context.Context, arg A) (R, error), hooks MutationHooks[A, R]) *Mutation[A, R] {
	return &Mutation[A, R]{fn: fn, hooks: hooks}
}

func (m *Mutation[A, R]) Mutate(ctx context.Context, arg A) (R, error) {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()

	var (
		result R
		err    error
	)
	defer func() {
		m.mu.Lock()
		m.pending--
		m.lastErr = err
		m.mu.Unlock()
	}()

	result, err = m.fn(ctx, arg)
	if err != nil {
		if m.hooks.OnError != nil {
			m.hooks.OnError(ctx, arg, err)
		}
	} else if m.hooks.OnSuccess != nil {
		m.hooks.OnSuccess(ctx, arg, result)
	}

	return result, err
}

func (m *Mutation[A, R]) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Err is the outcome of the most recent Mutate to finish.
func (m *Mutation[A, R]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Mutation[A, R]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}
