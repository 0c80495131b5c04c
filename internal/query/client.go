// Package query is a small keyed cache for backend reads.
//
// Entries remember when they were fetched and for how long they stay fresh.
// Concurrent fetches of one key share a single request. Every entry carries a
// generation that invalidation, SetData and Refetch bump; a fetch result is
// only stored if the generation it started with is still current, so a late
// response never overwrites newer data.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"zurura-client/pkg/apierror"
)

const DefaultStaleTime = 30 * time.Second

var ErrDisabled = errors.New("query disabled")

type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key        Key
	value      any
	hasValue   bool
	err        error
	fetchedAt  time.Time
	staleAfter time.Duration
	generation uint64
	waiting    int
}

func (e *entry) fresh(now time.Time) bool {
	return e.hasValue && e.err == nil && now.Before(e.fetchedAt.Add(e.staleAfter))
}

type Client struct {
	mu        sync.Mutex
	entries   map[string]*entry
	group     singleflight.Group
	gen       uint64
	staleTime time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Client)

func WithStaleTime(d time.Duration) Option {
	return func(c *Client) {
		c.staleTime = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		entries:   map[string]*entry{},
		staleTime: DefaultStaleTime,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StaleTime is the default freshness window.
func (c *Client) StaleTime() time.Duration {
	return c.staleTime
}

// Fetch returns the cached value while it is fresh, and otherwise fetches it,
// joining a fetch of the same key already in flight.
func (c *Client) Fetch(ctx context.Context, key Key, staleTime time.Duration, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.fresh(c.now()) {
		value := e.value
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	return c.run(ctx, key, staleTime, fn)
}

// Refetch always goes to the backend. A fetch of the same key already in
// flight is superseded: its result is returned to its own waiters but not
// stored.
func (c *Client) Refetch(ctx context.Context, key Key, staleTime time.Duration, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.generation = c.nextGenLocked()
	c.mu.Unlock()

	return c.run(ctx, key, staleTime, fn)
}

func (c *Client) run(ctx context.Context, key Key, staleTime time.Duration, fn FetchFunc) (any, error) {
	id := key.String()

	c.mu.Lock()
	e := c.entryLocked(key)
	gen := e.generation
	e.waiting++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if current, ok := c.entries[id]; ok && current == e {
			e.waiting--
		}
		c.mu.Unlock()
	}()

	// The shared fetch must not die with the first waiter's context.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%s#%d", id, gen), func() (any, error) {
		value, err := fn(shared)
		c.store(id, gen, staleTime, value, err)
		return value, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, apierror.RequestFailed(ctx.Err())
	}
}

func (c *Client) store(id string, gen uint64, staleTime time.Duration, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || e.generation != gen {
		c.logger.Debug("discarding superseded fetch", "key", id)
		return
	}

	if err != nil {
		e.err = err
		return
	}

	e.value = value
	e.hasValue = true
	e.err = nil
	e.fetchedAt = c.now()
	e.staleAfter = staleTime
}

// Invalidate marks every entry under prefix stale and supersedes fetches in
// flight for them. Cached values stay readable until replaced. It returns the
// number of entries touched.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := 0
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.generation = c.nextGenLocked()
		e.fetchedAt = time.Time{}
		touched++
	}
	return touched
}

// SetData writes value as a fresh result for key that goes stale after
// staleTime. A zero staleTime stores the value without making it fresh.
func (c *Client) SetData(key Key, value any, staleTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.generation = c.nextGenLocked()
	e.value = value
	e.hasValue = true
	e.err = nil
	e.fetchedAt = c.now()
	e.staleAfter = staleTime
}

func (c *Client) GetData(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Clear drops every entry. Fetches in flight complete for their waiters but
// are not stored.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*entry{}
}

type EntryState struct {
	Key        string
	HasValue   bool
	Value      any
	Err        error
	FetchedAt  time.Time
	Stale      bool
	IsFetching bool
}

func (c *Client) state(key Key) EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return EntryState{Key: key.String(), Stale: true}
	}
	return c.stateLocked(e)
}

func (c *Client) stateLocked(e *entry) EntryState {
	return EntryState{
		Key:        e.key.String(),
		HasValue:   e.hasValue,
		Value:      e.value,
		Err:        e.err,
		FetchedAt:  e.fetchedAt,
		Stale:      !e.fresh(c.now()),
		IsFetching: e.waiting > 0,
	}
}

// Snapshot lists all entries ordered by key.
func (c *Client) Snapshot() []EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]EntryState, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, c.stateLocked(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (c *Client) entryLocked(key Key) *entry {
	id := key.String()
	if e, ok := c.entries[id]; ok {
		return e
	}

	e := &entry{key: append(Key(nil), key...), generation: c.nextGenLocked()}
	c.entries[id] = e
	return e
}

func (c *Client) nextGenLocked() uint64 {
	c.gen++
	return c.gen
}
