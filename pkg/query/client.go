package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults mirror the global query policy: cached data is considered stale
// immediately (every observer triggers a background refetch), idle entries
// are garbage-collected after ten minutes, and failed fetches are attempted
// three times.
const (
	DefaultStaleTime  = 0 * time.Minute
	DefaultGCTime     = 10 * time.Minute
	DefaultRetry      = 3
	DefaultRetryDelay = 200 * time.Millisecond
)

// Options configure a cache Client. Zero values select the defaults above,
// except StaleTime where zero genuinely means "always stale".
type Options struct {
	// StaleTime is how long fetched data is served without a refetch.
	StaleTime time.Duration
	// GCTime evicts entries nobody watches after this idle period.
	GCTime time.Duration
	// Retry is the total number of fetch attempts on failure.
	Retry int
	// RetryDelay is the base backoff between attempts (grows linearly).
	RetryDelay time.Duration
	Logger     *log.Logger
}

// FetchFunc loads the value for a key from the remote source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Client is a keyed cache over remote fetches. It deduplicates concurrent
// fetches per key, applies the staleness and retry policy, garbage-collects
// idle entries, and supports prefix-based invalidation and cancellation.
//
// Cancellation is the only concurrency-control primitive: a mutation cancels
// in-flight fetches for the keys it is about to write so that a slow stale
// response can never overwrite an optimistic write (cancel-then-write).
type Client struct {
	mu       sync.Mutex
	opts     Options
	entries  map[string]*entry
	watchers map[keyWatcher]struct{}
}

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool
	// gen is bumped by CancelQueries; a fetch started under an older
	// generation may finish, but its result is discarded.
	gen      uint64
	inflight *inflight
	refs     int
	gcTimer  *time.Timer
}

type inflight struct {
	done   chan struct{}
	data   any
	err    error
	cancel context.CancelFunc
}

type keyWatcher interface {
	watchKey() Key
	refetch()
}

func NewClient(opts Options) *Client {
	if opts.GCTime <= 0 {
		opts.GCTime = DefaultGCTime
	}
	if opts.Retry <= 0 {
		opts.Retry = DefaultRetry
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Client{
		opts:     opts,
		entries:  make(map[string]*entry),
		watchers: make(map[keyWatcher]struct{}),
	}
}

// Fetch returns the cached value for key when it is still fresh, otherwise
// it loads the value with fn (retrying per policy) and caches the result.
// Concurrent fetches for the same key share one network call.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn FetchFunc[T]) (T, error) {
	data, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("query: cached value for %q is %T, not %T", key, data, zero)
	}
	return v, nil
}

// Data returns the cached value for key, if any, regardless of staleness.
func Data[T any](c *Client, key Key) (T, bool) {
	var zero T
	data, ok := c.cached(key)
	if !ok {
		return zero, false
	}
	v, ok := data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set writes data directly into the cache at key. This is the speculative
// write of the optimistic-update protocol; the written value is served as
// fresh until the next invalidation.
func (c *Client) Set(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.data = data
	e.hasData = true
	e.err = nil
	e.updatedAt = time.Now()
	e.stale = false
	c.scheduleGCLocked(e)
}

// Remove drops the cache entry for key so stale reads cannot surface it.
func (c *Client) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ks := key.String()
	if e, ok := c.entries[ks]; ok {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
		delete(c.entries, ks)
	}
}

// CancelQueries cancels in-flight fetches for every key under prefix and
// guarantees their late results are discarded rather than cached.
func (c *Client) CancelQueries(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.gen++
		if e.inflight != nil {
			e.inflight.cancel()
		}
	}
}

// Invalidate marks every entry under prefix stale and refetches active
// watchers of those keys in the background. Invalidation is deliberately
// coarse: mutations hand in a list-group prefix, not a single filter key,
// because the filter space is large and any filtered view may need the
// changed data.
func (c *Client) Invalidate(prefix Key) {
	c.mu.Lock()
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.stale = true
		}
	}
	var refetch []keyWatcher
	for w := range c.watchers {
		if w.watchKey().HasPrefix(prefix) {
			refetch = append(refetch, w)
		}
	}
	c.mu.Unlock()

	c.opts.Logger.Debug("cache invalidated", "prefix", prefix.String(), "watchers", len(refetch))
	for _, w := range refetch {
		go w.refetch()
	}
}

func (c *Client) cached(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

func (c *Client) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	ks := key.String()

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.hasData && !c.staleLocked(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if fl := e.inflight; fl != nil {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.data, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fctx, cancel := context.WithCancel(ctx)
	fl := &inflight{done: make(chan struct{}), cancel: cancel}
	e.inflight = fl
	gen := e.gen
	c.mu.Unlock()

	data, err := c.attempt(fctx, fn)
	cancel()

	c.mu.Lock()
	fl.data, fl.err = data, err
	close(fl.done)
	if e.inflight == fl {
		e.inflight = nil
	}
	// A fetch superseded by CancelQueries must not overwrite the cache.
	if e.gen == gen {
		if err == nil {
			e.data = data
			e.hasData = true
			e.err = nil
			e.updatedAt = time.Now()
			e.stale = false
		} else {
			e.err = err
		}
	} else {
		c.opts.Logger.Debug("discarding superseded fetch result", "key", ks)
	}
	c.scheduleGCLocked(e)
	c.mu.Unlock()

	return data, err
}

// attempt runs fn up to the configured number of attempts with linear
// backoff. Context cancellation stops retrying immediately.
func (c *Client) attempt(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	var (
		data any
		err  error
	)
	for i := 0; i < c.opts.Retry; i++ {
		data, err = fn(ctx)
		if err == nil || ctx.Err() != nil {
			return data, err
		}
		if i == c.opts.Retry-1 {
			break
		}
		select {
		case <-time.After(c.opts.RetryDelay * time.Duration(i+1)):
		case <-ctx.Done():
			return data, err
		}
	}
	return data, err
}

func (c *Client) entryLocked(key Key) *entry {
	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: key}
		c.entries[ks] = e
	}
	return e
}

func (c *Client) staleLocked(e *entry) bool {
	if e.stale {
		return true
	}
	return time.Since(e.updatedAt) >= c.opts.StaleTime
}

func (c *Client) register(w keyWatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers[w] = struct{}{}
}

func (c *Client) unregister(w keyWatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watchers, w)
}

// retain pins a key against garbage collection while a watcher observes it.
func (c *Client) retain(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.refs++
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
}

func (c *Client) release(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return
	}
	if e.refs > 0 {
		e.refs--
	}
	c.scheduleGCLocked(e)
}

// scheduleGCLocked arms the idle-eviction timer for entries nobody watches.
func (c *Client) scheduleGCLocked(e *entry) {
	if e.refs > 0 {
		return
	}
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	ks := e.key.String()
	e.gcTimer = time.AfterFunc(c.opts.GCTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		cur, ok := c.entries[ks]
		if !ok || cur.refs > 0 || cur.inflight != nil {
			return
		}
		delete(c.entries, ks)
		c.opts.Logger.Debug("cache entry evicted", "key", ks)
	})
}
