package query

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Result is one observation of a watched key.
type Result[T any] struct {
	Data T
	Err  error
	// Loading is set while a fetch for the current key is in flight.
	Loading bool
	// Placeholder marks Data as belonging to a previous key: when the key
	// changes (page or filter change) the old data stays visible until the
	// new key's data arrives, instead of flashing to an empty state.
	Placeholder bool
	UpdatedAt   time.Time
}

// Watcher observes one cache key. It refetches on invalidation, serves
// previous data as a placeholder across key changes, and never surfaces a
// canceled fetch as an error.
type Watcher[T any] struct {
	c       *Client
	mu      sync.Mutex
	key     Key
	fn      FetchFunc[T]
	last    Result[T]
	hasLast bool
	closed  bool
	ch      chan Result[T]
}

// Watch registers a watcher for key and starts its initial fetch in the
// background. The caller owns the watcher and must Close it.
func Watch[T any](c *Client, key Key, fn FetchFunc[T]) *Watcher[T] {
	w := &Watcher[T]{
		c:   c,
		key: key,
		fn:  fn,
		ch:  make(chan Result[T], 1),
	}
	c.register(w)
	c.retain(key)
	go w.refetch()
	return w
}

// Results delivers observations, latest-wins: a slow consumer only ever sees
// the most recent result.
func (w *Watcher[T]) Results() <-chan Result[T] {
	return w.ch
}

// Current returns the most recent observation.
func (w *Watcher[T]) Current() Result[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// SetKey switches the watcher to a new key, typically a page or filter
// change. The previous key's data is kept and emitted as a placeholder
// until the new key's fetch resolves. A no-op when the key is unchanged.
func (w *Watcher[T]) SetKey(key Key, fn FetchFunc[T]) {
	w.mu.Lock()
	if w.closed || key.Equal(w.key) {
		w.fn = fn
		w.mu.Unlock()
		return
	}
	old := w.key
	w.key = key
	w.fn = fn
	if w.hasLast {
		w.last.Placeholder = true
		w.last.Loading = true
		w.emitLocked(w.last)
	}
	w.mu.Unlock()

	w.c.retain(key)
	w.c.release(old)
	go w.refetch()
}

// Refetch forces a fetch of the current key.
func (w *Watcher[T]) Refetch() {
	w.refetch()
}

// Close unregisters the watcher and releases its key for garbage collection.
func (w *Watcher[T]) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	key := w.key
	w.mu.Unlock()

	w.c.unregister(w)
	w.c.release(key)
}

func (w *Watcher[T]) watchKey() Key {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.key
}

func (w *Watcher[T]) refetch() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	key, fn := w.key, w.fn
	w.mu.Unlock()

	data, err := Fetch(context.Background(), w.c, key, fn)

	w.mu.Lock()
	defer w.mu.Unlock()
	// Discard when closed or superseded by a key change while in flight;
	// the result is cached under its own key either way.
	if w.closed || !w.key.Equal(key) {
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// A failed background refetch keeps the displayed data; the error
		// rides along for consumers that care.
		res := w.last
		res.Err = err
		res.Loading = false
		w.last = res
		w.hasLast = true
		w.emitLocked(res)
		return
	}
	res := Result[T]{Data: data, UpdatedAt: time.Now()}
	w.last = res
	w.hasLast = true
	w.emitLocked(res)
}

func (w *Watcher[T]) emitLocked(r Result[T]) {
	for {
		select {
		case w.ch <- r:
			return
		default:
			select {
			case <-w.ch:
			default:
			}
		}
	}
}
