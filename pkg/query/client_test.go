package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(opts Options) *Client {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return NewClient(opts)
}

func TestFetchServesFreshValueFromCache(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour})
	key := NewKey("transactions", "list", "month=4")

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "page", nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), c, key, fn)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got != "page" {
			t.Fatalf("Expected %q, got %q", "page", got)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected 1 network call for fresh data, got %d", n)
	}
}

func TestFetchRefetchesWhenAlwaysStale(t *testing.T) {
	// StaleTime zero means every read goes back to the source.
	c := testClient(Options{StaleTime: 0})
	key := NewKey("transactions", "list", "month=4")

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "page", nil
	}

	for i := 0; i < 2; i++ {
		if _, err := Fetch(context.Background(), c, key, fn); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("Expected a refetch per read on always-stale data, got %d calls", n)
	}
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour, Retry: 3})
	key := NewKey("cards", "list")

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("transient")
		}
		return "cards", nil
	}

	got, err := Fetch(context.Background(), c, key, fn)
	if err != nil {
		t.Fatalf("Expected third attempt to succeed, got error: %v", err)
	}
	if got != "cards" {
		t.Errorf("Expected %q, got %q", "cards", got)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
}

func TestFetchStopsAfterRetryBudget(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour, Retry: 3})
	key := NewKey("cards", "list")

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("down")
	}

	if _, err := Fetch(context.Background(), c, key, fn); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", n)
	}
}

func TestFetchDeduplicatesConcurrentReaders(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour})
	key := NewKey("transactions", "list", "month=4")

	var calls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		close(entered)
		<-release
		return "page", nil
	}

	first := make(chan string, 1)
	go func() {
		got, _ := Fetch(context.Background(), c, key, fn)
		first <- got
	}()
	<-entered

	second := make(chan string, 1)
	go func() {
		got, _ := Fetch(context.Background(), c, key, fn)
		second <- got
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	if got := <-first; got != "page" {
		t.Errorf("First reader got %q", got)
	}
	if got := <-second; got != "page" {
		t.Errorf("Second reader got %q", got)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected one shared network call, got %d", n)
	}
}

func TestCancelQueriesDiscardsLateResult(t *testing.T) {
	// The cancel-then-write rule: a fetch in flight when CancelQueries runs
	// must not overwrite a subsequent optimistic Set when it finally lands.
	c := testClient(Options{StaleTime: time.Hour, Retry: 1})
	key := NewKey("transactions", "detail", "t1")

	entered := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		close(entered)
		<-release
		return "stale-server-copy", nil
	}

	done := make(chan struct{})
	go func() {
		Fetch(context.Background(), c, key, fn)
		close(done)
	}()
	<-entered

	c.CancelQueries(NewKey("transactions", "detail"))
	c.Set(key, "optimistic")

	close(release)
	<-done

	got, ok := Data[string](c, key)
	if !ok {
		t.Fatal("Expected the optimistic value to remain cached")
	}
	if got != "optimistic" {
		t.Errorf("Late fetch overwrote the optimistic write: got %q", got)
	}
}

func TestSetAndRemove(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour})
	key := NewKey("transactions", "detail", "t1")

	c.Set(key, "v1")
	if got, ok := Data[string](c, key); !ok || got != "v1" {
		t.Fatalf("Expected cached %q, got %q (ok=%v)", "v1", got, ok)
	}

	c.Remove(key)
	if _, ok := Data[string](c, key); ok {
		t.Error("Expected entry to be gone after Remove")
	}
}

func TestGCEvictsIdleEntries(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour, GCTime: 20 * time.Millisecond})
	key := NewKey("transactions", "detail", "t1")

	c.Set(key, "v1")
	time.Sleep(100 * time.Millisecond)

	if _, ok := Data[string](c, key); ok {
		t.Error("Expected idle entry to be evicted after the GC window")
	}
}

func TestWatchedEntrySurvivesGC(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour, GCTime: 20 * time.Millisecond})
	key := NewKey("cards", "list")

	w := Watch(c, key, func(ctx context.Context) (string, error) {
		return "cards", nil
	})
	defer w.Close()
	<-w.Results()

	time.Sleep(100 * time.Millisecond)

	if _, ok := Data[string](c, key); !ok {
		t.Error("Expected watched entry to be pinned against eviction")
	}
}

func TestInvalidateRefetchesMatchingWatchers(t *testing.T) {
	c := testClient(Options{StaleTime: time.Hour})

	var listCalls, cardCalls int32
	list := Watch(c, NewKey("transactions", "list", "month=4"), func(ctx context.Context) (string, error) {
		atomic.AddInt32(&listCalls, 1)
		return "txs", nil
	})
	defer list.Close()
	cards := Watch(c, NewKey("cards", "list"), func(ctx context.Context) (string, error) {
		atomic.AddInt32(&cardCalls, 1)
		return "cards", nil
	})
	defer cards.Close()
	<-list.Results()
	<-cards.Results()

	c.Invalidate(NewKey("transactions", "list"))

	select {
	case res := <-list.Results():
		if res.Err != nil {
			t.Fatalf("Refetch failed: %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected invalidation to refetch the matching watcher")
	}
	if n := atomic.LoadInt32(&listCalls); n != 2 {
		t.Errorf("Expected 2 list fetches, got %d", n)
	}
	if n := atomic.LoadInt32(&cardCalls); n != 1 {
		t.Errorf("Expected the card watcher to be untouched, got %d fetches", n)
	}
}
