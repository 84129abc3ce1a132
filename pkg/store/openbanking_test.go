package store

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/query"
)

type fakeCardLists struct {
	c *query.Client

	mu    sync.Mutex
	cards []models.OpenBankingCard
}

func newFakeCardLists(cards []models.OpenBankingCard) *fakeCardLists {
	return &fakeCardLists{
		c:     query.NewClient(query.Options{Retry: 1, RetryDelay: time.Millisecond, Logger: log.New(io.Discard)}),
		cards: cards,
	}
}

func (f *fakeCardLists) WatchCards() *query.Watcher[models.Page[models.OpenBankingCard]] {
	return query.Watch(f.c, query.NewKey("cards", "list"), func(ctx context.Context) (models.Page[models.OpenBankingCard], error) {
		f.mu.Lock()
		cards := make([]models.OpenBankingCard, len(f.cards))
		copy(cards, f.cards)
		f.mu.Unlock()
		return models.PageOf(cards, 1, 20), nil
	})
}

func (f *fakeCardLists) setCards(cards []models.OpenBankingCard) {
	f.mu.Lock()
	f.cards = cards
	f.mu.Unlock()
}

func waitCards(t *testing.T, s *OpenBankingStore, ok func(OpenBankingState, bool) bool) OpenBankingState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		state, ready, err := s.Snapshot()
		if err != nil {
			t.Fatalf("Store error: %v", err)
		}
		if ok(state, ready) {
			return state
		}
		select {
		case <-s.Updates():
		case <-deadline:
			t.Fatalf("Timed out waiting for card state, last: %+v (ready=%v)", state, ready)
		}
	}
}

func TestOpenBankingStoreMirrorsCardList(t *testing.T) {
	card := models.OpenBankingCard{No: "1234", Name: "Everyday", Company: "acme", FinCardNo: "fin-001"}
	lists := newFakeCardLists([]models.OpenBankingCard{card})
	s := NewOpenBankingStore(lists, log.New(io.Discard))
	defer s.Close()

	state := waitCards(t, s, func(state OpenBankingState, ready bool) bool { return ready })
	if len(state.Cards) != 1 || state.Cards[0].FinCardNo != "fin-001" {
		t.Errorf("Expected the card list mirrored, got %+v", state.Cards)
	}
}

func TestOpenBankingStoreEmptyListStillBecomesReady(t *testing.T) {
	// An account with no linked cards must still signal readiness: the empty
	// result and the initial empty state are deep-equal, and only the
	// first-result bypass of the equality gate lets the signal through.
	lists := newFakeCardLists(nil)
	s := NewOpenBankingStore(lists, log.New(io.Discard))
	defer s.Close()

	state := waitCards(t, s, func(state OpenBankingState, ready bool) bool { return ready })
	if len(state.Cards) != 0 {
		t.Errorf("Expected no cards, got %+v", state.Cards)
	}
}

func TestOpenBankingStorePicksUpRefetch(t *testing.T) {
	card := models.OpenBankingCard{No: "1234", Name: "Everyday", Company: "acme", FinCardNo: "fin-001"}
	lists := newFakeCardLists([]models.OpenBankingCard{card})
	s := NewOpenBankingStore(lists, log.New(io.Discard))
	defer s.Close()
	waitCards(t, s, func(state OpenBankingState, ready bool) bool { return ready })

	synced := card
	synced.SyncAt = "2025-04-12T09:00:00Z"
	lists.setCards([]models.OpenBankingCard{synced})
	lists.c.Invalidate(query.NewKey("cards", "list"))

	state := waitCards(t, s, func(state OpenBankingState, ready bool) bool {
		return len(state.Cards) == 1 && state.Cards[0].SyncAt != ""
	})
	if state.Cards[0].SyncAt != synced.SyncAt {
		t.Errorf("Expected the refreshed sync timestamp, got %q", state.Cards[0].SyncAt)
	}
}
