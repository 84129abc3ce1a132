package store

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/query"
)

// CardLists is the slice of the query layer the open-banking store needs.
// *openbanking.Queries satisfies it.
type CardLists interface {
	WatchCards() *query.Watcher[models.Page[models.OpenBankingCard]]
}

// OpenBankingState mirrors the fetched card list.
type OpenBankingState struct {
	Cards []models.OpenBankingCard
}

func reduceOpenBanking(state OpenBankingState, action Action) OpenBankingState {
	switch action := action.(type) {
	case SelectCards:
		state.Cards = action.Cards
		return state
	default:
		return state
	}
}

// OpenBankingStore mirrors the card list query into reducer state, gated by
// deep equality like the budget store. Cards carry no selection state: the
// list query is unparameterized.
type OpenBankingStore struct {
	mu      sync.Mutex
	state   OpenBankingState
	ready   bool
	lastErr error

	watcher *query.Watcher[models.Page[models.OpenBankingCard]]
	logger  *log.Logger

	updates chan struct{}
	done    chan struct{}
}

func NewOpenBankingStore(lists CardLists, logger *log.Logger) *OpenBankingStore {
	s := &OpenBankingStore{
		watcher: lists.WatchCards(),
		logger:  logger,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *OpenBankingStore) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns the mirrored cards, whether a first result has arrived,
// and the last background error, if any.
func (s *OpenBankingStore) Snapshot() (OpenBankingState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards := make([]models.OpenBankingCard, len(s.state.Cards))
	copy(cards, s.state.Cards)
	return OpenBankingState{Cards: cards}, s.ready, s.lastErr
}

func (s *OpenBankingStore) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	s.watcher.Close()
}

func (s *OpenBankingStore) loop() {
	for {
		select {
		case <-s.done:
			return
		case res := <-s.watcher.Results():
			if res.Err != nil {
				s.mu.Lock()
				s.lastErr = res.Err
				s.mu.Unlock()
				s.notify()
				continue
			}
			if res.Loading {
				continue
			}
			s.reconcile(res.Data.Items)
		}
	}
}

func (s *OpenBankingStore) reconcile(cards []models.OpenBankingCard) {
	s.mu.Lock()
	first := !s.ready
	s.ready = true
	s.lastErr = nil
	if !first && cmp.Equal(s.state.Cards, cards) {
		s.mu.Unlock()
		return
	}
	s.state = reduceOpenBanking(s.state, SelectCards{Cards: cards})
	s.logger.Debug("reconciled card mirror", "cards", len(cards))
	s.mu.Unlock()
	s.notify()
}

func (s *OpenBankingStore) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
