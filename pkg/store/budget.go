package store

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/query"
)

// TransactionLists is the slice of the query layer the budget store needs.
// *budget.Queries satisfies it.
type TransactionLists interface {
	WatchList(models.TransactionFilters) *query.Watcher[models.Page[models.Transaction]]
	Rewatch(*query.Watcher[models.Page[models.Transaction]], models.TransactionFilters)
}

// BudgetState is the reducer-owned view state: the active selection plus a
// mirror of the latest fetched page.
type BudgetState struct {
	SelectedDate models.DateRange
	CurrentPage  int
	Transactions []models.Transaction
}

// BudgetSnapshot is what consumers render. TotalCount and TotalPages are
// derived, read-only projections of the most recent list-query result; no
// action can set them, and they default to 1 before the first result.
type BudgetSnapshot struct {
	BudgetState
	TotalCount int
	TotalPages int
	// Ready is false until the first list result has been reconciled.
	Ready bool
	Err   error
}

// reduceBudget is the pure transition function for the budget context.
func reduceBudget(state BudgetState, action Action) BudgetState {
	switch action := action.(type) {
	case ChangeDate:
		// Month change masks year change within the same action. Any
		// effective date change invalidates the page back to 1.
		if state.SelectedDate.Month != action.Date.Month {
			state.SelectedDate.Month = action.Date.Month
			state.CurrentPage = 1
			return state
		}
		if state.SelectedDate.Year != action.Date.Year {
			state.SelectedDate.Year = action.Date.Year
			state.CurrentPage = 1
			return state
		}
		return state
	case ChangePage:
		state.CurrentPage = action.Page
		return state
	case SelectTransactions:
		state.Transactions = action.Transactions
		return state
	default:
		return state
	}
}

// BudgetStore couples the reducer to the query layer: selection changes
// re-issue the list query, and query results are reconciled back into the
// mirror through a deep-equality gate. The gate is what keeps the
// bidirectional coupling (state drives query params, query result drives
// state) from looping.
type BudgetStore struct {
	mu       sync.Mutex
	state    BudgetState
	lastPage models.Page[models.Transaction]
	hasPage  bool
	lastErr  error

	lists   TransactionLists
	watcher *query.Watcher[models.Page[models.Transaction]]
	limit   int
	logger  *log.Logger

	updates chan struct{}
	done    chan struct{}
}

// NewBudgetStore starts watching the current calendar month, page 1.
func NewBudgetStore(lists TransactionLists, limit int, logger *log.Logger) *BudgetStore {
	s := &BudgetStore{
		state: BudgetState{
			SelectedDate: models.CurrentDateRange(),
			CurrentPage:  1,
		},
		lists:   lists,
		limit:   limit,
		logger:  logger,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.watcher = lists.WatchList(s.filtersLocked())
	go s.loop()
	return s
}

// Updates signals after each accepted state change, latest-wins.
func (s *BudgetStore) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns the current view state with derived totals.
func (s *BudgetStore) Snapshot() BudgetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := BudgetSnapshot{
		BudgetState: s.state,
		TotalCount:  1,
		TotalPages:  1,
		Ready:       s.hasPage,
		Err:         s.lastErr,
	}
	if s.hasPage {
		snap.TotalCount = s.lastPage.TotalCount
		snap.TotalPages = s.lastPage.TotalPages
	}
	snap.Transactions = make([]models.Transaction, len(s.state.Transactions))
	copy(snap.Transactions, s.state.Transactions)
	return snap
}

// ChangeDate dispatches a date selection. Re-issues the list query only when
// the reducer actually changed the selection.
func (s *BudgetStore) ChangeDate(date models.DateRange) {
	s.dispatchSelection(ChangeDate{Date: date})
}

// ChangePage dispatches a page selection.
func (s *BudgetStore) ChangePage(page int) {
	s.dispatchSelection(ChangePage{Page: page})
}

// Close stops the reconcile loop and releases the watcher.
func (s *BudgetStore) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	s.watcher.Close()
}

func (s *BudgetStore) dispatchSelection(action Action) {
	s.mu.Lock()
	prev := s.state
	s.state = reduceBudget(s.state, action)
	changed := s.state.SelectedDate != prev.SelectedDate || s.state.CurrentPage != prev.CurrentPage
	filters := s.filtersLocked()
	s.mu.Unlock()

	if !changed {
		return
	}
	s.lists.Rewatch(s.watcher, filters)
	s.notify()
}

func (s *BudgetStore) filtersLocked() models.TransactionFilters {
	return models.TransactionFilters{
		Year:  s.state.SelectedDate.Year,
		Month: s.state.SelectedDate.Month,
		Page:  s.state.CurrentPage,
		Limit: s.limit,
	}
}

func (s *BudgetStore) loop() {
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
			s.reconcile(res.Data)
		}
	}
}

// reconcile publishes a fetched page into the mirror. Both sides are
// canonicalized by id-sort before comparison so a mere reordering never
// causes a state replacement.
func (s *BudgetStore) reconcile(page models.Page[models.Transaction]) {
	s.mu.Lock()
	totalsChanged := !s.hasPage ||
		s.lastPage.TotalCount != page.TotalCount ||
		s.lastPage.TotalPages != page.TotalPages
	s.lastPage = page
	s.hasPage = true
	s.lastErr = nil

	incoming := sortedByID(page.Items)
	current := sortedByID(s.state.Transactions)
	itemsChanged := !cmp.Equal(current, incoming)
	if itemsChanged {
		s.state = reduceBudget(s.state, SelectTransactions{Transactions: incoming})
		s.logger.Debug("reconciled transaction mirror", "items", len(incoming), "total", page.TotalCount)
	}
	s.mu.Unlock()

	if itemsChanged || totalsChanged {
		s.notify()
	}
}

func (s *BudgetStore) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func sortedByID(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	copy(out, txs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
