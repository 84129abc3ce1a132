package store

import "github.com/haneul-dev/budgetbook/pkg/models"

// Action is the tagged union of state transitions. Reducers are pure, total
// functions of (state, action); dispatching an action the reducer does not
// know returns the state unchanged.
type Action interface {
	isAction()
}

// ChangeDate moves the selected year-month window. When both fields differ
// from the current selection in the same action, only the month change is
// applied: the month change masks the year change. This branching priority
// is pinned by tests; do not "fix" it without a product decision.
type ChangeDate struct {
	Date models.DateRange
}

// ChangePage replaces the current page number.
type ChangePage struct {
	Page int
}

// SelectTransactions replaces the mirrored transaction list wholesale. Only
// dispatched after the incoming id-sorted list has been found deep-unequal
// to the current one.
type SelectTransactions struct {
	Transactions []models.Transaction
}

// SelectCards replaces the mirrored card list wholesale.
type SelectCards struct {
	Cards []models.OpenBankingCard
}

func (ChangeDate) isAction()         {}
func (ChangePage) isAction()         {}
func (SelectTransactions) isAction() {}
func (SelectCards) isAction()        {}
