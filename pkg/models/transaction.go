package models

import "time"

// TransactionType distinguishes money coming in from money going out.
// TypeAll is only valid as a filter value, never on a stored transaction.
type TransactionType string

const (
	TypeAll     TransactionType = "all"
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense entry. The server assigns ID on
// creation and it never changes. CardCompany/CardNo are set only on entries
// ingested from a synchronized card; manual entries leave them empty.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CardCompany string          `json:"cardCompany,omitempty"`
	CardNo      string          `json:"cardNo,omitempty"`
}

// FromCard reports whether the transaction originates from a synchronized
// card. Card-sourced entries are read-only for edits; they may still be
// deleted together with their card reference.
func (t Transaction) FromCard() bool {
	return t.CardNo != ""
}

// CreateTransactionRequest is the client-chosen payload for a new entry.
// The server assigns the ID.
type CreateTransactionRequest struct {
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// UpdateTransactionRequest replaces a transaction wholesale. PUT semantics,
// so repeating the same request is idempotent.
type UpdateTransactionRequest struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// DeleteTransactionRequest identifies one transaction to remove. CardNo must
// accompany card-sourced entries so the backend can scope the deletion to the
// originating card.
type DeleteTransactionRequest struct {
	ID     string `json:"id"`
	CardNo string `json:"cardNo,omitempty"`
}

// DeleteAllTransactionsRequest removes an explicit id set in one call.
type DeleteAllTransactionsRequest struct {
	IDs []string `json:"ids"`
}

// DateRange is the active year-month filter window.
type DateRange struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// CurrentDateRange returns the range for the current calendar month, the
// default selection at session start.
func CurrentDateRange() DateRange {
	now := time.Now()
	return DateRange{Year: now.Year(), Month: int(now.Month())}
}
