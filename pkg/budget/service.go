package budget

import (
	"context"

	"github.com/haneul-dev/budgetbook/pkg/api"
	"github.com/haneul-dev/budgetbook/pkg/models"
)

const (
	pathTransactions = "/budget/transactions"
	pathDelete       = "/budget/transactions/delete"
	pathDeleteAll    = "/budget/transactions/delete-all"
	pathSync         = "/budget/transactions/sync"
)

// Service shapes transaction requests over the gateway. It adds no error
// translation: gateway failures propagate unchanged.
type Service struct {
	api *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

// Retrieve fetches one page of transactions. The server ANDs together
// whatever filters are provided.
func (s *Service) Retrieve(ctx context.Context, filters models.TransactionFilters) (models.Page[models.Transaction], error) {
	var page models.Page[models.Transaction]
	err := s.api.Get(ctx, pathTransactions, filters.Values(), &page)
	return page, err
}

// Create records a new transaction; the server assigns its id.
func (s *Service) Create(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
	var tx models.Transaction
	err := s.api.Post(ctx, pathTransactions, req, &tx)
	return tx, err
}

// Update replaces a transaction wholesale. Idempotent.
func (s *Service) Update(ctx context.Context, req models.UpdateTransactionRequest) (models.Transaction, error) {
	var tx models.Transaction
	err := s.api.Put(ctx, pathTransactions, req, &tx)
	return tx, err
}

// Delete removes one transaction. Card-sourced entries carry their card
// reference so the backend can scope the deletion.
func (s *Service) Delete(ctx context.Context, req models.DeleteTransactionRequest) error {
	return s.api.Post(ctx, pathDelete, req, nil)
}

// DeleteAll removes an explicit id set.
func (s *Service) DeleteAll(ctx context.Context, req models.DeleteAllTransactionsRequest) error {
	return s.api.Post(ctx, pathDeleteAll, req, nil)
}

// Sync triggers a server-side pull from linked accounts and returns the
// newly ingested transactions.
func (s *Service) Sync(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.api.Post(ctx, pathSync, nil, &txs)
	return txs, err
}
