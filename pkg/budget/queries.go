package budget

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/query"
)

// Cache key hierarchy for the transactions resource. Mutations invalidate
// the whole list group rather than single filter keys: the filter space
// (month, type, category, page) is large and a narrow invalidation would
// miss filtered views that also need the changed data.
var transactionsKey = query.NewKey("transactions")

func ListsKey() query.Key {
	return transactionsKey.Child("list")
}

func ListKey(filters models.TransactionFilters) query.Key {
	return ListsKey().Child(filters.CacheKey())
}

func DetailsKey() query.Key {
	return transactionsKey.Child("detail")
}

func DetailKey(id string) query.Key {
	return DetailsKey().Child(id)
}

// Queries wires the transaction service into the cache with the optimistic
// mutation protocol attached to every write.
type Queries struct {
	cache  *query.Client
	svc    *Service
	logger *log.Logger

	create    *query.Mutation[models.CreateTransactionRequest, models.Transaction]
	update    *query.Mutation[models.UpdateTransactionRequest, models.Transaction]
	deleteOne *query.Mutation[models.DeleteTransactionRequest, struct{}]
	deleteAll *query.Mutation[models.DeleteAllTransactionsRequest, struct{}]
	syncAll   *query.Mutation[struct{}, []models.Transaction]
}

func NewQueries(cache *query.Client, svc *Service, logger *log.Logger) *Queries {
	q := &Queries{cache: cache, svc: svc, logger: logger}

	q.create = query.NewMutation(
		func(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
			return svc.Create(ctx, req)
		},
		query.Hooks[models.CreateTransactionRequest, models.Transaction]{
			OnSuccess: func(_ context.Context, _ models.CreateTransactionRequest, _ models.Transaction) {
				cache.Invalidate(ListsKey())
			},
			OnError: func(_ context.Context, _ models.CreateTransactionRequest, err error) {
				logger.Error("failed to create transaction", "err", err)
			},
		},
	)

	q.update = query.NewMutation(
		func(ctx context.Context, req models.UpdateTransactionRequest) (models.Transaction, error) {
			return svc.Update(ctx, req)
		},
		query.Hooks[models.UpdateTransactionRequest, models.Transaction]{
			OnMutate: q.onUpdateMutate,
			OnError: func(_ context.Context, req models.UpdateTransactionRequest, err error) {
				logger.Error("failed to update transaction", "id", req.ID, "err", err)
			},
			OnSettled: func(_ context.Context, req models.UpdateTransactionRequest) {
				cache.Invalidate(DetailKey(req.ID))
				cache.Invalidate(ListsKey())
			},
		},
	)

	q.deleteOne = query.NewMutation(
		func(ctx context.Context, req models.DeleteTransactionRequest) (struct{}, error) {
			return struct{}{}, svc.Delete(ctx, req)
		},
		query.Hooks[models.DeleteTransactionRequest, struct{}]{
			OnMutate: func(_ context.Context, req models.DeleteTransactionRequest) (query.Rollback, error) {
				return q.removeDetail(req.ID), nil
			},
			OnSuccess: func(_ context.Context, _ models.DeleteTransactionRequest, _ struct{}) {
				cache.Invalidate(ListsKey())
			},
			OnError: func(_ context.Context, req models.DeleteTransactionRequest, err error) {
				logger.Error("failed to delete transaction", "id", req.ID, "err", err)
			},
		},
	)

	q.deleteAll = query.NewMutation(
		func(ctx context.Context, req models.DeleteAllTransactionsRequest) (struct{}, error) {
			return struct{}{}, svc.DeleteAll(ctx, req)
		},
		query.Hooks[models.DeleteAllTransactionsRequest, struct{}]{
			OnMutate: func(_ context.Context, req models.DeleteAllTransactionsRequest) (query.Rollback, error) {
				rollbacks := make([]query.Rollback, 0, len(req.IDs))
				for _, id := range req.IDs {
					rollbacks = append(rollbacks, q.removeDetail(id))
				}
				return func() {
					for _, rb := range rollbacks {
						rb()
					}
				}, nil
			},
			OnSuccess: func(_ context.Context, _ models.DeleteAllTransactionsRequest, _ struct{}) {
				cache.Invalidate(ListsKey())
			},
			OnError: func(_ context.Context, req models.DeleteAllTransactionsRequest, err error) {
				logger.Error("failed to delete transactions", "count", len(req.IDs), "err", err)
			},
		},
	)

	q.syncAll = query.NewMutation(
		func(ctx context.Context, _ struct{}) ([]models.Transaction, error) {
			return svc.Sync(ctx)
		},
		query.Hooks[struct{}, []models.Transaction]{
			OnSuccess: func(_ context.Context, _ struct{}, ingested []models.Transaction) {
				logger.Info("synchronized transactions from linked accounts", "ingested", len(ingested))
				cache.Invalidate(ListsKey())
			},
			OnError: func(_ context.Context, _ struct{}, err error) {
				logger.Error("failed to sync transactions", "err", err)
			},
		},
	)

	return q
}

// onUpdateMutate is the optimistic phase for updates: cancel in-flight
// fetches for the affected keys so a slow stale read cannot overwrite the
// speculative write, snapshot the current detail value, then merge the new
// payload into it.
func (q *Queries) onUpdateMutate(_ context.Context, req models.UpdateTransactionRequest) (query.Rollback, error) {
	key := DetailKey(req.ID)
	q.cache.CancelQueries(key)
	q.cache.CancelQueries(ListsKey())

	previous, had := query.Data[models.Transaction](q.cache, key)
	if had {
		updated := previous
		updated.Type = req.Type
		updated.Amount = req.Amount
		updated.Category = req.Category
		updated.Description = req.Description
		updated.Date = req.Date
		q.cache.Set(key, updated)
	}

	return func() {
		if had {
			q.cache.Set(key, previous)
		}
	}, nil
}

// removeDetail is the optimistic phase for delete-class operations: snapshot
// the detail entry, cancel its fetches, and drop it so stale reads cannot
// surface a row the server no longer has. The returned rollback restores the
// snapshot verbatim.
func (q *Queries) removeDetail(id string) query.Rollback {
	key := DetailKey(id)
	q.cache.CancelQueries(key)

	previous, had := query.Data[models.Transaction](q.cache, key)
	q.cache.Remove(key)

	return func() {
		if had {
			q.cache.Set(key, previous)
		}
	}
}

// List fetches one page through the cache.
func (q *Queries) List(ctx context.Context, filters models.TransactionFilters) (models.Page[models.Transaction], error) {
	return query.Fetch(ctx, q.cache, ListKey(filters), func(ctx context.Context) (models.Page[models.Transaction], error) {
		return q.svc.Retrieve(ctx, filters)
	})
}

// WatchList observes the page addressed by filters; pair with Rewatch when
// the selection changes.
func (q *Queries) WatchList(filters models.TransactionFilters) *query.Watcher[models.Page[models.Transaction]] {
	return query.Watch(q.cache, ListKey(filters), q.listFetch(filters))
}

// Rewatch points an existing list watcher at a new filter set, keeping the
// previous page's data visible until the new page resolves.
func (q *Queries) Rewatch(w *query.Watcher[models.Page[models.Transaction]], filters models.TransactionFilters) {
	w.SetKey(ListKey(filters), q.listFetch(filters))
}

func (q *Queries) listFetch(filters models.TransactionFilters) query.FetchFunc[models.Page[models.Transaction]] {
	return func(ctx context.Context) (models.Page[models.Transaction], error) {
		return q.svc.Retrieve(ctx, filters)
	}
}

// Detail returns the cached detail entry for id, if present.
func (q *Queries) Detail(id string) (models.Transaction, bool) {
	return query.Data[models.Transaction](q.cache, DetailKey(id))
}

// SetDetail caches a detail entry; list consumers use it to seed details for
// rows they have already fetched.
func (q *Queries) SetDetail(tx models.Transaction) {
	q.cache.Set(DetailKey(tx.ID), tx)
}

func (q *Queries) Create(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
	return q.create.Mutate(ctx, req)
}

func (q *Queries) Update(ctx context.Context, req models.UpdateTransactionRequest) (models.Transaction, error) {
	return q.update.Mutate(ctx, req)
}

func (q *Queries) Delete(ctx context.Context, req models.DeleteTransactionRequest) error {
	_, err := q.deleteOne.Mutate(ctx, req)
	return err
}

func (q *Queries) DeleteAll(ctx context.Context, req models.DeleteAllTransactionsRequest) error {
	_, err := q.deleteAll.Mutate(ctx, req)
	return err
}

func (q *Queries) Sync(ctx context.Context) ([]models.Transaction, error) {
	return q.syncAll.Mutate(ctx, struct{}{})
}
