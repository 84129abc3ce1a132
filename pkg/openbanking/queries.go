package openbanking

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/haneul-dev/budgetbook/pkg/budget"
	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/query"
)

var cardsKey = query.NewKey("cards")

func ListsKey() query.Key {
	return cardsKey.Child("list")
}

// Queries wires the card service into the cache.
type Queries struct {
	cache  *query.Client
	svc    *Service
	logger *log.Logger

	syncHistory *query.Mutation[models.SyncCardHistoryRequest, struct{}]
}

func NewQueries(cache *query.Client, svc *Service, logger *log.Logger) *Queries {
	q := &Queries{cache: cache, svc: svc, logger: logger}

	q.syncHistory = query.NewMutation(
		func(ctx context.Context, req models.SyncCardHistoryRequest) (struct{}, error) {
			return struct{}{}, svc.SyncHistory(ctx, req)
		},
		query.Hooks[models.SyncCardHistoryRequest, struct{}]{
			OnSuccess: func(_ context.Context, req models.SyncCardHistoryRequest, _ struct{}) {
				logger.Info("card history synchronized", "cards", len(req.NoList))
				// A successful sync materializes new transactions
				// server-side, so the transactions list group goes stale
				// along with the cards themselves.
				cache.Invalidate(ListsKey())
				cache.Invalidate(budget.ListsKey())
			},
			OnError: func(_ context.Context, req models.SyncCardHistoryRequest, err error) {
				logger.Error("failed to sync card history", "cards", len(req.NoList), "err", err)
			},
		},
	)

	return q
}

// Cards fetches the card list through the cache.
func (q *Queries) Cards(ctx context.Context) (models.Page[models.OpenBankingCard], error) {
	return query.Fetch(ctx, q.cache, ListsKey(), q.cardsFetch())
}

// WatchCards observes the card list.
func (q *Queries) WatchCards() *query.Watcher[models.Page[models.OpenBankingCard]] {
	return query.Watch(q.cache, ListsKey(), q.cardsFetch())
}

func (q *Queries) cardsFetch() query.FetchFunc[models.Page[models.OpenBankingCard]] {
	return func(ctx context.Context) (models.Page[models.OpenBankingCard], error) {
		return q.svc.Retrieve(ctx)
	}
}

func (q *Queries) SyncHistory(ctx context.Context, req models.SyncCardHistoryRequest) error {
	_, err := q.syncHistory.Mutate(ctx, req)
	return err
}
