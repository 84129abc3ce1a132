package openbanking

import (
	"context"

	"github.com/haneul-dev/budgetbook/pkg/api"
	"github.com/haneul-dev/budgetbook/pkg/models"
)

const pathCards = "/budget/open-banking/cards"

// Service shapes card requests over the gateway. Cards are sourced entirely
// from the external aggregator; this client never creates or edits them.
type Service struct {
	api *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

// Retrieve fetches the linked card list.
func (s *Service) Retrieve(ctx context.Context) (models.Page[models.OpenBankingCard], error) {
	var page models.Page[models.OpenBankingCard]
	err := s.api.Get(ctx, pathCards, nil, &page)
	return page, err
}

// SyncHistory asks the server to ingest usage history for the selected
// cards; new transactions materialize server-side.
func (s *Service) SyncHistory(ctx context.Context, req models.SyncCardHistoryRequest) error {
	return s.api.Post(ctx, pathCards, req, nil)
}
