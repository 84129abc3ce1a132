package main

import (
	"strings"

	"github.com/haneul-dev/budgetbook/pkg/csv"
	"github.com/haneul-dev/budgetbook/pkg/models"
)

type listFilters struct {
	minAmount int64
	maxAmount int64
	category  string
}

func (f *listFilters) toFilterFunc() csv.FilterFunc[models.Transaction] {
	return func(t models.Transaction) bool {
		if f.minAmount != 0 && t.Amount < f.minAmount {
			return false
		}
		if f.maxAmount != 0 && t.Amount > f.maxAmount {
			return false
		}
		if f.category != "" && !strings.EqualFold(t.Category, f.category) {
			return false
		}
		return true
	}
}
