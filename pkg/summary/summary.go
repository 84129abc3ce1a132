package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/haneul-dev/budgetbook/pkg/models"
)

// CategoryTotal is one category's share of a month.
type CategoryTotal struct {
	Category string
	Type     models.TransactionType
	Total    decimal.Decimal
	// Share is the percentage of the type's total (income shares sum to
	// 100 across income categories, likewise expenses), rounded to two
	// decimal places.
	Share decimal.Decimal
}

// Summary aggregates a transaction list into the numbers the budget view
// presents: income and expense totals, their balance, and per-category
// breakdowns.
type Summary struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	Categories []CategoryTotal
}

var hundred = decimal.NewFromInt(100)

// Build computes the summary for txs. Amounts are minor-unit-free integers
// on the wire; decimals are used for the share arithmetic only.
func Build(txs []models.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	byCategory := make(map[string]*CategoryTotal)

	for _, tx := range txs {
		amount := decimal.NewFromInt(tx.Amount)
		switch tx.Type {
		case models.TypeIncome:
			income = income.Add(amount)
		case models.TypeExpense:
			expense = expense.Add(amount)
		default:
			continue
		}

		key := string(tx.Type) + "/" + tx.Category
		ct, ok := byCategory[key]
		if !ok {
			ct = &CategoryTotal{Category: tx.Category, Type: tx.Type}
			byCategory[key] = ct
		}
		ct.Total = ct.Total.Add(amount)
	}

	categories := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		base := expense
		if ct.Type == models.TypeIncome {
			base = income
		}
		if base.IsPositive() {
			ct.Share = ct.Total.Mul(hundred).DivRound(base, 2)
		}
		categories = append(categories, *ct)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Type != categories[j].Type {
			return categories[i].Type < categories[j].Type
		}
		return categories[i].Total.GreaterThan(categories[j].Total)
	})

	return Summary{
		Income:     income,
		Expense:    expense,
		Balance:    income.Sub(expense),
		Categories: categories,
	}
}
