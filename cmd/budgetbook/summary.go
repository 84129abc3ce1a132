package main

import (
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/summary"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, expense, and per-category breakdown for a month",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		selected := models.CurrentDateRange()
		if year, _ := cmd.Flags().GetInt("year"); year != 0 {
			selected.Year = year
		}
		if month, _ := cmd.Flags().GetInt("month"); month != 0 {
			selected.Month = month
		}

		filters := models.TransactionFilters{
			Year:  selected.Year,
			Month: selected.Month,
			Limit: app.cfg.PageLimit,
		}
		var all []models.Transaction
		for page := 1; ; page++ {
			filters.Page = page
			result, err := app.transactions.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			all = append(all, result.Items...)
			if !result.HasNext {
				break
			}
		}

		sum := summary.Build(all)
		if debug {
			pp.Println(sum)
		}
		renderSummary(selected, sum)
		return nil
	},
}

func init() {
	summaryCmd.Flags().Int("year", 0, "Year (default: current)")
	summaryCmd.Flags().Int("month", 0, "Month, 1-12 (default: current)")
}
