package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/haneul-dev/budgetbook/pkg/csv"
	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/store"
)

var cliFilters listFilters

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions for a month",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		txType, _ := cmd.Flags().GetString("type")
		asCSV, _ := cmd.Flags().GetBool("csv")
		if limit <= 0 {
			limit = app.cfg.PageLimit
		}

		// Type/category filters bypass the view-state store: the store only
		// tracks the month/page selection, same as the budget view.
		if txType != "" || cliFilters.category != "" {
			filters := models.TransactionFilters{
				Year:     year,
				Month:    month,
				Type:     models.TransactionType(txType),
				Category: cliFilters.category,
				Page:     page,
				Limit:    limit,
			}
			result, err := app.transactions.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			if debug {
				pp.Println(result)
			}
			return renderPage(result.Items, result.Page, result.TotalPages, result.TotalCount, asCSV)
		}

		st := store.NewBudgetStore(app.transactions, limit, app.logger)
		defer st.Close()

		if year != 0 || month != 0 {
			selected := st.Snapshot().SelectedDate
			if month != 0 {
				selected.Month = month
			}
			if year != 0 {
				selected.Year = year
			}
			// Two dispatches: a single action applies month over year.
			st.ChangeDate(models.DateRange{Year: st.Snapshot().SelectedDate.Year, Month: selected.Month})
			st.ChangeDate(selected)
		}
		if page > 1 {
			st.ChangePage(page)
		}

		deadline := time.Now().Add(app.waitTimeout())
		for {
			if err := waitUpdate(st.Updates(), time.Until(deadline)); err != nil {
				return err
			}
			snap := st.Snapshot()
			if snap.Err != nil {
				return snap.Err
			}
			if !snap.Ready {
				continue
			}
			if debug {
				pp.Println(snap)
			}
			return renderPage(snap.Transactions, snap.CurrentPage, snap.TotalPages, snap.TotalCount, asCSV)
		}
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new transaction",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		txType, _ := cmd.Flags().GetString("type")
		amountStr, _ := cmd.Flags().GetString("amount")
		category, _ := cmd.Flags().GetString("category")
		description, _ := cmd.Flags().GetString("description")
		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			date = time.Now().Format(models.DateLayout)
		}

		req, err := buildCreateRequest(txType, amountStr, category, description, date)
		if err != nil {
			return err
		}

		tx, err := app.transactions.Create(cmd.Context(), req)
		if err != nil {
			return err
		}
		app.logger.Info("transaction recorded", "id", tx.ID, "amount", tx.Amount, "category", tx.Category)
		if debug {
			pp.Println(tx)
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a manually entered transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		current, err := findTransaction(cmd.Context(), app, args[0], year, month)
		if err != nil {
			return err
		}
		if current.FromCard() {
			return fmt.Errorf("transaction %s was synchronized from card %s and is read-only; delete it instead", current.ID, current.CardNo)
		}

		req := models.UpdateTransactionRequest{
			ID:          current.ID,
			Type:        current.Type,
			Amount:      current.Amount,
			Category:    current.Category,
			Description: current.Description,
			Date:        current.Date,
		}
		if v, _ := cmd.Flags().GetString("type"); v != "" {
			req.Type = models.TransactionType(v)
		}
		if v, _ := cmd.Flags().GetString("amount"); v != "" {
			amount, err := parseAmount(v)
			if err != nil {
				return err
			}
			req.Amount = amount
		}
		if v, _ := cmd.Flags().GetString("category"); v != "" {
			req.Category = v
		}
		if cmd.Flags().Changed("description") {
			req.Description, _ = cmd.Flags().GetString("description")
		}
		if v, _ := cmd.Flags().GetString("date"); v != "" {
			if _, err := time.Parse(models.DateLayout, v); err != nil {
				return fmt.Errorf("date must be in %s form: %w", models.DateLayout, err)
			}
			req.Date = v
		}
		if err := validateType(req.Type); err != nil {
			return err
		}

		updated, err := app.transactions.Update(cmd.Context(), req)
		if err != nil {
			return err
		}
		app.logger.Info("transaction updated", "id", updated.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		current, err := findTransaction(cmd.Context(), app, args[0], year, month)
		if err != nil {
			return err
		}

		// Card-sourced rows carry the card reference so the backend scopes
		// the deletion to the originating card.
		req := models.DeleteTransactionRequest{ID: current.ID, CardNo: current.CardNo}
		if err := app.transactions.Delete(cmd.Context(), req); err != nil {
			return err
		}
		app.logger.Info("transaction deleted", "id", current.ID)
		return nil
	},
}

var deleteAllCmd = &cobra.Command{
	Use:   "delete-all <id>...",
	Short: "Delete several transactions in one call",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		req := models.DeleteAllTransactionsRequest{IDs: args}
		if err := app.transactions.DeleteAll(cmd.Context(), req); err != nil {
			return err
		}
		app.logger.Info("transactions deleted", "count", len(args))
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull new transactions from linked accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		ingested, err := app.transactions.Sync(cmd.Context())
		if err != nil {
			return err
		}
		if len(ingested) == 0 {
			fmt.Println("Already up to date")
			return nil
		}
		return renderPage(ingested, 1, 1, len(ingested), false)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, editCmd, deleteCmd} {
		cmd.Flags().Int("year", 0, "Year filter (default: current)")
		cmd.Flags().Int("month", 0, "Month filter, 1-12 (default: current)")
	}
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("limit", 0, "Items per page (default from config)")
	listCmd.Flags().String("type", "", "Filter by type (income|expense)")
	listCmd.Flags().Bool("csv", false, "Print as CSV")
	listCmd.Flags().StringVar(&cliFilters.category, "category", "", "Filter by category")
	listCmd.Flags().Int64Var(&cliFilters.minAmount, "min", 0, "Minimum amount")
	listCmd.Flags().Int64Var(&cliFilters.maxAmount, "max", 0, "Maximum amount")

	for _, cmd := range []*cobra.Command{addCmd, editCmd} {
		cmd.Flags().String("type", "", "Transaction type (income|expense)")
		cmd.Flags().String("amount", "", "Amount as a whole number")
		cmd.Flags().String("category", "", "Category label")
		cmd.Flags().String("description", "", "Free-text description")
		cmd.Flags().String("date", "", "Date (YYYY-MM-DD)")
	}
}

// buildCreateRequest applies the client-side validation rules before any
// network call: required category, numeric non-negative amount, well-formed
// date, known type.
func buildCreateRequest(txType, amountStr, category, description, date string) (models.CreateTransactionRequest, error) {
	var req models.CreateTransactionRequest

	if txType == "" {
		txType = string(models.TypeExpense)
	}
	kind := models.TransactionType(txType)
	if err := validateType(kind); err != nil {
		return req, err
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return req, err
	}
	if category == "" {
		return req, fmt.Errorf("category is required")
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return req, fmt.Errorf("date must be in %s form: %w", models.DateLayout, err)
	}

	return models.CreateTransactionRequest{
		Type:        kind,
		Amount:      amount,
		Category:    category,
		Description: description,
		Date:        date,
	}, nil
}

func validateType(kind models.TransactionType) error {
	if kind != models.TypeIncome && kind != models.TypeExpense {
		return fmt.Errorf("type must be %q or %q", models.TypeIncome, models.TypeExpense)
	}
	return nil
}

func parseAmount(amountStr string) (int64, error) {
	if amountStr == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be a whole number: %q", amountStr)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// findTransaction pages through the selected month until it finds id,
// seeding the detail cache with every row it sees on the way.
func findTransaction(ctx context.Context, app *app, id string, year, month int) (models.Transaction, error) {
	selected := models.CurrentDateRange()
	if year != 0 {
		selected.Year = year
	}
	if month != 0 {
		selected.Month = month
	}

	filters := models.TransactionFilters{
		Year:  selected.Year,
		Month: selected.Month,
		Limit: app.cfg.PageLimit,
	}
	for page := 1; ; page++ {
		filters.Page = page
		result, err := app.transactions.List(ctx, filters)
		if err != nil {
			return models.Transaction{}, err
		}
		for _, tx := range result.Items {
			app.transactions.SetDetail(tx)
			if tx.ID == id {
				return tx, nil
			}
		}
		if !result.HasNext {
			return models.Transaction{}, fmt.Errorf("transaction %s not found in %d-%02d", id, selected.Year, selected.Month)
		}
	}
}

func renderPage(txs []models.Transaction, page, totalPages, totalCount int, asCSV bool) error {
	if asCSV {
		fmt.Print(string(csv.Create(txs, cliFilters.toFilterFunc())))
		return nil
	}
	renderTransactions(txs, page, totalPages, totalCount)
	return nil
}
