package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/summary"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
)

func renderTransactions(txs []models.Transaction, page, totalPages, totalCount int) {
	if len(txs) == 0 {
		fmt.Println(mutedStyle.Render("No transactions"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s | %-7s | %-16s | %-30s | %12s | %s",
		"Date", "Type", "Category", "Description", "Amount", "Source")))
	for _, tx := range txs {
		source := "manual"
		if tx.FromCard() {
			source = tx.CardCompany + " " + tx.CardNo
		}
		line := fmt.Sprintf("%-10s | %-7s | %-16s | %-30s | %12s | %s",
			tx.Date, tx.Type, clip(tx.Category, 16), clip(tx.Description, 30), formatAmount(tx.Amount), source)
		switch tx.Type {
		case models.TypeIncome:
			fmt.Println(incomeStyle.Render("+ " + line))
		default:
			fmt.Println(expenseStyle.Render("- " + line))
		}
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("page %d/%d · %d transactions", page, totalPages, totalCount)))
}

func renderCards(cards []models.OpenBankingCard) {
	if len(cards) == 0 {
		fmt.Println(mutedStyle.Render("No linked cards"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-20s | %-16s | %-12s | %s",
		"Card", "Number", "Company", "Last sync")))
	for _, card := range cards {
		syncAt := card.SyncAt
		if syncAt == "" {
			syncAt = "never"
		}
		fmt.Printf("%-20s | %-16s | %-12s | %s\n", clip(card.Name, 20), card.No, card.Company, syncAt)
	}
}

func renderSummary(date models.DateRange, sum summary.Summary) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("%d-%02d", date.Year, date.Month)))
	fmt.Println(incomeStyle.Render(fmt.Sprintf("  income  %12s", sum.Income.String())))
	fmt.Println(expenseStyle.Render(fmt.Sprintf("  expense %12s", sum.Expense.String())))
	fmt.Printf("  balance %12s\n", sum.Balance.String())

	if len(sum.Categories) == 0 {
		return
	}
	fmt.Println()
	for _, ct := range sum.Categories {
		line := fmt.Sprintf("%-7s | %-16s | %12s | %6s%%", ct.Type, clip(ct.Category, 16), ct.Total.String(), ct.Share.String())
		if ct.Type == models.TypeIncome {
			fmt.Println(incomeStyle.Render(line))
			continue
		}
		fmt.Println(expenseStyle.Render(line))
	}
}

// formatAmount groups digits by thousands, e.g. 1234567 -> "1,234,567".
func formatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
