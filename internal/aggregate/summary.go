package aggregate

import (
	"sort"

	"fintrack/internal/core"
)

// Summary is the dashboard view of a transaction set.
type Summary struct {
	TotalIncome   core.Money
	TotalExpense  core.Money
	Net           core.Money
	TopCategories []core.CategoryAmount
	Recent        []core.Transaction
	// SkippedDates counts transactions left out of Recent for lack of a date.
	SkippedDates int
}

// excludedFromBreakdown are never ranked, even on expense rows.
var excludedFromBreakdown = map[core.Category]bool{
	core.IncomeCategory: true,
	core.Uncategorized:  true,
}

// Summarize totals income and expense, ranks expense categories and picks
// the most recent transactions.
func Summarize(txs []core.Transaction, opts Options) Summary {
	var s Summary
	byCategory := make(map[core.Category]int64)

	for _, t := range txs {
		switch t.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case core.Expense:
			abs := t.Amount.Abs()
			s.TotalExpense = s.TotalExpense.Add(abs)
			if !excludedFromBreakdown[t.Category] {
				byCategory[t.Category] += abs.Cents
			}
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	s.TopCategories = TopCategories(byCategory, opts.TopCategoryLimit)
	s.Recent, s.SkippedDates = RecentTransactions(txs, opts.RecentTransactionLimit)
	return s
}

// TopCategories orders totals descending, ties by name ascending, and keeps
// at most limit entries. A non-positive limit keeps none.
func TopCategories(totals map[core.Category]int64, limit int) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(totals))
	for cat, cents := range totals {
		out = append(out, core.CategoryAmount{Name: string(cat), Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RecentTransactions returns up to limit transactions, newest first, ties by
// ID. Transactions without a date are skipped and counted.
func RecentTransactions(txs []core.Transaction, limit int) ([]core.Transaction, int) {
	dated := make([]core.Transaction, 0, len(txs))
	skipped := 0
	for _, t := range txs {
		if t.Date.IsZero() {
			skipped++
			continue
		}
		dated = append(dated, t)
	}
	sort.Slice(dated, func(i, j int) bool {
		if !dated[i].Date.Equal(dated[j].Date) {
			return dated[i].Date.After(dated[j].Date)
		}
		return dated[i].ID < dated[j].ID
	})
	if limit < 0 {
		limit = 0
	}
	if len(dated) > limit {
		dated = dated[:limit]
	}
	return dated, skipped
}

// DashboardBudgets returns the first limit views in their given order.
func DashboardBudgets(views []BudgetView, limit int) []BudgetView {
	if limit < 0 {
		limit = 0
	}
	if len(views) > limit {
		return views[:limit:limit]
	}
	return views
}
