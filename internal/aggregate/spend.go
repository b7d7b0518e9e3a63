package aggregate

import (
	"time"

	"fintrack/internal/core"
)

// ComputeSpent sums abs(amount) over the expense transactions that match the
// budget's category and fall inside its interval. An inverted interval yields
// zero; an unparseable one yields a *core.ParseError.
func ComputeSpent(b core.Budget, txs []core.Transaction, loc *time.Location) (core.Money, error) {
	iv, err := NewInterval(b.StartDate, b.EndDate, loc)
	if err != nil {
		return core.Money{}, err
	}
	var spent core.Money
	if iv.Empty() {
		return spent, nil
	}
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		if !MatchesCategory(t.Category, b.Category) {
			continue
		}
		if !iv.Contains(t.Date) {
			continue
		}
		spent = spent.Add(t.Amount.Abs())
	}
	return spent, nil
}
