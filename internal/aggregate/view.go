package aggregate

import "fintrack/internal/core"

// Status describes whether a budget's spend could be computed.
type Status string

const (
	StatusOK            Status = "ok"
	StatusEmptyInterval Status = "empty_interval"
	StatusDateError     Status = "date_error"
)

// Level buckets the consumed share of a budget for display.
type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning" // above 80%
	LevelOver    Level = "over"    // above 100%
)

// PeriodUnavailable is shown in place of a period that cannot be computed.
const PeriodUnavailable = "date error"

// BudgetView is a budget with its freshly computed spend and the values
// derived from it.
type BudgetView struct {
	Budget    core.Budget
	Status    Status
	Warning   string
	Err       error
	Period    string
	Remaining core.Money
	Overspent bool
	Progress  float64 // percent, capped at 100
	Level     Level
}

// ComputeBudgets evaluates every budget against txs. A budget whose dates
// cannot be used is reported in its own view and never affects the others.
// The result preserves the input order.
func ComputeBudgets(budgets []core.Budget, txs []core.Transaction, opts Options) []BudgetView {
	ix := NewSpendIndex(txs, opts.location())
	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		spent, err := ix.Spent(b)
		views = append(views, newBudgetView(b, spent, err, opts))
	}
	return views
}

func newBudgetView(b core.Budget, spent core.Money, err error, opts Options) BudgetView {
	loc := opts.location()
	b.Spent = spent
	v := BudgetView{Budget: b, Status: StatusOK, Level: LevelOK}

	if err != nil {
		v.Status = StatusDateError
		v.Err = err
		v.Warning = err.Error()
		v.Period = PeriodUnavailable
		v.Budget.Spent = core.Money{}
		v.Remaining = b.Amount
		return v
	}

	v.Period = StartOfDay(b.StartDate, loc).Format("Jan 2") + " - " + EndOfDay(b.EndDate, loc).Format("Jan 2, 2006")
	if iv, _ := NewInterval(b.StartDate, b.EndDate, loc); iv.Empty() {
		v.Status = StatusEmptyInterval
		v.Warning = core.ErrEmptyInterval.Error()
	}

	v.Remaining = b.Amount.Sub(spent)
	v.Overspent = spent.Cents > b.Amount.Cents
	if b.Amount.Cents > 0 {
		ratio := float64(spent.Cents) / float64(b.Amount.Cents) * 100
		switch {
		case ratio > 100:
			v.Level = LevelOver
		case ratio > 80:
			v.Level = LevelWarning
		}
		v.Progress = min(ratio, 100)
	} else if spent.Cents > 0 {
		// No ratio exists for a zero amount: progress stays 0 while the
		// overspent flag and level still report the spend.
		v.Level = LevelOver
	}
	return v
}
