package http

import (
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

type transactionJSON struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	CreatedAt   string     `json:"createdAt,omitempty"`
}

type budgetJSON struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Spent     core.Money `json:"spent"`
	Remaining core.Money `json:"remaining"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	Period    string     `json:"period"`
	Status    string     `json:"status"`
	Warning   string     `json:"warning,omitempty"`
	Overspent bool       `json:"overspent"`
	Progress  float64    `json:"progress"`
	Level     string     `json:"level"`
}

type budgetGroupsJSON struct {
	Overall  []budgetJSON `json:"overall"`
	Category []budgetJSON `json:"category"`
}

type savingsGoalJSON struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
	Progress      float64    `json:"progress"`
	Deadline      string     `json:"deadline,omitempty"`
	AITips        string     `json:"aiTips,omitempty"`
}

type summaryJSON struct {
	TotalIncome   core.Money            `json:"totalIncome"`
	TotalExpense  core.Money            `json:"totalExpense"`
	Net           core.Money            `json:"net"`
	TopCategories []core.CategoryAmount `json:"topCategories"`
	Recent        []transactionJSON     `json:"recent"`
}

type dashboardJSON struct {
	Summary summaryJSON  `json:"summary"`
	Budgets []budgetJSON `json:"budgets"`
}

type importJSON struct {
	Imported int      `json:"imported"`
	Rejected []string `json:"rejected"`
}

type tipsJSON struct {
	Queued bool             `json:"queued"`
	Goal   *savingsGoalJSON `json:"goal,omitempty"`
}

type textJSON struct {
	Text string `json:"text"`
}

// Dates are rendered in the reference location; a zero date stays empty.
func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339Nano)
}

func toTransactionJSON(t core.Transaction, loc *time.Location) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Date:        formatDate(t.Date, loc),
		Description: t.Description,
		Amount:      t.Amount,
		Category:    string(t.Category),
		Type:        string(t.Type),
		CreatedAt:   formatDate(t.CreatedAt, loc),
	}
}

func toTransactionsJSON(txs []core.Transaction, loc *time.Location) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t, loc))
	}
	return out
}

func toBudgetJSON(v aggregate.BudgetView, loc *time.Location) budgetJSON {
	b := v.Budget
	return budgetJSON{
		ID:        b.ID,
		Name:      b.Name,
		Category:  string(b.Category),
		Amount:    b.Amount,
		Spent:     b.Spent,
		Remaining: v.Remaining,
		StartDate: formatDate(b.StartDate, loc),
		EndDate:   formatDate(b.EndDate, loc),
		Period:    v.Period,
		Status:    string(v.Status),
		Warning:   v.Warning,
		Overspent: v.Overspent,
		Progress:  v.Progress,
		Level:     string(v.Level),
	}
}

func toBudgetsJSON(views []aggregate.BudgetView, loc *time.Location) []budgetJSON {
	out := make([]budgetJSON, 0, len(views))
	for _, v := range views {
		out = append(out, toBudgetJSON(v, loc))
	}
	return out
}

func toSavingsGoalJSON(g core.SavingsGoal, loc *time.Location) savingsGoalJSON {
	out := savingsGoalJSON{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Progress:      g.Progress(),
		AITips:        g.AITips,
	}
	if g.Deadline != nil {
		out.Deadline = formatDate(*g.Deadline, loc)
	}
	return out
}

func toDashboardJSON(d services.Dashboard, loc *time.Location) dashboardJSON {
	top := d.Summary.TopCategories
	if top == nil {
		top = []core.CategoryAmount{}
	}
	return dashboardJSON{
		Summary: summaryJSON{
			TotalIncome:   d.Summary.TotalIncome,
			TotalExpense:  d.Summary.TotalExpense,
			Net:           d.Summary.Net,
			TopCategories: top,
			Recent:        toTransactionsJSON(d.Summary.Recent, loc),
		},
		Budgets: toBudgetsJSON(d.Budgets, loc),
	}
}
