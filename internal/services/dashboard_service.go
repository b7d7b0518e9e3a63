package services

import (
	"context"
	"log/slog"

	"fintrack/internal/aggregate"
	"fintrack/internal/charts"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
)

// Dashboard is the summary plus the first few budget views.
type Dashboard struct {
	Summary aggregate.Summary
	Budgets []aggregate.BudgetView
}

// DashboardService builds the dashboard from a fresh snapshot on every call.
type DashboardService struct {
	repo ports.Repository
	opts aggregate.Options
}

func NewDashboardService(repo ports.Repository, opts aggregate.Options) *DashboardService {
	return &DashboardService{repo: repo, opts: opts}
}

// Dashboard computes the summary and the budget views for userID.
func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	if err := requireUser(userID); err != nil {
		return Dashboard{}, err
	}
	snap, err := fetchSnapshot(ctx, s.repo, userID)
	if err != nil {
		return Dashboard{}, err
	}

	views := aggregate.ComputeBudgets(snap.budgets, snap.transactions, s.opts)
	logBudgetWarnings(ctx, userID, views)

	summary := aggregate.Summarize(snap.transactions, s.opts)
	if summary.SkippedDates > 0 {
		slog.WarnContext(ctx, "Transactions without a usable date left out of recent list",
			applog.FieldComponent, applog.ComponentDashboard,
			applog.FieldUserID, userID,
			applog.FieldCount, summary.SkippedDates)
	}

	return Dashboard{
		Summary: summary,
		Budgets: aggregate.DashboardBudgets(views, s.opts.DashboardBudgetLimit),
	}, nil
}

// CategoryChart renders the top expense categories as a PNG pie chart.
func (s *DashboardService) CategoryChart(ctx context.Context, userID string) ([]byte, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := aggregate.Summarize(txs, s.opts)
	return charts.CategoryPie(summary.TopCategories)
}

// logBudgetWarnings reports every budget whose spend could not be computed
// normally.
func logBudgetWarnings(ctx context.Context, userID string, views []aggregate.BudgetView) {
	events := applog.NewStructuredLogger(applog.FromContext(ctx))
	for _, v := range views {
		if v.Status == aggregate.StatusOK {
			continue
		}
		events.LogBudgetWarning(ctx, userID, v.Budget.ID, v.Budget.Category.String(), string(v.Status), v.Warning)
	}
}
