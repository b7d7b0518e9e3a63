package services

import (
	"context"
	"fmt"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetGroups holds the computed views split into overall and category
// budgets, each in stored order.
type BudgetGroups struct {
	Overall  []aggregate.BudgetView
	Category []aggregate.BudgetView
}

// BudgetService manages budget definitions and computes their spend.
type BudgetService struct {
	repo ports.Repository
	opts aggregate.Options
}

func NewBudgetService(repo ports.Repository, opts aggregate.Options) *BudgetService {
	return &BudgetService{repo: repo, opts: opts}
}

// List returns every budget of userID with its spend recomputed.
func (s *BudgetService) List(ctx context.Context, userID string) (BudgetGroups, error) {
	if err := requireUser(userID); err != nil {
		return BudgetGroups{}, err
	}
	snap, err := fetchSnapshot(ctx, s.repo, userID)
	if err != nil {
		return BudgetGroups{}, err
	}
	views := aggregate.ComputeBudgets(snap.budgets, snap.transactions, s.opts)
	logBudgetWarnings(ctx, userID, views)

	overall, category := aggregate.ClassifyViews(views)
	return BudgetGroups{Overall: overall, Category: category}, nil
}

// View computes a single budget against the user's transactions.
func (s *BudgetService) View(ctx context.Context, b core.Budget) (aggregate.BudgetView, error) {
	txs, err := s.repo.ListTransactions(ctx, b.UserID)
	if err != nil {
		return aggregate.BudgetView{}, fmt.Errorf("list transactions: %w", err)
	}
	views := aggregate.ComputeBudgets([]core.Budget{b}, txs, s.opts)
	logBudgetWarnings(ctx, b.UserID, views)
	return views[0], nil
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (aggregate.BudgetView, error) {
	if err := b.Validate(); err != nil {
		return aggregate.BudgetView{}, err
	}
	created, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return aggregate.BudgetView{}, fmt.Errorf("create budget: %w", err)
	}
	return s.View(ctx, created)
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) (aggregate.BudgetView, error) {
	if err := b.Validate(); err != nil {
		return aggregate.BudgetView{}, err
	}
	updated, err := s.repo.UpdateBudget(ctx, b)
	if err != nil {
		return aggregate.BudgetView{}, fmt.Errorf("update budget: %w", err)
	}
	return s.View(ctx, updated)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
