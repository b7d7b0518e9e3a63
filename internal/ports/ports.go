// Package ports declares the owner-scoped repositories the services depend
// on. Every method takes the owning user id; a record that belongs to a
// different user is reported as core.ErrNotFound.
package ports

import (
	"context"

	"fintrack/internal/core"
)

type (
	TransactionRepository interface {
		// CreateTransaction assigns ID and CreatedAt and returns the stored row.
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// ListTransactions returns the user's transactions, newest first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// BudgetRepository stores budget definitions. The persisted Spent is a
	// placeholder; readers recompute it.
	BudgetRepository interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	SavingsGoalRepository interface {
		CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
		GetSavingsGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error)
		UpdateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		DeleteSavingsGoal(ctx context.Context, userID, id string) error
		// SetSavingsGoalTips replaces the stored AI tips text.
		SetSavingsGoalTips(ctx context.Context, userID, id, tips string) error
	}

	// Repository is the full persistence surface a backend provides.
	Repository interface {
		TransactionRepository
		BudgetRepository
		SavingsGoalRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
