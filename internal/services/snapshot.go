// Package services orchestrates repositories, the aggregation engine, AI
// text generation and messaging for each user-facing operation.
package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Publishers and generators are optional collaborators; a nil value turns
// the feature off.
type (
	SyncPublisher interface {
		PublishTransactionSync(ctx context.Context, userID, transactionID string) error
	}

	TipsPublisher interface {
		PublishSavingsTips(ctx context.Context, userID, goalID string) error
	}

	TipsGenerator interface {
		SavingsTips(ctx context.Context, goal core.SavingsGoal) (string, error)
	}
)

// snapshot is one consistent read of a user's transactions and budgets.
type snapshot struct {
	transactions []core.Transaction
	budgets      []core.Budget
}

// fetchSnapshot reads transactions and budgets concurrently. The first
// failure cancels the other read.
func fetchSnapshot(ctx context.Context, repo ports.Repository, userID string) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := repo.ListTransactions(gctx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		snap.transactions = txs
		return nil
	})
	g.Go(func() error {
		budgets, err := repo.ListBudgets(gctx, userID)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		snap.budgets = budgets
		return nil
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrMissingUser
	}
	return nil
}
