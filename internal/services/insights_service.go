package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// InsightsGenerator runs the AI flows over a transaction history.
type InsightsGenerator interface {
	SpendingInsights(ctx context.Context, txs []core.Transaction, rules string, loc *time.Location) (string, error)
	AnswerQuery(ctx context.Context, question string, txs []core.Transaction, loc *time.Location) (string, error)
}

type InsightsService struct {
	repo      ports.Repository
	generator InsightsGenerator
	loc       *time.Location
}

func NewInsightsService(repo ports.Repository, generator InsightsGenerator, loc *time.Location) *InsightsService {
	if loc == nil {
		loc = time.UTC
	}
	return &InsightsService{repo: repo, generator: generator, loc: loc}
}

// Insights describes the user's spending, optionally guided by rules.
func (s *InsightsService) Insights(ctx context.Context, userID, rules string) (string, error) {
	txs, err := s.history(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.generator.SpendingInsights(ctx, txs, rules, s.loc)
}

// Query answers a free-form question about the user's transactions.
func (s *InsightsService) Query(ctx context.Context, userID, question string) (string, error) {
	txs, err := s.history(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.generator.AnswerQuery(ctx, question, txs, s.loc)
}

func (s *InsightsService) history(ctx context.Context, userID string) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, ai.ErrUnavailable
	}
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
