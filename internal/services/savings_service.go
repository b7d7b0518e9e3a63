package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/ai"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
)

// TipsResult is either a queued request or the generated tips.
type TipsResult struct {
	Queued bool
	Goal   core.SavingsGoal
}

// SavingsService manages savings goals and their AI tips. With a publisher
// tips are generated by the worker; otherwise inline by the generator.
type SavingsService struct {
	repo      ports.Repository
	publisher TipsPublisher
	generator TipsGenerator
}

func NewSavingsService(repo ports.Repository, publisher TipsPublisher, generator TipsGenerator) *SavingsService {
	return &SavingsService{repo: repo, publisher: publisher, generator: generator}
}

func (s *SavingsService) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListSavingsGoals(ctx, userID)
}

func (s *SavingsService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	created, err := s.repo.CreateSavingsGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	return created, nil
}

// Update replaces the editable fields. Stored tips are kept.
func (s *SavingsService) Update(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	updated, err := s.repo.UpdateSavingsGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal: %w", err)
	}
	return updated, nil
}

func (s *SavingsService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteSavingsGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return nil
}

// RequestTips queues a tips request when a publisher is configured and
// falls back to inline generation when publishing fails or is disabled.
func (s *SavingsService) RequestTips(ctx context.Context, userID, id string) (TipsResult, error) {
	if err := requireUser(userID); err != nil {
		return TipsResult{}, err
	}
	goal, err := s.repo.GetSavingsGoal(ctx, userID, id)
	if err != nil {
		return TipsResult{}, err
	}

	if s.publisher != nil {
		err := s.publisher.PublishSavingsTips(ctx, userID, id)
		if err == nil {
			return TipsResult{Queued: true, Goal: goal}, nil
		}
		slog.WarnContext(ctx, "Failed to queue savings tips, generating inline",
			applog.FieldComponent, applog.ComponentAI,
			applog.FieldGoalID, id,
			applog.FieldError, err)
	}

	goal, err = s.GenerateTips(ctx, userID, id)
	if err != nil {
		return TipsResult{}, err
	}
	return TipsResult{Goal: goal}, nil
}

// GenerateTips produces tips for the goal and stores them. The worker calls
// it for queued requests.
func (s *SavingsService) GenerateTips(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	if s.generator == nil {
		return core.SavingsGoal{}, ai.ErrUnavailable
	}
	goal, err := s.repo.GetSavingsGoal(ctx, userID, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	tips, err := s.generator.SavingsTips(ctx, goal)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("generate tips: %w", err)
	}
	if err := s.repo.SetSavingsGoalTips(ctx, userID, id, tips); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.SavingsGoal{}, err
		}
		return core.SavingsGoal{}, fmt.Errorf("store tips: %w", err)
	}
	goal.AITips = tips
	return goal, nil
}
