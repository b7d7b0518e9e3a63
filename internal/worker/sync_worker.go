// Package worker handles the messages consumed by cmd/fintrack-worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
)

// TipsGenerator generates and stores the AI tips of a savings goal.
type TipsGenerator interface {
	GenerateTips(ctx context.Context, userID, goalID string) (core.SavingsGoal, error)
}

// Worker runs the handlers for tips requests and transaction mirroring.
// A nil mirror or generator makes the matching messages no-ops.
type Worker struct {
	transactions ports.TransactionRepository
	mirror       sheets.TransactionMirror
	tips         TipsGenerator
}

func New(transactions ports.TransactionRepository, mirror sheets.TransactionMirror, tips TipsGenerator) *Worker {
	return &Worker{
		transactions: transactions,
		mirror:       mirror,
		tips:         tips,
	}
}

// Handlers wires the worker into the AMQP consumer.
func (w *Worker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		SavingsTips:     w.HandleSavingsTips,
		TransactionSync: w.HandleTransactionSync,
	}
}

// HandleTransactionSync appends the transaction to the sheet mirror. A
// transaction deleted before the message arrived is skipped.
func (w *Worker) HandleTransactionSync(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	if w.mirror == nil {
		slog.DebugContext(ctx, "No transaction mirror configured, skipping sync",
			applog.FieldTransactionID, msg.TransactionID)
		return nil
	}

	t, err := w.transactions.GetTransaction(ctx, msg.UserID, msg.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction no longer exists, skipping sync",
			applog.FieldUserID, msg.UserID,
			applog.FieldTransactionID, msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.mirror.AppendTransaction(ctx, t)
	if err != nil {
		var pe *core.ParseError
		if errors.As(err, &pe) {
			slog.WarnContext(ctx, "Transaction cannot be mirrored",
				applog.FieldTransactionID, t.ID,
				applog.FieldError, err)
			return nil
		}
		return fmt.Errorf("append transaction to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored to sheets",
		applog.FieldTransactionID, t.ID,
		"ref", ref)
	return nil
}

// HandleSavingsTips generates and stores tips for a goal. Requests for goals
// that no longer exist, or that arrive while AI is not configured, are
// dropped instead of retried.
func (w *Worker) HandleSavingsTips(ctx context.Context, msg *amqp.SavingsTipsMessage) error {
	if w.tips == nil {
		slog.WarnContext(ctx, "No tips generator configured, dropping request", applog.FieldGoalID, msg.GoalID)
		return nil
	}

	_, err := w.tips.GenerateTips(ctx, msg.UserID, msg.GoalID)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Savings tips stored",
			applog.FieldUserID, msg.UserID,
			applog.FieldGoalID, msg.GoalID)
		return nil
	case errors.Is(err, core.ErrNotFound), errors.Is(err, ai.ErrUnavailable):
		slog.WarnContext(ctx, "Dropping savings tips request",
			applog.FieldGoalID, msg.GoalID,
			applog.FieldError, err)
		return nil
	default:
		return fmt.Errorf("generate tips: %w", err)
	}
}
