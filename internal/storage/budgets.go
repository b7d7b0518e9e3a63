package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, user_id, name, category, amount_cents, start_date, end_date, created_at, updated_at`

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	now := r.now().UTC()
	b.ID = newID()
	b.Spent = core.Money{}
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, string(b.Category), b.Amount.Cents,
		formatTime(b.StartDate), formatTime(b.EndDate), formatTime(now), formatTime(now))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns budgets in insertion order.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := r.scanBudget(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	b, err := r.scanBudget(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	return b, err
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, category = ?, amount_cents = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		b.Name, string(b.Category), b.Amount.Cents, formatTime(b.StartDate), formatTime(b.EndDate),
		formatTime(r.now()), b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := rowsAffected(res, "update budget"); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, b.UserID, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return rowsAffected(res, "delete budget")
}

func (r *SQLiteRepository) scanBudget(ctx context.Context, s scanner) (core.Budget, error) {
	var (
		b                          core.Budget
		category                   string
		start, end, created, updtd string
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.Name, &category, &b.Amount.Cents, &start, &end, &created, &updtd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan budget: %w", err)
	}
	b.Category = core.Category(category)
	b.StartDate = parseTime(ctx, "budgets", b.ID, "start_date", start)
	b.EndDate = parseTime(ctx, "budgets", b.ID, "end_date", end)
	b.CreatedAt = parseTime(ctx, "budgets", b.ID, "created_at", created)
	b.UpdatedAt = parseTime(ctx, "budgets", b.ID, "updated_at", updtd)
	return b, nil
}
