package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const goalColumns = `id, user_id, name, target_cents, current_cents, deadline, ai_tips, created_at, updated_at`

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	now := r.now().UTC()
	g.ID = newID()
	g.CreatedAt, g.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		nullableTime(g), g.AITips, formatTime(now), formatTime(now))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingsGoal, 0)
	for rows.Next() {
		g, err := r.scanGoal(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate savings goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? AND id = ?`, userID, id)
	g, err := r.scanGoal(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	return g, err
}

// UpdateSavingsGoal leaves the stored AI tips untouched.
func (r *SQLiteRepository) UpdateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET name = ?, target_cents = ?, current_cents = ?, deadline = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, nullableTime(g), formatTime(r.now()), g.UserID, g.ID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal: %w", err)
	}
	if err := rowsAffected(res, "update savings goal"); err != nil {
		return core.SavingsGoal{}, err
	}
	return r.GetSavingsGoal(ctx, g.UserID, g.ID)
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return rowsAffected(res, "delete savings goal")
}

func (r *SQLiteRepository) SetSavingsGoalTips(ctx context.Context, userID, id, tips string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET ai_tips = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		tips, formatTime(r.now()), userID, id)
	if err != nil {
		return fmt.Errorf("set savings goal tips: %w", err)
	}
	return rowsAffected(res, "set savings goal tips")
}

func nullableTime(g core.SavingsGoal) sql.NullString {
	if g.Deadline == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*g.Deadline), Valid: true}
}

func (r *SQLiteRepository) scanGoal(ctx context.Context, s scanner) (core.SavingsGoal, error) {
	var (
		g                core.SavingsGoal
		deadline         sql.NullString
		created, updated string
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&deadline, &g.AITips, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("scan savings goal: %w", err)
	}
	if deadline.Valid {
		if d := parseTime(ctx, "savings_goals", g.ID, "deadline", deadline.String); !d.IsZero() {
			g.Deadline = &d
		}
	}
	g.CreatedAt = parseTime(ctx, "savings_goals", g.ID, "created_at", created)
	g.UpdatedAt = parseTime(ctx, "savings_goals", g.ID, "updated_at", updated)
	return g, nil
}
