package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const transactionColumns = `id, user_id, date, description, amount_cents, category, type, created_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = newID()
	t.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, formatTime(t.Date), t.Description, t.Amount.Cents,
		string(t.Category), string(t.Type), formatTime(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		applog.FieldUserID, t.UserID,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := r.scanTransaction(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	t, err := r.scanTransaction(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, description = ?, amount_cents = ?, category = ?, type = ?
		 WHERE user_id = ? AND id = ?`,
		formatTime(t.Date), t.Description, t.Amount.Cents, string(t.Category), string(t.Type), t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := rowsAffected(res, "update transaction"); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return rowsAffected(res, "delete transaction")
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanTransaction(ctx context.Context, s scanner) (core.Transaction, error) {
	var (
		t                        core.Transaction
		date, category, typ, crt string
	)
	if err := s.Scan(&t.ID, &t.UserID, &date, &t.Description, &t.Amount.Cents, &category, &typ, &crt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	t.Date = parseTime(ctx, "transactions", t.ID, "date", date)
	t.CreatedAt = parseTime(ctx, "transactions", t.ID, "created_at", crt)
	t.Category = core.Category(category)
	t.Type = core.TransactionType(typ)
	return t, nil
}
