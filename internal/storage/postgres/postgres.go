// Package postgres is the PostgreSQL backend, built on a pgx connection pool.
// Instants are stored as TIMESTAMPTZ, which keeps microsecond precision.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fintrack/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to databaseURL, applies pending migrations and returns a
// ready repository.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	slog.InfoContext(ctx, "Connected to PostgreSQL", "max_conns", pool.Config().MaxConns)
	return &Repository{pool: pool, now: time.Now}, nil
}

func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// stamp is the current time at the precision TIMESTAMPTZ keeps.
func (r *Repository) stamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Repository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// validID rejects ids that cannot be a UUID so lookups return ErrNotFound
// instead of a type error from the server.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Transactions

const (
	transactionColumns = `id, user_id, date, description, amount_cents, category, type, created_at`
	transactionSelect  = `id::text, user_id, date, description, amount_cents, category, type, created_at`
)

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.stamp()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.Date, t.Description, t.Amount.Cents, string(t.Category), string(t.Type), t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionSelect+` FROM transactions WHERE user_id = $1 ORDER BY date DESC, id::text ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	if !validID(id) {
		return core.Transaction{}, core.ErrNotFound
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionSelect+` FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	return t, notFound(err)
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if !validID(t.ID) {
		return core.Transaction{}, core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET date = $1, description = $2, amount_cents = $3, category = $4, type = $5
		 WHERE user_id = $6 AND id = $7`,
		t.Date, t.Description, t.Amount.Cents, string(t.Category), string(t.Type), t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := affected(tag); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(tag)
}

func scanTransaction(row pgx.CollectableRow) (core.Transaction, error) {
	var (
		t             core.Transaction
		category, typ string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Date, &t.Description, &t.Amount.Cents, &category, &typ, &t.CreatedAt)
	t.Category = core.Category(category)
	t.Type = core.TransactionType(typ)
	return t, err
}

// Budgets

const (
	budgetColumns = `id, user_id, name, category, amount_cents, start_date, end_date, created_at, updated_at`
	budgetSelect  = `id::text, user_id, name, category, amount_cents, start_date, end_date, created_at, updated_at`
)

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	now := r.stamp()
	b.ID = uuid.NewString()
	b.Spent = core.Money{}
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.UserID, b.Name, string(b.Category), b.Amount.Cents, b.StartDate, b.EndDate, now, now)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetSelect+` FROM budgets WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanBudget)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	if !validID(id) {
		return core.Budget{}, core.ErrNotFound
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetSelect+` FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBudget)
	return b, notFound(err)
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if !validID(b.ID) {
		return core.Budget{}, core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE budgets SET name = $1, category = $2, amount_cents = $3, start_date = $4, end_date = $5, updated_at = $6
		 WHERE user_id = $7 AND id = $8`,
		b.Name, string(b.Category), b.Amount.Cents, b.StartDate, b.EndDate, r.stamp(), b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := affected(tag); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, b.UserID, b.ID)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return affected(tag)
}

func scanBudget(row pgx.CollectableRow) (core.Budget, error) {
	var (
		b        core.Budget
		category string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &category, &b.Amount.Cents, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt)
	b.Category = core.Category(category)
	return b, err
}

// Savings goals

const (
	goalColumns = `id, user_id, name, target_cents, current_cents, deadline, ai_tips, created_at, updated_at`
	goalSelect  = `id::text, user_id, name, target_cents, current_cents, deadline, ai_tips, created_at, updated_at`
)

func (r *Repository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	now := r.stamp()
	g.ID = uuid.NewString()
	g.CreatedAt, g.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx,
		`INSERT INTO savings_goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline, g.AITips, now, now)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalSelect+` FROM savings_goals WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanGoal)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	return out, nil
}

func (r *Repository) GetSavingsGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	if !validID(id) {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalSelect+` FROM savings_goals WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	g, err := pgx.CollectExactlyOneRow(rows, scanGoal)
	return g, notFound(err)
}

func (r *Repository) UpdateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if !validID(g.ID) {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE savings_goals SET name = $1, target_cents = $2, current_cents = $3, deadline = $4, updated_at = $5
		 WHERE user_id = $6 AND id = $7`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline, r.stamp(), g.UserID, g.ID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal: %w", err)
	}
	if err := affected(tag); err != nil {
		return core.SavingsGoal{}, err
	}
	return r.GetSavingsGoal(ctx, g.UserID, g.ID)
}

func (r *Repository) DeleteSavingsGoal(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM savings_goals WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return affected(tag)
}

func (r *Repository) SetSavingsGoalTips(ctx context.Context, userID, id, tips string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE savings_goals SET ai_tips = $1, updated_at = $2 WHERE user_id = $3 AND id = $4`,
		tips, r.stamp(), userID, id)
	if err != nil {
		return fmt.Errorf("set savings goal tips: %w", err)
	}
	return affected(tag)
}

func scanGoal(row pgx.CollectableRow) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&g.Deadline, &g.AITips, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}
