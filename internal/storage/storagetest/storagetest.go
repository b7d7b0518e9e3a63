// Package storagetest holds a behavioural test suite shared by every
// ports.Repository implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Run exercises repo. newRepo must return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) ports.Repository) {
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newRepo(t)) })
	t.Run("owner scoping", func(t *testing.T) { testOwnerScoping(t, newRepo(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, newRepo(t)) })
	t.Run("savings goals", func(t *testing.T) { testSavingsGoals(t, newRepo(t)) })
}

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testTransactions(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	first, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: date("2024-07-01T00:00:00Z"), Description: "Groceries run",
		Amount: core.Money{Cents: 3050}, Category: core.Groceries, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("create should assign ID and CreatedAt: %+v", first)
	}
	second, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: date("2024-07-02T23:59:59.999Z"), Description: "Refund",
		Amount: core.Money{Cents: -1000}, Category: core.Shopping, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if _, err := repo.CreateTransaction(ctx, core.Transaction{UserID: "u1", Description: "no date"}); err == nil {
		t.Fatal("expected validation error for a transaction without date")
	}

	list, err := repo.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("list should be newest first: %+v", list)
	}
	if !list[0].Date.Equal(second.Date) {
		t.Errorf("date lost precision: %v != %v", list[0].Date, second.Date)
	}
	if list[0].Amount.Cents != -1000 {
		t.Errorf("signed amount not preserved: %d", list[0].Amount.Cents)
	}

	got, err := repo.GetTransaction(ctx, "u1", first.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Description != "Groceries run" || got.Category != core.Groceries || got.Type != core.Expense {
		t.Errorf("unexpected transaction: %+v", got)
	}

	got.Description = "Weekly groceries"
	got.Amount = core.Money{Cents: 4000}
	updated, err := repo.UpdateTransaction(ctx, got)
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Description != "Weekly groceries" || !updated.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if err := repo.DeleteTransaction(ctx, "u1", first.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "u1", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "u1", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func testOwnerScoping(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "alice", Date: date("2024-07-01T00:00:00Z"), Description: "Salary",
		Amount: core.Money{Cents: 100000}, Category: core.IncomeCategory, Type: core.Income,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if _, err := repo.GetTransaction(ctx, "bob", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user read: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "bob", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user delete: %v", err)
	}
	stolen := tx
	stolen.UserID = "bob"
	if _, err := repo.UpdateTransaction(ctx, stolen); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user update: %v", err)
	}
	list, err := repo.ListTransactions(ctx, "bob")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d transactions", len(list))
	}
}

func testBudgets(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	in := core.Budget{
		UserID: "u1", Name: "Food", Category: core.Groceries, Amount: core.Money{Cents: 40000},
		Spent:     core.Money{Cents: 999},
		StartDate: date("2024-07-01T00:00:00Z"), EndDate: date("2024-07-31T00:00:00Z"),
	}
	food, err := repo.CreateBudget(ctx, in)
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if !food.Spent.IsZero() {
		t.Errorf("persisted spent should be a zero placeholder, got %d", food.Spent.Cents)
	}
	overall, err := repo.CreateBudget(ctx, core.Budget{
		UserID: "u1", Name: "Everything", Category: core.Overall, Amount: core.Money{Cents: 100000},
		StartDate: date("2024-07-31T00:00:00Z"), EndDate: date("2024-07-01T00:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CreateBudget with inverted interval: %v", err)
	}

	list, err := repo.ListBudgets(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(list) != 2 || list[0].ID != food.ID || list[1].ID != overall.ID {
		t.Fatalf("budgets should keep creation order: %+v", list)
	}
	if list[1].Category != core.Overall {
		t.Errorf("category = %q", list[1].Category)
	}

	food.Amount = core.Money{Cents: 50000}
	food.Name = "Food & drinks"
	if _, err := repo.UpdateBudget(ctx, food); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	got, err := repo.GetBudget(ctx, "u1", food.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got.Amount.Cents != 50000 || got.Name != "Food & drinks" {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.StartDate.Equal(in.StartDate) || !got.EndDate.Equal(in.EndDate) {
		t.Errorf("dates changed: %v - %v", got.StartDate, got.EndDate)
	}

	if _, err := repo.GetBudget(ctx, "u2", food.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user read: %v", err)
	}
	if err := repo.DeleteBudget(ctx, "u1", overall.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	list, _ = repo.ListBudgets(ctx, "u1")
	if len(list) != 1 {
		t.Errorf("got %d budgets after delete", len(list))
	}
}

func testSavingsGoals(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	deadline := date("2025-01-01T00:00:00Z")
	g, err := repo.CreateSavingsGoal(ctx, core.SavingsGoal{
		UserID: "u1", Name: "Holiday", TargetAmount: core.Money{Cents: 200000},
		CurrentAmount: core.Money{Cents: 50000}, Deadline: &deadline,
	})
	if err != nil {
		t.Fatalf("CreateSavingsGoal: %v", err)
	}
	noDeadline, err := repo.CreateSavingsGoal(ctx, core.SavingsGoal{
		UserID: "u1", Name: "Rainy day", TargetAmount: core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("CreateSavingsGoal: %v", err)
	}

	if err := repo.SetSavingsGoalTips(ctx, "u1", g.ID, "Cook at home."); err != nil {
		t.Fatalf("SetSavingsGoalTips: %v", err)
	}
	got, err := repo.GetSavingsGoal(ctx, "u1", g.ID)
	if err != nil {
		t.Fatalf("GetSavingsGoal: %v", err)
	}
	if got.AITips != "Cook at home." {
		t.Errorf("tips = %q", got.AITips)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v", got.Deadline)
	}

	got.CurrentAmount = core.Money{Cents: 75000}
	got.AITips = ""
	updated, err := repo.UpdateSavingsGoal(ctx, got)
	if err != nil {
		t.Fatalf("UpdateSavingsGoal: %v", err)
	}
	if updated.CurrentAmount.Cents != 75000 {
		t.Errorf("current amount = %d", updated.CurrentAmount.Cents)
	}
	if updated.AITips != "Cook at home." {
		t.Errorf("update should not clear stored tips, got %q", updated.AITips)
	}

	list, err := repo.ListSavingsGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSavingsGoals: %v", err)
	}
	if len(list) != 2 || list[1].ID != noDeadline.ID || list[1].Deadline != nil {
		t.Fatalf("unexpected goals: %+v", list)
	}

	if err := repo.SetSavingsGoalTips(ctx, "u2", g.ID, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user tips: %v", err)
	}
	if err := repo.DeleteSavingsGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("DeleteSavingsGoal: %v", err)
	}
	if _, err := repo.GetSavingsGoal(ctx, "u1", g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete: %v", err)
	}
}
