package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/core"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

type failingMirror struct{ err error }

func (f failingMirror) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", f.err
}

func seeded(t *testing.T) (*memory.Store, core.Transaction) {
	t.Helper()
	repo := memory.New()
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:      "u1",
		Date:        time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		Description: "Supermarket",
		Amount:      core.Money{Cents: 3000},
		Category:    core.Groceries,
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatal(err)
	}
	return repo, tx
}

func TestHandleTransactionSync(t *testing.T) {
	repo, tx := seeded(t)
	mirror := sheetsmem.New()
	w := New(repo, mirror, nil)

	err := w.HandleTransactionSync(context.Background(), amqp.NewTransactionSyncMessage("u1", tx.ID))
	if err != nil {
		t.Fatalf("HandleTransactionSync: %v", err)
	}
	rows := mirror.Rows()
	if len(rows) != 1 || rows[0].ID != tx.ID {
		t.Fatalf("mirror rows = %+v", rows)
	}
}

func TestHandleTransactionSyncSkips(t *testing.T) {
	repo, tx := seeded(t)
	tests := []struct {
		name string
		w    *Worker
		msg  *amqp.TransactionSyncMessage
	}{
		{"no mirror", New(repo, nil, nil), amqp.NewTransactionSyncMessage("u1", tx.ID)},
		{"deleted transaction", New(repo, sheetsmem.New(), nil), amqp.NewTransactionSyncMessage("u1", "missing")},
		{"other owner", New(repo, sheetsmem.New(), nil), amqp.NewTransactionSyncMessage("u2", tx.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.w.HandleTransactionSync(context.Background(), tt.msg); err != nil {
				t.Fatalf("expected skip, got %v", err)
			}
		})
	}
}

func TestHandleTransactionSyncMirrorError(t *testing.T) {
	repo, tx := seeded(t)
	boom := errors.New("sheets quota")
	w := New(repo, failingMirror{err: boom}, nil)
	if err := w.HandleTransactionSync(context.Background(), amqp.NewTransactionSyncMessage("u1", tx.ID)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v so the message is requeued", err, boom)
	}
}

type fakeTips struct {
	err   error
	calls int
}

func (f *fakeTips) GenerateTips(context.Context, string, string) (core.SavingsGoal, error) {
	f.calls++
	return core.SavingsGoal{}, f.err
}

func TestHandleSavingsTips(t *testing.T) {
	boom := errors.New("model overloaded")
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"stored", nil, false},
		{"goal deleted", core.ErrNotFound, false},
		{"ai disabled", ai.ErrUnavailable, false},
		{"transient", boom, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeTips{err: tt.err}
			w := New(nil, nil, gen)
			err := w.HandleSavingsTips(context.Background(), amqp.NewSavingsTipsMessage("u1", "g1"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if gen.calls != 1 {
				t.Errorf("generator calls = %d", gen.calls)
			}
		})
	}
}

func TestHandlers(t *testing.T) {
	h := New(nil, nil, nil).Handlers()
	if h.SavingsTips == nil || h.TransactionSync == nil {
		t.Fatal("both handlers must be set")
	}
}
