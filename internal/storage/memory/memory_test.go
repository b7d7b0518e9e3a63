package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/storage/storagetest"
)

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) ports.Repository { return New() })
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty store
	s := NewFromFiles(dir, "demo")
	txs, _ := s.ListTransactions(context.Background(), "demo")
	if len(txs) != 0 {
		t.Fatalf("expected empty store when files missing, got %d", len(txs))
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_transactions.csv", "Date,Description,Amount,Category,Type\n"+
		"2024-07-03,Supermarket,30.00,Groceries,expense\n"+
		"bad,Broken,1,Other,expense\n"+
		"2024-07-10,Salary,1000,Income,income\n")
	mustWrite("seed_budgets.csv", "Name,Category,Amount,StartDate,EndDate\n"+
		"Food,Groceries,400,2024-07-01,2024-07-31\n"+
		"All,Overall,2000,2024-07-01,2024-07-31\n"+
		"Nope,Gadgets,10,2024-07-01,2024-07-31\n")

	s = NewFromFiles(dir, "demo")
	txs, _ = s.ListTransactions(context.Background(), "demo")
	if len(txs) != 2 {
		t.Fatalf("got %d seeded transactions, want 2", len(txs))
	}
	budgets, _ := s.ListBudgets(context.Background(), "demo")
	if len(budgets) != 2 || budgets[0].Name != "Food" || budgets[1].Category != core.Overall {
		t.Fatalf("unexpected seeded budgets: %+v", budgets)
	}
	if other, _ := s.ListTransactions(context.Background(), "someone-else"); len(other) != 0 {
		t.Errorf("seed leaked to another user")
	}
}
