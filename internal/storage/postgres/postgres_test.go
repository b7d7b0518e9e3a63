package postgres

import (
	"context"
	"os"
	"testing"

	"fintrack/internal/ports"
	"fintrack/internal/storage/storagetest"
)

// Set FINTRACK_TEST_DATABASE_URL to a disposable database to run these.
func TestRepositoryConformance(t *testing.T) {
	url := os.Getenv("FINTRACK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINTRACK_TEST_DATABASE_URL not set")
	}
	storagetest.Run(t, func(t *testing.T) ports.Repository {
		ctx := context.Background()
		repo, err := New(ctx, url)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := repo.pool.Exec(ctx, `TRUNCATE transactions, budgets, savings_goals`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestValidID(t *testing.T) {
	if validID("not-a-uuid") {
		t.Error("validID accepted garbage")
	}
	if !validID("9b2f7c4e-2d8a-4b7e-9a51-0c3f8d1e6a42") {
		t.Error("validID rejected a uuid")
	}
}
