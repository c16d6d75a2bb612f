package storage

import (
	"context"
	"path/filepath"
	"testing"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
	"razhodi/internal/ledger/ledgertest"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "razhodi.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store { return openTestRepo(t) })
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "razhodi.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	apt, err := repo.CreateApartment(ctx, "Младост")
	if err != nil {
		t.Fatalf("create apartment: %v", err)
	}
	cat, err := repo.AddCategory(ctx, apt.ID, "Ток")
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if err := repo.UpsertExpenses(ctx, []core.ExpenseUpsert{{CategoryID: cat.ID, Year: 2024, Month: 1, Amount: 45.5}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	repo.Close()

	// migrations must be a no-op the second time
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	exps, err := repo.ListExpenses(ctx, []string{cat.ID}, 2024)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exps) != 1 || exps[0].Amount != 45.5 {
		t.Fatalf("unexpected expenses after reopen: %+v", exps)
	}
	if exps[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to round-trip")
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := map[int]string{0: "NULL", 1: "?", 3: "?, ?, ?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}
