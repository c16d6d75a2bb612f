package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"razhodi/internal/ledger"
	"razhodi/internal/ledger/ledgertest"
)

func TestMemoryStore(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store { return New() })
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// No files -> empty store
	s := NewFromFiles(dir)
	apts, _ := s.ListApartments(ctx)
	if len(apts) != 0 {
		t.Fatalf("expected no apartments when files missing, got %v", apts)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_apartments.txt", "# apartments\nМладост\nЛозенец\nМладост\n\n")

	s = NewFromFiles(dir)
	apts, _ = s.ListApartments(ctx)
	if len(apts) != 2 {
		t.Fatalf("unexpected apartments: %v", apts)
	}
	cats, _ := s.ListCategories(ctx, apts[0].ID)
	if len(cats) != len(DefaultCategories) || cats[0].Name != DefaultCategories[0] {
		t.Fatalf("expected default categories, got %v", cats)
	}

	mustWrite("seed_categories.txt", "# categories\nТок\nВода\nТок\n")
	s = NewFromFiles(dir)
	apts, _ = s.ListApartments(ctx)
	cats, _ = s.ListCategories(ctx, apts[1].ID)
	if len(cats) != 2 || cats[0].Name != "Ток" || cats[1].Name != "Вода" {
		t.Fatalf("unexpected categories: %v", cats)
	}
}
