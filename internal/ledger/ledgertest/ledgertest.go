// Package ledgertest holds behaviour checks every ledger.Store must pass.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) ledger.Store) {
	t.Helper()

	t.Run("apartments", func(t *testing.T) { testApartments(t, open(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, open(t)) })
	t.Run("expense upsert", func(t *testing.T) { testExpenseUpsert(t, open(t)) })
	t.Run("expense years and filters", func(t *testing.T) { testExpenseYears(t, open(t)) })
	t.Run("expense update and delete", func(t *testing.T) { testExpenseUpdateDelete(t, open(t)) })
	t.Run("rent payments", func(t *testing.T) { testRentPayments(t, open(t)) })
	t.Run("yearly expenses", func(t *testing.T) { testYearly(t, open(t)) })
}

func mustApartment(t *testing.T, s ledger.Store, name string) core.Apartment {
	t.Helper()
	a, err := s.CreateApartment(context.Background(), name)
	if err != nil {
		t.Fatalf("create apartment %q: %v", name, err)
	}
	return a
}

func mustCategory(t *testing.T, s ledger.Store, aptID, name string) core.Category {
	t.Helper()
	c, err := s.AddCategory(context.Background(), aptID, name)
	if err != nil {
		t.Fatalf("add category %q: %v", name, err)
	}
	return c
}

func testApartments(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustApartment(t, s, "Младост")
	b := mustApartment(t, s, "Лозенец")

	list, err := s.ListApartments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Лозенец" || list[1].Name != "Младост" {
		t.Fatalf("unexpected apartments: %+v", list)
	}

	got, err := s.GetApartment(ctx, b.ID)
	if err != nil || got.Name != "Лозенец" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := s.GetApartment(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	found, err := s.FindApartmentByName(ctx, "Младост")
	if err != nil || found.Name != "Младост" {
		t.Fatalf("find: %+v %v", found, err)
	}
	if _, err := s.FindApartmentByName(ctx, "Център"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.CreateApartment(ctx, "   "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func testCategories(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustApartment(t, s, "Младост")
	other := mustApartment(t, s, "Лозенец")

	power := mustCategory(t, s, a.ID, "Ток")
	water := mustCategory(t, s, a.ID, "Вода")
	otherCat := mustCategory(t, s, other.ID, "Газ")

	if power.SortOrder != 1 || water.SortOrder != 2 || otherCat.SortOrder != 1 {
		t.Fatalf("unexpected sort orders: %d %d %d", power.SortOrder, water.SortOrder, otherCat.SortOrder)
	}

	cats, err := s.ListCategories(ctx, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != power.ID || cats[1].ID != water.ID {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	got, err := s.GetCategory(ctx, water.ID)
	if err != nil || got.Name != "Вода" || got.ApartmentID != a.ID {
		t.Fatalf("get category: %+v %v", got, err)
	}

	err = s.UpsertExpenses(ctx, []core.ExpenseUpsert{
		{CategoryID: power.ID, Year: 2024, Month: 1, Amount: 10},
		{CategoryID: water.ID, Year: 2024, Month: 1, Amount: 5},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.DeleteCategory(ctx, power.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	exps, err := s.ListExpenses(ctx, []string{power.ID, water.ID})
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(exps) != 1 || exps[0].CategoryID != water.ID {
		t.Fatalf("expected only water expense to survive, got %+v", exps)
	}

	next := mustCategory(t, s, a.ID, "Интернет")
	if next.SortOrder != 3 {
		t.Fatalf("expected sort order 3 after delete, got %d", next.SortOrder)
	}

	if err := s.DeleteCategory(ctx, power.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testExpenseUpsert(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustApartment(t, s, "Младост")
	c := mustCategory(t, s, a.ID, "Ток")

	if err := s.UpsertExpenses(ctx, []core.ExpenseUpsert{{CategoryID: c.ID, Year: 2024, Month: 3, Amount: 40}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertExpenses(ctx, []core.ExpenseUpsert{{CategoryID: c.ID, Year: 2024, Month: 3, Amount: 42.5}}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	exps, err := s.ListExpenses(ctx, []string{c.ID}, 2024)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exps) != 1 {
		t.Fatalf("expected one expense after two upserts, got %d", len(exps))
	}
	if exps[0].Amount != 42.5 || exps[0].Month != 3 || exps[0].Year != 2024 {
		t.Fatalf("unexpected expense: %+v", exps[0])
	}

	bad := []core.ExpenseUpsert{{CategoryID: c.ID, Year: 2024, Month: 13, Amount: 1}}
	if err := s.UpsertExpenses(ctx, bad); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	bad = []core.ExpenseUpsert{{CategoryID: c.ID, Year: 2024, Month: 1, Amount: -1}}
	if err := s.UpsertExpenses(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func testExpenseYears(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustApartment(t, s, "Младост")
	c1 := mustCategory(t, s, a.ID, "Ток")
	c2 := mustCategory(t, s, a.ID, "Вода")

	err := s.UpsertExpenses(ctx, []core.ExpenseUpsert{
		{CategoryID: c1.ID, Year: 2022, Month: 5, Amount: 1},
		{CategoryID: c1.ID, Year: 2024, Month: 2, Amount: 2},
		{CategoryID: c2.ID, Year: 2024, Month: 1, Amount: 3},
		{CategoryID: c2.ID, Year: 2023, Month: 12, Amount: 4},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	years, err := s.ExpenseYears(ctx, []string{c1.ID, c2.ID})
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	if len(years) != 3 || years[0] != 2024 || years[1] != 2023 || years[2] != 2022 {
		t.Fatalf("unexpected years: %v", years)
	}

	only, err := s.ExpenseYears(ctx, []string{c1.ID})
	if err != nil || len(only) != 2 {
		t.Fatalf("unexpected years for one category: %v %v", only, err)
	}

	exps, err := s.ListExpenses(ctx, []string{c1.ID, c2.ID}, 2024, 2023)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exps) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(exps))
	}
	if exps[0].Year != 2023 || exps[1].Month != 1 || exps[2].Month != 2 {
		t.Fatalf("unexpected order: %+v", exps)
	}

	all, err := s.ListExpenses(ctx, []string{c1.ID, c2.ID})
	if err != nil || len(all) != 4 {
		t.Fatalf("expected all 4 expenses, got %d %v", len(all), err)
	}

	none, err := s.ListExpenses(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no expenses for no categories, got %d %v", len(none), err)
	}
}

func testExpenseUpdateDelete(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustApartment(t, s, "Младост")
	c := mustCategory(t, s, a.ID, "Ток")

	err := s.UpsertExpenses(ctx, []core.ExpenseUpsert{
		{CategoryID: c.ID, Year: 2024, Month: 1, Amount: 10},
		{CategoryID: c.ID, Year: 2024, Month: 2, Amount: 20},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	exps, _ := s.ListExpenses(ctx, []string{c.ID})

	if err := s.UpdateExpenseAmount(ctx, exps[0].ID, 11.5); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetExpense(ctx, exps[0].ID)
	if err != nil || got.Amount != 11.5 || got.Month != 1 {
		t.Fatalf("get expense: %+v %v", got, err)
	}
	if _, err := s.GetExpense(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateExpenseAmount(ctx, "missing", 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteExpenses(ctx, exps[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	left, _ := s.ListExpenses(ctx, []string{c.ID})
	if len(left) != 1 || left[0].Amount != 11.5 {
		t.Fatalf("unexpected remaining expenses: %+v", left)
	}

	// the key is free again after a delete
	if err := s.UpsertExpenses(ctx, []core.ExpenseUpsert{{CategoryID: c.ID, Year: 2024, Month: 2, Amount: 7}}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	left, _ = s.ListExpenses(ctx, []string{c.ID})
	if len(left) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(left))
	}
}

func testRentPayments(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustApartment(t, s, "Младост")

	p, err := s.AddRentPayment(ctx, a.ID, 2024, 4)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddRentPayment(ctx, a.ID, 2024, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddRentPayment(ctx, a.ID, 2023, 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := s.ListRentPayments(ctx, a.ID, 2024)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Month != 1 || list[1].Month != 4 {
		t.Fatalf("unexpected payments: %+v", list)
	}

	if err := s.DeleteRentPayment(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.ListRentPayments(ctx, a.ID, 2024)
	if len(list) != 1 {
		t.Fatalf("expected 1 payment after delete, got %d", len(list))
	}

	if _, err := s.AddRentPayment(ctx, a.ID, 2024, 0); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func testYearly(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustApartment(t, s, "Младост")

	first, err := s.UpsertYearlyExpense(ctx, core.YearlyExpense{ApartmentID: a.ID, Year: 2024, Name: "Застраховка", Amount: 120})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.UpsertYearlyExpense(ctx, core.YearlyExpense{ApartmentID: a.ID, Year: 2024, Name: "Данък сгради", Amount: 80}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	again, err := s.UpsertYearlyExpense(ctx, core.YearlyExpense{ApartmentID: a.ID, Year: 2024, Name: "Застраховка", Amount: 130})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if again.ID != first.ID || again.Amount != 130 {
		t.Fatalf("expected upsert to replace, got %+v", again)
	}

	list, err := s.ListYearlyExpenses(ctx, a.ID, 2024)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Данък сгради" || list[1].Amount != 130 {
		t.Fatalf("unexpected yearly expenses: %+v", list)
	}

	if err := s.UpdateYearlyExpense(ctx, first.ID, 99); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteYearlyExpense(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteYearlyExpense(ctx, first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, _ = s.ListYearlyExpenses(ctx, a.ID, 2024)
	if len(list) != 1 {
		t.Fatalf("expected 1 yearly expense, got %d", len(list))
	}

	if _, err := s.UpsertYearlyExpense(ctx, core.YearlyExpense{ApartmentID: a.ID, Year: 2024, Name: " ", Amount: 1}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
