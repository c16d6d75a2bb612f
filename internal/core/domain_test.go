package core

import (
	"errors"
	"math"
	"testing"
)

func TestExpenseUpsertValidate(t *testing.T) {
	good := ExpenseUpsert{CategoryID: "c1", Year: 2024, Month: 3, Amount: 12.5}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		in   ExpenseUpsert
		want error
	}{
		{"month zero", ExpenseUpsert{CategoryID: "c1", Year: 2024, Month: 0}, ErrInvalidMonth},
		{"month 13", ExpenseUpsert{CategoryID: "c1", Year: 2024, Month: 13}, ErrInvalidMonth},
		{"year too old", ExpenseUpsert{CategoryID: "c1", Year: 1999, Month: 1}, ErrInvalidYear},
		{"negative amount", ExpenseUpsert{CategoryID: "c1", Year: 2024, Month: 1, Amount: -1}, ErrInvalidAmount},
		{"nan amount", ExpenseUpsert{CategoryID: "c1", Year: 2024, Month: 1, Amount: math.NaN()}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.in.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if err := (ExpenseUpsert{Year: 2024, Month: 1}).Validate(); err == nil {
		t.Fatalf("expected error for empty category id")
	}
}

func TestYearlyExpenseValidate(t *testing.T) {
	if err := (YearlyExpense{Year: 2024, Name: "Застраховка", Amount: 120}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (YearlyExpense{Year: 2024, Name: "   ", Amount: 1}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if !IsValidationError(ErrInvalidYear) || IsValidationError(ErrNotFound) {
		t.Fatalf("IsValidationError misclassified sentinels")
	}
}

func TestMonthTables(t *testing.T) {
	if len(MonthNames) != 12 || len(MonthNumbers) != 12 || len(MonthNamesShort) != 12 {
		t.Fatalf("month tables must have 12 entries")
	}
	for n, name := range MonthNames {
		if MonthNumbers[name] != n {
			t.Fatalf("MonthNumbers[%q] = %d, want %d", name, MonthNumbers[name], n)
		}
	}
	if MonthName(1) != "Януари" || MonthName(13) != "" {
		t.Fatalf("unexpected MonthName results")
	}
}
