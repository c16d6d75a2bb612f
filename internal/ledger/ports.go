// Package ledger defines the data-access contract shared by the storage
// backends.
package ledger

import (
	"context"

	"razhodi/internal/core"
)

// Ports for outbound adapters.
type (
	ApartmentStore interface {
		// ListApartments returns all apartments ordered by name.
		ListApartments(ctx context.Context) ([]core.Apartment, error)
		GetApartment(ctx context.Context, id string) (core.Apartment, error)
		// FindApartmentByName returns core.ErrNotFound when no apartment has that name.
		FindApartmentByName(ctx context.Context, name string) (core.Apartment, error)
		CreateApartment(ctx context.Context, name string) (core.Apartment, error)
	}

	CategoryStore interface {
		// ListCategories returns an apartment's categories ordered by sort order.
		ListCategories(ctx context.Context, apartmentID string) ([]core.Category, error)
		GetCategory(ctx context.Context, id string) (core.Category, error)
		// AddCategory appends a category after the apartment's last one.
		AddCategory(ctx context.Context, apartmentID, name string) (core.Category, error)
		// DeleteCategory removes a category together with its expenses.
		DeleteCategory(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		// ListExpenses returns the expenses of the given categories ordered by
		// year and month. With no years, every year is returned.
		ListExpenses(ctx context.Context, categoryIDs []string, years ...int) ([]core.Expense, error)
		// ExpenseYears returns the distinct years with expenses, newest first.
		ExpenseYears(ctx context.Context, categoryIDs []string) ([]int, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		// UpsertExpenses writes amounts keyed by (category, year, month),
		// replacing any existing amount for the key.
		UpsertExpenses(ctx context.Context, items []core.ExpenseUpsert) error
		UpdateExpenseAmount(ctx context.Context, id string, amount float64) error
		DeleteExpenses(ctx context.Context, ids ...string) error
	}

	RentPaymentStore interface {
		ListRentPayments(ctx context.Context, apartmentID string, year int) ([]core.RentPayment, error)
		AddRentPayment(ctx context.Context, apartmentID string, year, month int) (core.RentPayment, error)
		DeleteRentPayment(ctx context.Context, id string) error
	}

	YearlyExpenseStore interface {
		// ListYearlyExpenses returns one year's yearly expenses ordered by name.
		ListYearlyExpenses(ctx context.Context, apartmentID string, year int) ([]core.YearlyExpense, error)
		// UpsertYearlyExpense writes an amount keyed by (apartment, year, name).
		UpsertYearlyExpense(ctx context.Context, y core.YearlyExpense) (core.YearlyExpense, error)
		UpdateYearlyExpense(ctx context.Context, id string, amount float64) error
		DeleteYearlyExpense(ctx context.Context, id string) error
	}

	// Store is everything the services need from a backend.
	Store interface {
		ApartmentStore
		CategoryStore
		ExpenseStore
		RentPaymentStore
		YearlyExpenseStore

		Ping(ctx context.Context) error
		Close() error
	}
)
