package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"razhodi/internal/core"
	"razhodi/internal/ledger"
)

// Dashboard is what the year view shows for one apartment.
type Dashboard struct {
	Apartment core.Apartment   `json:"apartment"`
	Grid      core.YearGrid    `json:"grid"`
	Summary   core.YearSummary `json:"summary"`
	Previous  core.YearGrid    `json:"previous"`
}

// MonthEntry is one category amount when saving a whole month.
type MonthEntry struct {
	CategoryID string  `json:"category_id"`
	Amount     float64 `json:"amount"`
}

// ExpenseService reads and writes the monthly expense grid.
type ExpenseService struct {
	base
}

func NewExpenseService(store ledger.Store, publisher GridPublisher) *ExpenseService {
	return &ExpenseService{base: newBase(store, publisher)}
}

// YearGrid builds the month-by-category grid of one year.
func (s *ExpenseService) YearGrid(ctx context.Context, apartmentID string, year int) (core.YearGrid, error) {
	if err := core.ValidateYear(year); err != nil {
		return core.YearGrid{}, err
	}
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return core.YearGrid{}, err
	}
	return s.grid(ctx, cats, year)
}

func (s *ExpenseService) grid(ctx context.Context, cats []core.Category, year int) (core.YearGrid, error) {
	expenses, err := s.store.ListExpenses(ctx, categoryIDs(cats), year)
	if err != nil {
		return core.YearGrid{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.BuildYearGrid(year, cats, expenses), nil
}

// Dashboard loads a year's grid and summary together with the previous
// year's grid for comparison.
func (s *ExpenseService) Dashboard(ctx context.Context, apartmentID string, year int) (Dashboard, error) {
	if err := core.ValidateYear(year); err != nil {
		return Dashboard{}, err
	}
	apt, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Apartment: apt}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Grid, err = s.grid(gctx, cats, year)
		return err
	})
	g.Go(func() error {
		var err error
		d.Previous, err = s.grid(gctx, cats, year-1)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	d.Summary = d.Grid.Summarize()
	return d, nil
}

// AvailableYears lists the years with expenses, newest first. An apartment
// without any falls back to the current year.
func (s *ExpenseService) AvailableYears(ctx context.Context, apartmentID string) ([]int, error) {
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	return s.availableYears(ctx, cats)
}

func (s *ExpenseService) availableYears(ctx context.Context, cats []core.Category) ([]int, error) {
	current := s.now().Year()
	if len(cats) == 0 {
		return []int{current}, nil
	}
	years, err := s.store.ExpenseYears(ctx, categoryIDs(cats))
	if err != nil {
		return nil, fmt.Errorf("expense years: %w", err)
	}
	if len(years) == 0 {
		return []int{current}, nil
	}
	return sortedDesc(years), nil
}

// Trends returns the monthly totals of every available year except the
// selected one, newest first. Years without any positive month are left out.
func (s *ExpenseService) Trends(ctx context.Context, apartmentID string, selectedYear int) ([]core.YearMonthlyTotals, error) {
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	years, err := s.availableYears(ctx, cats)
	if err != nil {
		return nil, err
	}

	var others []int
	for _, y := range years {
		if y != selectedYear {
			others = append(others, y)
		}
	}

	ids := categoryIDs(cats)
	totals := make([]core.YearMonthlyTotals, len(others))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, y := range others {
		g.Go(func() error {
			expenses, err := s.store.ListExpenses(gctx, ids, y)
			if err != nil {
				return fmt.Errorf("list expenses for %d: %w", y, err)
			}
			totals[i] = core.MonthlyTotals(y, expenses)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]core.YearMonthlyTotals, 0, len(totals))
	for _, t := range totals {
		if t.HasData() {
			out = append(out, t)
		}
	}
	return out, nil
}

// Upsert writes one amount for a category of the apartment.
func (s *ExpenseService) Upsert(ctx context.Context, apartmentID string, u core.ExpenseUpsert) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return err
	}
	if !categorySet(cats)[u.CategoryID] {
		return fmt.Errorf("category %s: %w", u.CategoryID, core.ErrNotFound)
	}
	if err := s.store.UpsertExpenses(ctx, []core.ExpenseUpsert{u}); err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	s.gridChanged(ctx, apartmentID, u.Year)
	return nil
}

// SaveMonth writes a month's amounts in one go. Entries with a zero amount
// are skipped rather than stored.
func (s *ExpenseService) SaveMonth(ctx context.Context, apartmentID string, year, month int, entries []MonthEntry) (int, error) {
	if err := core.ValidateYear(year); err != nil {
		return 0, err
	}
	if err := core.ValidateMonth(month); err != nil {
		return 0, err
	}
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return 0, err
	}
	known := categorySet(cats)

	items := make([]core.ExpenseUpsert, 0, len(entries))
	for _, e := range entries {
		if !known[e.CategoryID] {
			return 0, fmt.Errorf("category %s: %w", e.CategoryID, core.ErrNotFound)
		}
		if err := core.ValidateAmount(e.Amount); err != nil {
			return 0, err
		}
		if e.Amount == 0 {
			continue
		}
		items = append(items, core.ExpenseUpsert{CategoryID: e.CategoryID, Year: year, Month: month, Amount: e.Amount})
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertExpenses(ctx, items); err != nil {
		return 0, fmt.Errorf("save month: %w", err)
	}
	s.gridChanged(ctx, apartmentID, year)
	return len(items), nil
}

// UpdateAmount changes the amount of an existing expense.
func (s *ExpenseService) UpdateAmount(ctx context.Context, expenseID string, amount float64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	e, cat, err := s.expenseWithCategory(ctx, expenseID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateExpenseAmount(ctx, expenseID, amount); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.gridChanged(ctx, cat.ApartmentID, e.Year)
	return nil
}

// Delete removes a single expense.
func (s *ExpenseService) Delete(ctx context.Context, expenseID string) error {
	e, cat, err := s.expenseWithCategory(ctx, expenseID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpenses(ctx, expenseID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.gridChanged(ctx, cat.ApartmentID, e.Year)
	return nil
}

// DeleteMonth removes every expense of the apartment in one month and
// reports how many were removed.
func (s *ExpenseService) DeleteMonth(ctx context.Context, apartmentID string, year, month int) (int, error) {
	if err := core.ValidateYear(year); err != nil {
		return 0, err
	}
	if err := core.ValidateMonth(month); err != nil {
		return 0, err
	}
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return 0, err
	}
	expenses, err := s.store.ListExpenses(ctx, categoryIDs(cats), year)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	var ids []string
	for _, e := range expenses {
		if e.Month == month {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.store.DeleteExpenses(ctx, ids...); err != nil {
		return 0, fmt.Errorf("delete month: %w", err)
	}
	s.gridChanged(ctx, apartmentID, year)
	return len(ids), nil
}

func (s *ExpenseService) expenseWithCategory(ctx context.Context, expenseID string) (core.Expense, core.Category, error) {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, core.Category{}, err
	}
	cat, err := s.store.GetCategory(ctx, e.CategoryID)
	if err != nil {
		return core.Expense{}, core.Category{}, err
	}
	return e, cat, nil
}
