// Package memory is an in-process ledger used for local runs and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"razhodi/internal/core"
)

// DefaultCategories are created for seeded apartments when no category
// seed file is present.
var DefaultCategories = []string{"Ток", "Вода", "Парно", "Интернет", "Вход"}

type expenseKey struct {
	categoryID  string
	year, month int
}

type yearlyKey struct {
	apartmentID string
	year        int
	name        string
}

type Store struct {
	mu         sync.RWMutex
	apartments map[string]core.Apartment
	categories map[string]core.Category
	expenses   map[string]core.Expense
	byKey      map[expenseKey]string
	rent       map[string]core.RentPayment
	yearly     map[string]core.YearlyExpense
	yearlyKeys map[yearlyKey]string

	now func() time.Time
}

func New() *Store {
	return &Store{
		apartments: map[string]core.Apartment{},
		categories: map[string]core.Category{},
		expenses:   map[string]core.Expense{},
		byKey:      map[expenseKey]string{},
		rent:       map[string]core.RentPayment{},
		yearly:     map[string]core.YearlyExpense{},
		yearlyKeys: map[yearlyKey]string{},
		now:        time.Now,
	}
}

// NewFromFiles seeds apartments from base/seed_apartments.txt and gives each
// the categories listed in base/seed_categories.txt. Missing files are not
// an error.
func NewFromFiles(base string) *Store {
	s := New()
	apartments := readLines(filepath.Join(base, "seed_apartments.txt"))
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	ctx := context.Background()
	for _, name := range apartments {
		apt, err := s.CreateApartment(ctx, name)
		if err != nil {
			continue
		}
		for _, c := range cats {
			_, _ = s.AddCategory(ctx, apt.ID, c)
		}
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Apartments

func (s *Store) ListApartments(_ context.Context) ([]core.Apartment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Apartment, 0, len(s.apartments))
	for _, a := range s.apartments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetApartment(_ context.Context, id string) (core.Apartment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apartments[id]
	if !ok {
		return core.Apartment{}, fmt.Errorf("apartment %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func (s *Store) FindApartmentByName(_ context.Context, name string) (core.Apartment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.apartments {
		if a.Name == name {
			return a, nil
		}
	}
	return core.Apartment{}, fmt.Errorf("apartment %q: %w", name, core.ErrNotFound)
}

func (s *Store) CreateApartment(_ context.Context, name string) (core.Apartment, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateName(name); err != nil {
		return core.Apartment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := core.Apartment{ID: uuid.NewString(), Name: name, CreatedAt: s.now()}
	s.apartments[a.ID] = a
	return a, nil
}

// Categories

func (s *Store) ListCategories(_ context.Context, apartmentID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoriesOf(apartmentID), nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) categoriesOf(apartmentID string) []core.Category {
	out := []core.Category{}
	for _, c := range s.categories {
		if c.ApartmentID == apartmentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) AddCategory(_ context.Context, apartmentID, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateName(name); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apartments[apartmentID]; !ok {
		return core.Category{}, fmt.Errorf("apartment %s: %w", apartmentID, core.ErrNotFound)
	}
	next := 1
	for _, c := range s.categories {
		if c.ApartmentID == apartmentID && c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	c := core.Category{
		ID:          uuid.NewString(),
		ApartmentID: apartmentID,
		Name:        name,
		SortOrder:   next,
		CreatedAt:   s.now(),
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	delete(s.categories, id)
	for eid, e := range s.expenses {
		if e.CategoryID == id {
			s.deleteExpense(eid)
		}
	}
	return nil
}

// Expenses

func (s *Store) ListExpenses(_ context.Context, categoryIDs []string, years ...int) ([]core.Expense, error) {
	cats := toSet(categoryIDs)
	wantYears := map[int]bool{}
	for _, y := range years {
		wantYears[y] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if !cats[e.CategoryID] {
			continue
		}
		if len(wantYears) > 0 && !wantYears[e.Year] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *Store) ExpenseYears(_ context.Context, categoryIDs []string) ([]int, error) {
	cats := toSet(categoryIDs)

	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[int]bool{}
	out := []int{}
	for _, e := range s.expenses {
		if cats[e.CategoryID] && !seen[e.Year] {
			seen[e.Year] = true
			out = append(out, e.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) UpsertExpenses(_ context.Context, items []core.ExpenseUpsert) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if _, ok := s.categories[it.CategoryID]; !ok {
			return fmt.Errorf("category %s: %w", it.CategoryID, core.ErrNotFound)
		}
	}
	now := s.now()
	for _, it := range items {
		k := expenseKey{it.CategoryID, it.Year, it.Month}
		if id, ok := s.byKey[k]; ok {
			e := s.expenses[id]
			e.Amount = it.Amount
			e.UpdatedAt = now
			s.expenses[id] = e
			continue
		}
		e := core.Expense{
			ID:         uuid.NewString(),
			CategoryID: it.CategoryID,
			Year:       it.Year,
			Month:      it.Month,
			Amount:     it.Amount,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.expenses[e.ID] = e
		s.byKey[k] = e.ID
	}
	return nil
}

func (s *Store) UpdateExpenseAmount(_ context.Context, id string, amount float64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	e.Amount = amount
	e.UpdatedAt = s.now()
	s.expenses[id] = e
	return nil
}

// DeleteExpenses removes the given expenses; unknown IDs are ignored.
func (s *Store) DeleteExpenses(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.deleteExpense(id)
	}
	return nil
}

func (s *Store) deleteExpense(id string) {
	e, ok := s.expenses[id]
	if !ok {
		return
	}
	delete(s.expenses, id)
	delete(s.byKey, expenseKey{e.CategoryID, e.Year, e.Month})
}

// Rent payments

func (s *Store) ListRentPayments(_ context.Context, apartmentID string, year int) ([]core.RentPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.RentPayment{}
	for _, p := range s.rent {
		if p.ApartmentID == apartmentID && p.Year == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Store) AddRentPayment(_ context.Context, apartmentID string, year, month int) (core.RentPayment, error) {
	if err := core.ValidateYear(year); err != nil {
		return core.RentPayment{}, err
	}
	if err := core.ValidateMonth(month); err != nil {
		return core.RentPayment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rent {
		if p.ApartmentID == apartmentID && p.Year == year && p.Month == month {
			return p, nil
		}
	}
	p := core.RentPayment{
		ID:          uuid.NewString(),
		ApartmentID: apartmentID,
		Year:        year,
		Month:       month,
		CreatedAt:   s.now(),
	}
	s.rent[p.ID] = p
	return p, nil
}

func (s *Store) DeleteRentPayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rent[id]; !ok {
		return fmt.Errorf("rent payment %s: %w", id, core.ErrNotFound)
	}
	delete(s.rent, id)
	return nil
}

// Yearly expenses

func (s *Store) ListYearlyExpenses(_ context.Context, apartmentID string, year int) ([]core.YearlyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.YearlyExpense{}
	for _, y := range s.yearly {
		if y.ApartmentID == apartmentID && y.Year == year {
			out = append(out, y)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpsertYearlyExpense(_ context.Context, y core.YearlyExpense) (core.YearlyExpense, error) {
	y.Name = strings.TrimSpace(y.Name)
	if err := y.Validate(); err != nil {
		return core.YearlyExpense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	k := yearlyKey{y.ApartmentID, y.Year, y.Name}
	if id, ok := s.yearlyKeys[k]; ok {
		cur := s.yearly[id]
		cur.Amount = y.Amount
		cur.UpdatedAt = now
		s.yearly[id] = cur
		return cur, nil
	}
	y.ID = uuid.NewString()
	y.CreatedAt = now
	y.UpdatedAt = now
	s.yearly[y.ID] = y
	s.yearlyKeys[k] = y.ID
	return y, nil
}

func (s *Store) UpdateYearlyExpense(_ context.Context, id string, amount float64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	y, ok := s.yearly[id]
	if !ok {
		return fmt.Errorf("yearly expense %s: %w", id, core.ErrNotFound)
	}
	y.Amount = amount
	y.UpdatedAt = s.now()
	s.yearly[id] = y
	return nil
}

func (s *Store) DeleteYearlyExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, ok := s.yearly[id]
	if !ok {
		return fmt.Errorf("yearly expense %s: %w", id, core.ErrNotFound)
	}
	delete(s.yearly, id)
	delete(s.yearlyKeys, yearlyKey{y.ApartmentID, y.Year, y.Name})
	return nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
