package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"razhodi/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) stamp() string {
	return r.now().Format(timeLayout)
}

// Apartments

func (r *SQLiteRepository) ListApartments(ctx context.Context) ([]core.Apartment, error) {
	rows, err := r.queries.ListApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	out := make([]core.Apartment, len(rows))
	for i, a := range rows {
		out[i] = toApartment(a)
	}
	return out, nil
}

func (r *SQLiteRepository) GetApartment(ctx context.Context, id string) (core.Apartment, error) {
	a, err := r.queries.GetApartment(ctx, id)
	if err != nil {
		return core.Apartment{}, fmt.Errorf("get apartment %s: %w", id, notFound(err))
	}
	return toApartment(a), nil
}

func (r *SQLiteRepository) FindApartmentByName(ctx context.Context, name string) (core.Apartment, error) {
	a, err := r.queries.GetApartmentByName(ctx, name)
	if err != nil {
		return core.Apartment{}, fmt.Errorf("find apartment %q: %w", name, notFound(err))
	}
	return toApartment(a), nil
}

func (r *SQLiteRepository) CreateApartment(ctx context.Context, name string) (core.Apartment, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateName(name); err != nil {
		return core.Apartment{}, err
	}
	row := Apartment{ID: uuid.NewString(), Name: name, CreatedAt: r.stamp()}
	if err := r.queries.CreateApartment(ctx, row); err != nil {
		return core.Apartment{}, fmt.Errorf("create apartment: %w", err)
	}
	slog.InfoContext(ctx, "Apartment created", "id", row.ID, "name", name)
	return toApartment(row), nil
}

// Categories

func (r *SQLiteRepository) ListCategories(ctx context.Context, apartmentID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, c := range rows {
		out[i] = toCategory(c)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, notFound(err))
	}
	return toCategory(c), nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, apartmentID, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateName(name); err != nil {
		return core.Category{}, err
	}
	if _, err := r.GetApartment(ctx, apartmentID); err != nil {
		return core.Category{}, err
	}
	row := CreateCategoryParams{
		ID:          uuid.NewString(),
		ApartmentID: apartmentID,
		Name:        name,
		CreatedAt:   r.stamp(),
	}
	sortOrder, err := r.queries.CreateCategory(ctx, row)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return toCategory(Category{
		ID:          row.ID,
		ApartmentID: row.ApartmentID,
		Name:        row.Name,
		SortOrder:   sortOrder,
		CreatedAt:   row.CreatedAt,
	}), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteCategoryExpenses(ctx, id); err != nil {
			return fmt.Errorf("delete category expenses: %w", err)
		}
		n, err := q.DeleteCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// Expenses

func (r *SQLiteRepository) ListExpenses(ctx context.Context, categoryIDs []string, years ...int) ([]core.Expense, error) {
	if len(categoryIDs) == 0 {
		return []core.Expense{}, nil
	}
	rows, err := r.queries.ListExpenses(ctx, categoryIDs, years)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = toExpense(e)
	}
	return out, nil
}

func (r *SQLiteRepository) ExpenseYears(ctx context.Context, categoryIDs []string) ([]int, error) {
	if len(categoryIDs) == 0 {
		return []int{}, nil
	}
	rows, err := r.queries.ExpenseYears(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("expense years: %w", err)
	}
	out := make([]int, len(rows))
	for i, y := range rows {
		out[i] = int(y)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, notFound(err))
	}
	return toExpense(e), nil
}

func (r *SQLiteRepository) UpsertExpenses(ctx context.Context, items []core.ExpenseUpsert) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if len(items) == 0 {
		return nil
	}
	now := r.stamp()
	err := r.withTx(ctx, func(q *Queries) error {
		for _, it := range items {
			err := q.UpsertExpense(ctx, Expense{
				ID:         uuid.NewString(),
				CategoryID: it.CategoryID,
				Year:       int64(it.Year),
				Month:      int64(it.Month),
				Amount:     it.Amount,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			if err != nil {
				return fmt.Errorf("upsert expense %s %d/%d: %w", it.CategoryID, it.Month, it.Year, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "Expenses upserted", "count", len(items))
	return nil
}

func (r *SQLiteRepository) UpdateExpenseAmount(ctx context.Context, id string, amount float64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	n, err := r.queries.UpdateExpenseAmount(ctx, id, amount, r.stamp())
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpenses(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.withTx(ctx, func(q *Queries) error {
		for _, id := range ids {
			if err := q.DeleteExpense(ctx, id); err != nil {
				return fmt.Errorf("delete expense %s: %w", id, err)
			}
		}
		return nil
	})
}

// Rent payments

func (r *SQLiteRepository) ListRentPayments(ctx context.Context, apartmentID string, year int) ([]core.RentPayment, error) {
	rows, err := r.queries.ListRentPayments(ctx, apartmentID, year)
	if err != nil {
		return nil, fmt.Errorf("list rent payments: %w", err)
	}
	out := make([]core.RentPayment, len(rows))
	for i, p := range rows {
		out[i] = toRentPayment(p)
	}
	return out, nil
}

func (r *SQLiteRepository) AddRentPayment(ctx context.Context, apartmentID string, year, month int) (core.RentPayment, error) {
	if err := core.ValidateYear(year); err != nil {
		return core.RentPayment{}, err
	}
	if err := core.ValidateMonth(month); err != nil {
		return core.RentPayment{}, err
	}
	err := r.queries.CreateRentPayment(ctx, RentPayment{
		ID:          uuid.NewString(),
		ApartmentID: apartmentID,
		Year:        int64(year),
		Month:       int64(month),
		CreatedAt:   r.stamp(),
	})
	if err != nil {
		return core.RentPayment{}, fmt.Errorf("create rent payment: %w", err)
	}
	p, err := r.queries.GetRentPayment(ctx, apartmentID, year, month)
	if err != nil {
		return core.RentPayment{}, fmt.Errorf("get rent payment: %w", err)
	}
	return toRentPayment(p), nil
}

func (r *SQLiteRepository) DeleteRentPayment(ctx context.Context, id string) error {
	n, err := r.queries.DeleteRentPayment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete rent payment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rent payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// Yearly expenses

func (r *SQLiteRepository) ListYearlyExpenses(ctx context.Context, apartmentID string, year int) ([]core.YearlyExpense, error) {
	rows, err := r.queries.ListYearlyExpenses(ctx, apartmentID, year)
	if err != nil {
		return nil, fmt.Errorf("list yearly expenses: %w", err)
	}
	out := make([]core.YearlyExpense, len(rows))
	for i, y := range rows {
		out[i] = toYearlyExpense(y)
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertYearlyExpense(ctx context.Context, y core.YearlyExpense) (core.YearlyExpense, error) {
	y.Name = strings.TrimSpace(y.Name)
	if err := y.Validate(); err != nil {
		return core.YearlyExpense{}, err
	}
	now := r.stamp()
	row, err := r.queries.UpsertYearlyExpense(ctx, YearlyExpense{
		ID:          uuid.NewString(),
		ApartmentID: y.ApartmentID,
		Year:        int64(y.Year),
		Name:        y.Name,
		Amount:      y.Amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return core.YearlyExpense{}, fmt.Errorf("upsert yearly expense: %w", err)
	}
	return toYearlyExpense(row), nil
}

func (r *SQLiteRepository) UpdateYearlyExpense(ctx context.Context, id string, amount float64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	n, err := r.queries.UpdateYearlyExpense(ctx, id, amount, r.stamp())
	if err != nil {
		return fmt.Errorf("update yearly expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("yearly expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteYearlyExpense(ctx context.Context, id string) error {
	n, err := r.queries.DeleteYearlyExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete yearly expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("yearly expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toApartment(a Apartment) core.Apartment {
	return core.Apartment{ID: a.ID, Name: a.Name, CreatedAt: parseTime(a.CreatedAt)}
}

func toCategory(c Category) core.Category {
	return core.Category{
		ID:          c.ID,
		ApartmentID: c.ApartmentID,
		Name:        c.Name,
		SortOrder:   int(c.SortOrder),
		CreatedAt:   parseTime(c.CreatedAt),
	}
}

func toExpense(e Expense) core.Expense {
	return core.Expense{
		ID:         e.ID,
		CategoryID: e.CategoryID,
		Year:       int(e.Year),
		Month:      int(e.Month),
		Amount:     e.Amount,
		CreatedAt:  parseTime(e.CreatedAt),
		UpdatedAt:  parseTime(e.UpdatedAt),
	}
}

func toRentPayment(p RentPayment) core.RentPayment {
	return core.RentPayment{
		ID:          p.ID,
		ApartmentID: p.ApartmentID,
		Year:        int(p.Year),
		Month:       int(p.Month),
		CreatedAt:   parseTime(p.CreatedAt),
	}
}

func toYearlyExpense(y YearlyExpense) core.YearlyExpense {
	return core.YearlyExpense{
		ID:          y.ID,
		ApartmentID: y.ApartmentID,
		Year:        int(y.Year),
		Name:        y.Name,
		Amount:      y.Amount,
		CreatedAt:   parseTime(y.CreatedAt),
		UpdatedAt:   parseTime(y.UpdatedAt),
	}
}
