package storage

import (
	"context"
	"database/sql"
	"strings"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Rows as stored. Timestamps are RFC 3339 text.

type Apartment struct {
	ID        string
	Name      string
	CreatedAt string
}

type Category struct {
	ID          string
	ApartmentID string
	Name        string
	SortOrder   int64
	CreatedAt   string
}

type Expense struct {
	ID         string
	CategoryID string
	Year       int64
	Month      int64
	Amount     float64
	CreatedAt  string
	UpdatedAt  string
}

type RentPayment struct {
	ID          string
	ApartmentID string
	Year        int64
	Month       int64
	CreatedAt   string
}

type YearlyExpense struct {
	ID          string
	ApartmentID string
	Year        int64
	Name        string
	Amount      float64
	CreatedAt   string
	UpdatedAt   string
}

const listApartments = `SELECT id, name, created_at FROM apartments ORDER BY name, created_at`

func (q *Queries) ListApartments(ctx context.Context) ([]Apartment, error) {
	rows, err := q.db.QueryContext(ctx, listApartments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Apartment{}
	for rows.Next() {
		var i Apartment
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getApartment = `SELECT id, name, created_at FROM apartments WHERE id = ?`

func (q *Queries) GetApartment(ctx context.Context, id string) (Apartment, error) {
	var i Apartment
	err := q.db.QueryRowContext(ctx, getApartment, id).Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getApartmentByName = `SELECT id, name, created_at FROM apartments WHERE name = ? ORDER BY created_at LIMIT 1`

func (q *Queries) GetApartmentByName(ctx context.Context, name string) (Apartment, error) {
	var i Apartment
	err := q.db.QueryRowContext(ctx, getApartmentByName, name).Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const createApartment = `INSERT INTO apartments (id, name, created_at) VALUES (?, ?, ?)`

func (q *Queries) CreateApartment(ctx context.Context, arg Apartment) error {
	_, err := q.db.ExecContext(ctx, createApartment, arg.ID, arg.Name, arg.CreatedAt)
	return err
}

const listCategories = `SELECT id, apartment_id, name, sort_order, created_at
FROM categories WHERE apartment_id = ? ORDER BY sort_order, created_at`

func (q *Queries) ListCategories(ctx context.Context, apartmentID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, apartmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.ApartmentID, &i.Name, &i.SortOrder, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getCategory = `SELECT id, apartment_id, name, sort_order, created_at FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (Category, error) {
	var i Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&i.ID, &i.ApartmentID, &i.Name, &i.SortOrder, &i.CreatedAt)
	return i, err
}

const createCategory = `INSERT INTO categories (id, apartment_id, name, sort_order, created_at)
SELECT ?1, ?2, ?3, COALESCE(MAX(sort_order), 0) + 1, ?4 FROM categories WHERE apartment_id = ?2
RETURNING sort_order`

type CreateCategoryParams struct {
	ID          string
	ApartmentID string
	Name        string
	CreatedAt   string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (int64, error) {
	var sortOrder int64
	err := q.db.QueryRowContext(ctx, createCategory, arg.ID, arg.ApartmentID, arg.Name, arg.CreatedAt).Scan(&sortOrder)
	return sortOrder, err
}

const deleteCategoryExpenses = `DELETE FROM expenses WHERE category_id = ?`

func (q *Queries) DeleteCategoryExpenses(ctx context.Context, categoryID string) error {
	_, err := q.db.ExecContext(ctx, deleteCategoryExpenses, categoryID)
	return err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listExpenses = `SELECT id, category_id, year, month, amount, created_at, updated_at
FROM expenses WHERE category_id IN (/*categories*/) /*years*/
ORDER BY year, month, category_id`

// ListExpenses filters by year only when years is not empty.
func (q *Queries) ListExpenses(ctx context.Context, categoryIDs []string, years []int) ([]Expense, error) {
	query := strings.Replace(listExpenses, "/*categories*/", placeholders(len(categoryIDs)), 1)
	yearFilter := ""
	if len(years) > 0 {
		yearFilter = "AND year IN (" + placeholders(len(years)) + ")"
	}
	query = strings.Replace(query, "/*years*/", yearFilter, 1)

	args := make([]interface{}, 0, len(categoryIDs)+len(years))
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	for _, y := range years {
		args = append(args, y)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Expense{}
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.Year, &i.Month, &i.Amount, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const expenseYears = `SELECT DISTINCT year FROM expenses WHERE category_id IN (/*categories*/) ORDER BY year DESC`

func (q *Queries) ExpenseYears(ctx context.Context, categoryIDs []string) ([]int64, error) {
	query := strings.Replace(expenseYears, "/*categories*/", placeholders(len(categoryIDs)), 1)
	args := make([]interface{}, len(categoryIDs))
	for i, id := range categoryIDs {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []int64{}
	for rows.Next() {
		var y int64
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		items = append(items, y)
	}
	return items, rows.Err()
}

const getExpense = `SELECT id, category_id, year, month, amount, created_at, updated_at FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id string) (Expense, error) {
	var i Expense
	err := q.db.QueryRowContext(ctx, getExpense, id).
		Scan(&i.ID, &i.CategoryID, &i.Year, &i.Month, &i.Amount, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertExpense = `INSERT INTO expenses (id, category_id, year, month, amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (category_id, year, month) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`

func (q *Queries) UpsertExpense(ctx context.Context, arg Expense) error {
	_, err := q.db.ExecContext(ctx, upsertExpense,
		arg.ID, arg.CategoryID, arg.Year, arg.Month, arg.Amount, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const updateExpenseAmount = `UPDATE expenses SET amount = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateExpenseAmount(ctx context.Context, id string, amount float64, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpenseAmount, amount, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteExpense, id)
	return err
}

const listRentPayments = `SELECT id, apartment_id, year, month, created_at
FROM rent_payments WHERE apartment_id = ? AND year = ? ORDER BY month`

func (q *Queries) ListRentPayments(ctx context.Context, apartmentID string, year int) ([]RentPayment, error) {
	rows, err := q.db.QueryContext(ctx, listRentPayments, apartmentID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []RentPayment{}
	for rows.Next() {
		var i RentPayment
		if err := rows.Scan(&i.ID, &i.ApartmentID, &i.Year, &i.Month, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createRentPayment = `INSERT INTO rent_payments (id, apartment_id, year, month, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (apartment_id, year, month) DO NOTHING`

func (q *Queries) CreateRentPayment(ctx context.Context, arg RentPayment) error {
	_, err := q.db.ExecContext(ctx, createRentPayment, arg.ID, arg.ApartmentID, arg.Year, arg.Month, arg.CreatedAt)
	return err
}

const getRentPayment = `SELECT id, apartment_id, year, month, created_at
FROM rent_payments WHERE apartment_id = ? AND year = ? AND month = ?`

func (q *Queries) GetRentPayment(ctx context.Context, apartmentID string, year, month int) (RentPayment, error) {
	var i RentPayment
	err := q.db.QueryRowContext(ctx, getRentPayment, apartmentID, year, month).
		Scan(&i.ID, &i.ApartmentID, &i.Year, &i.Month, &i.CreatedAt)
	return i, err
}

const deleteRentPayment = `DELETE FROM rent_payments WHERE id = ?`

func (q *Queries) DeleteRentPayment(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRentPayment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listYearlyExpenses = `SELECT id, apartment_id, year, name, amount, created_at, updated_at
FROM yearly_expenses WHERE apartment_id = ? AND year = ? ORDER BY name`

func (q *Queries) ListYearlyExpenses(ctx context.Context, apartmentID string, year int) ([]YearlyExpense, error) {
	rows, err := q.db.QueryContext(ctx, listYearlyExpenses, apartmentID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []YearlyExpense{}
	for rows.Next() {
		var i YearlyExpense
		if err := rows.Scan(&i.ID, &i.ApartmentID, &i.Year, &i.Name, &i.Amount, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertYearlyExpense = `INSERT INTO yearly_expenses (id, apartment_id, year, name, amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (apartment_id, year, name) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
RETURNING id, apartment_id, year, name, amount, created_at, updated_at`

func (q *Queries) UpsertYearlyExpense(ctx context.Context, arg YearlyExpense) (YearlyExpense, error) {
	var i YearlyExpense
	err := q.db.QueryRowContext(ctx, upsertYearlyExpense,
		arg.ID, arg.ApartmentID, arg.Year, arg.Name, arg.Amount, arg.CreatedAt, arg.UpdatedAt,
	).Scan(&i.ID, &i.ApartmentID, &i.Year, &i.Name, &i.Amount, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateYearlyExpense = `UPDATE yearly_expenses SET amount = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateYearlyExpense(ctx context.Context, id string, amount float64, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateYearlyExpense, amount, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteYearlyExpense = `DELETE FROM yearly_expenses WHERE id = ?`

func (q *Queries) DeleteYearlyExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteYearlyExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// placeholders returns "?, ?, ..." for n arguments, or "NULL" for none so
// that an empty IN list matches nothing.
func placeholders(n int) string {
	if n == 0 {
		return "NULL"
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
