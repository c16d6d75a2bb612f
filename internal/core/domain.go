package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	MinYear = 2000
	MaxYear = 2099
)

type (
	Apartment struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	Category struct {
		ID          string    `json:"id"`
		ApartmentID string    `json:"apartment_id"`
		Name        string    `json:"name"`
		SortOrder   int       `json:"sort_order"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Expense is the amount spent on one category in one month.
	// There is at most one per (CategoryID, Year, Month).
	Expense struct {
		ID         string    `json:"id"`
		CategoryID string    `json:"category_id"`
		Year       int       `json:"year"`
		Month      int       `json:"month"`
		Amount     float64   `json:"amount"`
		CreatedAt  time.Time `json:"created_at"`
		UpdatedAt  time.Time `json:"updated_at"`
	}

	// ExpenseUpsert is a write keyed on (CategoryID, Year, Month).
	ExpenseUpsert struct {
		CategoryID string  `json:"category_id"`
		Year       int     `json:"year"`
		Month      int     `json:"month"`
		Amount     float64 `json:"amount"`
	}

	RentPayment struct {
		ID          string    `json:"id"`
		ApartmentID string    `json:"apartment_id"`
		Year        int       `json:"year"`
		Month       int       `json:"month"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// YearlyExpense is a once-a-year cost (insurance, property tax...).
	// There is at most one per (ApartmentID, Year, Name).
	YearlyExpense struct {
		ID          string    `json:"id"`
		ApartmentID string    `json:"apartment_id"`
		Year        int       `json:"year"`
		Name        string    `json:"name"`
		Amount      float64   `json:"amount"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrNameTooLong   = errors.New("name too long (max 200 characters)")
	ErrNoCategory    = errors.New("missing category")
)

// IsValidationError reports whether err is one of the input validation sentinels.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidYear) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrNameTooLong) ||
		errors.Is(err, ErrNoCategory)
}

func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}

// MaxAmount is the largest amount accepted anywhere. It keeps every sum of
// amounts well inside int64 cents.
const MaxAmount = 1e12

func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 || amount > MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

func (u ExpenseUpsert) Validate() error {
	if strings.TrimSpace(u.CategoryID) == "" {
		return ErrNoCategory
	}
	if err := ValidateYear(u.Year); err != nil {
		return err
	}
	if err := ValidateMonth(u.Month); err != nil {
		return err
	}
	return ValidateAmount(u.Amount)
}

func (y YearlyExpense) Validate() error {
	if err := ValidateYear(y.Year); err != nil {
		return err
	}
	if err := ValidateName(y.Name); err != nil {
		return err
	}
	return ValidateAmount(y.Amount)
}
