// Package core provides money parsing and handling utilities.
//
// This file contains the fixed BGN/EUR conversion, cent arithmetic and the
// formatting used for amounts shown to the user.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// BGNToEURRate is the fixed lev/euro conversion rate.
const BGNToEURRate = 1.95583

const nbsp = "\u00a0"

func BGNToEUR(bgn float64) float64 {
	return bgn / BGNToEURRate
}

func EURToBGN(eur float64) float64 {
	return eur * BGNToEURRate
}

// FormatCurrency formats an amount with two decimals, non-breaking space
// thousands separators and a euro suffix.
//
// Examples:
//
//	FormatCurrency(1234.5) -> "1 234.50 €"
//	FormatCurrency(7)      -> "7.00 €"
func FormatCurrency(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(s, ".")
	return withThousands(intPart) + "." + decPart + " €"
}

// FormatCurrencyShort rounds to whole euros.
func FormatCurrencyShort(amount float64) string {
	return withThousands(strconv.FormatFloat(math.Round(amount), 'f', 0, 64)) + " €"
}

func withThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(nbsp)
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// Money is an amount in cents. Totals are accumulated as Money and turned
// back into a float only for JSON and CSV output.
type Money struct {
	Cents int64
}

// MoneyOf rounds amount half away from zero to whole cents.
func MoneyOf(amount float64) Money {
	return Money{Cents: int64(math.Round(amount * 100))}
}

func (m Money) Add(amount float64) Money {
	return Money{Cents: m.Cents + MoneyOf(amount).Cents}
}

// Float returns the amount as a float64 for output.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100
}

// ParseAmount converts a user-typed amount to a number rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// ignores spaces and non-breaking spaces used as thousands separators.
// Negative values and anything that is not a plain decimal are rejected.
func ParseAmount(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return 0, err
	}
	return Money{Cents: cents}.Float(), nil
}

// ParseDecimalToCents converts a decimal string to cents, rounding half up
// on the third decimal place. Zero is allowed.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") || (intPart == "" && fracPart == "") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || float64(iv) > MaxAmount {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}
	return iv*100 + frac, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
