// Package csvsheet reads and writes the year-blocked expense spreadsheets
// the household keeps: a year marker row, a header row of category names,
// one row per month and a few summary rows, repeated once per year.
package csvsheet

import (
	"encoding/csv"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"razhodi/internal/core"
)

// Labels used by the spreadsheets for computed rows and columns.
const (
	LabelTotal       = "Общо"
	LabelYearTotal   = "Общо/година"
	LabelMonthlyAvg  = "Средно/месец"
	LabelMonthColumn = "Месец"
)

var (
	aggregateColumns = map[string]bool{LabelTotal: true, LabelYearTotal: true}
	summaryRows      = map[string]bool{LabelTotal: true, LabelMonthlyAvg: true}
)

// ParsedExpense is one amount recovered from a data row.
type ParsedExpense struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
}

// ParseResult is everything recovered from one document.
type ParseResult struct {
	Expenses      []ParsedExpense `json:"expenses"`
	Years         []int           `json:"years"`
	CategoryNames []string        `json:"category_names"`
	Errors        []string        `json:"errors"`
}

// Parse reads a CSV export of the spreadsheet. It never fails: rows it
// cannot make sense of are dropped. Quotes are read leniently and rows may
// have any width, so the tokenizer accepts every input and Errors stays
// empty.
func Parse(text string) ParseResult {
	// the BOM decoder replaces invalid UTF-8 instead of failing
	text, _, _ = transform.String(xunicode.UTF8BOM.NewDecoder(), text)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		res := ParseRecords(records)
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	return ParseRecords(records)
}

// ParseRecords applies the row recognition rules to already tokenized rows.
func ParseRecords(records [][]string) ParseResult {
	res := ParseResult{
		Expenses:      []ParsedExpense{},
		Years:         []int{},
		CategoryNames: []string{},
		Errors:        []string{},
	}
	seenYears := map[int]bool{}
	seenNames := map[string]bool{}

	var (
		year    int
		headers []string
	)

	for _, raw := range records {
		row := make([]string, len(raw))
		for i, c := range raw {
			row[i] = trimCell(c)
		}
		if len(row) == 0 {
			continue
		}

		if y, ok := yearMarker(row); ok {
			year = y
			headers = nil
			if !seenYears[y] {
				seenYears[y] = true
				res.Years = append(res.Years, y)
			}
			continue
		}

		if summaryRows[row[0]] {
			continue
		}

		if year != 0 && len(headers) == 0 && isHeaderRow(row) {
			headers = row
			for _, h := range headers {
				if isCategoryLabel(h) && !seenNames[h] {
					seenNames[h] = true
					res.CategoryNames = append(res.CategoryNames, h)
				}
			}
			continue
		}

		month, ok := core.MonthNumbers[row[0]]
		if !ok || year == 0 || len(headers) == 0 {
			continue
		}
		for j := 1; j < len(row) && j < len(headers); j++ {
			if !isCategoryLabel(headers[j]) {
				continue
			}
			amount, ok := parseCellAmount(row[j])
			if !ok {
				continue
			}
			res.Expenses = append(res.Expenses, ParsedExpense{
				Year:         year,
				Month:        month,
				CategoryName: headers[j],
				Amount:       amount,
			})
		}
	}

	sort.Ints(res.Years)
	return res
}

// yearMarker matches a row holding only a year between 2000 and 2099.
func yearMarker(row []string) (int, bool) {
	f, err := strconv.ParseFloat(row[0], 64)
	if err != nil || f != math.Trunc(f) || f < core.MinYear || f > core.MaxYear {
		return 0, false
	}
	for _, c := range row[1:] {
		if c != "" {
			return 0, false
		}
	}
	return int(f), true
}

// isHeaderRow reports whether some cell after the first is a text label.
func isHeaderRow(row []string) bool {
	for _, c := range row[1:] {
		if c != "" && !aggregateColumns[c] && !isNumeric(c) {
			return true
		}
	}
	return false
}

func isCategoryLabel(h string) bool {
	return h != "" && h != LabelMonthColumn && !aggregateColumns[h]
}

// isNumeric reports whether a header cell reads as a number. Overflowing
// literals such as 1e400 count as numbers; of the spelled-out infinities only
// "Infinity" does, and "NaN" is text.
func isNumeric(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return true
	}
	if err != nil || math.IsNaN(f) {
		return false
	}
	if math.IsInf(f, 0) {
		return strings.TrimLeft(s, "+-") == "Infinity"
	}
	return true
}

// parseCellAmount keeps digits, commas, hyphens and periods, treats the
// first comma as the decimal separator and accepts only positive results.
func parseCellAmount(cell string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, cell)
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 || v > core.MaxAmount {
		return 0, false
	}
	return v, true
}

func trimCell(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}
