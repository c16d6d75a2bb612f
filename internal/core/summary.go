package core

import "math"

// MonthRow is one line of the year grid: a month and what each category cost in it.
type MonthRow struct {
	Month      int                `json:"month"`
	MonthName  string             `json:"month_name"`
	Expenses   map[string]float64 `json:"expenses"`    // category ID -> amount
	ExpenseIDs map[string]string  `json:"expense_ids"` // category ID -> expense ID
	Total      float64            `json:"total"`
}

// YearGrid is the month-by-category table of one apartment for one year.
type YearGrid struct {
	Year         int                `json:"year"`
	Categories   []Category         `json:"categories"`
	Rows         []MonthRow         `json:"rows"`
	ColumnTotals map[string]float64 `json:"column_totals"` // category ID -> total
	GrandTotal   float64            `json:"grand_total"`
}

// MonthTotal names a month together with its total.
type MonthTotal struct {
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Total     float64 `json:"total"`
}

// YearSummary is the headline numbers of a year grid.
type YearSummary struct {
	Year           int                `json:"year"`
	Total          float64            `json:"total"`
	MonthlyAverage float64            `json:"monthly_average"`
	HighestMonth   MonthTotal         `json:"highest_month"`
	LowestMonth    MonthTotal         `json:"lowest_month"`
	CategoryTotals map[string]float64 `json:"category_totals"`
}

// YearMonthlyTotals holds the twelve month totals of a year; index 0 is January.
type YearMonthlyTotals struct {
	Year        int         `json:"year"`
	MonthTotals [12]float64 `json:"month_totals"`
}

// BuildYearGrid lays out expenses as twelve month rows.
// Expenses of categories outside cats, or of another year, are ignored.
func BuildYearGrid(year int, cats []Category, expenses []Expense) YearGrid {
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}

	rows := make([]MonthRow, 12)
	for i := range rows {
		rows[i] = MonthRow{
			Month:      i + 1,
			MonthName:  MonthNames[i+1],
			Expenses:   map[string]float64{},
			ExpenseIDs: map[string]string{},
		}
	}

	for _, e := range expenses {
		if e.Year != year || !known[e.CategoryID] || ValidateMonth(e.Month) != nil {
			continue
		}
		row := &rows[e.Month-1]
		row.Expenses[e.CategoryID] = e.Amount
		row.ExpenseIDs[e.CategoryID] = e.ID
	}

	// totals are summed in cents, in category order
	columnTotals := make(map[string]float64, len(cats))
	var grand Money
	for _, c := range cats {
		var col Money
		for i := range rows {
			if amt, ok := rows[i].Expenses[c.ID]; ok {
				col = col.Add(amt)
			}
		}
		columnTotals[c.ID] = col.Float()
		grand.Cents += col.Cents
	}
	for i := range rows {
		var total Money
		for _, c := range cats {
			if amt, ok := rows[i].Expenses[c.ID]; ok {
				total = total.Add(amt)
			}
		}
		rows[i].Total = total.Float()
	}

	return YearGrid{
		Year:         year,
		Categories:   cats,
		Rows:         rows,
		ColumnTotals: columnTotals,
		GrandTotal:   grand.Float(),
	}
}

// Summarize computes the headline numbers of a grid. Months with a zero
// total do not count towards the average or the highest/lowest month.
func (g YearGrid) Summarize() YearSummary {
	var filled []MonthRow
	for _, r := range g.Rows {
		if r.Total > 0 {
			filled = append(filled, r)
		}
	}

	sum := YearSummary{
		Year:           g.Year,
		Total:          g.GrandTotal,
		CategoryTotals: make(map[string]float64, len(g.Categories)),
	}
	for _, c := range g.Categories {
		sum.CategoryTotals[c.ID] = g.ColumnTotals[c.ID]
	}

	if len(filled) == 0 {
		sum.HighestMonth = MonthTotal{MonthName: "-"}
		sum.LowestMonth = MonthTotal{MonthName: "-"}
		return sum
	}

	sum.MonthlyAverage = math.Round(g.GrandTotal/float64(len(filled))*100) / 100
	highest := MonthTotal{}
	lowest := MonthTotal{Total: math.Inf(1)}
	for _, r := range filled {
		if r.Total > highest.Total {
			highest = MonthTotal{Month: r.Month, MonthName: r.MonthName, Total: r.Total}
		}
		if r.Total < lowest.Total {
			lowest = MonthTotal{Month: r.Month, MonthName: r.MonthName, Total: r.Total}
		}
	}
	sum.HighestMonth = highest
	sum.LowestMonth = lowest
	return sum
}

// MonthlyTotals sums expenses per month for a year.
func MonthlyTotals(year int, expenses []Expense) YearMonthlyTotals {
	var cents [12]Money
	for _, e := range expenses {
		if e.Year != year || ValidateMonth(e.Month) != nil {
			continue
		}
		cents[e.Month-1] = cents[e.Month-1].Add(e.Amount)
	}
	out := YearMonthlyTotals{Year: year}
	for i, m := range cents {
		out.MonthTotals[i] = m.Float()
	}
	return out
}

// HasData reports whether any month total is positive.
func (t YearMonthlyTotals) HasData() bool {
	for _, v := range t.MonthTotals {
		if v > 0 {
			return true
		}
	}
	return false
}
