package csvsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"razhodi/internal/core"
)

// ExportInput is one apartment's year grid, already aggregated.
type ExportInput struct {
	ApartmentName string
	Year          int
	Categories    []core.Category    // display order
	MonthRows     []core.MonthRow    // amounts keyed by category ID
	ColumnTotals  map[string]float64 // category ID -> yearly total
	GrandTotal    float64
}

// InputFromGrid adapts a computed grid for export.
func InputFromGrid(apartmentName string, g core.YearGrid) ExportInput {
	return ExportInput{
		ApartmentName: apartmentName,
		Year:          g.Year,
		Categories:    g.Categories,
		MonthRows:     g.Rows,
		ColumnTotals:  g.ColumnTotals,
		GrandTotal:    g.GrandTotal,
	}
}

// Rows lays the grid out the way Parse reads it back: year marker, header,
// one row per month and a totals row. Missing amounts are written as 0.
func Rows(in ExportInput) [][]string {
	rows := make([][]string, 0, len(in.MonthRows)+3)

	rows = append(rows, []string{strconv.Itoa(in.Year)})

	header := make([]string, 0, len(in.Categories)+2)
	header = append(header, "")
	for _, c := range in.Categories {
		header = append(header, c.Name)
	}
	rows = append(rows, append(header, LabelTotal))

	for _, mr := range in.MonthRows {
		line := make([]string, 0, len(in.Categories)+2)
		line = append(line, core.MonthName(mr.Month))
		for _, c := range in.Categories {
			line = append(line, formatNumber(mr.Expenses[c.ID]))
		}
		rows = append(rows, append(line, formatNumber(mr.Total)))
	}

	totals := make([]string, 0, len(in.Categories)+2)
	totals = append(totals, LabelTotal)
	for _, c := range in.Categories {
		totals = append(totals, formatNumber(in.ColumnTotals[c.ID]))
	}
	rows = append(rows, append(totals, formatNumber(in.GrandTotal)))

	return rows
}

// Write renders the grid as CSV preceded by a UTF-8 byte order mark, which
// spreadsheet applications need to show Cyrillic correctly.
func Write(w io.Writer, in ExportInput) error {
	bw := transform.NewWriter(w, xunicode.UTF8BOM.NewEncoder())

	cw := csv.NewWriter(bw)
	cw.UseCRLF = true
	if err := cw.WriteAll(Rows(in)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FileName is the download name of an exported grid.
func FileName(apartmentName string, year int) string {
	return fmt.Sprintf("%s_%d.csv", apartmentName, year)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
