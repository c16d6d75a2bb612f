package services

import (
	"context"
	"fmt"
	"log/slog"

	"razhodi/internal/core"
	"razhodi/internal/csvsheet"
	"razhodi/internal/ledger"
	applog "razhodi/internal/log"
)

const previewSize = 20

// SheetReader returns the cell values of one spreadsheet tab.
type SheetReader interface {
	ReadRows(ctx context.Context, sheetName string) ([][]string, error)
}

// ImportPreview is what a user sees before confirming an import.
type ImportPreview struct {
	Result              csvsheet.ParseResult     `json:"result"`
	Sample              []csvsheet.ParsedExpense `json:"sample"`
	MatchedRecords      int                      `json:"matched_records"`
	UnmatchedRecords    int                      `json:"unmatched_records"`
	UnmatchedCategories []string                 `json:"unmatched_categories"`
}

// ImportReport summarises a finished import.
type ImportReport struct {
	Imported          int      `json:"imported"`
	SkippedCategories []string `json:"skipped_categories"`
	Years             []int    `json:"years"`
	Errors            []string `json:"errors"`
}

// ImportService loads parsed spreadsheets into an apartment.
type ImportService struct {
	base
	sheets SheetReader
}

// NewImportService builds the service; sheets may be nil when Google Sheets
// is not configured.
func NewImportService(store ledger.Store, publisher GridPublisher, sheets SheetReader) *ImportService {
	return &ImportService{base: newBase(store, publisher), sheets: sheets}
}

// MatchCategories maps parsed category names to the apartment's category IDs
// by exact name. Names without a match are returned in input order.
func MatchCategories(names []string, cats []core.Category) (map[string]string, []string) {
	byName := make(map[string]string, len(cats))
	for _, c := range cats {
		byName[c.Name] = c.ID
	}
	matched := map[string]string{}
	unmatched := []string{}
	for _, n := range names {
		if id, ok := byName[n]; ok {
			matched[n] = id
		} else {
			unmatched = append(unmatched, n)
		}
	}
	return matched, unmatched
}

// Preview parses text and, when apartmentID is set, reports which records
// would be imported.
func (s *ImportService) Preview(ctx context.Context, apartmentID, text string) (ImportPreview, error) {
	res := csvsheet.Parse(text)
	p := ImportPreview{
		Result:              res,
		Sample:              res.Expenses[:min(len(res.Expenses), previewSize)],
		UnmatchedCategories: []string{},
	}
	if apartmentID == "" {
		return p, nil
	}

	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return ImportPreview{}, err
	}
	matched, unmatched := MatchCategories(res.CategoryNames, cats)
	p.UnmatchedCategories = unmatched
	for _, e := range res.Expenses {
		if _, ok := matched[e.CategoryName]; ok {
			p.MatchedRecords++
		} else {
			p.UnmatchedRecords++
		}
	}
	return p, nil
}

// Import parses text and stores the records of matching categories.
func (s *ImportService) Import(ctx context.Context, apartmentID, text string) (ImportReport, error) {
	return s.ImportRecords(ctx, apartmentID, csvsheet.Parse(text))
}

// ImportSheet reads a Google Sheets tab and imports it like a CSV upload.
func (s *ImportService) ImportSheet(ctx context.Context, apartmentID, sheetName string) (ImportReport, error) {
	if s.sheets == nil {
		return ImportReport{}, ErrSheetsDisabled
	}
	rows, err := s.sheets.ReadRows(ctx, sheetName)
	if err != nil {
		return ImportReport{}, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return s.ImportRecords(ctx, apartmentID, csvsheet.ParseRecords(rows))
}

// ImportRecords upserts every record whose category name matches one of the
// apartment's categories. When the same (category, year, month) appears
// more than once, the last record wins.
func (s *ImportService) ImportRecords(ctx context.Context, apartmentID string, res csvsheet.ParseResult) (ImportReport, error) {
	_, cats, err := s.apartmentCategories(ctx, apartmentID)
	if err != nil {
		return ImportReport{}, err
	}
	matched, unmatched := MatchCategories(res.CategoryNames, cats)

	index := map[core.ExpenseUpsert]int{}
	items := []core.ExpenseUpsert{}
	for _, e := range res.Expenses {
		id, ok := matched[e.CategoryName]
		if !ok {
			continue
		}
		key := core.ExpenseUpsert{CategoryID: id, Year: e.Year, Month: e.Month}
		item := key
		item.Amount = e.Amount
		if i, dup := index[key]; dup {
			items[i] = item
			continue
		}
		index[key] = len(items)
		items = append(items, item)
	}

	report := ImportReport{
		Imported:          len(items),
		SkippedCategories: unmatched,
		Years:             res.Years,
		Errors:            res.Errors,
	}
	if len(items) == 0 {
		return report, nil
	}
	if err := s.store.UpsertExpenses(ctx, items); err != nil {
		return ImportReport{}, fmt.Errorf("import expenses: %w", err)
	}

	years := make([]int, 0, len(items))
	for _, it := range items {
		years = append(years, it.Year)
	}
	s.gridChanged(ctx, apartmentID, years...)

	slog.InfoContext(ctx, "Expenses imported",
		applog.FieldApartmentID, apartmentID,
		applog.FieldOperation, applog.OpImport,
		applog.FieldImported, report.Imported,
		applog.FieldSkipped, len(unmatched))
	return report, nil
}
