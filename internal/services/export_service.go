package services

import (
	"context"
	"errors"
	"io"

	"razhodi/internal/csvsheet"
	"razhodi/internal/ledger"
)

// ErrSheetsDisabled is returned by operations that need Google Sheets when
// it is not configured.
var ErrSheetsDisabled = errors.New("google sheets is not configured")

// ExportService renders year grids in the spreadsheet layout.
type ExportService struct {
	expenses *ExpenseService
}

func NewExportService(store ledger.Store) *ExportService {
	return &ExportService{expenses: NewExpenseService(store, nil)}
}

// Input loads the grid of one apartment-year ready for export.
func (s *ExportService) Input(ctx context.Context, apartmentID string, year int) (csvsheet.ExportInput, error) {
	grid, err := s.expenses.YearGrid(ctx, apartmentID, year)
	if err != nil {
		return csvsheet.ExportInput{}, err
	}
	apt, err := s.expenses.store.GetApartment(ctx, apartmentID)
	if err != nil {
		return csvsheet.ExportInput{}, err
	}
	return csvsheet.InputFromGrid(apt.Name, grid), nil
}

// Export writes the CSV file to w and returns its download name.
func (s *ExportService) Export(ctx context.Context, apartmentID string, year int, w io.Writer) (string, error) {
	in, err := s.Input(ctx, apartmentID, year)
	if err != nil {
		return "", err
	}
	if err := csvsheet.Write(w, in); err != nil {
		return "", err
	}
	return csvsheet.FileName(in.ApartmentName, in.Year), nil
}
