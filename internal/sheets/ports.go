package sheets

import (
	"context"
	"errors"
)

// ErrSheetNotFound is returned when a named tab does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// Ports for outbound adapters.
type (
	// GridWriter replaces the content of a tab, creating it when absent.
	GridWriter interface {
		WriteGrid(ctx context.Context, title string, rows [][]string) error
	}

	// SheetReader returns the displayed cell values of a tab.
	SheetReader interface {
		ReadRows(ctx context.Context, title string) ([][]string, error)
	}

	Workbook interface {
		GridWriter
		SheetReader
	}
)
