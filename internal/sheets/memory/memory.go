// Package memory keeps spreadsheet tabs in process. It stands in for
// Google Sheets in tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "razhodi/internal/sheets"
)

type Workbook struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

var _ ports.Workbook = (*Workbook)(nil)

func New() *Workbook {
	return &Workbook{tabs: map[string][][]string{}}
}

// WriteGrid replaces the tab's content.
func (w *Workbook) WriteGrid(_ context.Context, title string, rows [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs[title] = copyRows(rows)
	return nil
}

// ReadRows returns a copy of the tab's content.
func (w *Workbook) ReadRows(_ context.Context, title string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[title]
	if !ok {
		return nil, fmt.Errorf("%s: %w", title, ports.ErrSheetNotFound)
	}
	return copyRows(rows), nil
}

// Titles lists the tabs written so far.
func (w *Workbook) Titles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.tabs))
	for t := range w.tabs {
		out = append(out, t)
	}
	return out
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
