package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"razhodi/internal/amqp"
	"razhodi/internal/core"
	"razhodi/internal/csvsheet"
	"razhodi/internal/ledger"
	"razhodi/internal/services"
	"razhodi/internal/sheets"
)

// MirrorWorker copies apartment-year grids to Google Sheets.
type MirrorWorker struct {
	export     *services.ExportService
	expenses   *services.ExpenseService
	apartments *services.ApartmentService
	sheets     sheets.GridWriter
}

func NewMirrorWorker(store ledger.Store, writer sheets.GridWriter) *MirrorWorker {
	return &MirrorWorker{
		export:     services.NewExportService(store),
		expenses:   services.NewExpenseService(store, nil),
		apartments: services.NewApartmentService(store, nil),
		sheets:     writer,
	}
}

// SheetTitle names the tab holding one apartment-year.
func SheetTitle(apartmentName string, year int) string {
	return fmt.Sprintf("%s_%d", apartmentName, year)
}

// HandleGridChanged rewrites the tab of the apartment-year named by msg.
// Messages about apartments that no longer exist are dropped.
func (w *MirrorWorker) HandleGridChanged(ctx context.Context, msg *amqp.GridChangedMessage) error {
	slog.InfoContext(ctx, "Processing grid changed message",
		"apartment_id", msg.ApartmentID,
		"year", msg.Year)

	err := w.mirror(ctx, msg.ApartmentID, msg.Year)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Apartment not found, skipping mirror",
			"apartment_id", msg.ApartmentID,
			"year", msg.Year)
		return nil
	}
	if err != nil {
		report(ctx, err, msg.ApartmentID, msg.Year)
		return err
	}
	return nil
}

// ResyncAll mirrors every year of every apartment. It is run at startup to
// recover from messages missed while the worker was down.
func (w *MirrorWorker) ResyncAll(ctx context.Context) error {
	apts, err := w.apartments.List(ctx)
	if err != nil {
		return err
	}

	synced, failed := 0, 0
	for _, apt := range apts {
		years, err := w.expenses.AvailableYears(ctx, apt.ID)
		if err != nil {
			return fmt.Errorf("available years of %s: %w", apt.Name, err)
		}
		for _, y := range years {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.mirror(ctx, apt.ID, y); err != nil {
				slog.ErrorContext(ctx, "Failed to mirror grid during resync",
					"apartment_id", apt.ID, "year", y, "error", err)
				report(ctx, err, apt.ID, y)
				failed++
				continue
			}
			synced++
		}
	}

	slog.InfoContext(ctx, "Startup resync completed",
		"apartments", len(apts),
		"synced", synced,
		"errors", failed)
	return nil
}

// RunPeriodicResync calls ResyncAll every interval until ctx is cancelled.
func (w *MirrorWorker) RunPeriodicResync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ResyncAll(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) mirror(ctx context.Context, apartmentID string, year int) error {
	in, err := w.export.Input(ctx, apartmentID, year)
	if err != nil {
		return fmt.Errorf("load grid: %w", err)
	}
	title := SheetTitle(in.ApartmentName, in.Year)
	if err := w.sheets.WriteGrid(ctx, title, csvsheet.Rows(in)); err != nil {
		return fmt.Errorf("write sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Grid mirrored", "sheet", title, "months", len(in.MonthRows))
	return nil
}

func report(ctx context.Context, err error, apartmentID string, year int) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("apartment_id", apartmentID)
		scope.SetTag("year", fmt.Sprint(year))
		hub.CaptureException(err)
	})
}
