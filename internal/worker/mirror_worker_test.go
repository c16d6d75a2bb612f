package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"razhodi/internal/amqp"
	"razhodi/internal/core"
	"razhodi/internal/csvsheet"
	ledgermem "razhodi/internal/ledger/memory"
	sheetsmem "razhodi/internal/sheets/memory"
)

type failingWriter struct {
	calls int
}

func (f *failingWriter) WriteGrid(context.Context, string, [][]string) error {
	f.calls++
	return errors.New("quota exceeded")
}

func seedStore(t *testing.T) (*ledgermem.Store, core.Apartment, core.Category) {
	t.Helper()
	ctx := context.Background()
	store := ledgermem.New()
	apt, err := store.CreateApartment(ctx, "Младост")
	if err != nil {
		t.Fatal(err)
	}
	power, err := store.AddCategory(ctx, apt.ID, "Ток")
	if err != nil {
		t.Fatal(err)
	}
	err = store.UpsertExpenses(ctx, []core.ExpenseUpsert{
		{CategoryID: power.ID, Year: 2024, Month: 1, Amount: 45.5},
		{CategoryID: power.ID, Year: 2023, Month: 12, Amount: 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store, apt, power
}

func TestHandleGridChanged_WritesExportRows(t *testing.T) {
	store, apt, _ := seedStore(t)
	book := sheetsmem.New()
	w := NewMirrorWorker(store, book)
	ctx := context.Background()

	msg := &amqp.GridChangedMessage{ApartmentID: apt.ID, Year: 2024, Timestamp: time.Now()}
	if err := w.HandleGridChanged(ctx, msg); err != nil {
		t.Fatalf("HandleGridChanged: %v", err)
	}

	rows, err := book.ReadRows(ctx, "Младост_2024")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if rows[0][0] != "2024" || rows[2][1] != "45.5" {
		t.Errorf("unexpected rows: %v", rows)
	}

	// the mirrored tab reads back as the same expenses
	res := csvsheet.ParseRecords(rows)
	if len(res.Expenses) != 1 || res.Expenses[0].Amount != 45.5 || res.Expenses[0].CategoryName != "Ток" {
		t.Errorf("unexpected parse of mirrored tab: %+v", res.Expenses)
	}
}

func TestHandleGridChanged_UnknownApartmentIsDropped(t *testing.T) {
	store, _, _ := seedStore(t)
	writer := &failingWriter{}
	w := NewMirrorWorker(store, writer)

	err := w.HandleGridChanged(context.Background(), &amqp.GridChangedMessage{ApartmentID: "gone", Year: 2024})
	if err != nil {
		t.Fatalf("expected nil for unknown apartment, got %v", err)
	}
	if writer.calls != 0 {
		t.Errorf("writer called %d times", writer.calls)
	}
}

func TestHandleGridChanged_WriteFailureIsReturned(t *testing.T) {
	store, apt, _ := seedStore(t)
	w := NewMirrorWorker(store, &failingWriter{})

	err := w.HandleGridChanged(context.Background(), &amqp.GridChangedMessage{ApartmentID: apt.ID, Year: 2024})
	if err == nil {
		t.Fatal("expected error from failing writer")
	}
}

func TestResyncAll(t *testing.T) {
	store, _, _ := seedStore(t)
	ctx := context.Background()
	other, err := store.CreateApartment(ctx, "Център")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddCategory(ctx, other.ID, "Вода"); err != nil {
		t.Fatal(err)
	}

	book := sheetsmem.New()
	w := NewMirrorWorker(store, book)
	if err := w.ResyncAll(ctx); err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}

	titles := book.Titles()
	sort.Strings(titles)
	want := []string{"Младост_2023", "Младост_2024", "Център_" + time.Now().Format("2006")}
	sort.Strings(want)
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestResyncAll_ContinuesPastFailures(t *testing.T) {
	store, _, _ := seedStore(t)
	writer := &failingWriter{}
	if err := NewMirrorWorker(store, writer).ResyncAll(context.Background()); err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}
	if writer.calls != 2 {
		t.Errorf("writer called %d times, want 2", writer.calls)
	}
}

func TestSheetTitle(t *testing.T) {
	if got := SheetTitle("Младост", 2024); got != "Младост_2024" {
		t.Errorf("SheetTitle = %q", got)
	}
}

type countingWriter struct {
	mu     sync.Mutex
	titles []string
}

func (c *countingWriter) WriteGrid(_ context.Context, title string, _ [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, title)
	return nil
}

func (c *countingWriter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.titles)
}

func TestRunPeriodicResync_StopsWithContext(t *testing.T) {
	store, _, _ := seedStore(t)
	writer := &countingWriter{}
	w := NewMirrorWorker(store, writer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.RunPeriodicResync(ctx, 10*time.Millisecond)
	}()

	deadline := time.After(2 * time.Second)
	for writer.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("resync did not run, writes=%d", writer.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodicResync did not return after cancel")
	}
}
