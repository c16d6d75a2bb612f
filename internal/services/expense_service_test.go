package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razhodi/internal/core"
	"razhodi/internal/ledger/memory"
)

type published struct {
	apartmentID string
	year        int
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) PublishGridChanged(_ context.Context, apartmentID string, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{apartmentID, year})
	return f.err
}

func (f *fakePublisher) years() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.year
	}
	return out
}

type fixture struct {
	store *memory.Store
	pub   *fakePublisher
	apt   core.Apartment
	power core.Category
	water core.Category
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	apt, err := store.CreateApartment(ctx, "Младост")
	require.NoError(t, err)
	power, err := store.AddCategory(ctx, apt.ID, "Ток")
	require.NoError(t, err)
	water, err := store.AddCategory(ctx, apt.ID, "Вода")
	require.NoError(t, err)
	return fixture{store: store, pub: &fakePublisher{}, apt: apt, power: power, water: water}
}

func (f fixture) seed(t *testing.T, items ...core.ExpenseUpsert) {
	t.Helper()
	require.NoError(t, f.store.UpsertExpenses(context.Background(), items))
}

func fixedNow(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func TestExpenseService_Dashboard(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 1, Amount: 40},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2024, Month: 1, Amount: 10},
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 2, Amount: 30},
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2023, Month: 2, Amount: 25},
	)
	svc := NewExpenseService(f.store, f.pub)

	d, err := svc.Dashboard(context.Background(), f.apt.ID, 2024)
	require.NoError(t, err)

	assert.Equal(t, "Младост", d.Apartment.Name)
	assert.Equal(t, 80.0, d.Grid.GrandTotal)
	assert.Equal(t, 50.0, d.Grid.Rows[0].Total)
	assert.Equal(t, 70.0, d.Grid.ColumnTotals[f.power.ID])
	assert.Equal(t, 40.0, d.Summary.MonthlyAverage)
	assert.Equal(t, 1, d.Summary.HighestMonth.Month)
	assert.Equal(t, 2, d.Summary.LowestMonth.Month)
	assert.Equal(t, 2023, d.Previous.Year)
	assert.Equal(t, 25.0, d.Previous.GrandTotal)
}

func TestExpenseService_UnknownApartment(t *testing.T) {
	f := newFixture(t)
	svc := NewExpenseService(f.store, f.pub)

	_, err := svc.YearGrid(context.Background(), "missing", 2024)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.YearGrid(context.Background(), f.apt.ID, 1999)
	assert.ErrorIs(t, err, core.ErrInvalidYear)
}

func TestExpenseService_AvailableYears(t *testing.T) {
	f := newFixture(t)
	svc := NewExpenseService(f.store, f.pub)
	svc.now = fixedNow(2025)

	years, err := svc.AvailableYears(context.Background(), f.apt.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, years)

	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2022, Month: 1, Amount: 1},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2024, Month: 1, Amount: 1},
	)
	years, err = svc.AvailableYears(context.Background(), f.apt.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2022}, years)

	empty, err := f.store.CreateApartment(context.Background(), "Център")
	require.NoError(t, err)
	years, err = svc.AvailableYears(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, years)
}

func TestExpenseService_Trends(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2021, Month: 3, Amount: 0},
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2022, Month: 1, Amount: 10},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2022, Month: 1, Amount: 5},
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2023, Month: 12, Amount: 7},
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 6, Amount: 9},
	)
	svc := NewExpenseService(f.store, f.pub)

	trends, err := svc.Trends(context.Background(), f.apt.ID, 2024)
	require.NoError(t, err)

	require.Len(t, trends, 2)
	assert.Equal(t, 2023, trends[0].Year)
	assert.Equal(t, 7.0, trends[0].MonthTotals[11])
	assert.Equal(t, 2022, trends[1].Year)
	assert.Equal(t, 15.0, trends[1].MonthTotals[0])
}

func TestExpenseService_UpsertPublishes(t *testing.T) {
	f := newFixture(t)
	svc := NewExpenseService(f.store, f.pub)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, f.apt.ID, core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 5, Amount: 12.5}))
	require.NoError(t, svc.Upsert(ctx, f.apt.ID, core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 5, Amount: 13}))

	exps, err := f.store.ListExpenses(ctx, []string{f.power.ID}, 2024)
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, 13.0, exps[0].Amount)
	assert.Equal(t, []int{2024, 2024}, f.pub.years())
}

func TestExpenseService_UpsertRejectsForeignCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.store.CreateApartment(ctx, "Лозенец")
	require.NoError(t, err)
	foreign, err := f.store.AddCategory(ctx, other.ID, "Газ")
	require.NoError(t, err)

	svc := NewExpenseService(f.store, f.pub)
	err = svc.Upsert(ctx, f.apt.ID, core.ExpenseUpsert{CategoryID: foreign.ID, Year: 2024, Month: 1, Amount: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, f.pub.years())
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	svc := NewExpenseService(f.store, f.pub)

	err := svc.Upsert(context.Background(), f.apt.ID, core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 1, Amount: 1})
	assert.NoError(t, err)
}

func TestExpenseService_NilPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewExpenseService(f.store, nil)

	err := svc.Upsert(context.Background(), f.apt.ID, core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 1, Amount: 1})
	assert.NoError(t, err)
}

func TestExpenseService_SaveMonth(t *testing.T) {
	f := newFixture(t)
	svc := NewExpenseService(f.store, f.pub)
	ctx := context.Background()

	n, err := svc.SaveMonth(ctx, f.apt.ID, 2024, 3, []MonthEntry{
		{CategoryID: f.power.ID, Amount: 41},
		{CategoryID: f.water.ID, Amount: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exps, _ := f.store.ListExpenses(ctx, []string{f.power.ID, f.water.ID}, 2024)
	require.Len(t, exps, 1)
	assert.Equal(t, f.power.ID, exps[0].CategoryID)

	_, err = svc.SaveMonth(ctx, f.apt.ID, 2024, 13, nil)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = svc.SaveMonth(ctx, f.apt.ID, 2024, 3, []MonthEntry{{CategoryID: f.power.ID, Amount: -2}})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2023, Month: 4, Amount: 10},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2023, Month: 4, Amount: 3},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2023, Month: 5, Amount: 4},
	)
	svc := NewExpenseService(f.store, f.pub)
	ctx := context.Background()

	grid, err := svc.YearGrid(ctx, f.apt.ID, 2023)
	require.NoError(t, err)
	powerID := grid.Rows[3].ExpenseIDs[f.power.ID]
	require.NotEmpty(t, powerID)

	require.NoError(t, svc.UpdateAmount(ctx, powerID, 11))
	assert.ErrorIs(t, svc.UpdateAmount(ctx, "missing", 1), core.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateAmount(ctx, powerID, -1), core.ErrInvalidAmount)

	n, err := svc.DeleteMonth(ctx, f.apt.ID, 2023, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	grid, err = svc.YearGrid(ctx, f.apt.ID, 2023)
	require.NoError(t, err)
	assert.Equal(t, 4.0, grid.GrandTotal)

	require.NoError(t, svc.Delete(ctx, grid.Rows[4].ExpenseIDs[f.water.ID]))
	grid, _ = svc.YearGrid(ctx, f.apt.ID, 2023)
	assert.Equal(t, 0.0, grid.GrandTotal)

	for _, m := range f.pub.msgs {
		assert.Equal(t, f.apt.ID, m.apartmentID)
		assert.Equal(t, 2023, m.year)
	}
	assert.Len(t, f.pub.msgs, 3)
}
