package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razhodi/internal/core"
	"razhodi/internal/csvsheet"
)

func TestExportService_Export(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 1, Amount: 45.5},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2024, Month: 2, Amount: 12.25},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2023, Month: 2, Amount: 99},
	)
	svc := NewExportService(f.store)

	var buf bytes.Buffer
	name, err := svc.Export(context.Background(), f.apt.ID, 2024, &buf)
	require.NoError(t, err)

	assert.Equal(t, "Младост_2024.csv", name)
	assert.True(t, strings.HasPrefix(buf.String(), "\ufeff2024\r\n"))
	assert.Contains(t, buf.String(), "\r\n,Ток,Вода,Общо\r\n")
	assert.Contains(t, buf.String(), "\r\nЯнуари,45.5,0,45.5\r\n")
	assert.Contains(t, buf.String(), "\r\nОбщо,45.5,12.25,57.75\r\n")

	res := csvsheet.Parse(buf.String())
	assert.Len(t, res.Expenses, 2)

	_, err = svc.Export(context.Background(), "missing", 2024, &buf)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExportThenImportIntoAnotherApartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 1, Amount: 45.57},
		core.ExpenseUpsert{CategoryID: f.water.ID, Year: 2024, Month: 11, Amount: 0.1},
	)

	var buf bytes.Buffer
	_, err := NewExportService(f.store).Export(ctx, f.apt.ID, 2024, &buf)
	require.NoError(t, err)

	copyApt, err := f.store.CreateApartment(ctx, "Копие")
	require.NoError(t, err)
	_, err = f.store.AddCategory(ctx, copyApt.ID, "Вода")
	require.NoError(t, err)
	_, err = f.store.AddCategory(ctx, copyApt.ID, "Ток")
	require.NoError(t, err)

	report, err := NewImportService(f.store, nil, nil).Import(ctx, copyApt.ID, buf.String())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.SkippedCategories)

	original, err := NewExpenseService(f.store, nil).YearGrid(ctx, f.apt.ID, 2024)
	require.NoError(t, err)
	copied, err := NewExpenseService(f.store, nil).YearGrid(ctx, copyApt.ID, 2024)
	require.NoError(t, err)
	assert.InDelta(t, original.GrandTotal, copied.GrandTotal, 1e-9)
}

func TestRentService_Toggle(t *testing.T) {
	f := newFixture(t)
	svc := NewRentService(f.store)
	ctx := context.Background()

	paid, err := svc.Toggle(ctx, f.apt.ID, 2024, 3)
	require.NoError(t, err)
	assert.True(t, paid)
	paid, err = svc.Toggle(ctx, f.apt.ID, 2024, 1)
	require.NoError(t, err)
	assert.True(t, paid)

	months, err := svc.PaidMonths(ctx, f.apt.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, months)

	paid, err = svc.Toggle(ctx, f.apt.ID, 2024, 3)
	require.NoError(t, err)
	assert.False(t, paid)

	months, _ = svc.PaidMonths(ctx, f.apt.ID, 2024)
	assert.Equal(t, []int{1}, months)

	_, err = svc.Toggle(ctx, f.apt.ID, 2024, 0)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
	_, err = svc.Toggle(ctx, "missing", 2024, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestYearlyService(t *testing.T) {
	f := newFixture(t)
	svc := NewYearlyService(f.store)
	ctx := context.Background()

	ins, err := svc.Upsert(ctx, f.apt.ID, core.YearlyExpense{Year: 2024, Name: " Застраховка ", Amount: 120})
	require.NoError(t, err)
	assert.Equal(t, "Застраховка", ins.Name)
	assert.Equal(t, f.apt.ID, ins.ApartmentID)

	_, err = svc.Upsert(ctx, f.apt.ID, core.YearlyExpense{Year: 2024, Name: "Данък", Amount: 30.5})
	require.NoError(t, err)

	list, err := svc.List(ctx, f.apt.ID, 2024)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 150.5, list.Total)

	require.NoError(t, svc.UpdateAmount(ctx, ins.ID, 100))
	list, _ = svc.List(ctx, f.apt.ID, 2024)
	assert.Equal(t, 130.5, list.Total)

	require.NoError(t, svc.Delete(ctx, ins.ID))
	list, _ = svc.List(ctx, f.apt.ID, 2024)
	assert.Len(t, list.Items, 1)

	_, err = svc.Upsert(ctx, f.apt.ID, core.YearlyExpense{Year: 2024, Name: "", Amount: 1})
	assert.ErrorIs(t, err, core.ErrEmptyName)
	assert.ErrorIs(t, svc.UpdateAmount(ctx, ins.ID, -5), core.ErrInvalidAmount)
}

func TestApartmentService(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2022, Month: 1, Amount: 1},
		core.ExpenseUpsert{CategoryID: f.power.ID, Year: 2024, Month: 1, Amount: 1},
	)
	svc := NewApartmentService(f.store, f.pub)
	ctx := context.Background()

	apts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, apts, 1)

	cat, err := svc.AddCategory(ctx, f.apt.ID, "Интернет")
	require.NoError(t, err)
	assert.Equal(t, 3, cat.SortOrder)

	require.NoError(t, svc.DeleteCategory(ctx, f.power.ID))
	assert.Equal(t, []int{2024, 2022}, f.pub.years())

	cats, err := svc.Categories(ctx, f.apt.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, f.power.ID), core.ErrNotFound)
	_, err = svc.Create(ctx, "  ")
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestYearlyService_TotalInCents(t *testing.T) {
	f := newFixture(t)
	svc := NewYearlyService(f.store)
	ctx := context.Background()

	for _, y := range []core.YearlyExpense{
		{Year: 2024, Name: "Такса смет", Amount: 0.1},
		{Year: 2024, Name: "Данък", Amount: 0.2},
	} {
		_, err := svc.Upsert(ctx, f.apt.ID, y)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, f.apt.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0.3, list.Total)
}
