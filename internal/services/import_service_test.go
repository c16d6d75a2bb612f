package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razhodi/internal/core"
	"razhodi/internal/csvsheet"
	applog "razhodi/internal/log"
)

const sampleCSV = "\ufeff2023\n" +
	",Ток,Вода,Парно,Общо\n" +
	"Януари,45.50,\"12,30\",100,157.80\n" +
	"Февруари,40,-,0,40\n" +
	"Общо,85.50,12.30,100,197.80\n" +
	"2024\n" +
	",Ток\n" +
	"Януари,50\n"

type fakeSheet struct {
	rows [][]string
	err  error
	name string
}

func (f *fakeSheet) ReadRows(_ context.Context, sheetName string) ([][]string, error) {
	f.name = sheetName
	return f.rows, f.err
}

func TestMatchCategories(t *testing.T) {
	cats := []core.Category{{ID: "1", Name: "Ток"}, {ID: "2", Name: "Вода"}}

	matched, unmatched := MatchCategories([]string{"Вода", "Парно", "ток", "Ток"}, cats)

	assert.Equal(t, map[string]string{"Вода": "2", "Ток": "1"}, matched)
	assert.Equal(t, []string{"Парно", "ток"}, unmatched)
}

func TestImportService_Preview(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.store, f.pub, nil)

	p, err := svc.Preview(context.Background(), f.apt.ID, sampleCSV)
	require.NoError(t, err)

	assert.Len(t, p.Result.Expenses, 5)
	assert.Len(t, p.Sample, 5)
	assert.Equal(t, 4, p.MatchedRecords)
	assert.Equal(t, 1, p.UnmatchedRecords)
	assert.Equal(t, []string{"Парно"}, p.UnmatchedCategories)

	anon, err := svc.Preview(context.Background(), "", sampleCSV)
	require.NoError(t, err)
	assert.Zero(t, anon.MatchedRecords)
	assert.Empty(t, anon.UnmatchedCategories)

	_, err = svc.Preview(context.Background(), "missing", sampleCSV)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestImportService_PreviewSampleIsCapped(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.store, f.pub, nil)

	var buf bytes.Buffer
	buf.WriteString("2024\n,Ток,Вода\n")
	for m := 1; m <= 12; m++ {
		buf.WriteString(core.MonthName(m) + ",1,2\n")
	}

	p, err := svc.Preview(context.Background(), "", buf.String())
	require.NoError(t, err)
	assert.Len(t, p.Result.Expenses, 24)
	assert.Len(t, p.Sample, 20)
}

func TestImportService_Import(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.store, f.pub, nil)
	ctx := context.Background()

	report, err := svc.Import(ctx, f.apt.ID, sampleCSV)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Imported)
	assert.Equal(t, []string{"Парно"}, report.SkippedCategories)
	assert.Equal(t, []int{2023, 2024}, report.Years)
	assert.ElementsMatch(t, []int{2023, 2024}, f.pub.years())

	exps, err := f.store.ListExpenses(ctx, []string{f.power.ID, f.water.ID})
	require.NoError(t, err)
	require.Len(t, exps, 4)

	grid, err := NewExpenseService(f.store, nil).YearGrid(ctx, f.apt.ID, 2023)
	require.NoError(t, err)
	assert.InDelta(t, 45.5, grid.Rows[0].Expenses[f.power.ID], 1e-9)
	assert.InDelta(t, 12.3, grid.Rows[0].Expenses[f.water.ID], 1e-9)
	assert.InDelta(t, 40, grid.Rows[1].Expenses[f.power.ID], 1e-9)

	// importing again replaces rather than duplicates
	_, err = svc.Import(ctx, f.apt.ID, sampleCSV)
	require.NoError(t, err)
	exps, _ = f.store.ListExpenses(ctx, []string{f.power.ID, f.water.ID})
	assert.Len(t, exps, 4)
}

func TestImportService_DuplicateKeysLastWins(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.store, f.pub, nil)
	ctx := context.Background()

	report, err := svc.ImportRecords(ctx, f.apt.ID, csvsheet.ParseRecords([][]string{
		{"2024"},
		{"", "Ток"},
		{"Май", "10"},
		{"Май", "12"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	exps, _ := f.store.ListExpenses(ctx, []string{f.power.ID}, 2024)
	require.Len(t, exps, 1)
	assert.Equal(t, 12.0, exps[0].Amount)
}

func TestImportService_NothingMatches(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.store, f.pub, nil)

	report, err := svc.Import(context.Background(), f.apt.ID, "2024\n,Газ\nМарт,5\n")
	require.NoError(t, err)
	assert.Zero(t, report.Imported)
	assert.Equal(t, []string{"Газ"}, report.SkippedCategories)
	assert.Empty(t, f.pub.years())
}

func TestImportService_ImportSheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewImportService(f.store, f.pub, nil).ImportSheet(ctx, f.apt.ID, "Младост_2024")
	assert.ErrorIs(t, err, ErrSheetsDisabled)

	sheet := &fakeSheet{rows: [][]string{{"2024"}, {"", "Вода"}, {"Април", "7,5"}}}
	report, err := NewImportService(f.store, f.pub, sheet).ImportSheet(ctx, f.apt.ID, "Младост_2024")
	require.NoError(t, err)
	assert.Equal(t, "Младост_2024", sheet.name)
	assert.Equal(t, 1, report.Imported)

	sheet.err = errors.New("quota exceeded")
	_, err = NewImportService(f.store, f.pub, sheet).ImportSheet(ctx, f.apt.ID, "x")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestImportService_LogsStandardFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	f := newFixture(t)
	_, err := NewImportService(f.store, nil, nil).Import(context.Background(), f.apt.ID, sampleCSV)
	require.NoError(t, err)

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		require.NoError(t, json.Unmarshal(line, &e))
		if e["msg"] == "Expenses imported" {
			entry = e
		}
	}
	require.NotNil(t, entry, "import log line missing in %s", buf.String())
	assert.Equal(t, f.apt.ID, entry[applog.FieldApartmentID])
	assert.Equal(t, applog.OpImport, entry[applog.FieldOperation])
	assert.EqualValues(t, 4, entry[applog.FieldImported])
	assert.EqualValues(t, 1, entry[applog.FieldSkipped])
}
