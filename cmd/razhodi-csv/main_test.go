package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razhodi/internal/backend"
	"razhodi/internal/csvsheet"
	"razhodi/internal/ledger/memory"
	applog "razhodi/internal/log"
	"razhodi/internal/services"
)

const sample = "\ufeff2024\n,Ток,Вода,Интернет\nЯнуари,45.50,12,20\nФевруари,\"50,20\",,20\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "razhodi.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func memoryOpener(t *testing.T) (opener, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	apt, err := store.CreateApartment(ctx, "Младост")
	require.NoError(t, err)
	_, err = store.AddCategory(ctx, apt.ID, "Ток")
	require.NoError(t, err)
	_, err = store.AddCategory(ctx, apt.ID, "Вода")
	require.NoError(t, err)

	open := func(context.Context, *applog.Logger) (*backend.Result, error) {
		return &backend.Result{Store: store, Cleanup: func() error { return nil }}, nil
	}
	return open, store
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Writer: io.Discard})
}

func TestRunParse(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-mode", "parse", "-in", writeSample(t)}, &out, quietLogger(), nil)
	require.NoError(t, err)

	var res csvsheet.ParseResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, []int{2024}, res.Years)
	assert.Equal(t, []string{"Ток", "Вода", "Интернет"}, res.CategoryNames)
	assert.Len(t, res.Expenses, 5)
}

func TestRunImportThenExport(t *testing.T) {
	open, store := memoryOpener(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := run(ctx, []string{"-mode", "import", "-apartment", "Младост", "-in", writeSample(t)}, &out, quietLogger(), open)
	require.NoError(t, err)

	var report services.ImportReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, []string{"Интернет"}, report.SkippedCategories)

	apts, err := store.ListApartments(ctx)
	require.NoError(t, err)
	require.Len(t, apts, 1)

	dir := t.TempDir()
	out.Reset()
	err = run(ctx, []string{"-mode", "export", "-apartment", "Младост", "-year", "2024", "-out", dir}, &out, quietLogger(), open)
	require.NoError(t, err)

	path := filepath.Join(dir, "Младост_2024.csv")
	assert.Equal(t, path, strings.TrimSpace(out.String()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Февруари,50.2,0,50.2")
}

func TestRunErrors(t *testing.T) {
	open, _ := memoryOpener(t)
	tests := []struct {
		name string
		args []string
	}{
		{"parse without input", []string{"-mode", "parse"}},
		{"missing file", []string{"-mode", "parse", "-in", filepath.Join(t.TempDir(), "nope.csv")}},
		{"import without apartment", []string{"-mode", "import", "-in", "x.csv"}},
		{"unknown apartment", []string{"-mode", "export", "-apartment", "Лозенец"}},
		{"unknown mode", []string{"-mode", "sync"}},
		{"unknown flag", []string{"-force"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, io.Discard, quietLogger(), open)
			assert.Error(t, err)
		})
	}
}

func TestRunExportKeepsFileInsideOut(t *testing.T) {
	open, store := memoryOpener(t)
	_, err := store.CreateApartment(context.Background(), "../Център")
	require.NoError(t, err)

	dir := t.TempDir()
	var out bytes.Buffer
	err = run(context.Background(), []string{"-mode", "export", "-apartment", "../Център", "-year", "2024", "-out", dir}, &out, quietLogger(), open)
	require.NoError(t, err)

	path := strings.TrimSpace(out.String())
	assert.Equal(t, filepath.Join(dir, ".._Център_2024.csv"), path)
	assert.FileExists(t, path)
}

func TestExportPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Младост_2024.csv", "Младост_2024.csv"},
		{"../../etc/passwd_2024.csv", ".._.._etc_passwd_2024.csv"},
		{`a\b_2024.csv`, "a_b_2024.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.Join("/tmp/out", tt.want), exportPath("/tmp/out", tt.name))
	}
}

func TestWriteFileRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Младост_2024.csv")
	err := writeFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "2024\r\n")
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.NoFileExists(t, path)

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "2024\r\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024\r\n", string(data))
}
