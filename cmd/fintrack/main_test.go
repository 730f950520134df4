package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/sheets/google"
)

const exportCSV = "Date;Libellé;Montant;Catégorie\n" +
	"01/03/2024;Colruyt;45,20;Courses\n" +
	"04/03/2024;Shell;60,00;Carburant\n" +
	"05/03/2024;Mystère;12,00;\n"

const mappingYAML = `name: test bank
date: Date
description: Libellé
amount: Montant
category: Catégorie
`

type fixture struct {
	dir     string
	csvPath string
	mapping string
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")

	f := fixture{
		dir:     dir,
		csvPath: filepath.Join(dir, "export.csv"),
		mapping: filepath.Join(dir, "bank.yaml"),
	}
	require.NoError(t, os.WriteFile(f.csvPath, []byte(exportCSV), 0o600))
	require.NoError(t, os.WriteFile(f.mapping, []byte(mappingYAML), 0o600))
	return f
}

func testState() *state {
	return &state{today: func() core.Date { return core.NewDate(2024, 3, 31) }}
}

func execute(t *testing.T, st *state, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(st, args, &stdout, &stderr)
	return stdout.String(), err
}

func TestImportDryRunWritesNothing(t *testing.T) {
	f := setup(t)

	out, err := execute(t, testState(), "import", f.csvPath, "--mapping", f.mapping)
	require.NoError(t, err)
	assert.Contains(t, out, "Mapping (preset)")
	assert.Contains(t, out, "Rows: 3  valid: 3  errors: 0  unresolved: 1")
	assert.Contains(t, out, "Mystère")
	assert.Contains(t, out, "Dry run")

	out, err = execute(t, testState(), "trend", "--year", "2024", "--csv")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03,0.00,0")
}

func TestImportCommitThenReports(t *testing.T) {
	f := setup(t)

	out, err := execute(t, testState(), "import", f.csvPath, "--mapping", f.mapping, "--commit", "--batch-size", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 of 3 rows (0 failed in 0 batches, 1 skipped as unresolved)")

	out, err = execute(t, testState(), "trend", "--year", "2024", "--csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "month,total,count", lines[0])
	assert.Equal(t, "2024-03,105.20,2", lines[3])

	out, err = execute(t, testState(), "trend", "--months", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-02")
	assert.Contains(t, out, "105.20")

	out, err = execute(t, testState(), "ranking", "--year", "2024", "--month", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Transport")
	assert.Contains(t, out, "Alimentation")
	assert.Less(t, strings.Index(out, "Transport"), strings.Index(out, "Alimentation"))

	out, err = execute(t, testState(), "ranking", "--merchants", "--csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "merchant,total,count"))
	assert.Contains(t, out, "60.00")
}

func TestEmptyLedgerReports(t *testing.T) {
	setup(t)

	out, err := execute(t, testState(), "budgets")
	require.NoError(t, err)
	assert.Equal(t, "No budgets.\n", out)

	out, err = execute(t, testState(), "pending")
	require.NoError(t, err)
	assert.Equal(t, "Nothing pending.\n", out)

	_, err = execute(t, testState(), "generate", "missing")
	assert.ErrorContains(t, err, "template missing not found")
}

type fakeSheet struct {
	rng string
}

func (f *fakeSheet) ReadTable(_ context.Context, rng string) (importer.Table, error) {
	f.rng = rng
	return importer.NewTable([][]string{
		{"Date", "Libellé", "Montant", "Catégorie"},
		{"45352", "Loyer mars", "950", "Loyer"},
	}), nil
}

func TestImportSheet(t *testing.T) {
	f := setup(t)
	t.Setenv("GOOGLE_IMPORT_SHEET", "Relevé")

	sheet := &fakeSheet{}
	var opened google.Config
	st := testState()
	st.sheets = func(_ context.Context, cfg google.Config) (sheetSource, error) {
		opened = cfg
		return sheet, nil
	}

	out, err := execute(t, st, "import-sheet", "--range", "A1:D50", "--year", "2024", "--mapping", f.mapping, "--commit")
	require.NoError(t, err)
	assert.Equal(t, "2024 Relevé", opened.Sheet)
	assert.Equal(t, "A1:D50", sheet.rng)
	assert.Contains(t, out, "Imported 1 of 1 rows")
}

func TestImportSheetOpenError(t *testing.T) {
	setup(t)
	st := testState()
	st.sheets = func(context.Context, google.Config) (sheetSource, error) {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	_, err := execute(t, st, "import-sheet")
	assert.ErrorContains(t, err, "open spreadsheet")
}

func TestRankingWindow(t *testing.T) {
	today := core.NewDate(2024, 2, 14)
	tests := []struct {
		name        string
		year, month int
		from, to    string
		wantErr     bool
	}{
		{"current month", 0, 0, "2024-02-01", "2024-02-29", false},
		{"whole year", 2023, 0, "2023-01-01", "2023-12-31", false},
		{"one month", 2023, 4, "2023-04-01", "2023-04-30", false},
		{"month without year", 0, 4, "", "", true},
		{"bad month", 2023, 13, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := rankingWindow(today, tt.year, tt.month)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, from.String())
			assert.Equal(t, tt.to, to.String())
		})
	}
}
