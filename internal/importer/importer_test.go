package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

func testCatalog() *core.Catalog {
	return core.NewCatalog(
		[]core.Category{
			{ID: "food", NameFR: "Alimentation", NameEN: "Food", SortOrder: 1},
			{ID: "transport", NameFR: "Transport", NameEN: "Transport", SortOrder: 2},
			{ID: "empty", NameFR: "Vide", NameEN: "Empty", SortOrder: 3},
		},
		[]core.Subcategory{
			{ID: "restaurant", CategoryID: "food", NameFR: "Restaurant", NameEN: "Restaurant", SortOrder: 2},
			{ID: "groceries", CategoryID: "food", NameFR: "Courses", NameEN: "Groceries", SortOrder: 1},
			{ID: "fuel", CategoryID: "transport", NameFR: "Carburant", NameEN: "Fuel", SortOrder: 1},
		},
	)
}

func testAccounts() []core.Account {
	return []core.Account{
		{ID: "checking", Name: "Compte courant", Bank: "BNP Paribas Fortis"},
		{ID: "card", Name: "Visa", Bank: "KBC", IsDefault: true},
	}
}

func fullMapping() Mapping {
	return Mapping{Date: "Date", Description: "Desc", Amount: "Amount", Category: "Category", Account: "Account", Notes: "Notes"}
}

func TestNormalizeEndToEnd(t *testing.T) {
	table := Table{
		Headers: []string{"Date", "Desc", "Amount"},
		Rows: []Row{
			{"Date": "01/02/2024", "Desc": "Colruyt", "Amount": "45,20"},
			{"Date": "bad", "Desc": "", "Amount": "x"},
		},
	}

	res, err := Normalize(table, fullMapping(), testCatalog(), testAccounts())
	require.NoError(t, err)

	require.Equal(t, 1, res.Valid())
	c := res.Candidates[0]
	assert.Equal(t, core.Cents(4520), c.Amount)
	assert.Equal(t, "2024-02-01", c.Date.String())
	assert.Equal(t, 2, c.Row)

	require.Len(t, res.Errors, 3)
	for _, e := range res.Errors {
		assert.Equal(t, 3, e.Row)
	}
	assert.Equal(t, FieldDate, res.Errors[0].Field)
	assert.Equal(t, KindInvalid, res.Errors[0].Kind)
	assert.Equal(t, FieldDescription, res.Errors[1].Field)
	assert.Equal(t, KindMissing, res.Errors[1].Kind)
	assert.Equal(t, FieldAmount, res.Errors[2].Field)
	assert.Equal(t, 2, res.Total)
}

func TestNormalizeAmountsAreMagnitudes(t *testing.T) {
	table := Table{Rows: []Row{
		{"Date": "2024-01-05", "Desc": "Refund?", "Amount": "-12,50"},
		{"Date": "2024-01-05", "Desc": "Nothing", "Amount": "0,00"},
	}}
	res, err := Normalize(table, fullMapping(), testCatalog(), testAccounts())
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, core.Cents(1250), res.Candidates[0].Amount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindZero, res.Errors[0].Kind)
}

func TestNormalizeRejectsAmountsBeyondCentRange(t *testing.T) {
	table := Table{Rows: []Row{
		{"Date": "2024-01-05", "Desc": "Huge", "Amount": "92233720368547758,08"},
		{"Date": "2024-01-05", "Desc": "Huger", "Amount": "100000000000000000000"},
		{"Date": "2024-01-05", "Desc": "Largest", "Amount": "-92233720368547758,07"},
	}}
	res, err := Normalize(table, fullMapping(), testCatalog(), testAccounts())
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, core.Cents(math.MaxInt64), res.Candidates[0].Amount)
	require.Len(t, res.Errors, 2)
	for _, e := range res.Errors {
		assert.Equal(t, FieldAmount, e.Field)
		assert.Equal(t, KindInvalid, e.Kind)
	}
	for _, c := range res.Candidates {
		assert.GreaterOrEqual(t, c.Amount.Cents, int64(0))
	}
}

func TestNormalizeUnresolvedCategoryIsKept(t *testing.T) {
	table := Table{Rows: []Row{
		{"Date": "2024-01-05", "Desc": "Shell", "Amount": "60", "Category": "fuel"},
		{"Date": "2024-01-06", "Desc": "Cinema", "Amount": "12", "Category": "Leisure"},
		{"Date": "2024-01-07", "Desc": "Misc", "Amount": "3"},
	}}
	res, err := Normalize(table, fullMapping(), testCatalog(), testAccounts())
	require.NoError(t, err)
	require.Len(t, res.Candidates, 3)
	assert.True(t, res.Candidates[0].Resolved)
	assert.Equal(t, "fuel", res.Candidates[0].SubcategoryID)
	assert.False(t, res.Candidates[1].Resolved)
	assert.Empty(t, res.Candidates[1].SubcategoryID)
	assert.Len(t, res.Unresolved(), 2)
	assert.Len(t, res.Importable(), 1)
	assert.Equal(t, "card", res.Candidates[2].AccountID)
}

func TestNormalizeRejectsIncompleteMapping(t *testing.T) {
	_, err := Normalize(Table{}, Mapping{Date: "Date", Amount: "Amount"}, testCatalog(), nil)
	assert.ErrorIs(t, err, ErrIncompleteMapping)
}

func TestResolveSubcategory(t *testing.T) {
	catalog := testCatalog()
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"courses", "groceries", true},
		{"GROCERIES", "groceries", true},
		{"Restaurant italien", "restaurant", true},
		{"fue", "fuel", true},
		{"Alimentation", "groceries", true},
		{"transp", "fuel", true},
		{"Empty", "", false},
		{"Leisure", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ResolveSubcategory(tt.text, catalog)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAccount(t *testing.T) {
	accounts := testAccounts()
	assert.Equal(t, "checking", ResolveAccount("compte", accounts))
	assert.Equal(t, "checking", ResolveAccount("bnp", accounts))
	assert.Equal(t, "card", ResolveAccount("visa gold card", accounts))
	assert.Equal(t, "card", ResolveAccount("", accounts))
	assert.Equal(t, "card", ResolveAccount("unknown", accounts))

	noDefault := []core.Account{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	assert.Equal(t, "a", ResolveAccount("zzz", noDefault))
	assert.Equal(t, "", ResolveAccount("zzz", nil))
}

func TestReadCSVDetectsDelimiterAndBOM(t *testing.T) {
	data := "\ufeffDate;Libellé;Montant;;Montant\n01/02/2024;Colruyt;\"45,20\";x;1\n;;;;\n02/02/2024;Delhaize;10;;\n"
	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Libellé", "Montant", "Column 4", "Montant (2)"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "45,20", table.Rows[0]["Montant"])
	assert.Equal(t, "Delhaize", table.Rows[1]["Libellé"])
}

func TestReadCSVComma(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("date,description,amount\n2024-01-01,Shop,12.5\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "12.5", table.Rows[0]["amount"])
}

func TestReadXLSXKeepsSerialDates(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Date", "Description", "Amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{45292, "Colruyt", 45.2}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Read(bytes.NewReader(buf.Bytes()), "export.xlsx", "")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	res, err := Normalize(table, DetectMapping(table.Headers), testCatalog(), testAccounts())
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "2024-01-01", res.Candidates[0].Date.String())
	assert.Equal(t, core.Cents(4520), res.Candidates[0].Amount)
}

func TestReadUnsupported(t *testing.T) {
	_, err := Read(strings.NewReader(""), "statement.pdf", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFromValues(t *testing.T) {
	table := FromValues([][]any{
		{"Date", "Description", "Amount"},
		{float64(45292), "Rent", float64(900)},
		{"", nil},
	})
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "45292", table.Rows[0]["Date"])
	assert.Equal(t, "900", table.Rows[0]["Amount"])
}

func TestDetectMapping(t *testing.T) {
	m := DetectMapping([]string{"Datum", "Omschrijving", "Bedrag", "Catégorie", "Compte", "Memo", "Date"})
	assert.Equal(t, Mapping{Date: "Datum", Description: "Omschrijving", Amount: "Bedrag", Category: "Catégorie", Account: "Compte", Notes: "Memo"}, m)
	assert.NoError(t, m.Validate())

	assert.ErrorIs(t, DetectMapping([]string{"foo"}).Validate(), ErrIncompleteMapping)
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]byte("name: kbc\ndate: Datum\ndescription: Omschrijving\namount: Bedrag\n"))
	require.NoError(t, err)
	assert.Equal(t, "kbc", m.Name)
	assert.Equal(t, "Bedrag", m.Amount)
	assert.Empty(t, m.Category)

	_, err = ParseMapping([]byte("date: [unterminated"))
	assert.Error(t, err)
}

type fakeWriter struct {
	failOn  map[int]bool
	calls   int
	written []core.Transaction
	cancel  context.CancelFunc
}

func (w *fakeWriter) CreateTransactions(_ context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	w.calls++
	if w.cancel != nil && w.calls == 1 {
		w.cancel()
	}
	if w.failOn[w.calls] {
		return nil, errors.New("insert failed")
	}
	w.written = append(w.written, txs...)
	return txs, nil
}

func candidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{
			Row:           i + 2,
			Date:          core.NewDate(2024, 1+i%3, 1+i%28),
			Description:   fmt.Sprintf("tx %d", i),
			Amount:        core.Cents(int64(100 + i)),
			SubcategoryID: "groceries",
			Resolved:      true,
		}
	}
	return out
}

func TestCommitPartialSuccess(t *testing.T) {
	w := &fakeWriter{failOn: map[int]bool{2: true}}
	cands := candidates(120)
	cands = append(cands, Candidate{Description: "unresolved", Amount: core.Cents(1), Date: core.NewDate(2024, 1, 1)})

	var progress []Progress
	res, err := Commit(context.Background(), w, cands, CommitOptions{OnProgress: func(p Progress) { progress = append(progress, p) }})
	require.NoError(t, err)

	assert.Equal(t, 3, w.calls)
	assert.Equal(t, 70, res.Imported)
	assert.Equal(t, 50, res.Failed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 121, res.Total)
	assert.Equal(t, 1, res.FailedBatches)
	require.Len(t, progress, 3)
	assert.Equal(t, 100, progress[2].Percent)
}

func TestCommitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &fakeWriter{cancel: cancel}

	res, err := Commit(ctx, w, candidates(30), CommitOptions{BatchSize: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 10, res.Imported)
	assert.Equal(t, 30, res.Total)
}

// Committing candidates and summing them back per month gives the totals
// of the parsed amounts.
func TestImportRoundTrip(t *testing.T) {
	cands := candidates(75)
	w := &fakeWriter{}
	res, err := Commit(context.Background(), w, cands, CommitOptions{BatchSize: 20})
	require.NoError(t, err)
	require.Equal(t, 75, res.Imported)

	want := map[period.Month]core.Money{}
	for _, c := range cands {
		m := period.MonthOf(c.Date)
		want[m] = want[m].Add(c.Amount)
	}
	for m, total := range want {
		var got core.Money
		for _, tx := range period.FilterByMonth(w.written, m.Month, m.Year) {
			got = got.Add(tx.Amount)
		}
		assert.Equal(t, total, got, m.Key())
	}
}
