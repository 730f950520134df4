package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/analytics"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/log"
	"fintrack/internal/recurrence"
	"fintrack/internal/services"
)

var testToday = core.NewDate(2024, 3, 15)

func newTestServer(t *testing.T, rateLimit int) (*Server, ledger.Repository) {
	t.Helper()
	repo := memory.New()
	engine := analytics.NewEngine(cache.NewLRUCache[any](16, time.Minute))
	ledgerSvc := services.NewLedgerService(repo, nil, engine)
	srv := NewServer(Config{
		Addr:               ":0",
		RateLimitPerMinute: rateLimit,
		Logger:             log.New(log.Config{Level: slog.LevelError, Output: io.Discard}),
	}, Services{
		Ledger:    ledgerSvc,
		Dashboard: services.NewDashboardService(ledgerSvc, engine, 6),
		Recurring: services.NewRecurringProcessor(ledgerSvc, nil),
		Import:    services.NewImportService(ledgerSvc, 2),
	})
	srv.today = func() core.Date { return testToday }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, repo
}

func do(t *testing.T, srv *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}

	rr := do(t, srv, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total 2")
}

func TestCreateTransactionAndBudgetProgress(t *testing.T) {
	srv, repo := newTestServer(t, 100)
	_, err := repo.CreateBudget(context.Background(), core.Budget{
		Name: "Food", Limit: core.Cents(50000), Period: core.PeriodMonthly, IsActive: true,
		CategoryIDs: core.NewIDSet("cat-food"),
	})
	require.NoError(t, err)

	for _, body := range []string{
		`{"description":"Colruyt","amount":"300.00","date":"2024-03-02","subcategory_id":"sub-groceries"}`,
		`{"description":"Resto","amount":-150,"date":"2024-03-09","subcategory_id":"sub-restaurant"}`,
		`{"description":"Shell","amount":80,"date":"2024-03-10","subcategory_id":"sub-fuel"}`,
	} {
		rr := do(t, srv, http.MethodPost, "/api/transactions", strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := do(t, srv, http.MethodGet, "/api/budgets", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	progress := decode[[]budget.Progress](t, rr)
	require.Len(t, progress, 1)
	assert.Equal(t, int64(45000), progress[0].Spent.Cents)
	assert.Equal(t, int64(5000), progress[0].Remaining.Cents)
	assert.InDelta(t, 90.0, progress[0].Percentage, 0.001)
	assert.True(t, progress[0].IsWarning())

	rr = do(t, srv, http.MethodGet, "/api/dashboard", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	dash := decode[services.Dashboard](t, rr)
	assert.Equal(t, "2024-03", dash.Month)
	require.Len(t, dash.Alerts, 1)
	assert.False(t, dash.Alerts[0].IsOver)

	rr = do(t, srv, http.MethodGet, "/api/transactions?year=2024&month=3", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Transaction](t, rr), 3)

	rr = do(t, srv, http.MethodGet, "/api/analytics/merchants?year=2024", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	merchants := decode[[]analytics.MerchantTotal](t, rr)
	require.Len(t, merchants, 3)
	assert.Equal(t, "Colruyt", merchants[0].Name)
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"description":`, http.StatusBadRequest},
		{"unknown field", `{"desc":"x"}`, http.StatusBadRequest},
		{"empty description", `{"description":" ","amount":5,"subcategory_id":"sub-groceries"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"description":"x","amount":0,"subcategory_id":"sub-groceries"}`, http.StatusUnprocessableEntity},
		{"missing subcategory", `{"description":"x","amount":5}`, http.StatusUnprocessableEntity},
		{"unknown subcategory", `{"description":"x","amount":5,"subcategory_id":"nope"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/transactions", strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rr).Error)
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, repo := newTestServer(t, 100)
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Description: "Cinema", Amount: core.Cents(1200), Date: testToday, SubcategoryID: "sub-outings",
	})
	require.NoError(t, err)

	rr := do(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecurringPendingAndGenerate(t *testing.T) {
	srv, repo := newTestServer(t, 100)
	tmpl, err := repo.CreateRecurring(context.Background(), core.RecurringTemplate{
		Description: "Loyer", Amount: core.Cents(85000), Frequency: core.Monthly,
		DayOfMonth: core.LastDayOfMonth, SubcategoryID: "sub-rent", IsActive: true,
	})
	require.NoError(t, err)
	_, err = repo.CreateRecurring(context.Background(), core.RecurringTemplate{
		Description: "Internet", Amount: core.Cents(4500), Frequency: core.Monthly,
		DayOfMonth: 10, SubcategoryID: "sub-internet", IsActive: true,
	})
	require.NoError(t, err)

	rr := do(t, srv, http.MethodGet, "/api/recurring/pending", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	pending := decode[[]recurrence.Occurrence](t, rr)
	require.Len(t, pending, 1, "rent falls on the 31st, after today")
	assert.Equal(t, "Internet", pending[0].Template.Description)

	rr = do(t, srv, http.MethodPost, "/api/recurring/"+pending[0].Template.ID+"/generate", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "2024-03-10", decode[core.Transaction](t, rr).Date.String())

	rr = do(t, srv, http.MethodPost, "/api/recurring/"+pending[0].Template.ID+"/generate", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/recurring/pending", nil, "")
	assert.Empty(t, decode[[]recurrence.Occurrence](t, rr))

	rr = do(t, srv, http.MethodPost, "/api/recurring/missing/generate", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/recurring/"+tmpl.ID+"/generate", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "2024-03-31", decode[core.Transaction](t, rr).Date.String())
}

func TestImportPreviewAndCommit(t *testing.T) {
	srv, _ := newTestServer(t, 100)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "Date;Libellé;Montant;Catégorie\n"+
		"01/02/2024;Colruyt;45,20;Courses\n"+
		"bad;;x;Courses\n"+
		"03/02/2024;Mystère;12,00;\n")
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("mapping", `{"date":"Date","description":"Libellé","amount":"Montant","category":"Catégorie"}`))
	require.NoError(t, mw.Close())

	rr := do(t, srv, http.MethodPost, "/api/import/preview", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	preview := decode[services.Preview](t, rr)
	assert.False(t, preview.Detected)
	require.Len(t, preview.Result.Candidates, 2)
	assert.Len(t, preview.Result.Errors, 3)
	assert.Equal(t, "2024-02-01", preview.Result.Candidates[0].Date.String())
	assert.Equal(t, int64(4520), preview.Result.Candidates[0].Amount.Cents)

	unresolved := preview.Result.Candidates[1]
	require.False(t, unresolved.Resolved)
	payload, err := json.Marshal(commitRequest{
		Candidates:  preview.Result.Candidates,
		Assignments: map[int]string{unresolved.Row: "sub-other"},
	})
	require.NoError(t, err)

	rr = do(t, srv, http.MethodPost, "/api/import/commit", bytes.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[importer.CommitResult](t, rr)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Total)
	assert.Zero(t, res.Skipped)
}

func TestImportPreviewRejectsUnknownFormat(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "export.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF"))
	require.NoError(t, mw.Close())

	rr := do(t, srv, http.MethodPost, "/api/import/preview", &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestBadQueryParameters(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	for _, path := range []string{
		"/api/analytics/trend?months=abc",
		"/api/analytics/trend?months=0",
		"/api/dashboard?month=13",
		"/api/analytics/categories?from=2024-03-10&to=2024-03-01",
		"/api/analytics/merchants?top=-1",
	} {
		rr := do(t, srv, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", nil, "").Code)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.NotEmpty(t, decode[ErrorResponse](t, rr).RequestID)
}
