package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Initialize(context.Background()))
	return newTestServerWith(t, store, rateLimit)
}

func newTestServerWith(t *testing.T, store *memory.Store, rateLimit int) *Server {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	expenses := services.NewExpenseService(store, nil, logger)
	srv := NewServer(":0", expenses, services.NewReportService(expenses), Options{
		AllowedOrigins: []string{"http://localhost:8081"},
		RateLimit:      rateLimit,
		Logger:         logger,
	})
	srv.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

type apiResponse struct {
	Data         json.RawMessage `json:"data"`
	Notification *Notification   `json:"notification"`
	Error        string          `json:"error"`
	Details      string          `json:"details"`
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60)

	rec, _ := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, _ = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyFailsWithoutStore(t *testing.T) {
	srv := newTestServerWith(t, memory.New(), 60)

	rec, resp := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Store unavailable", resp.Error)
}

func TestInternalErrorCarriesRequestID(t *testing.T) {
	srv := newTestServerWith(t, memory.New(), 60)

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to load expenses", resp.Error)

	id := rec.Header().Get("X-Request-Id")
	require.NotEmpty(t, id)
	assert.Equal(t, "request_id="+id, resp.Details)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, 1)
	body := `{"amount":"1","category":"Other","date":"2024-03-15"}`

	createExpense(t, srv, body)
	rec, _ := do(t, srv, http.MethodPost, "/api/expenses", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, resp := do(t, srv, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var m metricsJSON
	require.NoError(t, json.Unmarshal(resp.Data, &m))
	assert.Equal(t, int64(3), m.Requests.Total)
	assert.Equal(t, int64(1), m.RateLimit.Rejected)
	assert.Equal(t, int64(1), m.RateLimit.Clients)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, 60)

	rec, resp := do(t, srv, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cats []string
	require.NoError(t, json.Unmarshal(resp.Data, &cats))
	assert.Equal(t, []string{"Food", "Transport", "Personal", "Work", "Shopping", "Other"}, cats)
}

func createExpense(t *testing.T, srv *Server, body string) int64 {
	t.Helper()
	rec, resp := do(t, srv, http.MethodPost, "/api/expenses", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID           int64 `json:"id"`
		RowsAffected int64 `json:"rowsAffected"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, int64(1), created.RowsAffected)
	require.NotNil(t, resp.Notification)
	assert.Equal(t, "Expense added", resp.Notification.Message)
	return created.ID
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t, 60)

	id := createExpense(t, srv,
		`{"amount":"123456.5","category":"Food","date":"2024-03-15T08:00:00.000Z","note":"groceries"}`)

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got expenseJSON
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, expenseJSON{
		ID:        id,
		Amount:    "123456.50",
		Formatted: "1,23,456.50",
		Category:  "Food",
		Date:      "2024-03-15T08:00:00.000Z",
		Note:      "groceries",
	}, got)

	rec, resp = do(t, srv, http.MethodPut, "/api/expenses/1",
		`{"amount":40,"category":"Transport","date":"2024-03-14"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Expense updated", resp.Notification.Message)

	rec, resp = do(t, srv, http.MethodGet, "/api/expenses/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "40.00", got.Amount)
	assert.Equal(t, "Transport", got.Category)
	assert.Equal(t, "", got.Note)

	rec, resp = do(t, srv, http.MethodDelete, "/api/expenses/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Expense deleted", resp.Notification.Message)

	rec, resp = do(t, srv, http.MethodDelete, "/api/expenses/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Expense not found", resp.Error)

	rec, _ = do(t, srv, http.MethodGet, "/api/expenses/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMissingExpense(t *testing.T) {
	srv := newTestServer(t, 60)

	rec, resp := do(t, srv, http.MethodPut, "/api/expenses/99",
		`{"amount":"5","category":"Food","date":"2024-03-14"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Expense not found", resp.Error)
}

func TestCreateExpenseValidation(t *testing.T) {
	srv := newTestServer(t, 60)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"amount":`, http.StatusBadRequest},
		{"bad amount", `{"amount":"abc","category":"Food","date":"2024-03-15"}`, http.StatusUnprocessableEntity},
		{"too large", `{"amount":"1000000","category":"Food","date":"2024-03-15"}`, http.StatusUnprocessableEntity},
		{"unknown category", `{"amount":"5","category":"Rent","date":"2024-03-15"}`, http.StatusUnprocessableEntity},
		{"missing date", `{"amount":"5","category":"Food"}`, http.StatusUnprocessableEntity},
		{"long note", `{"amount":"5","category":"Food","date":"2024-03-15","note":"` + strings.Repeat("n", 501) + `"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, srv, http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "Failed to add", resp.Error)
			assert.NotEmpty(t, resp.Details)
			require.NotNil(t, resp.Notification)
			assert.Equal(t, NotificationError, resp.Notification.Type)
		})
	}

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"count":0`)
}

func TestCreateExpenseFromForm(t *testing.T) {
	srv := newTestServer(t, 60)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader("amount=1%2C250.5&category=Work&date=2024-03-15&note=pens"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got expenseJSON
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "1250.50", got.Amount)
	assert.Equal(t, "1,250.50", got.Formatted)
}

func TestListExpensesByPeriod(t *testing.T) {
	srv := newTestServer(t, 60)

	for _, date := range []string{
		"2024-03-15T10:00:00.000Z", // today
		"2024-03-11T00:00:00.000Z", // Monday of this week
		"2024-03-01T00:00:00.000Z", // this month
		"2024-01-20T00:00:00.000Z", // this year
		"2023-12-31T23:59:59.000Z", // last year
	} {
		createExpense(t, srv, `{"amount":"10","category":"Food","date":"`+date+`"}`)
	}

	counts := map[string]int{"": 5, "all": 5, "today": 1, "week": 2, "month": 3, "year": 4, "YEAR": 4}
	for period, want := range counts {
		rec, resp := do(t, srv, http.MethodGet, "/api/expenses?period="+period, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Count    int           `json:"count"`
			Expenses []expenseJSON `json:"expenses"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, want, data.Count, "period %q", period)
		assert.Len(t, data.Expenses, want)
	}

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses?period=decade", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid period", resp.Error)
}

func TestTotalAndReport(t *testing.T) {
	srv := newTestServer(t, 60)

	createExpense(t, srv, `{"amount":"10.5","category":"Food","date":"2024-03-15T10:00:00.000Z"}`)
	createExpense(t, srv, `{"amount":"20.25","category":"Transport","date":"2024-03-14T10:00:00.000Z"}`)
	createExpense(t, srv, `{"amount":"100","category":"Food","date":"2023-06-01T10:00:00.000Z"}`)

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses/total", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var total totalJSON
	require.NoError(t, json.Unmarshal(resp.Data, &total))
	assert.Equal(t, totalJSON{Total: "130.75", Formatted: "130.75", Compact: "130.75"}, total)

	rec, resp = do(t, srv, http.MethodGet, "/api/report?period=week", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report reportJSON
	require.NoError(t, json.Unmarshal(resp.Data, &report))

	assert.Equal(t, "week", string(report.Period))
	assert.Equal(t, "2024-03-11T00:00:00Z", report.Start)
	assert.Equal(t, "2024-03-17T23:59:59.999Z", report.End)
	assert.Equal(t, 2, report.Count)
	assert.Equal(t, "30.75", report.Total.Total)
	assert.Equal(t, "130.75", report.AllTime.Total)
	require.Len(t, report.ByCategory, 6)
	assert.Equal(t, categoryTotalJSON{Category: "Food", Total: "10.50", Formatted: "10.50"}, report.ByCategory[0])
	assert.Equal(t, "20.25", report.ByCategory[1].Total)
	assert.Equal(t, "0.00", report.ByCategory[5].Total)

	rec, resp = do(t, srv, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Empty(t, report.Start)
	assert.Equal(t, 3, report.Count)
}

func TestInvalidIDAndRoutes(t *testing.T) {
	srv := newTestServer(t, 60)

	rec, resp := do(t, srv, http.MethodGet, "/api/expenses/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid expense id", resp.Error)

	rec, _ = do(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, srv, http.MethodPatch, "/api/expenses/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWriteRateLimit(t *testing.T) {
	srv := newTestServer(t, 1)
	body := `{"amount":"1","category":"Other","date":"2024-03-15"}`

	createExpense(t, srv, body)

	rec, resp := do(t, srv, http.MethodPost, "/api/expenses", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", resp.Error)

	rec, _ = do(t, srv, http.MethodGet, "/api/expenses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, 60)

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:8081", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := newTestServer(t, 60)
	assert.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
