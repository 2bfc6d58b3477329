package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"myexpense/internal/core"
	"myexpense/internal/export"
	"myexpense/internal/ledger"
	"myexpense/internal/log"
	"myexpense/internal/middleware/ratelimit"
	"myexpense/internal/session"
	"myexpense/internal/storage/memory"
	"myexpense/internal/views"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type recordingSheet struct {
	mu     sync.Mutex
	values [][]string
	err    error
}

func (r *recordingSheet) WriteTable(_ context.Context, values [][]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.values = values
	return nil
}

type fixture struct {
	handler http.Handler
	store   *ledger.Store
	sheet   *recordingSheet
}

func newFixture(t *testing.T, opts ...func(*Deps, *Options)) *fixture {
	t.Helper()
	kv := memory.New()
	n := 0
	store := ledger.NewStore(ledger.NewSnapshotMedium(kv, ""),
		ledger.WithClock(func() time.Time { return fixedNow }),
		ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		ledger.WithLogger(log.Discard()),
	)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	sheet := &recordingSheet{}
	deps := Deps{
		Editor:     session.NewController(store, RequestConfirmer, log.Discard()),
		Dashboards: views.NewEngine(store, 16, time.Minute, log.Discard()),
		Themes:     ledger.NewThemeStore(kv, ""),
		Loader:     store,
		Sheets:     sheet,
	}
	options := Options{
		Logger: log.Discard(),
		Now:    func() time.Time { return fixedNow },
	}
	for _, o := range opts {
		o(&deps, &options)
	}

	srv, err := NewServer(":0", deps, options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &fixture{handler: srv.Handler, store: store, sheet: sheet}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTransactions_FilterAndTotal(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/transactions?month=2024-03&category=Food", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[listView](t, w)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "2024-03-12", got.Rows[0].Date)
	assert.Equal(t, "2024-03-07", got.Rows[1].Date)
	assert.Equal(t, "861.25", got.FilteredTotal)
	assert.Equal(t, "1", w.Header().Get(HeaderRevision))
}

func TestListTransactions_InvalidFilter(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/transactions?type=transfer", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "type", decode[ErrorBody](t, w).Field)
}

func TestSubmit_CreateThenEdit(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/transactions",
		`{"type":"income","date":"2024-03-01","category":"Salary","description":"March","amount":"1000,50"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[transactionView](t, w)
	assert.Equal(t, "1000.50", created.Amount)
	assert.Equal(t, "2", w.Header().Get(HeaderRevision))

	w = f.do(t, http.MethodPost, "/api/transactions/"+created.ID+"/edit", "")
	require.Equal(t, http.StatusOK, w.Code)
	ev := decode[editView](t, w)
	assert.True(t, ev.Editing)
	assert.Equal(t, "Salary", ev.Fields.Category)

	w = f.do(t, http.MethodGet, "/api/edit", "")
	assert.Equal(t, created.ID, decode[editView](t, w).ID)

	w = f.do(t, http.MethodPost, "/api/transactions",
		`{"type":"income","date":"2024-03-01","category":"Salary","description":"March","amount":1200}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[transactionView](t, w)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "1200.00", updated.Amount)

	w = f.do(t, http.MethodGet, "/api/edit", "")
	assert.False(t, decode[editView](t, w).Editing)
}

func TestSubmit_ValidationError(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","date":"2024-03-01","category":"Food","amount":"abc"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "amount", decode[ErrorBody](t, w).Field)

	records, rev := f.store.Snapshot()
	assert.Len(t, records, 5)
	assert.Equal(t, int64(1), rev)
}

func TestSubmit_MalformedBody(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/transactions", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBeginEdit_UnknownID(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/transactions/nope/edit", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelEdit(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/transactions/id-1/edit", "").Code)

	w := f.do(t, http.MethodPost, "/api/edit/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[editView](t, f.do(t, http.MethodGet, "/api/edit", "")).Editing)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodDelete, "/api/transactions/id-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, err := f.store.Get("id-1")
	require.NoError(t, err)

	w = f.do(t, http.MethodDelete, "/api/transactions/id-1?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err = f.store.Get("id-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	w = f.do(t, http.MethodDelete, "/api/transactions/id-1?confirm=true", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[summaryView](t, w)

	assert.Equal(t, balanceView{Income: "0.00", Expense: "2970.25", Balance: "-2970.25"}, got.Totals)
	assert.Equal(t, []string{"2024-02", "2024-03"}, got.Series.Months)
	assert.Equal(t, []string{"799.00", "2171.25"}, got.Series.Expense)
	assert.Equal(t, []string{"0.00", "0.00"}, got.Series.Income)
	require.Len(t, got.Categories, 4)
	assert.Equal(t, categoryView{Category: "Food", Amount: "861.25"}, got.Categories[0])
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/export.csv?category=Food", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="MyExpense_2024-03-15.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Type", "Category", "Description", "Amount"}, rows[0])
	assert.Equal(t, []string{"2024-03-12", "expense", "Food", "Lunch", "220.50"}, rows[1])
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/export.xlsx?category=Food", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="MyExpense_2024-03-15.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))

	book, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Type", "Category", "Description", "Amount"}, rows[0])
	assert.Equal(t, []string{"2024-03-12", "expense", "Food", "Lunch"}, rows[1][:4])

	w = f.do(t, http.MethodGet, "/api/export.xlsx?month=bad", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExportSheet(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/export/sheet?month=2024-02", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, f.sheet.values, 2)
	assert.Equal(t, "T-shirt", f.sheet.values[1][3])

	f.sheet.err = errors.New("quota exceeded")
	w = f.do(t, http.MethodPost, "/api/export/sheet", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExportSheet_NotConfigured(t *testing.T) {
	f := newFixture(t, func(d *Deps, _ *Options) { d.Sheets = nil })
	w := f.do(t, http.MethodPost, "/api/export/sheet", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCharts(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/charts/category.png", "/api/charts/monthly.png"} {
		w := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"), path)
	}
}

func TestCharts_NoData(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"id-1", "id-2", "id-3", "id-4", "id-5"} {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/transactions/"+id+"?confirm=1", "").Code)
	}
	w := f.do(t, http.MethodGet, "/api/charts/category.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTheme(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/theme", "")
	assert.Equal(t, "light", decode[themeView](t, w).Theme)

	w = f.do(t, http.MethodPost, "/api/theme/toggle", "")
	assert.Equal(t, "dark", decode[themeView](t, w).Theme)

	w = f.do(t, http.MethodPut, "/api/theme", `{"theme":"LIGHT"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", decode[themeView](t, w).Theme)

	w = f.do(t, http.MethodPut, "/api/theme", `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get(HeaderRevision))
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPatch, "/api/transactions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	f := newFixture(t, func(_ *Deps, o *Options) {
		o.RateLimit = ratelimit.Config{RequestsPerMinute: 1}
	})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/edit/cancel", "").Code)
	w := f.do(t, http.MethodPost, "/api/edit/cancel", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/edit", "").Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.ValidationError{Field: "date", Err: core.ErrInvalidDate}, http.StatusUnprocessableEntity},
		{core.ErrNotFound, http.StatusNotFound},
		{ledger.ErrOperationInFlight, http.StatusConflict},
		{session.ErrNotConfirmed, http.StatusBadRequest},
		{errors.Join(ledger.ErrMedium, errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}
