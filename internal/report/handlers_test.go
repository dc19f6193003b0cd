package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance/inmemory"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/httputil"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
)

func newTestRouter(store *inmemory.Store) http.Handler {
	svc := newTestService(store)
	svc.now = func() time.Time { return day(2025, 7, 15) }
	return SetupRoutes(NewHandler(svc))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestMonthlyFlowHandlerDefaultsToSevenMonths(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(posted(day(2025, 7, 1), finance.KindIncome, 10, "Donasi", ""))

	rec := get(t, newTestRouter(store), "/monthly-flow?opening_balance=Rp%201.000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ok", rec.Header().Get(httputil.DataStatusHeader))
	assert.NotEmpty(t, rec.Header().Get("Server-Timing"))

	var body struct {
		Points []struct {
			Period  string `json:"period"`
			Balance string `json:"balance"`
		} `json:"points"`
		DegradedData bool `json:"degraded_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Points, 7)
	assert.Equal(t, "2025-01", body.Points[0].Period)
	assert.Equal(t, "1000", body.Points[0].Balance)
	assert.Equal(t, "1010", body.Points[6].Balance)
}

func TestReportHandlersRejectBadInput(t *testing.T) {
	h := newTestRouter(inmemory.NewStore())

	cases := []string{
		"/monthly-flow?start=2025-01-01",
		"/monthly-flow?start=2025-02-01&end=2025-01-01",
		"/monthly-flow?ledger=bank",
		"/monthly-flow?account_id=42",
		"/monthly-flow?opening_balance=banyak",
		"/categories?start=01-01-2025&end=2025-02-01",
	}
	for _, target := range cases {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestCategoryHandlers(t *testing.T) {
	store := inmemory.NewStore()
	bad := posted(day(2025, 3, 1), finance.KindExpense, 0, "Pembangunan", "Atap")
	bad.Amount = money.Coerce("-")
	store.AddTransactions(
		bad,
		posted(day(2025, 3, 2), finance.KindExpense, 200, "Pembangunan", "Atap"),
	)
	h := newTestRouter(store)

	rec := get(t, h, "/categories?expand=subcategories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", rec.Header().Get(httputil.DataStatusHeader))

	var body BreakdownReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Pembangunan", body.Points[0].Name)
	assert.Len(t, body.Points[0].Subcategories, 1)
	assert.Equal(t, 1, body.DegradedCount)

	rec = get(t, h, "/categories/Pembangunan/subcategories?start=2025-03-01&end=2025-03-31")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Pembangunan", body.Category)
	assert.Equal(t, "Atap", body.Points[0].Name)
}
