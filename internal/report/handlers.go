package report

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/httputil"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MonthlyFlow serves GET /monthly-flow. Without start/end it covers the
// last seven months.
func (h *Handler) MonthlyFlow(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	q := r.URL.Query()

	rng, err := parseRange(q, h.defaultFlowRange())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	l, acct, err := parseScope(q)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	opening := decimal.Zero
	if raw := strings.TrimSpace(q.Get("opening_balance")); raw != "" {
		if opening, err = money.Parse(raw); err != nil {
			httputil.WriteError(w, r, apperr.Validation("opening_balance", "%v", err))
			return
		}
	}

	rep, err := h.svc.MonthlyFlow(r.Context(), FlowRequest{Range: rng, Ledger: l, AccountID: acct, OpeningBalance: opening})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.AddServerTiming(w, "report", time.Since(began))
	httputil.MarkDataStatus(w, rep.Audit)
	httputil.WriteJSON(w, http.StatusOK, rep)
}

// CategoryBreakdown serves GET /categories. expand=subcategories nests the
// drill-down for every category.
func (h *Handler) CategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	q := r.URL.Query()

	req, err := h.breakdownRequest(q)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	req.ExpandSubcategories = q.Get("expand") == "subcategories"

	rep, err := h.svc.CategoryBreakdown(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.AddServerTiming(w, "report", time.Since(began))
	httputil.MarkDataStatus(w, rep.Audit)
	httputil.WriteJSON(w, http.StatusOK, rep)
}

// SubcategoryBreakdown serves GET /categories/{category}/subcategories.
func (h *Handler) SubcategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	category := chi.URLParam(r, "category")
	if unescaped, err := url.PathUnescape(category); err == nil {
		category = unescaped
	}

	req, err := h.breakdownRequest(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	rep, err := h.svc.SubcategoryBreakdown(r.Context(), category, req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.AddServerTiming(w, "report", time.Since(began))
	httputil.MarkDataStatus(w, rep.Audit)
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) breakdownRequest(q url.Values) (BreakdownRequest, error) {
	rng, err := parseRange(q, h.defaultBreakdownRange())
	if err != nil {
		return BreakdownRequest{}, err
	}
	l, acct, err := parseScope(q)
	if err != nil {
		return BreakdownRequest{}, err
	}
	return BreakdownRequest{Range: rng, Ledger: l, AccountID: acct}, nil
}

// defaultFlowRange covers the current month and the six before it.
func (h *Handler) defaultFlowRange() finance.DateRange {
	now := h.svc.now().UTC()
	first := finance.PeriodOf(now).Start().AddDate(0, -6, 0)
	return finance.DateRange{From: first, To: finance.PeriodOf(now).End()}
}

// defaultBreakdownRange covers the current calendar year.
func (h *Handler) defaultBreakdownRange() finance.DateRange {
	y := h.svc.now().UTC().Year()
	return finance.DateRange{
		From: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func parseRange(q url.Values, def finance.DateRange) (finance.DateRange, error) {
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	switch {
	case start == "" && end == "":
		return def, nil
	case start == "" || end == "":
		return finance.DateRange{}, apperr.Validation("range", "start and end must be given together")
	}
	return finance.ParseDateRange(start, end)
}

func parseScope(q url.Values) (finance.Ledger, *uuid.UUID, error) {
	l := finance.LedgerGeneral
	if raw := q.Get("ledger"); raw != "" {
		parsed, err := finance.ParseLedger(raw)
		if err != nil {
			return "", nil, err
		}
		l = parsed
	}

	raw := strings.TrimSpace(q.Get("account_id"))
	if raw == "" {
		return l, nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", nil, apperr.Validation("account_id", "account_id must be a uuid")
	}
	return l, &id, nil
}
