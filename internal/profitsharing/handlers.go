package profitsharing

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/httputil"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Compute serves POST /compute. Nothing is stored.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	var req ComputeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if req.Period == (finance.Period{}) {
		req.Period = finance.PeriodOf(h.svc.now())
	}

	out, err := h.svc.Compute(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.AddServerTiming(w, "compute", time.Since(began))
	httputil.MarkDataStatus(w, out.Audit)
	httputil.WriteJSON(w, http.StatusOK, out)
}

// ListRecords serves GET /?year=, defaulting to the current year.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	year := h.svc.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, r, apperr.Validation("year", "year must be a number"))
			return
		}
		year = y
	}

	list, err := h.svc.ListRecords(r.Context(), year)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// GetRecord serves GET /{year}/{month}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	p, err := periodParam(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	rec, err := h.svc.GetRecord(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// SaveRecord serves PUT /{year}/{month}.
func (h *Handler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	p, err := periodParam(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var in RecordInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	rec, err := h.svc.SaveRecord(r.Context(), p, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// Reconcile serves POST /{year}/{month}/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	p, err := periodParam(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	report, err := h.svc.Reconcile(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.AddServerTiming(w, "reconcile", time.Since(began))
	httputil.MarkDataStatus(w, report.Audit)
	httputil.WriteJSON(w, http.StatusOK, report)
}

type paidRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

// MarkPaid serves POST /records/{id}/paid.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var req paidRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	by, _ := utils.UserIDFromContext(r.Context())

	rec, err := h.svc.MarkPaid(r.Context(), id, req.Note, by)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// MarkUnpaid serves DELETE /records/{id}/paid.
func (h *Handler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	rec, err := h.svc.MarkUnpaid(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func periodParam(r *http.Request) (finance.Period, error) {
	y, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return finance.Period{}, apperr.Validation("year", "year must be a number")
	}
	m, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return finance.Period{}, apperr.Validation("month", "month must be a number")
	}
	return finance.NewPeriod(y, m)
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id", "id must be a uuid")
	}
	return id, nil
}
