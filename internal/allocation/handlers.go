package allocation

import (
	"net/http"
	"strings"
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

// SaveMapping serves PUT /mappings.
func (h *Handler) SaveMapping(w http.ResponseWriter, r *http.Request) {
	var in MappingInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if userID, ok := utils.UserIDFromContext(r.Context()); ok {
		in.CreatedBy = userID
	}

	id, err := h.svc.SaveMapping(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// GetMapping serves GET /mappings/{id}.
func (h *Handler) GetMapping(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, apperr.Validation("id", "id must be a uuid"))
		return
	}
	m, err := h.svc.GetMapping(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

// LookupMapping serves GET /mappings/lookup?category=&subcategory=.
func (h *Handler) LookupMapping(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	l, err := h.svc.MappingFor(r.Context(), q.Get("category"), q.Get("subcategory"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

// Preview serves POST /preview. Nothing is persisted.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	var req ExpenseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	out, err := h.svc.AllocateExpense(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.AddServerTiming(w, "allocate", time.Since(began))
	httputil.MarkDataStatus(w, out.Audit)
	httputil.WriteJSON(w, http.StatusOK, out)
}

// Aid serves GET /aid?period=YYYY-MM.
func (h *Handler) Aid(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	sum, err := h.svc.AidForPeriod(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.MarkDataStatus(w, sum.Audit)
	httputil.WriteJSON(w, http.StatusOK, sum)
}

// StudentAid serves GET /students/{student_id}/aid?period=YYYY-MM.
func (h *Handler) StudentAid(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	acc, err := h.svc.StudentAid(r.Context(), chi.URLParam(r, "student_id"), p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc)
}

// RefreshAid serves POST /aid/refresh?period=YYYY-MM.
func (h *Handler) RefreshAid(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	n, err := h.svc.RefreshAccumulations(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"period": p.String(), "students": n})
}

// period reads ?period=, defaulting to the current month.
func (h *Handler) period(r *http.Request) (finance.Period, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return finance.PeriodOf(h.svc.now()), nil
	}
	return finance.ParsePeriod(raw)
}
