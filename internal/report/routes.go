package report

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the read-only report endpoints behind mws.
func SetupRoutes(h *Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mws...)

	r.Get("/monthly-flow", h.MonthlyFlow)
	r.Get("/categories", h.CategoryBreakdown)
	r.Get("/categories/{category}/subcategories", h.SubcategoryBreakdown)

	return r
}
