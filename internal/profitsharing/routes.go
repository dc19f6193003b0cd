package profitsharing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the profit-sharing endpoints. Writes run behind admin.
func SetupRoutes(h *Handler, admin ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/compute", h.Compute)
	r.Get("/", h.ListRecords)
	r.Get("/{year}/{month}", h.GetRecord)

	r.Group(func(r chi.Router) {
		r.Use(admin...)

		r.Put("/{year}/{month}", h.SaveRecord)
		r.Post("/{year}/{month}/reconcile", h.Reconcile)
		r.Post("/records/{id}/paid", h.MarkPaid)
		r.Delete("/records/{id}/paid", h.MarkUnpaid)
	})

	return r
}
