package allocation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the allocation endpoints. Writes run behind admin.
func SetupRoutes(h *Handler, admin ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/mappings/lookup", h.LookupMapping)
	r.Get("/mappings/{id}", h.GetMapping)
	r.Post("/preview", h.Preview)
	r.Get("/aid", h.Aid)
	r.Get("/students/{student_id}/aid", h.StudentAid)

	r.Group(func(r chi.Router) {
		r.Use(admin...)

		r.Put("/mappings", h.SaveMapping)
		r.Post("/aid/refresh", h.RefreshAid)
	})

	return r
}
