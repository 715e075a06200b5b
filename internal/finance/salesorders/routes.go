package salesorders

import "github.com/go-chi/chi/v5"

// Routes mounts sales-order endpoints on a fresh router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	return r
}
