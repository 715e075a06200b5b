package bills

import "github.com/go-chi/chi/v5"

// Routes mounts vendor-bill endpoints on a fresh router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/from-po/{id}", h.CreateFromPO)
	r.Get("/{id}", h.Get)
	return r
}
