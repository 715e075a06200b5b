package invoices

import "github.com/go-chi/chi/v5"

// Routes mounts customer-invoice endpoints on a fresh router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.CreateManual)
	r.Post("/from-timesheets", h.CreateFromTimesheets)
	r.Post("/from-sales-order/{id}", h.CreateFromSalesOrder)
	r.Get("/{id}", h.Get)
	return r
}
