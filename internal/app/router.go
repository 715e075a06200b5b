package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oneflow-hq/oneflow/internal/finance/bills"
	"github.com/oneflow-hq/oneflow/internal/finance/invoices"
	"github.com/oneflow-hq/oneflow/internal/finance/purchaseorders"
	"github.com/oneflow-hq/oneflow/internal/finance/salesorders"
)

// RouterConfig aggregates the handlers mounted by the HTTP server.
type RouterConfig struct {
	Middleware     MiddlewareConfig
	SalesOrders    *salesorders.Handler
	PurchaseOrders *purchaseorders.Handler
	Invoices       *invoices.Handler
	Bills          *bills.Handler
}

// NewRouter builds the application router. Request parsing, status mapping
// and rate limiting live here; authentication and role checks are owned by
// the gateway in front of this service.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg.Middleware) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/finance", func(r chi.Router) {
		r.Mount("/sales-orders", salesorders.Routes(cfg.SalesOrders))
		r.Mount("/purchase-orders", purchaseorders.Routes(cfg.PurchaseOrders))
		r.Mount("/invoices", invoices.Routes(cfg.Invoices))
		r.Mount("/bills", bills.Routes(cfg.Bills))
	})

	return r
}
