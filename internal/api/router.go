package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all portal routes. The route layout mirrors the upstream
// resource model: consents, accounts, products, payments, plus the loan
// application workflow on top.
func NewRouter(h *Handlers, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(Recovery(logger))
	r.Use(Logging(logger))
	r.Use(Timeout(requestTimeout))

	r.Get("/health", h.Health)
	r.Get("/health/{bank}", h.HealthBank)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/consents", func(r chi.Router) {
			r.Post("/", h.CreateConsent)
			r.Get("/", h.ListConsents)
			r.Get("/{bank}/{id}/status", h.ConsentStatus)
			r.Delete("/{bank}/{id}", h.DeleteConsent)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.Accounts)
			r.Get("/{id}", h.Account)
			r.Get("/{id}/balances", h.Balances)
			r.Get("/{id}/transactions", h.Transactions)
		})

		r.Get("/products", h.Products)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.CreatePayment)
			r.Get("/{bank}/{id}", h.PaymentStatus)
		})

		r.Route("/loans/applications", func(r chi.Router) {
			r.Post("/", h.CreateLoanApplication)
			r.Get("/{id}", h.GetLoanApplication)
		})
	})

	return r
}
