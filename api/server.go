/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/tenants/*        Tenant management
  /api/schedules/*      Billing schedule management
  /api/payments/*       Payment ledger and actions
  /api/admin/*          Engine triggers and run audit
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tenant routes
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Post("/{id}/move-out", h.MoveOutTenant)
		})

		// Schedule routes
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.ListSchedules)
			r.Post("/", h.CreateSchedule)
			r.Get("/{id}", h.GetSchedule)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Get("/summary", h.GetPaymentSummary)
			r.Get("/upcoming", h.GetUpcomingPayments)
			r.Get("/overdue", h.GetOverduePayments)
			r.Post("/manual", h.CreateManualPayment)
			r.Get("/{id}", h.GetPayment)
			r.Put("/{id}/mark-paid", h.MarkPaymentPaid)
			r.Put("/{id}/waive", h.WaivePayment)
			r.Put("/{id}/verify", h.SubmitVerification)
			r.Put("/{id}/verify/approve", h.ApproveVerification)
			r.Put("/{id}/verify/reject", h.RejectVerification)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/run", h.TriggerRun)
			r.Post("/generate", h.ForceGenerate)
			r.Get("/runs", h.ListBillingRuns)
		})
	})

	// Metrics scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Liveness probe
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
