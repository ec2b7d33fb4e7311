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
  /api/students/*           Student management and dues reports
  /api/fees/*               Catalog, settings, enrollments, payments
  /api/fees/reconciliation/* Bank statement matching
  /api/inventory/*          Stock tracking
  /api/admin/*              Seed and reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/pending-fees", h.PendingFees)
			r.Get("/stats", h.StudentStats)
			r.Post("/bulk-import", h.BulkImport)
			r.Get("/{id}", h.GetStudent)
			r.Put("/{id}", h.UpdateStudent)
			r.Patch("/{id}", h.UpdateStudent)
			r.Get("/{id}/dues", h.StudentDues)
			r.Get("/{id}/ledger", h.StudentLedger)
		})

		// Fee routes
		r.Route("/fees", func(r chi.Router) {
			r.Route("/heads", func(r chi.Router) {
				r.Get("/", h.ListFeeHeads)
				r.Post("/", h.CreateFeeHead)
				r.Put("/{id}", h.UpdateFeeHead)
				r.Delete("/{id}", h.DeleteFeeHead)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", h.GetSettings)
				r.Post("/", h.SaveSettings)
			})

			r.Route("/enrollments", func(r chi.Router) {
				r.Get("/", h.ListEnrollments)
				r.Post("/", h.SetEnrollment)
			})

			r.Route("/receipts", func(r chi.Router) {
				r.Get("/", h.ListReceipts)
				r.Post("/", h.CreateReceipt)
				r.Get("/{id}", h.GetReceipt)
				r.Put("/{id}", h.UpdateReceipt)
				r.Get("/{id}/print", h.PrintReceipt)
			})

			r.Get("/transactions", h.ListTransactions)

			r.Route("/reconciliation", func(r chi.Router) {
				r.Get("/", h.ListEntries)
				r.Post("/import", h.ImportStatement)
				r.Post("/auto-match", h.AutoMatch)
				r.Get("/entries", h.ListEntries)
				r.Get("/pending-transactions", h.PendingTransactions)
				r.Post("/manual-entry", h.ManualEntry)
				r.Post("/{id}/reconcile", h.Reconcile)
				r.Post("/{id}/unreconcile", h.Unreconcile)
			})
		})

		// Inventory routes
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/items", h.ListItems)
			r.Post("/items", h.CreateItem)
			r.Get("/items/{id}", h.GetItem)
			r.Put("/items/{id}", h.UpdateItem)
			r.Post("/movements", h.RecordMovement)
			r.Get("/low-stock", h.LowStock)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed-demo", h.SeedDemo)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
