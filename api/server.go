/*
server.go - HTTP router and middleware configuration

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests
  5. RateLimiter: Per-client token bucket (faucet abuse guard)

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

// NewRouter creates a router with all routes configured. A nil limiter
// disables front-end rate limiting (tests).
func NewRouter(h *Handler, limiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", h.SendTransfer)
			r.Get("/", h.SendTransferQuery)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/address/{address}", h.GetAddressTotal)
			r.Get("/date/{date}", h.GetDateTotal)
		})
	})

	return r
}
