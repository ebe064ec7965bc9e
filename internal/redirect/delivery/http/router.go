package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the redirect hops and operational endpoints. Only the public entry point is
// rate limited; rateLimiter may be nil. Forwarding headers are honoured from proxies only.
func NewRouter(handler *Handler, logger *zap.Logger, rateLimiter *RateLimiter, proxies TrustedProxies) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(proxies.ClientIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Operational endpoints bypass the rate limiter
	r.Get("/healthz", handler.Healthz)
	r.Get("/readyz", handler.Readyz)
	r.Get("/api/v1/metrics", handler.MetricsSnapshot)
	if handler.svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handler.svc.Metrics.Handler())
	}

	// Stage 2 and Stage 3
	r.Get("/validate", handler.Validate)
	r.Get("/route", handler.Route)

	// Stage 1
	r.Group(func(r chi.Router) {
		if rateLimiter != nil {
			r.Use(rateLimiter.Middleware)
		}
		r.Get("/{code}", handler.Genesis)
	})

	return r
}
