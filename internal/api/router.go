package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/manofshad/vodhunter-go/internal/middleware"
)

// chiMiddleware adapts our http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler, so RequestID/PrometheusMetrics work
// with r.Use() unchanged.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// perfMonitorWindow is the rolling sample window size, per
// internal/middleware's doc comment ("rolling window of 1000 most
// recent requests").
const perfMonitorWindow = 1000

// searchClipRateLimit bounds uploads to the most resource-intensive
// endpoint in this API (preprocess+embed+match+align per request),
// mirroring cartographus's endpoint-specific RateLimitWrite tier for
// resource-intensive write operations.
const (
	searchClipRateLimitRequests = 30
	searchClipRateLimitWindow   = time.Minute
)

// corsOptions allows any origin: this API has no cookie-based session
// or auth header to protect, so there is nothing for CORS to gate
// beyond the browsable surface itself.
func corsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// NewRouter builds the complete HTTP surface for spec.md §6's six
// endpoints, plus /metrics and a generated /swagger/* surface, per
// SPEC_FULL.md's HTTP API module.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	perfMonitor := middleware.NewPerformanceMonitor(perfMonitorWindow)

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(corsOptions()))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(perfMonitor.Middleware)
	r.Use(chiMiddleware(middleware.RequestID))

	r.Get("/api/health", h.Health)

	r.Route("/api/live", func(r chi.Router) {
		r.Get("/status", h.LiveStatus)
		r.Post("/start", h.LiveStart)
		r.Post("/stop", h.LiveStop)
		r.Get("/sessions", h.LiveSessions)
	})

	r.Route("/api/search", func(r chi.Router) {
		r.Use(httprate.LimitByIP(searchClipRateLimitRequests, searchClipRateLimitWindow))
		r.Post("/clip", h.SearchClip)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
