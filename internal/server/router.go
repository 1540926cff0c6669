package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *RouteHandlers
	Metrics          *Metrics
	AllowedOrigins   []string
	AllowCredentials bool
	RateLimitPerSec  float64
	RateLimitBurst   int
}

// NewRouter wires the HTTP routes exposed by the routing backend.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(chimw.Recoverer)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{
			"status": "ok",
		}

		if deps.Health != nil {
			report := deps.Health.Check(ctx)
			payload["source"] = report.Source
			payload["nodes"] = report.Nodes
			payload["edges"] = report.Edges
			if report.Err != nil {
				logger.Error("health probe failed", "error", report.Err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = report.Err.Error()
			}
		}

		respondJSON(w, status, payload)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	if deps.API != nil {
		api := deps.API
		limited := func(next http.HandlerFunc) http.HandlerFunc {
			return next
		}
		if deps.RateLimitPerSec > 0 {
			limiter := rate.NewLimiter(rate.Limit(deps.RateLimitPerSec), max(deps.RateLimitBurst, 1))
			limited = func(next http.HandlerFunc) http.HandlerFunc {
				return func(w http.ResponseWriter, req *http.Request) {
					if !limiter.Allow() {
						writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "invalid_request")
						return
					}
					next(w, req)
				}
			}
		}

		r.Post("/api/compute-route", limited(api.handleComputeRoute))
		r.Post("/route/options", limited(api.handleRouteOptions))
		r.Post("/api/route/explain", limited(api.handleExplain))
		r.Post("/route/explain", limited(api.handleExplain))
		r.Get("/api/routes/comparison", limited(api.handleComparison))
		r.Get("/api/jurisdictions", api.handleJurisdictions)
		r.Get("/api/history", api.handleHistory)
		r.Post("/api/reload-graph", api.handleReloadGraph)
	}

	return r
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!containsOrigin(normalized, origin) && !containsOrigin(normalized, "*")) {
				if r.Method == http.MethodOptions {
					// Reject bare pre-flight if origin is not whitelisted.
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
