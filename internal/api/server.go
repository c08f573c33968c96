// Package api provides the read-only REST API server for the USB ID registry.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/stacklok/usb-ids-registry/internal/api/v1"
	"github.com/stacklok/usb-ids-registry/internal/service"
)

// ServerOption configures the registry API server
type ServerOption func(*routes)

// routes collects what NewServer mounts next to the registry API
type routes struct {
	middlewares []func(http.Handler) http.Handler
	metrics     http.Handler
}

// WithMiddlewares adds middleware to the registry API routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(rt *routes) {
		rt.middlewares = append(rt.middlewares, mw...)
	}
}

// WithMetricsHandler serves h at /metrics, outside the API middlewares so
// scrapes are not counted as API traffic. A nil handler leaves the route unset.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(rt *routes) {
		rt.metrics = h
	}
}

// NewServer builds the router: health and version at the root, lookups under /v1
func NewServer(svc service.RegistryService, opts ...ServerOption) *chi.Mux {
	rt := &routes{}
	for _, opt := range opts {
		opt(rt)
	}

	r := chi.NewRouter()
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics)
	}
	r.Group(func(api chi.Router) {
		api.Use(rt.middlewares...)
		api.Mount("/", v1.HealthRouter(svc))
		api.Mount("/v1", v1.Router(svc))
	})

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
