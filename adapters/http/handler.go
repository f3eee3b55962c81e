// Package http provides the HTTP transport for the dispatch service.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/specgate/specgate/adapters/metrics"
	"github.com/specgate/specgate/app"
	"github.com/specgate/specgate/core/registry"
	"github.com/specgate/specgate/pkg/jsonapi"
)

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
	Service string `json:"service" example:"specgate"`
}

// GateHandler matches incoming requests against the active document and
// hands them to the dispatcher. It is the catch-all handler: every path the
// router does not claim for its own endpoints lands here.
type GateHandler struct {
	dispatcher *app.Dispatcher
	logger     zerolog.Logger
}

// NewGateHandler creates the dispatch entry handler.
func NewGateHandler(dispatcher *app.Dispatcher, logger zerolog.Logger) *GateHandler {
	return &GateHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ServeHTTP matches the request against the document and dispatches it.
//
//	@Summary		Dispatch request to a handler module
//	@Description	Matches the request against the loaded OpenAPI document, resolves the handler module and operation, and invokes it
//	@Tags			Dispatch
//	@Produce		json
//	@Success		200	"Handler response"
//	@Failure		404	{object}	jsonapi.Document	"No documented operation matches"
//	@Failure		405	{object}	jsonapi.Document	"Path is documented but not for this method"
//	@Failure		501	{object}	jsonapi.Document	"No module implements the resolved operation"
//	@Router			/{path} [get]
//	@Router			/{path} [post]
//	@Router			/{path} [put]
//	@Router			/{path} [delete]
func (h *GateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc := h.dispatcher.Document()

	m, ok := doc.MatchRequest(r.Method, r.URL.Path)
	if !ok {
		if allowed := doc.AllowedMethods(r.URL.Path); len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			jsonapi.WriteError(w, jsonapi.ErrMethodNotAllowed(r.Method))
			return
		}
		jsonapi.WriteError(w, jsonapi.ErrNoOperation(r.Method, r.URL.Path))
		return
	}

	rt := &app.Route{
		Match:     m,
		RequestID: middleware.GetReqID(r.Context()),
	}
	r = r.WithContext(app.WithRoute(r.Context(), rt))

	h.dispatcher.Handle(w, r, func(err error) {
		if err == nil {
			return
		}
		h.writeDispatchError(w, r, err)
	})
}

// writeDispatchError is the error boundary for handler and dispatch
// failures. Unimplemented operations are the caller's problem (501);
// everything else is ours (500).
func (h *GateHandler) writeDispatchError(w http.ResponseWriter, r *http.Request, err error) {
	evt := h.logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context()))

	var unknownMod *registry.UnknownModuleError
	var unknownOp *registry.UnknownOperationError
	switch {
	case errors.As(err, &unknownMod):
		evt.Msg("no module registered for operation")
		jsonapi.WriteError(w, jsonapi.ErrUnknownModule(unknownMod.Module))
	case errors.As(err, &unknownOp):
		evt.Msg("module does not implement operation")
		jsonapi.WriteError(w, jsonapi.ErrUnknownOperation(unknownOp.Module, unknownOp.Operation))
	default:
		evt.Msg("handler failed")
		jsonapi.WriteInternalError(w, "")
	}
}

// OpenAPIHandler serves the active document as JSON.
type OpenAPIHandler struct {
	dispatcher *app.Dispatcher
}

// NewOpenAPIHandler creates a handler serving the active document.
func NewOpenAPIHandler(dispatcher *app.Dispatcher) *OpenAPIHandler {
	return &OpenAPIHandler{dispatcher: dispatcher}
}

// ServeHTTP writes the active document. The document source is kept as
// parsed, so a YAML-authored document is served as its JSON equivalent.
//
//	@Summary		Get the active OpenAPI document
//	@Tags			System
//	@Produce		json
//	@Success		200	"The active document"
//	@Router			/.well-known/openapi.json [get]
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc := h.dispatcher.Document()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc.Source); err != nil {
		// Headers are gone; nothing left to do but note it.
		return
	}
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store ReadinessChecker
}

// ReadinessChecker reports whether a dependency is ready to serve.
// *sql.DB satisfies it.
type ReadinessChecker interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler creates a new health handler. The checker may be nil,
// in which case readiness degenerates to liveness.
func NewHealthHandler(store ReadinessChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// Liveness returns a simple liveness check.
//
//	@Summary		Liveness check
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status: ok"
//	@Router			/health [get]
//	@Router			/health/live [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness checks if the service and its violation store are ready.
//
//	@Summary		Readiness check
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]string		"status: ok"
//	@Failure		503	{object}	map[string]interface{}	"status: unhealthy, error: message"
//	@Router			/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.store != nil {
		if err := h.store.PingContext(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Version returns the service version.
//
//	@Summary		Get service version
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VersionResponse{
		Version: "dev",
		Service: "specgate",
	})
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // Optional metrics exporter handler (for /metrics endpoint)
	OpenAPIHandler http.Handler // Optional handler serving the active document
	EnableSwagger  bool         // Serve the swagger UI at /swagger/*
	Violations     http.Handler // Optional violations listing handler (mounted at /violations)
}

// NewRouter creates the main HTTP router.
func NewRouter(gate *GateHandler, health *HealthHandler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(gate, health, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional endpoints.
func NewRouterWithConfig(gate *GateHandler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.OpenAPIHandler != nil {
		r.Handle("/.well-known/openapi.json", cfg.OpenAPIHandler)
	}

	if cfg.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/.well-known/openapi.json"),
		))
	}

	if cfg.Violations != nil {
		r.Mount("/violations", cfg.Violations)
	}

	r.Get("/version", Version)

	// Everything else belongs to the document.
	r.NotFound(gate.ServeHTTP)

	return r
}

// NewMetricsMiddleware creates middleware that records in-flight gauge
// movement for dispatched requests. Counters and histograms are recorded by
// the dispatcher itself, which knows the matched template.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInternalPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			next.ServeHTTP(w, r)
		})
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func isInternalPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics" ||
		strings.HasPrefix(path, "/swagger") || strings.HasPrefix(path, "/.well-known")
}
