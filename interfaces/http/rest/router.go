package rest

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jast-r/equation-solver/interfaces/http/rest/handlers"
	"github.com/jast-r/equation-solver/interfaces/http/rest/middleware"
	"github.com/jast-r/equation-solver/pkg/common"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
	"github.com/jast-r/equation-solver/pkg/observability"
)

// Options configures the router
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	Limits         handlers.Limits
}

// Router creates and configures the HTTP router
type Router struct {
	queryBus     handlers.QueryAsker
	errorHandler *pkgerrors.ErrorHandler
	collector    *observability.Collector
	options      Options
	logger       *zap.Logger
	ready        atomic.Bool
}

// NewRouter creates a new router instance. collector may be nil, which
// disables /metrics.
func NewRouter(
	queryBus handlers.QueryAsker,
	errorHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	options Options,
	logger *zap.Logger,
) *Router {
	rt := &Router{
		queryBus:     queryBus,
		errorHandler: errorHandler,
		collector:    collector,
		options:      options,
		logger:       logger,
	}
	rt.ready.Store(true)
	return rt
}

// SetReady toggles the readiness probe, e.g. while draining on shutdown
func (rt *Router) SetReady(ready bool) {
	rt.ready.Store(ready)
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	var httpMetrics middleware.HTTPMetrics
	if rt.collector != nil {
		httpMetrics = rt.collector
	}
	router.Use(middleware.Logger(rt.logger, httpMetrics))
	router.Use(rt.errorHandler.Middleware)

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.options.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.collector.GetRegistry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api", func(r chi.Router) {
		solveHandler := handlers.NewSolveHandler(rt.queryBus, rt.errorHandler, rt.options.Limits, rt.logger)
		r.Post("/solve", solveHandler.Solve)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if !rt.ready.Load() {
		_ = common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
