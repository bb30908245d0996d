package di

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jast-r/equation-solver/application/ports"
	"github.com/jast-r/equation-solver/application/queries"
	querybus "github.com/jast-r/equation-solver/application/queries/bus"
	queries_handlers "github.com/jast-r/equation-solver/application/queries/handlers"
	"github.com/jast-r/equation-solver/domain/algebra"
	"github.com/jast-r/equation-solver/domain/solver"
	"github.com/jast-r/equation-solver/infrastructure/cache"
	"github.com/jast-r/equation-solver/infrastructure/config"
	"github.com/jast-r/equation-solver/interfaces/http/rest"
	"github.com/jast-r/equation-solver/interfaces/http/rest/handlers"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
	"github.com/jast-r/equation-solver/pkg/observability"
)

const metricsNamespace = "equation_solver"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideEngine creates the algebra engine
func ProvideEngine() *algebra.Engine {
	return algebra.NewEngine()
}

// ProvidePolicy parses the configured unclassifiable-input policy
func ProvidePolicy(cfg *config.Config) (solver.Policy, error) {
	return solver.ParsePolicy(cfg.Solver.UnclassifiedPolicy)
}

// ProvideDispatcher creates the input dispatcher
func ProvideDispatcher(engine solver.Engine, policy solver.Policy, logger *zap.Logger) *solver.Dispatcher {
	return solver.NewDispatcher(engine, policy, logger)
}

// ProvideCollector creates the metrics collector, or nil when metrics are
// disabled
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(metricsNamespace)
}

// ProvideSolveMetrics adapts the collector to the handler port
func ProvideSolveMetrics(collector *observability.Collector) ports.SolveMetrics {
	if collector == nil {
		return nil
	}
	return collector
}

// ProvideTracerProvider initializes tracing; the cleanup flushes spans
func ProvideTracerProvider(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(observability.TracingConfig{
		Enabled:     cfg.EnableTracing,
		ServiceName: "equation-solver",
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTracer returns the application tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideResultCache creates the in-memory result cache, or nil when caching
// is disabled
func ProvideResultCache(cfg *config.Config) (ports.ResultCache, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}
	c := cache.NewInMemoryCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	return c, c.Close
}

// ProvideSolveEquationsHandler creates the solve query handler
func ProvideSolveEquationsHandler(
	dispatcher *solver.Dispatcher,
	resultCache ports.ResultCache,
	metrics ports.SolveMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *queries_handlers.SolveEquationsHandler {
	return queries_handlers.NewSolveEquationsHandler(dispatcher, resultCache, metrics, tracer, logger)
}

// ProvideQueryBus creates a query bus with all handlers registered
func ProvideQueryBus(
	solveHandler *queries_handlers.SolveEquationsHandler,
	collector *observability.Collector,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	var handler querybus.QueryHandler = solveHandler
	if collector != nil {
		handler = querybus.NewMetricsMiddleware(collector).Wrap(handler)
	}
	if err := queryBus.Register(queries.SolveEquationsQuery{}, handler); err != nil {
		return nil, fmt.Errorf("failed to register solve handler: %w", err)
	}

	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(queryBus, errorHandler, collector, rest.Options{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Limits: handlers.Limits{
			MaxEquations:      cfg.Solver.MaxEquations,
			MaxEquationLength: cfg.Solver.MaxEquationLength,
			MaxBodyBytes:      cfg.Solver.MaxBodyBytes,
			Timeout:           cfg.Server.RequestTimeout,
		},
	}, logger)
}

// ProvideConfigWatcher hot reloads the solver policy from the config file.
// It returns nil when no file is configured.
func ProvideConfigWatcher(cfg *config.Config, dispatcher *solver.Dispatcher, logger *zap.Logger) (*config.Watcher, func(), error) {
	if cfg.File == "" {
		return nil, func() {}, nil
	}

	w, err := config.NewWatcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	w.OnChange(func(next *config.Config) {
		policy, err := solver.ParsePolicy(next.Solver.UnclassifiedPolicy)
		if err != nil {
			logger.Error("Ignoring invalid unclassified policy", zap.Error(err))
			return
		}
		dispatcher.SetPolicy(policy)
	})
	return w, w.Stop, nil
}
