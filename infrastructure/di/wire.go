//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/jast-r/equation-solver/domain/algebra"
	"github.com/jast-r/equation-solver/domain/solver"
	"github.com/jast-r/equation-solver/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideEngine,
	wire.Bind(new(solver.Engine), new(*algebra.Engine)),
	ProvidePolicy,
	ProvideDispatcher,
	ProvideCollector,
	ProvideSolveMetrics,
	ProvideTracerProvider,
	ProvideTracer,
	ProvideResultCache,
	ProvideSolveEquationsHandler,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideRouter,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup releases
// the cache, the config watcher and the trace exporter.
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
