package di

import (
	"go.uber.org/zap"

	querybus "github.com/jast-r/equation-solver/application/queries/bus"
	"github.com/jast-r/equation-solver/domain/solver"
	"github.com/jast-r/equation-solver/infrastructure/config"
	"github.com/jast-r/equation-solver/interfaces/http/rest"
	"github.com/jast-r/equation-solver/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Dispatcher *solver.Dispatcher
	QueryBus   *querybus.QueryBus
	Collector  *observability.Collector
	Tracing    *observability.TracerProvider
	Router     *rest.Router
	Watcher    *config.Watcher
}
