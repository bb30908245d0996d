package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
	"github.com/jast-r/equation-solver/pkg/observability"
)

// Query is a read-only request routed by its concrete type
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
}

// NewQueryBus creates an empty query bus
func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[reflect.Type]QueryHandler)}
}

func queryName(q Query) string {
	return reflect.TypeOf(q).Name()
}

// Register binds a handler to the concrete type of the sample query.
func (b *QueryBus) Register(sample Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(sample)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}
	b.handlers[t] = handler
	return nil
}

// Ask validates a query and runs its handler. Validation failures come back
// as validation AppErrors; a missing handler is an internal error.
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	name := queryName(query)
	if err := query.Validate(); err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return nil, pkgerrors.Wrap(err, "invalid "+name)
		}
		return nil, pkgerrors.NewValidationError("invalid " + name + ": " + err.Error()).WithCause(err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !exists {
		return nil, pkgerrors.NewInternalError("no handler registered for query type " + name)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

// Metrics receives per-query timings and outcome counts
type Metrics interface {
	StartTimer(metric, label string) observability.Timer
	Increment(metric, label string)
}

// MetricsMiddleware times handlers and counts their outcomes
type MetricsMiddleware struct {
	metrics Metrics
}

func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Wrap decorates next with query_duration, query_count and a
// query_success or query_errors increment.
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		name := queryName(query)
		timer := m.metrics.StartTimer("query_duration", name)
		defer timer.Stop()

		m.metrics.Increment("query_count", name)
		result, err := next.Handle(ctx, query)
		outcome := "query_success"
		if err != nil {
			outcome = "query_errors"
		}
		m.metrics.Increment(outcome, name)
		return result, err
	})
}
