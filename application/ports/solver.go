package ports

import (
	"context"
	"time"

	"github.com/jast-r/equation-solver/domain/solver"
)

// InputSolver turns one raw input into a solver result
// This is a port in hexagonal architecture - the handler doesn't know whether
// the dispatcher is local or remote
type InputSolver interface {
	Dispatch(raw string, strict bool) solver.Result
}

// ResultCache memoizes per-input results keyed by normalized input
type ResultCache interface {
	// Get returns the cached value and whether it was present and fresh
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value for ttl; a zero ttl uses the cache default
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// SolveMetrics records solver activity
type SolveMetrics interface {
	RecordInput(class, outcome, arity string, d time.Duration)
	RecordCache(hit bool)
	ObserveBatch(size int)
}
