package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/jast-r/equation-solver/application/queries"
	"github.com/jast-r/equation-solver/application/queries/bus"
	"github.com/jast-r/equation-solver/domain/algebra"
	"github.com/jast-r/equation-solver/domain/solver"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newMapCache() *mapCache { return &mapCache{data: map[string]interface{}{}} }

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

type countingMetrics struct {
	inputs  map[string]int
	hits    int
	misses  int
	batches []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{inputs: map[string]int{}}
}

func (m *countingMetrics) RecordInput(class, outcome, arity string, _ time.Duration) {
	m.inputs[class+"/"+outcome]++
}

func (m *countingMetrics) RecordCache(hit bool) {
	if hit {
		m.hits++
		return
	}
	m.misses++
}

func (m *countingMetrics) ObserveBatch(size int) { m.batches = append(m.batches, size) }

type countingSolver struct {
	inner *solver.Dispatcher
	calls int
}

func (s *countingSolver) Dispatch(raw string, strict bool) solver.Result {
	s.calls++
	return s.inner.Dispatch(raw, strict)
}

func newHandler(cache *mapCache, metrics *countingMetrics) (*SolveEquationsHandler, *countingSolver) {
	s := &countingSolver{inner: solver.NewDispatcher(algebra.NewEngine(), solver.PolicyDrop, zap.NewNop())}
	h := NewSolveEquationsHandler(s, nil, nil, noop.NewTracerProvider().Tracer("test"), zap.NewNop())
	if cache != nil {
		h.cache = cache
	}
	if metrics != nil {
		h.metrics = metrics
	}
	return h, s
}

func TestSolve_MixedBatch(t *testing.T) {
	metrics := newCountingMetrics()
	h, _ := newHandler(nil, metrics)

	resp, err := h.Solve(context.Background(), queries.SolveEquationsQuery{
		Equations: []string{"1x+3+2x+4x+5x=7x", "3+5", "1=2=3", "x^2=5"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Solutions, 2)
	assert.Equal(t, solver.Entry{Source: "1*x+3+2*x+4*x+5*x=7*x", Solve: "-3/5", LaTeX: `- \frac{3}{5}`}, resp.Solutions[0])
	assert.Equal(t, "-sqrt(5), sqrt(5)", resp.Solutions[1].Solve)

	require.Len(t, resp.Failures, 1)
	f := resp.Failures[0]
	assert.Equal(t, 2, f.Index)
	assert.Equal(t, "1=2=3", f.Source)
	assert.Equal(t, pkgerrors.CodeMalformedEquation, f.Error.Code)
	assert.Equal(t, string(pkgerrors.DomainValidationError), f.Error.Type)
	assert.Equal(t, map[string]interface{}{"parts": 3}, f.Error.Details)

	assert.Equal(t, 1, metrics.inputs["unclassifiable/dropped"])
	assert.Equal(t, 2, metrics.inputs["equation/solved"])
	assert.Equal(t, []int{4}, metrics.batches)
}

func TestSolve_Strict(t *testing.T) {
	h, _ := newHandler(nil, nil)

	resp, err := h.Solve(context.Background(), queries.SolveEquationsQuery{
		Equations: []string{"3+5", "x=2"},
		Strict:    true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, 0, resp.Failures[0].Index)
	assert.Equal(t, pkgerrors.CodeUnclassifiableInput, resp.Failures[0].Error.Code)
	require.Len(t, resp.Solutions, 1)
	assert.Equal(t, "2", resp.Solutions[0].Solve)
}

func TestSolve_FailureMessageIncludesCause(t *testing.T) {
	h, _ := newHandler(nil, nil)

	resp, err := h.Solve(context.Background(), queries.SolveEquationsQuery{Equations: []string{"3,4=x"}})
	require.NoError(t, err)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, pkgerrors.CodeUnparsableExpression, resp.Failures[0].Error.Code)
	assert.Contains(t, resp.Failures[0].Error.Message, `left side "3,4"`)
	assert.Greater(t, len(resp.Failures[0].Error.Message), len(`left side "3,4" could not be parsed`))
}

func TestSolve_EmptyArraysEncode(t *testing.T) {
	h, _ := newHandler(nil, nil)

	resp, err := h.Solve(context.Background(), queries.SolveEquationsQuery{Equations: []string{"3+5"}})
	require.NoError(t, err)
	assert.NotNil(t, resp.Solutions)
	assert.NotNil(t, resp.Failures)
	assert.Empty(t, resp.Solutions)
	assert.Empty(t, resp.Failures)
}

func TestSolve_CacheMatchesUncached(t *testing.T) {
	cache := newMapCache()
	metrics := newCountingMetrics()
	cached, s := newHandler(cache, metrics)
	plain, _ := newHandler(nil, nil)

	q := queries.SolveEquationsQuery{Equations: []string{"x^2=4", "x + y = 5", "3+5", "x^2 = 4"}}

	want, err := plain.Solve(context.Background(), q)
	require.NoError(t, err)

	first, err := cached.Solve(context.Background(), q)
	require.NoError(t, err)
	second, err := cached.Solve(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	// "x^2 = 4" normalizes to the same key as "x^2=4"; "3+5" is never cached.
	assert.Equal(t, 4, s.calls)
	assert.Equal(t, 4, metrics.hits)
	assert.Equal(t, 2, metrics.misses)
}

func TestSolve_CanceledContext(t *testing.T) {
	h, _ := newHandler(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Solve(ctx, queries.SolveEquationsQuery{Equations: []string{"x=1"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeCanceled))
}

func TestSolve_DeadlineExceeded(t *testing.T) {
	h, _ := newHandler(nil, nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := h.Solve(ctx, queries.SolveEquationsQuery{Equations: []string{"x=1"}})
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))
}

func TestHandle_ThroughBus(t *testing.T) {
	h, _ := newHandler(nil, nil)
	b := bus.NewQueryBus()
	require.NoError(t, b.Register(queries.SolveEquationsQuery{}, h))

	out, err := b.Ask(context.Background(), queries.SolveEquationsQuery{Equations: []string{"2784=3738"}})
	require.NoError(t, err)
	resp, ok := out.(*queries.EquationResponse)
	require.True(t, ok)
	require.Len(t, resp.Solutions, 1)
	assert.Equal(t, "False", resp.Solutions[0].Solve)
	assert.Equal(t, `\text{False}`, resp.Solutions[0].LaTeX)

	_, err = b.Ask(context.Background(), queries.SolveEquationsQuery{})
	assert.True(t, pkgerrors.IsValidation(err))
}

type otherQuery struct{}

func (otherQuery) Validate() error { return nil }

func TestHandle_WrongQueryType(t *testing.T) {
	h, _ := newHandler(nil, nil)
	_, err := h.Handle(context.Background(), otherQuery{})
	assert.True(t, pkgerrors.IsInternal(err))
}
