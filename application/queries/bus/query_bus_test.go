package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
	"github.com/jast-r/equation-solver/pkg/observability"
)

type echoQuery struct {
	Value string
}

func (q echoQuery) Validate() error {
	if q.Value == "" {
		return errors.New("value is required")
	}
	return nil
}

var errHandler = errors.New("handler failed")

type recordingMetrics struct {
	counts  map[string]int
	stopped int
}

func (m *recordingMetrics) StartTimer(metric, label string) observability.Timer {
	return stopFunc(func() { m.stopped++ })
}

func (m *recordingMetrics) Increment(metric, label string) {
	m.counts[metric+"/"+label]++
}

type stopFunc func()

func (f stopFunc) Stop() { f() }

func echoHandler() QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		q := query.(echoQuery)
		if q.Value == "fail" {
			return nil, errHandler
		}
		return q.Value, nil
	})
}

func TestQueryBus_Ask(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(echoQuery{}, echoHandler()))

	got, err := b.Ask(context.Background(), echoQuery{Value: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = b.Ask(context.Background(), echoQuery{})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.ErrorContains(t, err, "invalid echoQuery: value is required")

	_, err = b.Ask(context.Background(), echoQuery{Value: "fail"})
	assert.ErrorIs(t, err, errHandler)
}

func TestQueryBus_RegisterTwice(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(echoQuery{}, echoHandler()))
	assert.Error(t, b.Register(echoQuery{}, echoHandler()))
}

type otherQuery struct{}

func (otherQuery) Validate() error { return nil }

func TestQueryBus_Unregistered(t *testing.T) {
	_, err := NewQueryBus().Ask(context.Background(), otherQuery{})
	assert.ErrorContains(t, err, "no handler registered for query type otherQuery")
	assert.True(t, pkgerrors.IsInternal(err))
}

func TestQueryBus_WrapsAppValidationErrors(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(strictQuery{}, echoHandler()))

	_, err := b.Ask(context.Background(), strictQuery{})
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "invalid strictQuery: nothing to do", appErr.Message)
	assert.Equal(t, "EMPTY", appErr.Code)
}

type strictQuery struct{}

func (strictQuery) Validate() error {
	return pkgerrors.NewValidationError("nothing to do").WithCode("EMPTY")
}

func TestMetricsMiddleware(t *testing.T) {
	m := &recordingMetrics{counts: map[string]int{}}
	h := NewMetricsMiddleware(m).Wrap(echoHandler())

	_, err := h.Handle(context.Background(), echoQuery{Value: "ok"})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), echoQuery{Value: "fail"})
	require.Error(t, err)

	assert.Equal(t, 2, m.counts["query_count/echoQuery"])
	assert.Equal(t, 1, m.counts["query_success/echoQuery"])
	assert.Equal(t, 1, m.counts["query_errors/echoQuery"])
	assert.Equal(t, 2, m.stopped)
}
