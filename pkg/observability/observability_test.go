package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("test")

	c.RecordInput("equation", "solved", "1", time.Millisecond)
	c.RecordInput("equation", "solved", "1", time.Millisecond)
	c.RecordInput("unclassifiable", "dropped", "0", 0)
	c.RecordCache(true)
	c.RecordCache(false)
	c.RecordCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Inputs.WithLabelValues("equation", "solved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Inputs.WithLabelValues("unclassifiable", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheMisses))
}

func TestCollector_QueryMetrics(t *testing.T) {
	c := NewCollector("test")

	timer := c.StartTimer("query_duration", "SolveEquationsQuery")
	timer.Stop()
	c.Increment("query_count", "SolveEquationsQuery")
	c.Increment("query_success", "SolveEquationsQuery")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("SolveEquationsQuery", "count")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("SolveEquationsQuery", "success")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.QueryDuration))
}

func TestCollectors_IndependentRegistries(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")
	a.RecordCache(true)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHits))
	assert.NotSame(t, a.GetRegistry(), b.GetRegistry())
}

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)

	ctx, span := tp.StartSpan(context.Background(), "solve")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestGetSampleRate(t *testing.T) {
	assert.Equal(t, 0.01, getSampleRate("production"))
	assert.Equal(t, 0.1, getSampleRate("staging"))
	assert.Equal(t, 1.0, getSampleRate("development"))
}
