package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Solver metrics
	Inputs        *prometheus.CounterVec
	InputDuration *prometheus.HistogramVec
	BatchSize     prometheus.Histogram

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Inputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inputs_total",
				Help:      "Inputs processed, by class and outcome",
			},
			[]string{"class", "outcome"},
		),
		InputDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "input_solve_duration_seconds",
				Help:      "Time spent solving a single input",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"arity"},
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_size",
				Help:      "Number of inputs per solve request",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Queries dispatched through the query bus",
			},
			[]string{"query", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handler duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Inputs,
		c.InputDuration,
		c.BatchSize,
		c.Queries,
		c.QueryDuration,
		c.CacheHits,
		c.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// RecordHTTP records one served request
func (c *Collector) RecordHTTP(method, route, status string, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordInput records one processed input
func (c *Collector) RecordInput(class, outcome, arity string, d time.Duration) {
	c.Inputs.WithLabelValues(class, outcome).Inc()
	c.InputDuration.WithLabelValues(arity).Observe(d.Seconds())
}

// ObserveBatch records the size of one solve request
func (c *Collector) ObserveBatch(size int) {
	c.BatchSize.Observe(float64(size))
}

// RecordCache records a cache lookup
func (c *Collector) RecordCache(hit bool) {
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// Timer observes elapsed time when stopped
type Timer interface {
	Stop()
}

// StartTimer starts a query duration timer for label
func (c *Collector) StartTimer(metric, label string) Timer {
	return queryTimer{
		hist:  c.QueryDuration.WithLabelValues(label),
		start: time.Now(),
	}
}

// Increment bumps the query counter for label. The metric name becomes the
// status label with its query_ prefix removed.
func (c *Collector) Increment(metric, label string) {
	c.Queries.WithLabelValues(label, strings.TrimPrefix(metric, "query_")).Inc()
}

type queryTimer struct {
	hist  prometheus.Observer
	start time.Time
}

func (t queryTimer) Stop() {
	t.hist.Observe(time.Since(t.start).Seconds())
}
