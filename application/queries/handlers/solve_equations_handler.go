package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jast-r/equation-solver/application/ports"
	"github.com/jast-r/equation-solver/application/queries"
	"github.com/jast-r/equation-solver/application/queries/bus"
	"github.com/jast-r/equation-solver/domain/notation"
	"github.com/jast-r/equation-solver/domain/solver"
	"github.com/jast-r/equation-solver/pkg/common"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
)

// SolveEquationsHandler handles solve batch queries
type SolveEquationsHandler struct {
	solver  ports.InputSolver
	cache   ports.ResultCache
	metrics ports.SolveMetrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewSolveEquationsHandler creates a new solve handler. cache and metrics may
// be nil.
func NewSolveEquationsHandler(
	s ports.InputSolver,
	cache ports.ResultCache,
	metrics ports.SolveMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *SolveEquationsHandler {
	return &SolveEquationsHandler{
		solver:  s,
		cache:   cache,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger,
	}
}

// Handle implements bus.QueryHandler
func (h *SolveEquationsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.SolveEquationsQuery)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query type %T", query))
	}
	return h.Solve(ctx, q)
}

// Solve processes every input in order. Per-input failures are collected in
// the response; only a canceled context fails the whole batch.
func (h *SolveEquationsHandler) Solve(ctx context.Context, q queries.SolveEquationsQuery) (*queries.EquationResponse, error) {
	ctx, span := h.tracer.Start(ctx, "SolveEquations",
		trace.WithAttributes(
			attribute.Int("equations.count", len(q.Equations)),
			attribute.Bool("strict", q.Strict),
		),
	)
	defer span.End()

	if h.metrics != nil {
		h.metrics.ObserveBatch(len(q.Equations))
	}

	logger := h.logger
	if id, ok := common.GetRequestID(ctx); ok {
		logger = logger.With(zap.String("request_id", id))
	}

	resp := queries.NewEquationResponse(len(q.Equations))
	dropped := 0
	for i, raw := range q.Equations {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch interrupted")
			logger.Warn("Solve batch interrupted",
				zap.Int("processed", i),
				zap.Int("total", len(q.Equations)),
				zap.Error(err),
			)
			return nil, contextError(err)
		}

		res := h.solveOne(ctx, i, raw, q.Strict)
		switch res.Outcome {
		case solver.OutcomeSolved:
			resp.Solutions = append(resp.Solutions, *res.Entry)
		case solver.OutcomeFailed:
			resp.Failures = append(resp.Failures, queries.NewSolveFailure(i, res.Source, res.Err))
		case solver.OutcomeDropped:
			dropped++
		}
	}

	span.SetAttributes(
		attribute.Int("solutions.count", len(resp.Solutions)),
		attribute.Int("failures.count", len(resp.Failures)),
		attribute.Int("dropped.count", dropped),
	)
	logger.Debug("Solved batch",
		zap.Int("solutions", len(resp.Solutions)),
		zap.Int("failures", len(resp.Failures)),
		zap.Int("dropped", dropped),
	)
	return resp, nil
}

func (h *SolveEquationsHandler) solveOne(ctx context.Context, index int, raw string, strict bool) solver.Result {
	ctx, span := h.tracer.Start(ctx, "SolveInput", trace.WithAttributes(attribute.Int("input.index", index)))
	defer span.End()
	start := time.Now()

	// Unclassifiable results depend on the live policy, so only solvable
	// inputs are memoized.
	key := notation.Normalize(raw)
	cacheable := h.cache != nil && solver.Classify(key) != solver.ClassUnclassifiable

	var res solver.Result
	hit := false
	if cacheable {
		if v, ok := h.cache.Get(ctx, key); ok {
			res, hit = v.(solver.Result)
		}
		if h.metrics != nil {
			h.metrics.RecordCache(hit)
		}
	}
	if !hit {
		res = h.solver.Dispatch(raw, strict)
		if cacheable {
			h.cache.Set(ctx, key, res, 0)
		}
	}

	span.SetAttributes(
		attribute.String("input.source", res.Source),
		attribute.String("input.class", res.Class.String()),
		attribute.String("input.outcome", string(res.Outcome)),
		attribute.Int("input.arity", res.Arity),
		attribute.Bool("cache.hit", hit),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		h.logger.Debug("Input failed",
			zap.Int("index", index),
			zap.String("source", res.Source),
			zap.String("code", res.Err.Code),
			zap.Error(res.Err),
		)
	}

	if h.metrics != nil {
		h.metrics.RecordInput(res.Class.String(), string(res.Outcome), strconv.Itoa(res.Arity), time.Since(start))
	}
	return res
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError("solve equations").WithCause(err)
	}
	return pkgerrors.NewCanceledError("solve equations").WithCause(err)
}
