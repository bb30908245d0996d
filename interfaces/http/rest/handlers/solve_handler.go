package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jast-r/equation-solver/application/queries"
	"github.com/jast-r/equation-solver/application/queries/bus"
	"github.com/jast-r/equation-solver/pkg/common"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
	"github.com/jast-r/equation-solver/pkg/utils"
)

// Limits bounds a single solve request
type Limits struct {
	MaxEquations      int
	MaxEquationLength int
	MaxBodyBytes      int64
	Timeout           time.Duration
}

// SolveRequest is the body of POST /api/solve
type SolveRequest struct {
	Equations []string `json:"equations" validate:"required,min=1"`
	Strict    bool     `json:"strict"`
}

// QueryAsker dispatches queries
type QueryAsker interface {
	Ask(ctx context.Context, query bus.Query) (interface{}, error)
}

// SolveHandler handles solve HTTP requests
type SolveHandler struct {
	queries      QueryAsker
	errorHandler *pkgerrors.ErrorHandler
	limits       Limits
	logger       *zap.Logger
}

// NewSolveHandler creates a new solve handler
func NewSolveHandler(queryBus QueryAsker, errorHandler *pkgerrors.ErrorHandler, limits Limits, logger *zap.Logger) *SolveHandler {
	return &SolveHandler{
		queries:      queryBus,
		errorHandler: errorHandler,
		limits:       limits,
		logger:       logger,
	}
}

// Solve handles POST /api/solve
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := common.ParseJSONBody(w, r, &req, h.limits.MaxBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.Handle(w, r, pkgerrors.NewTooLargeError("request body", int(h.limits.MaxBodyBytes)))
			return
		}
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("request body must be a JSON object with an equations array").
			WithCode("INVALID_JSON").
			WithCause(err))
		return
	}

	if err := h.validate(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_REQUEST"))
		return
	}

	ctx := r.Context()
	if h.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.limits.Timeout)
		defer cancel()
	}

	result, err := h.queries.Ask(ctx, queries.SolveEquationsQuery{
		Equations: req.Equations,
		Strict:    req.Strict,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := common.RespondJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write solve response",
			zap.String("request_id", common.ExtractRequestID(r)),
			zap.Error(err),
		)
	}
}

func (h *SolveHandler) validate(req SolveRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	var tags string
	if h.limits.MaxEquations > 0 {
		tags = fmt.Sprintf("max=%d", h.limits.MaxEquations)
	}
	if h.limits.MaxEquationLength > 0 {
		if tags != "" {
			tags += ","
		}
		tags += fmt.Sprintf("dive,max=%d", h.limits.MaxEquationLength)
	}
	if tags == "" {
		return nil
	}
	return utils.ValidateVar("equations", req.Equations, tags)
}
