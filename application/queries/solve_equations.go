package queries

import (
	"github.com/jast-r/equation-solver/domain/solver"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
)

// SolveEquationsQuery represents a batch of raw inputs to solve in order
type SolveEquationsQuery struct {
	Equations []string `json:"equations"`
	Strict    bool     `json:"strict,omitempty"` // Reject unclassifiable inputs for this request
}

// Validate validates the query
func (q SolveEquationsQuery) Validate() error {
	if len(q.Equations) == 0 {
		return pkgerrors.NewValidationError("equations must contain at least one item").
			WithCode("INVALID_REQUEST")
	}
	return nil
}

// EquationResponse is the result of a solve batch. Solutions and failures
// each follow request order.
type EquationResponse struct {
	Solutions []solver.Entry `json:"solutions"`
	Failures  []SolveFailure `json:"failures"`
}

// SolveFailure reports one input that could not be solved
type SolveFailure struct {
	Index  int          `json:"index"`
	Source string       `json:"source"`
	Error  FailureError `json:"error"`
}

// FailureError is the wire form of a per-input domain error
type FailureError struct {
	Type    string                 `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewSolveFailure builds the failure entry for input index
func NewSolveFailure(index int, source string, err *pkgerrors.DomainError) SolveFailure {
	msg := err.Message
	if err.Cause != nil {
		msg += ": " + err.Cause.Error()
	}
	return SolveFailure{
		Index:  index,
		Source: source,
		Error: FailureError{
			Type:    string(err.Type),
			Code:    err.Code,
			Message: msg,
			Details: err.Details,
		},
	}
}

// NewEquationResponse returns an empty response with non-nil slices so both
// fields encode as JSON arrays.
func NewEquationResponse(capacity int) *EquationResponse {
	return &EquationResponse{
		Solutions: make([]solver.Entry, 0, capacity),
		Failures:  []SolveFailure{},
	}
}
