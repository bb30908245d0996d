package errors

import "fmt"

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates the input could not be read as an equation
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainUnsupportedError indicates valid input the engine cannot solve
	DomainUnsupportedError DomainErrorType = "UNSUPPORTED_ERROR"

	// DomainInternalError indicates a fault inside the solver
	DomainInternalError DomainErrorType = "INTERNAL_ERROR"
)

// Per-input error codes
const (
	CodeMalformedEquation    = "MALFORMED_EQUATION"
	CodeUnparsableExpression = "UNPARSABLE_EXPRESSION"
	CodeUnclassifiableInput  = "UNCLASSIFIABLE_INPUT"
	CodeUnsupportedEquation  = "UNSUPPORTED_EQUATION"
	CodeSolvePanic           = "SOLVE_PANIC"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type    DomainErrorType        `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Is matches domain errors by type and code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Sentinels for errors.Is. Use the constructors below to build errors that
// carry per-input details.
var (
	ErrMalformedEquation = &DomainError{
		Type:    DomainValidationError,
		Code:    CodeMalformedEquation,
		Message: "Equation must contain exactly one '=' separator",
	}

	ErrUnparsableExpression = &DomainError{
		Type:    DomainValidationError,
		Code:    CodeUnparsableExpression,
		Message: "Expression could not be parsed",
	}

	ErrUnclassifiableInput = &DomainError{
		Type:    DomainValidationError,
		Code:    CodeUnclassifiableInput,
		Message: "Input contains neither '=' nor a variable x or y",
	}

	ErrUnsupportedEquation = &DomainError{
		Type:    DomainUnsupportedError,
		Code:    CodeUnsupportedEquation,
		Message: "No solving method applies to this equation",
	}

	ErrSolvePanic = &DomainError{
		Type:    DomainInternalError,
		Code:    CodeSolvePanic,
		Message: "Solver failed unexpectedly",
	}
)

// NewMalformedEquation reports an equation that split into parts != 2
func NewMalformedEquation(parts int) *DomainError {
	return NewDomainError(DomainValidationError, CodeMalformedEquation,
		fmt.Sprintf("expected exactly one '=' separator, found %d", parts-1)).
		WithDetail("parts", parts)
}

// NewUnparsableExpression reports a side of an equation that failed to parse
func NewUnparsableExpression(side, expr string, cause error) *DomainError {
	return NewDomainError(DomainValidationError, CodeUnparsableExpression,
		fmt.Sprintf("%s side %q could not be parsed", side, expr)).
		WithDetail("side", side).
		WithCause(cause)
}

// NewUnclassifiableInput reports input rejected under the strict policy
func NewUnclassifiableInput(source string) *DomainError {
	return NewDomainError(DomainValidationError, CodeUnclassifiableInput,
		fmt.Sprintf("%q contains neither '=' nor a variable x or y", source)).
		WithDetail("source", source)
}

// NewUnsupportedEquation reports an equation the engine has no method for
func NewUnsupportedEquation(source string, cause error) *DomainError {
	return NewDomainError(DomainUnsupportedError, CodeUnsupportedEquation,
		"no solving method applies to this equation").
		WithDetail("source", source).
		WithCause(cause)
}

// NewSolvePanic reports a recovered fault while solving one input
func NewSolvePanic(source string, recovered interface{}) *DomainError {
	return NewDomainError(DomainInternalError, CodeSolvePanic,
		fmt.Sprintf("solver failed: %v", recovered)).
		WithDetail("source", source)
}
