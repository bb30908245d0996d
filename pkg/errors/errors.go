package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies request-level failures
type ErrorType string

const (
	// Caller errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeTooLarge   ErrorType = "PAYLOAD_TOO_LARGE"

	// Server errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeCanceled    ErrorType = "CANCELED"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// StatusClientClosedRequest is the non-standard status for requests the
// client abandoned before a response was written.
const StatusClientClosedRequest = 499

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeTimeout:     http.StatusRequestTimeout,
	ErrorTypeCanceled:    StatusClientClosedRequest,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
}

// StatusFor returns the HTTP status an error type is reported with
func StatusFor(t ErrorType) int {
	if status, ok := statusByType[t]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// TypeForStatus maps an HTTP status back onto an error type
func TypeForStatus(status int) ErrorType {
	switch status {
	case http.StatusMethodNotAllowed:
		return ErrorTypeNotFound
	}
	for t, s := range statusByType {
		if s == status {
			return t
		}
	}
	return ErrorTypeInternal
}

// AppError is a request-level error rendered through the ErrorHandler.
// Per-input solve failures use DomainError instead and never reach it.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func newAppError(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: StatusFor(t),
		StackTrace: captureStackTrace(),
	}
}

func (e *AppError) Error() string {
	msg := string(e.Type) + ": " + e.Message
	if e.Cause != nil {
		msg += " (caused by: " + e.Cause.Error() + ")"
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCode sets the machine-readable error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace skips itself, newAppError and the exported constructor.
func captureStackTrace() string {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message)
}

// NewTooLargeError reports a request body over the configured limit
func NewTooLargeError(what string, limit int) *AppError {
	return newAppError(ErrorTypeTooLarge, fmt.Sprintf("%s exceeds the limit of %d bytes", what, limit))
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message)
}

// NewTimeoutError reports an operation that ran past its deadline
func NewTimeoutError(operation string) *AppError {
	return newAppError(ErrorTypeTimeout, fmt.Sprintf("operation '%s' timed out", operation))
}

// NewCanceledError reports a request abandoned by its client
func NewCanceledError(operation string) *AppError {
	return newAppError(ErrorTypeCanceled, fmt.Sprintf("operation '%s' was canceled", operation))
}

// GetAppError extracts the first AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error chain holds an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }
func IsInternal(err error) bool   { return IsType(err, ErrorTypeInternal) }

// Wrap prefixes an AppError's message, or turns any other error into an
// internal error caused by it.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = message + ": " + appErr.Message
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}
