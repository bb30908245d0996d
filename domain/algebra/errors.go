package algebra

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionByZero is raised when an expression divides by an exact zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUnsupported means no solving algorithm applies to the equation.
	ErrUnsupported = errors.New("unsupported equation")
	// ErrTooLarge is raised when a degree or exponent exceeds engine limits.
	ErrTooLarge = errors.New("expression too large")
	// ErrUndefined is raised when the kernel faults on a value it cannot represent.
	ErrUndefined = errors.New("undefined value")
)

// ParseError reports why an expression failed to parse.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// recoverKernel turns a gosymbol panic (it panics on zero denominators and
// reciprocals of zero) into *err.
func recoverKernel(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrUndefined, r)
	}
}
