// Package solver classifies normalized inputs, routes them to the algebra
// engine by variable arity and formats the outcome.
package solver

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jast-r/equation-solver/domain/algebra"
	"github.com/jast-r/equation-solver/domain/notation"
	pkgerrors "github.com/jast-r/equation-solver/pkg/errors"
)

// Engine is the algebra capability set the dispatcher consumes.
type Engine interface {
	Parse(input string) (algebra.Expr, error)
	Eq(lhs, rhs algebra.Expr) (algebra.Relational, error)
	Solve(eq *algebra.Equation, variable string) (algebra.SolutionSet, error)
}

// Outcome is what became of one input.
type Outcome string

const (
	OutcomeSolved  Outcome = "solved"
	OutcomeDropped Outcome = "dropped"
	OutcomeFailed  Outcome = "failed"
)

// Entry is the formatted solution of one input.
type Entry struct {
	Source string `json:"source"`
	Solve  string `json:"solve"`
	LaTeX  string `json:"latex"`
}

// Result is the outcome of dispatching one input. Entry is set when solved,
// Err when failed.
type Result struct {
	Source  string
	Class   Class
	Arity   int
	Outcome Outcome
	Entry   *Entry
	Err     *pkgerrors.DomainError
}

var stripBrackets = strings.NewReplacer("[", "", "]", "")

// Dispatcher turns raw inputs into results. It is safe for concurrent use;
// the policy can be swapped while requests are in flight.
type Dispatcher struct {
	engine Engine
	policy atomic.Pointer[Policy]
	logger *zap.Logger
}

func NewDispatcher(engine Engine, policy Policy, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{engine: engine, logger: logger}
	d.SetPolicy(policy)
	return d
}

// SetPolicy replaces the unclassifiable-input policy.
func (d *Dispatcher) SetPolicy(p Policy) {
	d.policy.Store(&p)
}

func (d *Dispatcher) Policy() Policy {
	return *d.policy.Load()
}

// Dispatch normalizes, classifies and solves one raw input. strict forces
// the reject policy for this call.
func (d *Dispatcher) Dispatch(raw string, strict bool) Result {
	src := notation.Normalize(raw)
	class := Classify(src)

	switch class {
	case ClassUnclassifiable:
		if strict || d.Policy() == PolicyReject {
			return Result{Source: src, Class: class, Outcome: OutcomeFailed, Err: pkgerrors.NewUnclassifiableInput(src)}
		}
		d.logger.Debug("Dropping unclassifiable input", zap.String("source", src))
		return Result{Source: src, Class: class, Outcome: OutcomeDropped}
	case ClassExpression:
		src += Separator + "0"
	}

	return d.SolveEquation(src, class)
}

// SolveEquation solves an already normalized equation string.
func (d *Dispatcher) SolveEquation(src string, class Class) (res Result) {
	res = Result{Source: src, Class: class}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Recovered solver panic",
				zap.String("source", src),
				zap.Any("panic", r),
			)
			res.Outcome, res.Entry, res.Err = OutcomeFailed, nil, pkgerrors.NewSolvePanic(src, r)
		}
	}()

	value, arity, derr := d.solve(src)
	res.Arity = arity
	if derr != nil {
		res.Outcome, res.Err = OutcomeFailed, derr
		return res
	}

	res.Outcome = OutcomeSolved
	res.Entry = &Entry{
		Source: src,
		Solve:  stripBrackets.Replace(value.String()),
		LaTeX:  stripBrackets.Replace(value.LaTeX()),
	}
	return res
}

func (d *Dispatcher) solve(src string) (algebra.Result, int, *pkgerrors.DomainError) {
	parts := strings.Split(src, Separator)
	if len(parts) != 2 {
		return nil, 0, pkgerrors.NewMalformedEquation(len(parts))
	}

	lhs, err := d.engine.Parse(parts[0])
	if err != nil {
		return nil, 0, pkgerrors.NewUnparsableExpression("left", parts[0], err)
	}
	rhs, err := d.engine.Parse(parts[1])
	if err != nil {
		return nil, 0, pkgerrors.NewUnparsableExpression("right", parts[1], err)
	}

	rel, err := d.engine.Eq(lhs, rhs)
	if err != nil {
		return nil, 0, pkgerrors.NewUnsupportedEquation(src, err)
	}

	vars := SolveVariables(rel)
	var target string
	switch len(vars) {
	case 0:
		return rel, 0, nil
	case 1:
		target = vars[0]
	default:
		target = "y"
	}

	eq, ok := rel.(*algebra.Equation)
	if !ok {
		return nil, len(vars), pkgerrors.NewSolvePanic(src, fmt.Sprintf("decided relation %s has free variables", rel))
	}
	sols, err := d.engine.Solve(eq, target)
	if err != nil {
		if !errors.Is(err, algebra.ErrUnsupported) && !errors.Is(err, algebra.ErrTooLarge) {
			d.logger.Warn("Solver error",
				zap.String("source", src),
				zap.String("variable", target),
				zap.Error(err),
			)
		}
		return nil, len(vars), pkgerrors.NewUnsupportedEquation(src, err).WithDetail("variable", target)
	}
	return sols, len(vars), nil
}
