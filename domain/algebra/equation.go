package algebra

import (
	"math"
	"strings"

	gs "github.com/njchilds90/gosymbol"
)

// Result is any value the engine hands back for printing.
type Result interface {
	String() string
	LaTeX() string
}

// Relational is the value of Eq: either a decided Boolean or an Equation.
type Relational interface {
	Result
	FreeSymbols() map[string]struct{}
}

// Equation is an undecided equality lhs = rhs.
type Equation struct {
	LHS, RHS Expr
}

// zeroTolerance is how close a closed numeric residual must evaluate to zero
// for Eq to decide True.
const zeroTolerance = 1e-12

// Eq builds the equality lhs = rhs, deciding it when the expanded difference
// of the sides is a number or evaluates numerically.
func Eq(lhs, rhs Expr) (rel Relational, err error) {
	defer recoverKernel(&err)
	diff := gs.Eq(lhs, rhs).Residual()
	if checkExpansion(diff) == nil {
		diff = gs.Expand(diff)
	}
	if n, ok := diff.(*gs.Num); ok {
		return Boolean(n.IsZero()), nil
	}
	if len(gs.FreeSymbols(diff)) == 0 {
		if n, ok := diff.Eval(); ok {
			return Boolean(math.Abs(n.Float64()) <= zeroTolerance), nil
		}
	}
	return &Equation{LHS: lhs, RHS: rhs}, nil
}

func (e *Equation) String() string { return "Eq(" + Format(e.LHS) + ", " + Format(e.RHS) + ")" }
func (e *Equation) LaTeX() string  { return FormatLaTeX(e.LHS) + " = " + FormatLaTeX(e.RHS) }

func (e *Equation) FreeSymbols() map[string]struct{} {
	out := gs.FreeSymbols(e.LHS)
	for s := range gs.FreeSymbols(e.RHS) {
		out[s] = struct{}{}
	}
	return out
}

// Residual returns lhs - rhs.
func (e *Equation) Residual() Expr { return gs.Eq(e.LHS, e.RHS).Residual() }

// Boolean is a decided equality.
type Boolean bool

func (b Boolean) String() string {
	if b {
		return "True"
	}
	return "False"
}

func (b Boolean) LaTeX() string { return `\text{` + b.String() + "}" }

func (b Boolean) FreeSymbols() map[string]struct{} { return map[string]struct{}{} }

// SolutionSet is the ordered list of solutions for one variable.
type SolutionSet []Expr

func (s SolutionSet) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = Format(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s SolutionSet) LaTeX() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = FormatLaTeX(e)
	}
	return "[" + strings.Join(parts, `, \ `) + "]"
}
