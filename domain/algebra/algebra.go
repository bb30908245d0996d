// Package algebra adapts the gosymbol kernel to what the equation solver
// consumes: parsing of normalized input, equality construction, polynomial
// solving for a named variable and SymPy-style text and LaTeX output.
//
// gosymbol does the symbolic work (tree construction, simplification,
// expansion, coefficient extraction, linear and symbolic quadratic solving).
// This package adds exact radicals, denominator clearing, rational-root
// deflation and the printers.
package algebra

import (
	gs "github.com/njchilds90/gosymbol"
)

// Expr is a simplified gosymbol expression.
type Expr = gs.Expr

// Engine exposes the capabilities the solver consumes as methods so callers
// can depend on an interface.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (*Engine) Parse(input string) (Expr, error) { return Parse(input) }

func (*Engine) Eq(lhs, rhs Expr) (Relational, error) { return Eq(lhs, rhs) }

func (*Engine) Solve(eq *Equation, variable string) (SolutionSet, error) {
	return Solve(eq, variable)
}

// FreeSymbols returns the names of all symbols in e.
func FreeSymbols(e Expr) map[string]struct{} { return gs.FreeSymbols(e) }

func hasSymbol(e Expr, name string) bool {
	_, ok := gs.FreeSymbols(e)[name]
	return ok
}

// terms returns the summands of e.
func terms(e Expr) []Expr {
	if a, ok := e.(*gs.Add); ok {
		return a.Terms()
	}
	return []Expr{e}
}

// factors returns the multiplicands of e.
func factors(e Expr) []Expr {
	if m, ok := e.(*gs.Mul); ok {
		return m.Factors()
	}
	return []Expr{e}
}

func isZero(e Expr) bool {
	n, ok := e.(*gs.Num)
	return ok && n.IsZero()
}
