package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jast-r/equation-solver/domain/algebra"
	"github.com/jast-r/equation-solver/domain/notation"
)

// Class is the solve strategy chosen for a normalized input.
type Class int

const (
	// ClassEquation contains an equality separator and is used as-is.
	ClassEquation Class = iota
	// ClassExpression has a variable but no separator and is read as expr=0.
	ClassExpression
	// ClassUnclassifiable has neither and is dropped or rejected.
	ClassUnclassifiable
)

func (c Class) String() string {
	switch c {
	case ClassEquation:
		return "equation"
	case ClassExpression:
		return "expression"
	}
	return "unclassifiable"
}

// Separator splits an equation into its two sides.
const Separator = "="

// Classify picks the strategy for a normalized input, in priority order.
func Classify(normalized string) Class {
	switch {
	case strings.Contains(normalized, Separator):
		return ClassEquation
	case strings.ContainsAny(normalized, notation.Variables):
		return ClassExpression
	}
	return ClassUnclassifiable
}

// Policy controls what happens to unclassifiable input.
type Policy string

const (
	PolicyDrop   Policy = "drop"
	PolicyReject Policy = "reject"
)

// ParsePolicy accepts "drop" or "reject", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyDrop, PolicyReject:
		return p, nil
	case "":
		return PolicyDrop, nil
	}
	return "", fmt.Errorf("unknown unclassified policy %q (want drop or reject)", s)
}

// SolveVariables returns the recognized variables free in rel, sorted.
func SolveVariables(rel algebra.Relational) []string {
	free := rel.FreeSymbols()
	var vars []string
	for _, v := range notation.Variables {
		if _, ok := free[string(v)]; ok {
			vars = append(vars, string(v))
		}
	}
	sort.Strings(vars)
	return vars
}
