package algebra

import (
	"fmt"
	"math"
	"math/big"

	gs "github.com/njchilds90/gosymbol"
)

const (
	// maxLibraryExpansion is the largest power gosymbol.Expand distributes.
	maxLibraryExpansion = 10
	// maxExpansionTerms bounds the estimated number of products an expansion
	// may generate before like terms are collected.
	maxExpansionTerms = 1 << 12
)

// expansionCost estimates how many terms expanding e produces. Powers of sums
// count the collected multinomial terms when the intermediate sums stay below
// gosymbol's flattening limit, since beyond it gosymbol stops collecting and
// every product is kept.
func expansionCost(e Expr) float64 {
	switch t := e.(type) {
	case *gs.Add:
		var sum float64
		for _, x := range t.Terms() {
			sum += expansionCost(x)
		}
		return sum
	case *gs.Mul:
		prod := 1.0
		for _, x := range t.Factors() {
			prod *= expansionCost(x)
		}
		return prod
	case *gs.Pow:
		if wideExponent(t) {
			return math.Inf(1)
		}
		k, ok := integerExponent(t)
		n := expansionCost(t.Base())
		if !ok || k < 2 || n < 2 {
			return 1
		}
		if k > maxDegree {
			return math.Inf(1)
		}
		if raw := math.Pow(n, float64(k)); raw <= maxExpansionTerms {
			return raw
		}
		collected := multinomialTerms(n, k)
		if collected*n > float64(gs.MaxFlattenedOperandCount) {
			return math.Inf(1)
		}
		return collected
	}
	return 1
}

// multinomialTerms is C(n+k-1, k), the number of monomials of degree k in n
// variables.
func multinomialTerms(n float64, k int64) float64 {
	out := 1.0
	for i := int64(1); i <= k; i++ {
		out = out * (n + float64(i) - 1) / float64(i)
	}
	return out
}

func checkExpansion(e Expr) error {
	if c := expansionCost(e); c > maxExpansionTerms {
		return fmt.Errorf("%w: expanding %s would produce too many terms", ErrTooLarge, Format(e))
	}
	return nil
}

// expandIn expands e fully, distributing integer powers of sums that contain
// v beyond what gosymbol.Expand handles on its own.
func expandIn(e Expr, v string) (Expr, error) {
	if err := checkExpansion(e); err != nil {
		return nil, err
	}
	var walk func(Expr) (Expr, error)
	walk = func(e Expr) (Expr, error) {
		switch t := e.(type) {
		case *gs.Add:
			out := make([]Expr, 0, len(t.Terms()))
			for _, x := range t.Terms() {
				w, err := walk(x)
				if err != nil {
					return nil, err
				}
				out = append(out, w)
			}
			return gs.AddOf(out...), nil
		case *gs.Mul:
			out := make([]Expr, 0, len(t.Factors()))
			for _, x := range t.Factors() {
				w, err := walk(x)
				if err != nil {
					return nil, err
				}
				out = append(out, w)
			}
			return gs.MulOf(out...), nil
		case *gs.Pow:
			if !hasSymbol(t.Base(), v) {
				return e, nil
			}
			k, ok := integerExponent(t)
			if !ok {
				return e, nil
			}
			if abs64(k) > maxDegree {
				return nil, fmt.Errorf("%w: power %d of %s exceeds degree %d", ErrTooLarge, k, Format(t.Base()), maxDegree)
			}
			base, err := walk(t.Base())
			if err != nil {
				return nil, err
			}
			if _, isSum := base.(*gs.Add); !isSum || k <= maxLibraryExpansion {
				return gs.PowOf(base, gs.N(k)), nil
			}
			return expandPower(base, k, v)
		}
		return e, nil
	}
	w, err := walk(e)
	if err != nil {
		return nil, err
	}
	return gs.Expand(w), nil
}

// monomial is coeff*v**exp.
type monomial struct {
	exp, coeff *big.Rat
}

// expandPower raises base, a sum of rational multiples of rational powers of
// v, to the k-th power with exact coefficient arithmetic. Any other factor in
// base would leave coefficients that are not rational at degree k in v, which
// no solver here accepts, so such bases are refused before any work is done.
func expandPower(base Expr, k int64, v string) (Expr, error) {
	ms, ok := monomials(gs.Expand(base), v)
	if !ok {
		return nil, fmt.Errorf("%w: degree %d in %s with non-rational coefficients", ErrUnsupported, k, v)
	}
	acc := []monomial{{exp: new(big.Rat), coeff: big.NewRat(1, 1)}}
	for i := int64(0); i < k; i++ {
		acc = mulMonomials(acc, ms)
		if len(acc) > maxExpansionTerms {
			return nil, fmt.Errorf("%w: power %d of %s", ErrTooLarge, k, Format(base))
		}
		for _, m := range acc {
			if m.coeff.Num().BitLen()+m.coeff.Denom().BitLen() > maxResultBits {
				return nil, fmt.Errorf("%w: coefficients of power %d of %s", ErrTooLarge, k, Format(base))
			}
		}
	}

	out := make([]Expr, len(acc))
	for i, m := range acc {
		out[i] = gs.MulOf(ratExpr(m.coeff), gs.PowOf(gs.S(v), ratExpr(m.exp)))
	}
	return gs.AddOf(out...), nil
}

func monomials(e Expr, v string) ([]monomial, bool) {
	var out []monomial
	for _, t := range terms(e) {
		m := monomial{exp: new(big.Rat), coeff: big.NewRat(1, 1)}
		for _, f := range factors(t) {
			switch fv := f.(type) {
			case *gs.Num:
				m.coeff.Mul(m.coeff, fv.Rat())
			case *gs.Sym:
				if fv.Name() != v {
					return nil, false
				}
				m.exp.Add(m.exp, big.NewRat(1, 1))
			case *gs.Pow:
				s, isSym := fv.Base().(*gs.Sym)
				k, isNum := fv.ExpExpr().(*gs.Num)
				if !isSym || s.Name() != v || !isNum {
					return nil, false
				}
				m.exp.Add(m.exp, k.Rat())
			default:
				return nil, false
			}
		}
		out = append(out, m)
	}
	return out, true
}

// mulMonomials multiplies two sums of monomials, collecting equal powers and
// dropping terms that cancel.
func mulMonomials(a, b []monomial) []monomial {
	idx := make(map[string]int, len(a)+len(b))
	var out []monomial
	for _, x := range a {
		for _, y := range b {
			e := new(big.Rat).Add(x.exp, y.exp)
			c := new(big.Rat).Mul(x.coeff, y.coeff)
			key := e.RatString()
			if i, ok := idx[key]; ok {
				out[i].coeff.Add(out[i].coeff, c)
				continue
			}
			idx[key] = len(out)
			out = append(out, monomial{exp: e, coeff: c})
		}
	}
	kept := out[:0]
	for _, m := range out {
		if m.coeff.Sign() != 0 {
			kept = append(kept, m)
		}
	}
	return kept
}

// wideExponent reports an integer exponent outside int64. gosymbol reads
// exponents with Int64, so such powers must not reach its expander.
func wideExponent(p *gs.Pow) bool {
	n, ok := p.ExpExpr().(*gs.Num)
	return ok && n.IsInteger() && !n.Rat().Num().IsInt64()
}

func integerExponent(p *gs.Pow) (int64, bool) {
	n, ok := p.ExpExpr().(*gs.Num)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	r := n.Rat()
	if !r.Num().IsInt64() {
		if r.Sign() < 0 {
			return math.MinInt64 + 1, true
		}
		return math.MaxInt64, true
	}
	return r.Num().Int64(), true
}
