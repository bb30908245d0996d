package algebra

import (
	"fmt"
	"math/big"
	"sync"

	gs "github.com/njchilds90/gosymbol"
)

// Kernel limits.
const (
	maxExactExponent  = 1024
	maxResultBits     = 1 << 16
	maxTrialDivisor   = 1_000_000
	maxCachedRadicals = 4096
)

var half = gs.F(1, 2)

var funcs = map[string]func(Expr) Expr{
	"sin": gs.SinOf, "cos": gs.CosOf, "tan": gs.TanOf,
	"asin": gs.AsinOf, "acos": gs.AcosOf, "atan": gs.AtanOf,
	"sinh": gs.SinhOf, "cosh": gs.CoshOf, "tanh": gs.TanhOf,
	"asinh": gs.AsinhOf, "acosh": gs.AcoshOf, "atanh": gs.AtanhOf,
	"exp": gs.ExpOf, "ln": gs.LnOf, "abs": gs.AbsOf,
	"floor": gs.FloorOf, "ceil": gs.CeilOf, "sign": gs.SignOf,
}

// canonical finishes what gosymbol's simplifier leaves open: numeric powers
// are folded exactly, square factors leave square roots, and division by an
// exact zero is reported.
func canonical(e Expr) (Expr, error) {
	switch v := e.(type) {
	case *gs.Add:
		ts, err := canonicalAll(v.Terms())
		if err != nil {
			return nil, err
		}
		return gs.AddOf(ts...), nil
	case *gs.Mul:
		fs, err := canonicalAll(v.Factors())
		if err != nil {
			return nil, err
		}
		return gs.MulOf(fs...), nil
	case *gs.Pow:
		base, err := canonical(v.Base())
		if err != nil {
			return nil, err
		}
		exp, err := canonical(v.ExpExpr())
		if err != nil {
			return nil, err
		}
		return power(base, exp)
	case *gs.Func:
		arg, err := canonical(v.Arg())
		if err != nil {
			return nil, err
		}
		if f, ok := funcs[v.FuncName()]; ok {
			return f(arg), nil
		}
	}
	return e, nil
}

func canonicalAll(in []Expr) ([]Expr, error) {
	out := make([]Expr, len(in))
	for i, e := range in {
		c, err := canonical(e)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func power(base, exp Expr) (Expr, error) {
	b, bok := base.(*gs.Num)
	x, xok := exp.(*gs.Num)
	if bok && b.IsZero() && xok && x.IsNegative() {
		return nil, ErrDivisionByZero
	}
	if bok && xok {
		if x.IsInteger() && !x.Rat().Num().IsInt64() {
			return wideNumPower(b, x)
		}
		return numPower(b.Rat(), x.Rat()), nil
	}
	if s, ok := base.(*gs.Sym); ok && s.Name() == imaginaryUnit.Name() && xok && x.IsInteger() {
		return unitPower(x.Rat().Num()), nil
	}
	if xok && x.Equal(half) && checkExpansion(base) == nil {
		expanded := gs.Expand(base)
		if m, ok := expanded.(*gs.Mul); ok && isNegative(m) {
			root, err := power(negate(m), exp)
			if err != nil {
				return nil, err
			}
			return gs.MulOf(imaginaryUnit, root), nil
		}
		if c, rest, ok := squareContent(expanded); ok {
			return gs.MulOf(sqrtRat(c), gs.PowOf(rest, half)), nil
		}
	}
	return gs.PowOf(base, exp), nil
}

// wideNumPower handles integer exponents beyond int64, which only the bases
// 0, 1 and -1 survive. gosymbol would fold the others with a wrapped exponent.
func wideNumPower(b, x *gs.Num) (Expr, error) {
	switch {
	case b.IsZero():
		return gs.N(0), nil
	case b.IsOne():
		return gs.N(1), nil
	case b.IsNegOne():
		if x.Rat().Num().Bit(0) == 0 {
			return gs.N(1), nil
		}
		return gs.N(-1), nil
	}
	return nil, fmt.Errorf("%w: power %s of %s", ErrTooLarge, Format(x), Format(b))
}

// numPower evaluates b**x exactly for integer x and for halves of any base,
// or leaves the power unevaluated.
func numPower(b, x *big.Rat) Expr {
	unevaluated := gs.PowOf(ratExpr(b), ratExpr(x))
	num, den := x.Num(), x.Denom()
	if !num.IsInt64() || abs64(num.Int64()) > maxExactExponent {
		return unevaluated
	}
	k := num.Int64()
	switch {
	case den.Cmp(big.NewInt(1)) == 0:
		if tooWide(b, k) {
			return unevaluated
		}
		return ratExpr(ratPow(b, k))
	case den.Cmp(big.NewInt(2)) == 0 && b.Sign() != 0:
		if tooWide(b, k) {
			return unevaluated
		}
		root := sqrtRat(ratPow(new(big.Rat).Abs(b), k))
		if b.Sign() < 0 {
			return gs.MulOf(root, unitPower(big.NewInt(k)))
		}
		return root
	}
	return unevaluated
}

// unitPower is I**k.
func unitPower(k *big.Int) Expr {
	switch new(big.Int).Mod(k, big.NewInt(4)).Int64() {
	case 0:
		return gs.N(1)
	case 1:
		return imaginaryUnit
	case 2:
		return gs.N(-1)
	}
	return gs.MulOf(gs.N(-1), imaginaryUnit)
}

// squareContent splits a sum or product into c*rest where c is a positive
// rational with a square factor.
func squareContent(e Expr) (*big.Rat, Expr, bool) {
	c := content(e)
	if c == nil || c.Cmp(big.NewRat(1, 1)) == 0 {
		return nil, nil, false
	}
	out, _ := extractPower(new(big.Int).Mul(c.Num(), c.Denom()), 2)
	if out.Cmp(big.NewInt(1)) == 0 && c.IsInt() {
		return nil, nil, false
	}
	rest := gs.Expand(gs.MulOf(e, ratExpr(new(big.Rat).Inv(c))))
	return c, rest, true
}

// content is the positive rational gcd of the coefficients of e's terms, or
// nil when e is not a sum or product with rational coefficients.
func content(e Expr) *big.Rat {
	switch e.(type) {
	case *gs.Add, *gs.Mul:
	default:
		return nil
	}
	num, den := new(big.Int), big.NewInt(1)
	for _, t := range terms(e) {
		c := coefficient(t)
		num.GCD(nil, nil, num, new(big.Int).Abs(c.Num()))
		g := new(big.Int).GCD(nil, nil, den, c.Denom())
		den.Mul(den, new(big.Int).Quo(c.Denom(), g))
	}
	if num.Sign() == 0 {
		return nil
	}
	return new(big.Rat).SetFrac(num, den)
}

func coefficient(t Expr) *big.Rat {
	if n, ok := t.(*gs.Num); ok {
		return n.Rat()
	}
	if n, ok := factors(t)[0].(*gs.Num); ok {
		return n.Rat()
	}
	return big.NewRat(1, 1)
}

// sqrtRat returns sqrt(r) for r > 0 with square factors pulled out and the
// denominator rationalized.
func sqrtRat(r *big.Rat) Expr {
	d := r.Denom()
	out, in := extractPower(new(big.Int).Mul(r.Num(), d), 2)
	coeff := new(big.Rat).SetFrac(out, d)
	if in.Cmp(big.NewInt(1)) == 0 {
		return ratExpr(coeff)
	}
	return gs.MulOf(ratExpr(coeff), gs.PowOf(intExpr(in), half))
}

// cbrtRat returns the real cube root of r > 0 with cube factors pulled out and
// the denominator rationalized.
func cbrtRat(r *big.Rat) Expr {
	d := r.Denom()
	out, in := extractPower(new(big.Int).Mul(r.Num(), new(big.Int).Mul(d, d)), 3)
	coeff := new(big.Rat).SetFrac(out, d)
	if in.Cmp(big.NewInt(1)) == 0 {
		return ratExpr(coeff)
	}
	return gs.MulOf(ratExpr(coeff), gs.PowOf(intExpr(in), gs.F(1, 3)))
}

// tooWide reports whether b**k would exceed maxResultBits.
func tooWide(b *big.Rat, k int64) bool {
	bits := int64(b.Num().BitLen() + b.Denom().BitLen())
	return bits*abs64(k) > maxResultBits
}

func ratPow(b *big.Rat, k int64) *big.Rat {
	e := big.NewInt(abs64(k))
	num := new(big.Int).Exp(b.Num(), e, nil)
	den := new(big.Int).Exp(b.Denom(), e, nil)
	if k < 0 {
		num, den = den, num
	}
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	return new(big.Rat).SetFrac(num, den)
}

func abs64(k int64) int64 {
	if k < 0 {
		return -k
	}
	return k
}

// intExpr builds an exact gosymbol number from n. gosymbol only constructs
// numbers from int64, so wider values are assembled in base 2**62.
func intExpr(n *big.Int) Expr {
	if n.IsInt64() {
		return gs.N(n.Int64())
	}
	base := new(big.Int).Lsh(big.NewInt(1), 62)
	rest := new(big.Int).Abs(n)
	var words []int64
	for rest.Sign() > 0 {
		r := new(big.Int)
		rest.QuoRem(rest, base, r)
		words = append(words, r.Int64())
	}
	acc := Expr(gs.N(0))
	for i := len(words) - 1; i >= 0; i-- {
		acc = gs.AddOf(gs.MulOf(acc, gs.N(1<<62)), gs.N(words[i]))
	}
	if n.Sign() < 0 {
		acc = gs.MulOf(gs.N(-1), acc)
	}
	return acc
}

func ratExpr(r *big.Rat) Expr {
	if r.IsInt() {
		return intExpr(r.Num())
	}
	return gs.MulOf(intExpr(r.Num()), gs.PowOf(intExpr(r.Denom()), gs.N(-1)))
}

// extractPower writes m = outside**q * inside with inside free of q-th
// powers of any prime below maxTrialDivisor. Results are memoized since
// solving re-canonicalizes the same radicals.
func extractPower(m *big.Int, q int64) (outside, inside *big.Int) {
	if m.BitLen() > 62 {
		return big.NewInt(1), new(big.Int).Set(m)
	}
	key := radicalKey{m: m.Int64(), q: q}
	if out, in, ok := radicals.get(key); ok {
		return out, in
	}
	outside, inside = trialExtract(key.m, q)
	radicals.put(key, outside, inside)
	return new(big.Int).Set(outside), new(big.Int).Set(inside)
}

func trialExtract(rest, q int64) (outside, inside *big.Int) {
	outside, inside = big.NewInt(1), big.NewInt(1)
	for f := int64(2); f <= maxTrialDivisor && f*f <= rest; f++ {
		var mult int64
		for rest%f == 0 {
			rest /= f
			mult++
		}
		if mult == 0 {
			continue
		}
		fb := big.NewInt(f)
		outside.Mul(outside, new(big.Int).Exp(fb, big.NewInt(mult/q), nil))
		inside.Mul(inside, new(big.Int).Exp(fb, big.NewInt(mult%q), nil))
	}
	inside.Mul(inside, big.NewInt(rest))
	return outside, inside
}

type radicalKey struct{ m, q int64 }

type radicalParts struct{ outside, inside *big.Int }

// radicalCache is a bounded memo; it is emptied when full.
type radicalCache struct {
	mu      sync.Mutex
	entries map[radicalKey]radicalParts
}

var radicals = &radicalCache{entries: make(map[radicalKey]radicalParts)}

func (c *radicalCache) get(k radicalKey) (outside, inside *big.Int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return nil, nil, false
	}
	return new(big.Int).Set(e.outside), new(big.Int).Set(e.inside), true
}

func (c *radicalCache) put(k radicalKey, outside, inside *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCachedRadicals {
		c.entries = make(map[radicalKey]radicalParts)
	}
	c.entries[k] = radicalParts{outside: outside, inside: inside}
}

func (c *radicalCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
