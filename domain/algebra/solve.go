package algebra

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	gs "github.com/njchilds90/gosymbol"
)

const (
	// maxDegree bounds the polynomial degree Solve accepts in the solve variable.
	maxDegree         = 64
	maxRootCandidates = 1_000_000
)

// imaginaryUnit stands for sqrt(-1) in complex roots.
var imaginaryUnit = gs.S("I")

// Solve returns the solutions of eq for the named variable.
//
// The residual lhs - rhs is expanded, denominators containing the variable are
// cleared, and the result must be a polynomial in the variable. Degree one is
// solved by gosymbol, degree two exactly (with radicals and complex roots)
// for rational coefficients and by gosymbol otherwise. Higher degrees need
// rational coefficients and are deflated by their rational roots. A cubic left
// over is solved exactly when it has one real root and by gosymbol's numeric
// cubic solver when it has three. Roots that zero a cleared denominator are
// discarded.
func Solve(eq *Equation, variable string) (sols SolutionSet, err error) {
	defer recoverKernel(&err)

	residual, err := expandIn(eq.Residual(), variable)
	if err != nil {
		return nil, err
	}
	if !hasSymbol(residual, variable) {
		return SolutionSet{}, nil
	}

	poly, denominators, err := clearDenominators(residual, variable)
	if err != nil {
		return nil, err
	}
	degree, err := polyDegree(poly, variable)
	if err != nil {
		return nil, err
	}

	roots, err := solvePoly(gs.PolyCoeffs(poly, variable), degree, variable)
	if err != nil {
		return nil, err
	}

	out := SolutionSet{}
	seen := map[string]bool{}
	for _, r := range roots {
		r, err := canonical(r)
		if err != nil {
			return nil, err
		}
		r = gs.Expand(r)
		if zeroesAny(denominators, variable, r) {
			continue
		}
		k := Format(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	sortRoots(out)
	return out, nil
}

// clearDenominators multiplies every term of r by the highest negative integer
// power of each base containing v, returning the expanded product and the
// bases.
func clearDenominators(r Expr, v string) (Expr, []Expr, error) {
	powers := map[string]int64{}
	bases := map[string]Expr{}
	var order []string
	for _, t := range terms(r) {
		for _, f := range factors(t) {
			p, ok := f.(*gs.Pow)
			if !ok || !hasSymbol(p.Base(), v) {
				continue
			}
			k, ok := integerExponent(p)
			if !ok || k >= 0 {
				continue
			}
			key := Format(p.Base())
			if _, seen := bases[key]; !seen {
				order = append(order, key)
				bases[key] = p.Base()
			}
			if -k > powers[key] {
				powers[key] = -k
			}
		}
	}
	if len(order) == 0 {
		return r, nil, nil
	}

	multipliers := make([]Expr, 0, len(order))
	dens := make([]Expr, 0, len(order))
	for _, key := range order {
		multipliers = append(multipliers, gs.PowOf(bases[key], gs.N(powers[key])))
		dens = append(dens, bases[key])
	}
	ts := terms(r)
	out := make([]Expr, len(ts))
	for i, t := range ts {
		out[i] = gs.MulOf(append([]Expr{t}, multipliers...)...)
	}
	cleared, err := expandIn(gs.AddOf(out...), v)
	if err != nil {
		return nil, nil, err
	}
	return cleared, dens, nil
}

// polyDegree checks that every term of the expanded poly is a monomial in v
// and returns the highest degree.
func polyDegree(poly Expr, v string) (int, error) {
	high := 0
	for _, t := range terms(poly) {
		deg := 0
		for _, f := range factors(t) {
			if !hasSymbol(f, v) {
				continue
			}
			switch fv := f.(type) {
			case *gs.Sym:
				deg++
			case *gs.Pow:
				s, ok := fv.Base().(*gs.Sym)
				k, isInt := integerExponent(fv)
				if !ok || s.Name() != v || !isInt || k < 0 {
					return 0, fmt.Errorf("%w: %s is not polynomial in %s", ErrUnsupported, Format(t), v)
				}
				deg += int(min(k, maxDegree+1))
			default:
				return 0, fmt.Errorf("%w: %s is not polynomial in %s", ErrUnsupported, Format(t), v)
			}
		}
		if deg > maxDegree {
			return 0, fmt.Errorf("%w: degree %d in %s exceeds %d", ErrTooLarge, deg, v, maxDegree)
		}
		high = max(high, deg)
	}
	return high, nil
}

func solvePoly(coeffs gs.PolyCoeffsResult, degree int, v string) ([]Expr, error) {
	low := -1
	for d, c := range coeffs {
		if !isZero(c) && (low < 0 || d < low) {
			low = d
		}
	}
	if low < 0 {
		return nil, nil
	}

	var roots []Expr
	if low > 0 {
		roots = append(roots, gs.N(0))
	}
	c := make([]Expr, degree-low+1)
	for i := range c {
		if e, ok := coeffs[i+low]; ok {
			c[i] = e
		} else {
			c[i] = gs.N(0)
		}
	}
	for len(c) > 1 && isZero(c[len(c)-1]) {
		c = c[:len(c)-1]
	}

	var rest []Expr
	var err error
	switch len(c) - 1 {
	case 0:
		return roots, nil
	case 1:
		rest, err = linearRoot(c[1], c[0])
	case 2:
		rest, err = quadraticRoots(c[2], c[1], c[0])
	default:
		rest, err = rationalRoots(c, v)
	}
	if err != nil {
		return nil, err
	}
	return append(roots, rest...), nil
}

func fromLibrary(r gs.SolveResult) ([]Expr, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, r.Error)
	}
	return r.Solutions, nil
}

// linearRoot solves a*v + b. gosymbol evaluates closed coefficients to
// floats, so only rational ones are handed to it.
func linearRoot(a, b Expr) ([]Expr, error) {
	_, aNum := a.(*gs.Num)
	_, bNum := b.(*gs.Num)
	if aNum && bNum || len(gs.FreeSymbols(gs.AddOf(a, b))) > 0 {
		return fromLibrary(gs.SolveLinear(a, b))
	}
	return []Expr{gs.MulOf(gs.N(-1), b, gs.PowOf(a, gs.N(-1)))}, nil
}

// quadraticRoots solves a*v**2 + b*v + c. Rational coefficients get exact
// roots with radicals or the imaginary unit, other closed coefficients the
// plain formula, and symbolic ones are handed to gosymbol.
func quadraticRoots(a, b, c Expr) ([]Expr, error) {
	an, aok := a.(*gs.Num)
	bn, bok := b.(*gs.Num)
	cn, cok := c.(*gs.Num)
	if aok && bok && cok {
		return exactQuadratic(an.Rat(), bn.Rat(), cn.Rat()), nil
	}
	if len(gs.FreeSymbols(gs.AddOf(a, b, c))) == 0 {
		return quadraticFormula(a, b, c), nil
	}
	roots, err := fromLibrary(gs.SolveQuadraticExact(a, b, c))
	if err != nil {
		return nil, err
	}
	if len(roots) == 2 {
		roots[0], roots[1] = roots[1], roots[0]
	}
	return roots, nil
}

// quadraticFormula keeps closed irrational coefficients exact where
// gosymbol would evaluate them to floats.
func quadraticFormula(a, b, c Expr) []Expr {
	disc := gs.AddOf(gs.PowOf(b, gs.N(2)), gs.MulOf(gs.N(-4), a, c))
	scale := gs.PowOf(gs.MulOf(gs.N(2), a), gs.N(-1))
	root := gs.SqrtOf(disc)
	return []Expr{
		gs.MulOf(gs.AddOf(gs.MulOf(gs.N(-1), b), gs.MulOf(gs.N(-1), root)), scale),
		gs.MulOf(gs.AddOf(gs.MulOf(gs.N(-1), b), root), scale),
	}
}

func exactQuadratic(a, b, c *big.Rat) []Expr {
	disc := new(big.Rat).Mul(b, b)
	disc.Sub(disc, new(big.Rat).Mul(big.NewRat(4, 1), new(big.Rat).Mul(a, c)))
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	re := ratExpr(new(big.Rat).Quo(new(big.Rat).Neg(b), twoA))
	scale := new(big.Rat).Inv(twoA)

	switch disc.Sign() {
	case 0:
		return []Expr{re}
	case 1:
		s := gs.MulOf(ratExpr(scale), sqrtRat(disc))
		return []Expr{
			gs.AddOf(re, gs.MulOf(gs.N(-1), s)),
			gs.AddOf(re, s),
		}
	}
	im := gs.MulOf(ratExpr(scale.Abs(scale)), sqrtRat(disc.Neg(disc)), imaginaryUnit)
	return []Expr{
		gs.AddOf(re, gs.MulOf(gs.N(-1), im)),
		gs.AddOf(re, im),
	}
}

// rationalRoots deflates a polynomial with rational coefficients by its
// rational roots until a quadratic remains. An irreducible cubic gets
// Cardano's formula, or gosymbol's numeric solver for three real roots.
func rationalRoots(c []Expr, v string) ([]Expr, error) {
	coeffs := make([]*big.Rat, len(c))
	for i, e := range c {
		n, ok := e.(*gs.Num)
		if !ok {
			return nil, fmt.Errorf("%w: degree %d in %s with non-rational coefficients", ErrUnsupported, len(c)-1, v)
		}
		coeffs[i] = n.Rat()
	}

	scaled := integerCoeffs(coeffs)
	lead, trail := scaled[len(scaled)-1], scaled[0]
	ps, okP := divisors(trail)
	qs, okQ := divisors(lead)
	if !okP || !okQ {
		return nil, fmt.Errorf("%w: coefficients too large to search for rational roots", ErrUnsupported)
	}

	var roots []Expr
	tried := map[string]bool{}
	for _, p := range ps {
		for _, q := range qs {
			for _, sign := range []int64{1, -1} {
				cand := new(big.Rat).SetFrac(new(big.Int).Mul(p, big.NewInt(sign)), q)
				if tried[cand.RatString()] {
					continue
				}
				tried[cand.RatString()] = true
				for len(coeffs) > 3 && hornerZero(coeffs, cand) {
					coeffs = deflate(coeffs, cand)
					roots = append(roots, ratExpr(cand))
				}
			}
		}
	}

	rem := make([]Expr, len(coeffs))
	for i, r := range coeffs {
		rem[i] = ratExpr(r)
	}
	switch len(rem) - 1 {
	case 2:
		return append(roots, exactQuadratic(coeffs[2], coeffs[1], coeffs[0])...), nil
	case 3:
		if rest, ok := cardano(coeffs); ok {
			return append(roots, rest...), nil
		}
		rest, err := fromLibrary(gs.SolveCubic(rem[3], rem[2], rem[1], rem[0]))
		return append(roots, rest...), err
	}
	return nil, fmt.Errorf("%w: degree %d polynomial in %s has no closed form here", ErrUnsupported, len(coeffs)-1, v)
}

// cardano solves a cubic with ascending rational coefficients c when it has
// one real root. With x = t - b/3a the cubic becomes t**3 + p*t + q, whose
// real root is u + v with u**3 = -q/2 - sign(q)*sqrt(q**2/4 + p**3/27) and
// u*v = -p/3. The complex pair is -(u+v)/2 -+ sqrt(3)*(u-v)*I/2. It reports
// false when the cubic has three real roots.
func cardano(c []*big.Rat) ([]Expr, bool) {
	three := big.NewRat(3, 1)
	b := new(big.Rat).Quo(c[2], c[3])
	cc := new(big.Rat).Quo(c[1], c[3])
	d := new(big.Rat).Quo(c[0], c[3])

	b2 := new(big.Rat).Mul(b, b)
	p := new(big.Rat).Sub(cc, new(big.Rat).Quo(b2, three))
	q := new(big.Rat).Mul(big.NewRat(2, 27), new(big.Rat).Mul(b2, b))
	q.Sub(q, new(big.Rat).Quo(new(big.Rat).Mul(b, cc), three))
	q.Add(q, d)

	disc := new(big.Rat).Quo(new(big.Rat).Mul(q, q), big.NewRat(4, 1))
	disc.Add(disc, new(big.Rat).Quo(new(big.Rat).Mul(p, new(big.Rat).Mul(p, p)), big.NewRat(27, 1)))
	if disc.Sign() <= 0 {
		return nil, false
	}

	sign := int64(1)
	if q.Sign() > 0 {
		sign = -1
	}
	halfQ := new(big.Rat).Quo(new(big.Rat).Abs(q), big.NewRat(2, 1))
	cube := gs.AddOf(ratExpr(halfQ), sqrtRat(disc))
	u := gs.MulOf(gs.N(sign), cubeRoot(cube))
	v := Expr(gs.N(0))
	if p.Sign() != 0 {
		k := new(big.Rat).Quo(p, big.NewRat(-3*sign, 1))
		v = gs.MulOf(ratExpr(k), gs.PowOf(cubeRoot(cube), gs.N(-1)))
	}

	shift := ratExpr(new(big.Rat).Quo(b, big.NewRat(-3, 1)))
	sum := gs.AddOf(u, v)
	// u - v has the sign of u, so scaling by sign puts the negative
	// imaginary part first.
	im := gs.MulOf(gs.F(sign, 2), sqrtRat(three), gs.AddOf(u, gs.MulOf(gs.N(-1), v)), imaginaryUnit)
	re := gs.AddOf(shift, gs.MulOf(gs.F(-1, 2), sum))
	return []Expr{
		gs.AddOf(shift, sum),
		gs.AddOf(re, gs.MulOf(gs.N(-1), im)),
		gs.AddOf(re, im),
	}, true
}

// cubeRoot is the real cube root of a positive closed value.
func cubeRoot(e Expr) Expr {
	if n, ok := e.(*gs.Num); ok {
		return cbrtRat(n.Rat())
	}
	return gs.PowOf(e, gs.F(1, 3))
}

func integerCoeffs(c []*big.Rat) []*big.Int {
	lcm := big.NewInt(1)
	for _, r := range c {
		d := r.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(c))
	for i, r := range c {
		v := new(big.Rat).Mul(r, new(big.Rat).SetInt(lcm))
		out[i] = new(big.Int).Set(v.Num())
	}
	return out
}

// divisors lists the positive divisors of |n|. It reports false when n is too
// large to factor by trial division.
func divisors(n *big.Int) ([]*big.Int, bool) {
	a := new(big.Int).Abs(n)
	if a.BitLen() > 62 {
		return nil, false
	}
	v := a.Int64()
	var small, large []*big.Int
	for d := int64(1); d*d <= v; d++ {
		if d > maxRootCandidates {
			return nil, false
		}
		if v%d == 0 {
			small = append(small, big.NewInt(d))
			if d != v/d {
				large = append(large, big.NewInt(v/d))
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small, true
}

// hornerZero reports whether the polynomial with ascending coefficients c
// vanishes at x.
func hornerZero(c []*big.Rat, x *big.Rat) bool {
	acc := new(big.Rat)
	for i := len(c) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, c[i])
	}
	return acc.Sign() == 0
}

// deflate divides the polynomial by (v - x) using synthetic division.
func deflate(c []*big.Rat, x *big.Rat) []*big.Rat {
	n := len(c) - 1
	out := make([]*big.Rat, n)
	carry := new(big.Rat)
	for i := n; i >= 1; i-- {
		carry = new(big.Rat).Add(new(big.Rat).Mul(carry, x), c[i])
		out[i-1] = carry
	}
	return out
}

func zeroesAny(denominators []Expr, v string, root Expr) bool {
	for _, d := range denominators {
		val, err := canonical(gs.Sub(d, v, root))
		if err != nil {
			return true
		}
		if isZero(val) {
			return true
		}
		if n, ok := val.Eval(); ok && math.Abs(n.Float64()) <= zeroTolerance {
			return true
		}
	}
	return false
}

// sortRoots orders real numeric roots ascending and keeps the rest, complex
// or symbolic, after them in their original order.
func sortRoots(s SolutionSet) {
	type keyed struct {
		e    Expr
		val  float64
		real bool
	}
	ks := make([]keyed, len(s))
	for i, e := range s {
		ks[i].e = e
		if n, ok := e.Eval(); ok {
			ks[i].val, ks[i].real = n.Float64(), true
		}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].real != ks[j].real {
			return ks[i].real
		}
		return ks[i].real && ks[i].val < ks[j].val
	})
	for i := range ks {
		s[i] = ks[i].e
	}
}
