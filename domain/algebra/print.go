package algebra

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	gs "github.com/njchilds90/gosymbol"
)

// Operator precedence used to decide where the printers need parentheses.
const (
	precAdd  = 40
	precMul  = 50
	precPow  = 60
	precAtom = 1000
)

// floatDenominatorBits marks rationals that came out of floating-point
// evaluation: a power-of-two denominator wider than this prints as a decimal.
const floatDenominatorBits = 32

var greek = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"zeta": true, "eta": true, "theta": true, "iota": true, "kappa": true,
	"lambda": true, "mu": true, "nu": true, "xi": true, "pi": true, "rho": true,
	"sigma": true, "tau": true, "upsilon": true, "phi": true, "chi": true,
	"psi": true, "omega": true,
}

var textFuncNames = map[string]string{
	"ln":   "log",
	"abs":  "Abs",
	"ceil": "ceiling",
}

var latexFuncNames = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"ln": `\log`,
}

// Format renders e the way SymPy's str printer does: ** for powers, a/b for
// quotients, sqrt(...) for square roots and I for the imaginary unit.
func Format(e Expr) string { return printer{}.print(e) }

// FormatLaTeX renders e the way SymPy's latex printer does.
func FormatLaTeX(e Expr) string { return printer{latex: true}.print(e) }

type printer struct {
	latex bool
}

func (p printer) print(e Expr) string {
	switch t := e.(type) {
	case *gs.Num:
		return p.num(t.Rat())
	case *gs.Sym:
		return p.symbol(t.Name())
	case *gs.Add:
		return p.add(t)
	case *gs.Mul:
		return p.mul(t)
	case *gs.Pow:
		return p.pow(t)
	case *gs.Func:
		return p.fn(t)
	}
	if p.latex {
		return e.LaTeX()
	}
	return e.String()
}

func (p printer) paren(e Expr, prec int) string {
	s := p.print(e)
	if precedence(e) < prec {
		return p.wrap(s)
	}
	return s
}

func (p printer) wrap(s string) string {
	if p.latex {
		return `\left(` + s + `\right)`
	}
	return "(" + s + ")"
}

func (p printer) minus() string {
	if p.latex {
		return "- "
	}
	return "-"
}

func (p printer) num(r *big.Rat) string {
	if isFloatRat(r) {
		f, _ := r.Float64()
		return strconv.FormatFloat(f, 'g', 15, 64)
	}
	if r.IsInt() {
		return r.Num().String()
	}
	if !p.latex {
		return r.RatString()
	}
	sign := ""
	if r.Sign() < 0 {
		sign = p.minus()
	}
	return sign + `\frac{` + new(big.Int).Abs(r.Num()).String() + `}{` + r.Denom().String() + `}`
}

func (p printer) symbol(name string) string {
	if !p.latex {
		return name
	}
	if name == imaginaryUnit.Name() {
		return "i"
	}
	i := len(name)
	for i > 0 && isDigit(name[i-1]) {
		i--
	}
	head, sub := name[:i], name[i:]
	if greek[head] {
		head = `\` + head
	}
	if sub != "" && head != "" {
		return head + "_{" + sub + "}"
	}
	return head + sub
}

func (p printer) add(a *gs.Add) string {
	var b strings.Builder
	for i, t := range orderTerms(a.Terms()) {
		neg := isNegative(t)
		if neg {
			t = negate(t)
		}
		switch {
		case i == 0 && neg:
			b.WriteString(p.minus())
		case neg:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		b.WriteString(p.print(t))
	}
	return b.String()
}

func (p printer) mul(m *gs.Mul) string {
	fs := m.Factors()
	coeff := big.NewRat(1, 1)
	if n, ok := fs[0].(*gs.Num); ok {
		coeff = n.Rat()
		fs = fs[1:]
	}
	sign := ""
	if coeff.Sign() < 0 {
		sign = p.minus()
		coeff.Neg(coeff)
	}

	var num, den []Expr
	for _, f := range fs {
		if pw, ok := f.(*gs.Pow); ok {
			if k, ok := pw.ExpExpr().(*gs.Num); ok && k.IsNegative() {
				den = append(den, gs.PowOf(pw.Base(), ratExpr(new(big.Rat).Neg(k.Rat()))))
				continue
			}
		}
		num = append(num, f)
	}
	sortFactors(num)
	sortFactors(den)

	top, bottom := coeff, big.NewRat(1, 1)
	if !isFloatRat(coeff) {
		top = new(big.Rat).SetInt(coeff.Num())
		bottom = new(big.Rat).SetInt(coeff.Denom())
	}

	sep := "*"
	if p.latex {
		sep = " "
	}
	var numItems []string
	if top.Cmp(big.NewRat(1, 1)) != 0 || len(num) == 0 {
		numItems = append(numItems, p.num(top))
	}
	for _, f := range num {
		numItems = append(numItems, p.paren(f, precMul))
	}
	numStr := strings.Join(numItems, sep)

	oneBelow := bottom.Cmp(big.NewRat(1, 1)) == 0
	if oneBelow && len(den) == 0 {
		return sign + numStr
	}
	var denItems []string
	if !oneBelow {
		denItems = append(denItems, p.num(bottom))
	}
	single := len(den)+len(denItems) == 1
	for _, f := range den {
		switch {
		case single && p.latex:
			denItems = append(denItems, p.print(f))
		case single:
			denItems = append(denItems, p.paren(f, precPow))
		default:
			denItems = append(denItems, p.paren(f, precMul))
		}
	}
	denStr := strings.Join(denItems, sep)
	if p.latex {
		return sign + `\frac{` + numStr + `}{` + denStr + `}`
	}
	if !single {
		denStr = "(" + denStr + ")"
	}
	return sign + numStr + "/" + denStr
}

func (p printer) pow(pw *gs.Pow) string {
	base, exp := pw.Base(), pw.ExpExpr()
	if k, ok := exp.(*gs.Num); ok {
		r := k.Rat()
		switch {
		case k.Equal(half):
			if p.latex {
				return `\sqrt{` + p.print(base) + `}`
			}
			return "sqrt(" + p.print(base) + ")"
		case k.IsNegative():
			recip := gs.PowOf(base, ratExpr(new(big.Rat).Neg(r)))
			if p.latex {
				return `\frac{1}{` + p.print(recip) + `}`
			}
			if r.Cmp(big.NewRat(-1, 1)) == 0 || r.Cmp(big.NewRat(-1, 2)) == 0 {
				return "1/" + p.paren(recip, precPow)
			}
		case p.latex && !r.IsInt() && r.Num().Cmp(big.NewInt(1)) == 0 && !isFloatRat(r):
			return `\sqrt[` + r.Denom().String() + `]{` + p.print(base) + `}`
		}
	}
	if p.latex {
		return p.paren(base, precPow+1) + "^{" + p.print(exp) + "}"
	}
	return p.paren(base, precPow+1) + "**" + p.paren(exp, precPow+1)
}

func (p printer) fn(f *gs.Func) string {
	name, arg := f.FuncName(), p.print(f.Arg())
	if !p.latex {
		if n, ok := textFuncNames[name]; ok {
			name = n
		}
		return name + "(" + arg + ")"
	}
	switch name {
	case "exp":
		return "e^{" + arg + "}"
	case "abs":
		return `\left|{` + arg + `}\right|`
	case "floor":
		return `\left\lfloor{` + arg + `}\right\rfloor`
	case "ceil":
		return `\left\lceil{` + arg + `}\right\rceil`
	}
	cmd, ok := latexFuncNames[name]
	if !ok {
		cmd = `\operatorname{` + name + `}`
	}
	return cmd + `{\left(` + arg + ` \right)}`
}

func precedence(e Expr) int {
	switch t := e.(type) {
	case *gs.Num:
		r := t.Rat()
		switch {
		case r.Sign() < 0:
			return precAdd
		case !r.IsInt() && !isFloatRat(r):
			return precMul
		}
	case *gs.Add:
		return precAdd
	case *gs.Mul:
		if isNegative(t) {
			return precAdd
		}
		return precMul
	case *gs.Pow:
		if k, ok := t.ExpExpr().(*gs.Num); ok {
			if k.Equal(half) {
				return precAtom
			}
			if k.IsNegative() {
				return precMul
			}
		}
		return precPow
	}
	return precAtom
}

func isFloatRat(r *big.Rat) bool {
	d := r.Denom()
	return d.BitLen() > floatDenominatorBits && d.TrailingZeroBits() == uint(d.BitLen()-1)
}

func isNegative(e Expr) bool {
	switch t := e.(type) {
	case *gs.Num:
		return t.IsNegative()
	case *gs.Mul:
		n, ok := t.Factors()[0].(*gs.Num)
		return ok && n.IsNegative()
	}
	return false
}

func negate(e Expr) Expr { return gs.MulOf(gs.N(-1), e) }

// Term classes in print order.
const (
	termSymbolic = iota
	termNumber
	termNumeric
	termImaginary
)

func termClass(t Expr) int {
	syms := gs.FreeSymbols(t)
	_, imaginary := syms[imaginaryUnit.Name()]
	delete(syms, imaginaryUnit.Name())
	switch {
	case len(syms) > 0:
		return termSymbolic
	case imaginary:
		return termImaginary
	}
	if _, ok := t.(*gs.Num); ok {
		return termNumber
	}
	return termNumeric
}

func termDegree(t Expr) float64 {
	var deg float64
	for _, f := range factors(t) {
		switch v := f.(type) {
		case *gs.Sym:
			if v.Name() != imaginaryUnit.Name() {
				deg++
			}
		case *gs.Pow:
			if _, ok := v.Base().(*gs.Sym); ok {
				if k, ok := v.ExpExpr().(*gs.Num); ok {
					deg += k.Float64()
					continue
				}
			}
			if len(gs.FreeSymbols(v)) > 0 {
				deg++
			}
		default:
			if len(gs.FreeSymbols(v)) > 0 {
				deg++
			}
		}
	}
	return deg
}

// orderTerms sorts summands for printing: symbolic terms by descending
// degree, then the rational constant, then other closed numbers, then
// imaginary terms. A binomial with a negative leading term and a positive
// constant prints the constant first, as in 5 - x.
func orderTerms(ts []Expr) []Expr {
	type keyed struct {
		e     Expr
		class int
		deg   float64
	}
	ks := make([]keyed, len(ts))
	for i, t := range ts {
		ks[i] = keyed{e: t, class: termClass(t), deg: termDegree(t)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].class != ks[j].class {
			return ks[i].class < ks[j].class
		}
		return ks[i].deg > ks[j].deg
	})
	out := make([]Expr, len(ks))
	for i, k := range ks {
		out[i] = k.e
	}
	if len(out) == 2 && isNegative(out[0]) {
		if n, ok := out[1].(*gs.Num); ok && n.IsPositive() {
			out[0], out[1] = out[1], out[0]
		}
	}
	return out
}

func factorGroup(f Expr) int {
	switch v := f.(type) {
	case *gs.Sym:
		if v.Name() == imaginaryUnit.Name() {
			return 1
		}
		return 2
	case *gs.Func:
		return 3
	case *gs.Pow:
		if _, ok := v.Base().(*gs.Sym); ok {
			return 2
		}
	}
	if len(gs.FreeSymbols(f)) == 0 {
		return 0
	}
	return 4
}

// sortFactors orders closed numbers first, then I, symbols and their powers,
// functions, and compound factors last.
func sortFactors(fs []Expr) {
	sort.SliceStable(fs, func(i, j int) bool {
		gi, gj := factorGroup(fs[i]), factorGroup(fs[j])
		if gi != gj {
			return gi < gj
		}
		return fs[i].String() < fs[j].String()
	})
}
