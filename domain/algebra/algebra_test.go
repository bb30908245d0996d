package algebra

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	gs "github.com/njchilds90/gosymbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Expr {
	t.Helper()
	e, err := Parse(s)
	require.NoError(t, err, "parse %q", s)
	return e
}

func mustEquation(t *testing.T, lhs, rhs string) *Equation {
	t.Helper()
	rel, err := Eq(mustParse(t, lhs), mustParse(t, rhs))
	require.NoError(t, err)
	eq, ok := rel.(*Equation)
	require.True(t, ok, "expected an undecided equation, got %s", rel)
	return eq
}

func mustSolve(t *testing.T, lhs, rhs, v string) SolutionSet {
	t.Helper()
	sols, err := Solve(mustEquation(t, lhs, rhs), v)
	require.NoError(t, err)
	return sols
}

func TestParse_Simplifies(t *testing.T) {
	tests := []struct {
		input string
		text  string
		latex string
	}{
		{"1*x+3+2*x+4*x+5*x", "12*x + 3", "12 x + 3"},
		{"3*x/4", "3*x/4", `\frac{3 x}{4}`},
		{"x-x", "0", "0"},
		{"x*x", "x**2", "x^{2}"},
		{"-x**2", "-x**2", "- x^{2}"},
		{"sqrt(20)", "2*sqrt(5)", `2 \sqrt{5}`},
		{"sqrt(1/2)", "sqrt(2)/2", `\frac{\sqrt{2}}{2}`},
		{"sqrt(-4)", "2*I", "2 i"},
		{"sqrt(-9*y)", "3*I*sqrt(y)", `3 i \sqrt{y}`},
		{"I*I", "-1", "-1"},
		{"2**10", "1024", "1024"},
		{"2**64", "18446744073709551616", "18446744073709551616"},
		{"2**-2", "1/4", `\frac{1}{4}`},
		{"-x/2", "-x/2", `- \frac{x}{2}`},
		{"1/x", "1/x", `\frac{1}{x}`},
		{"2^3^2", "512", "512"},
		{"(x+1)**2", "(x + 1)**2", `\left(x + 1\right)^{2}`},
		{"5-x", "5 - x", "5 - x"},
		{"x**(1/3)", "x**(1/3)", `\sqrt[3]{x}`},
		{"abs(-3)", "3", "3"},
		{"sin(x)", "sin(x)", `\sin{\left(x \right)}`},
		{"cos(0)", "1", "1"},
		{"exp(x)", "exp(x)", "e^{x}"},
		{"ln(x)", "log(x)", `\log{\left(x \right)}`},
		{"pi*2", "2*pi", `2 \pi`},
		{"0.5+0.25", "3/4", `\frac{3}{4}`},
		{"2**100000", "2**100000", "2^{100000}"},
		{"2/(x+1)", "2/(x + 1)", `\frac{2}{x + 1}`},
		{"1/((x+1)*(x+2))", "1/((x + 1)*(x + 2))", `\frac{1}{\left(x + 1\right) \left(x + 2\right)}`},
		{"1/x**2", "x**(-2)", `\frac{1}{x^{2}}`},
		{"123456789012345678901234567890", "123456789012345678901234567890", "123456789012345678901234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := mustParse(t, tt.input)
			assert.Equal(t, tt.text, Format(e))
			assert.Equal(t, tt.latex, FormatLaTeX(e))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"3,4+2,5",
		"1/0",
		"x/(x-x)",
		"2(x)",
		"(x+1",
		"x+1)",
		"",
		"   ",
		"x+",
		"x^",
		"foo(x)",
		"1..2",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.Equal(t, input, pe.Input)
		})
	}
}

func TestParse_DivisionByZero(t *testing.T) {
	for _, input := range []string{"1/0", "0/0", "0*0**-1", "0/(x-x)", "x**(1/0)"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrDivisionByZero)
		})
	}
}

func TestParse_WideExponents(t *testing.T) {
	for _, input := range []string{"2**(2**64)", "2**18446744073709551616", "3**(4294967296*4294967296)"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrTooLarge)
		})
	}

	assert.Equal(t, "1", Format(mustParse(t, "1**(2**64)")))
	assert.Equal(t, "-1", Format(mustParse(t, "(-1)**(2**64+1)")))
	assert.Equal(t, "0", Format(mustParse(t, "0**(2**64)")))
	assert.Equal(t, "x**18446744073709551616", Format(mustParse(t, "x**(2**64)")))
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x**2", "x^2"},
		{"-x**2", "-1*x^2"},
		{"2**-1", "2^-1"},
		{"1/2", "1 / 2"},
		{"0.25", "(25 / 100)"},
		{"x2+1", "x2+1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, prepare(tt.input))
		})
	}
}

func TestIntegerLiteral(t *testing.T) {
	assert.Equal(t, "42", integerLiteral("0042"))
	assert.Equal(t, "0", integerLiteral("000"))
	assert.Equal(t,
		"(123456789012*1000000000000000000+345678901234567890)",
		integerLiteral("123456789012345678901234567890"))
}

func TestEq_Decides(t *testing.T) {
	tests := []struct {
		lhs, rhs string
		text     string
		latex    string
	}{
		{"2784", "3738", "False", `\text{False}`},
		{"2+2", "4", "True", `\text{True}`},
		{"x", "x", "True", `\text{True}`},
		{"x+1", "x", "False", `\text{False}`},
		{"sqrt(2)*sqrt(2)", "2", "True", `\text{True}`},
		{"sqrt(2)", "1", "False", `\text{False}`},
		{"x+y", "5", "Eq(x + y, 5)", "x + y = 5"},
		{"x**(2**64)", "1", "Eq(x**18446744073709551616, 1)", "x^{18446744073709551616} = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.lhs+"="+tt.rhs, func(t *testing.T) {
			rel, err := Eq(mustParse(t, tt.lhs), mustParse(t, tt.rhs))
			require.NoError(t, err)
			assert.Equal(t, tt.text, rel.String())
			assert.Equal(t, tt.latex, rel.LaTeX())
		})
	}
}

func TestEquation_FreeSymbols(t *testing.T) {
	rel, err := Eq(mustParse(t, "x+z"), mustParse(t, "y"))
	require.NoError(t, err)
	syms := rel.FreeSymbols()
	assert.Len(t, syms, 3)
	assert.Contains(t, syms, "x")
	assert.Contains(t, syms, "y")
	assert.Contains(t, syms, "z")

	assert.Empty(t, Boolean(true).FreeSymbols())
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs string
		variable string
		text     string
		latex    string
	}{
		{"linear", "1*x+3+2*x+4*x+5*x", "7*x", "x", "[-3/5]", `[- \frac{3}{5}]`},
		{"quadratic", "x**2", "5", "x", "[-sqrt(5), sqrt(5)]", `[- \sqrt{5}, \ \sqrt{5}]`},
		{"complex roots", "x**2+1", "0", "x", "[-I, I]", `[- i, \ i]`},
		{"complex radical roots", "x**2+x+1", "0", "x",
			"[-1/2 - sqrt(3)*I/2, -1/2 + sqrt(3)*I/2]",
			`[- \frac{1}{2} - \frac{\sqrt{3} i}{2}, \ - \frac{1}{2} + \frac{\sqrt{3} i}{2}]`},
		{"double root", "x**2-2*x+1", "0", "x", "[1]", "[1]"},
		{"zero root", "3*x**2", "0", "x", "[0]", "[0]"},
		{"two variables", "x+y", "5", "y", "[5 - x]", "[5 - x]"},
		{"product", "x*y", "5", "y", "[5/x]", `[\frac{5}{x}]`},
		{"cubic", "x**3-6*x**2+11*x-6", "0", "x", "[1, 2, 3]", `[1, \ 2, \ 3]`},
		{"quartic", "x**4-1", "0", "x", "[-1, 1, -I, I]", `[-1, \ 1, \ - i, \ i]`},
		{"spurious root", "x/(x-1)", "1/(x-1)", "x", "[]", "[]"},
		{"reciprocal", "1/x", "2", "x", "[1/2]", `[\frac{1}{2}]`},
		{"no solution", "1/x", "0", "x", "[]", "[]"},
		{"decimal", "0.5*x", "1", "x", "[2]", "[2]"},
		{"symbolic square", "y**2", "x", "y", "[-sqrt(x), sqrt(x)]", `[- \sqrt{x}, \ \sqrt{x}]`},
		{"circle", "x**2+y**2", "1", "y",
			"[-sqrt(1 - x**2), sqrt(1 - x**2)]", `[- \sqrt{1 - x^{2}}, \ \sqrt{1 - x^{2}}]`},
		{"variable absent", "x", "1", "y", "[]", "[]"},
		{"imaginary pair", "x**2+y**2", "0", "y", "[-I*x, I*x]", `[- i x, \ i x]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sols := mustSolve(t, tt.lhs, tt.rhs, tt.variable)
			assert.Equal(t, tt.text, sols.String())
			assert.Equal(t, tt.latex, sols.LaTeX())
		})
	}
}

func TestSolve_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs string
		want     error
	}{
		{"transcendental", "sin(x)", "0", ErrUnsupported},
		{"no rational roots", "x**5+x+1", "0", ErrUnsupported},
		{"fractional power", "sqrt(x)", "2", ErrUnsupported},
		{"huge power of a sum", "(x+1)**100", "0", ErrTooLarge},
		{"huge exponent", "x**500000000", "1", ErrTooLarge},
		{"exponent past int64", "x**100000000000000000000", "1", ErrTooLarge},
		{"wide multinomial", "(a+b+c+d+e+f+g+h)**10", "x", ErrTooLarge},
		{"exponent past int64 on a sum", "(x+1)**(2**64)", "1", ErrTooLarge},
		{"power of a sum with other symbols", "(x+y)**64", "1", ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(mustEquation(t, tt.lhs, tt.rhs), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExpandIn(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(x+1)**2", "x**2 + 2*x + 1"},
		{"(x+1)*(x-1)", "x**2 - 1"},
		{"x*(x+1)", "x**2 + x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := expandIn(mustParse(t, tt.input), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(e))
		})
	}

	t.Run("past the library limit", func(t *testing.T) {
		e, err := expandIn(mustParse(t, "(x+1)**12"), "x")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(Format(e), "x**12 + 12*x**11 + 66*x**10"), Format(e))
		assert.True(t, strings.HasSuffix(Format(e), "12*x + 1"), Format(e))
	})

	_, err := expandIn(mustParse(t, "(x+1)**1000"), "x")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestExpansionCost(t *testing.T) {
	assert.Equal(t, 1.0, expansionCost(mustParse(t, "x**500000000")))
	assert.True(t, math.IsInf(expansionCost(mustParse(t, "x**(2**64)")), 1))
	assert.Equal(t, 4.0, expansionCost(mustParse(t, "(x+1)*(x-1)")))
	assert.LessOrEqual(t, expansionCost(mustParse(t, "(x+1)**64")), float64(maxExpansionTerms))
	assert.Greater(t, expansionCost(mustParse(t, "(a+b+c+d+e+f+g+h)**10")), float64(maxExpansionTerms))
}

func TestSolve_PowersOfSumsFailFast(t *testing.T) {
	eq := mustEquation(t, "(x+1*y)**64+(x+2*y)**64+(x+3*y)**64+(x+4*y)**64+(x+5*y)**64+(x+6*y)**64", "1")

	start := time.Now()
	_, err := Solve(eq, "y")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Less(t, time.Since(start), time.Second)
}

// complexValue evaluates e, which must be linear in I, as a complex number.
func complexValue(t *testing.T, e Expr) complex128 {
	t.Helper()
	re, ok := gs.Sub(e, imaginaryUnit.Name(), gs.N(0)).Eval()
	require.True(t, ok, Format(e))
	withIm, ok := gs.Sub(e, imaginaryUnit.Name(), gs.N(1)).Eval()
	require.True(t, ok, Format(e))
	return complex(re.Float64(), withIm.Float64()-re.Float64())
}

func TestSolve_IrreducibleCubic(t *testing.T) {
	tests := []struct {
		name  string
		lhs   string
		real  string
		roots []complex128
	}{
		{"pure cube", "x**3-2", "2**(1/3)", []complex128{
			1.2599210498948732,
			complex(-0.6299605249474366, -1.0911236359717214),
			complex(-0.6299605249474366, 1.0911236359717214),
		}},
		{"shifted", "x**3-3*x**2+3*x-3", "1 + 2**(1/3)", []complex128{
			2.2599210498948732,
			complex(0.3700394750525634, -1.0911236359717214),
			complex(0.3700394750525634, 1.0911236359717214),
		}},
		{"depressed", "x**3+x+1", "", []complex128{
			-0.6823278038280193,
			complex(0.3411639019140097, -1.1615413999972520),
			complex(0.3411639019140097, 1.1615413999972520),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sols := mustSolve(t, tt.lhs, "0", "x")
			require.Len(t, sols, len(tt.roots), sols.String())
			if tt.real != "" {
				assert.Equal(t, tt.real, Format(sols[0]))
			}
			for i, want := range tt.roots {
				got := complexValue(t, sols[i])
				assert.InDelta(t, real(want), real(got), 1e-9, Format(sols[i]))
				assert.InDelta(t, imag(want), imag(got), 1e-9, Format(sols[i]))
			}
		})
	}

	t.Run("three real roots stay numeric", func(t *testing.T) {
		sols := mustSolve(t, "x**3-3*x+1", "0", "x")
		require.Len(t, sols, 3)
		for _, s := range sols {
			assert.NotContains(t, Format(s), "I")
		}
	})
}

func TestExtractPower_Memoized(t *testing.T) {
	out, in := extractPower(big.NewInt(72), 2)
	assert.Equal(t, "6", out.String())
	assert.Equal(t, "2", in.String())

	// 2**62 - 57 is prime, so the first extraction runs every trial divisor.
	m := big.NewInt(4611686018427387847)
	out, in = extractPower(m, 2)
	assert.Equal(t, "1", out.String())
	assert.Equal(t, m.String(), in.String())
	assert.GreaterOrEqual(t, radicals.size(), 1)

	in.SetInt64(5)
	_, again := extractPower(m, 2)
	assert.Equal(t, m.String(), again.String(), "memoized result must not alias the caller's copy")
}

func TestSolve_RepeatedLargeRadical(t *testing.T) {
	sols := mustSolve(t, "x**2+sqrt(4611686018427387847)*x+sqrt(4611686018427387847)", "0", "x")
	require.Len(t, sols, 2)
	for _, s := range sols {
		assert.Contains(t, Format(s), "sqrt(4611686018427387847)")
	}
}

func TestUnitPower(t *testing.T) {
	assert.Equal(t, "1", Format(unitPower(big.NewInt(8))))
	assert.Equal(t, "I", Format(unitPower(big.NewInt(5))))
	assert.Equal(t, "-1", Format(unitPower(big.NewInt(-2))))
	assert.Equal(t, "-I", Format(unitPower(big.NewInt(-1))))
}

func TestRecoverKernel(t *testing.T) {
	run := func() (err error) {
		defer recoverKernel(&err)
		gs.F(1, 0)
		return nil
	}
	assert.ErrorIs(t, run(), ErrUndefined)
}

func TestEngine(t *testing.T) {
	eng := NewEngine()

	lhs, err := eng.Parse("x**2")
	require.NoError(t, err)
	rhs, err := eng.Parse("4")
	require.NoError(t, err)

	rel, err := eng.Eq(lhs, rhs)
	require.NoError(t, err)
	sols, err := eng.Solve(rel.(*Equation), "x")
	require.NoError(t, err)
	assert.Equal(t, "[-2, 2]", sols.String())
}
