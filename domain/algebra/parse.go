package algebra

import (
	"errors"
	"fmt"
	"strings"

	gs "github.com/njchilds90/gosymbol"
)

// maxLiteralDigits is the longest digit run gosymbol can read as an int64.
const maxLiteralDigits = 18

// chunkBase is 10**maxLiteralDigits, used to rebuild longer literals.
const chunkBase = "1000000000000000000"

var spaceDivision = strings.NewReplacer("/", " / ")

// Parse reads one side of an equation written in the normalizer's grammar
// (** for powers, * for products) into a simplified expression.
//
// Decimal literals are read as exact rationals and integer literals of any
// length are accepted.
func Parse(input string) (expr Expr, err error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Input: input, Err: errors.New("empty expression")}
	}
	defer func() {
		if err != nil {
			err = &ParseError{Input: input, Err: err}
		}
	}()
	defer recoverKernel(&err)

	prepared := prepare(input)
	if err = screenOperands(prepared); err != nil {
		return nil, err
	}
	parsed, err := gs.ParseWithError(prepared)
	if err != nil {
		return nil, err
	}
	return canonical(parsed)
}

// prepare rewrites normalized input into gosymbol's infix dialect:
//
//   - ** becomes ^
//   - a unary minus becomes -1* so -x^2 parses as -(x^2)
//   - / is spaced out so 1/2 is a division, not a rational literal that
//     would bind tighter than ^
//   - long integer and decimal literals become exact integer arithmetic
func prepare(s string) string {
	s = strings.ReplaceAll(s, "**", "^")
	s = unaryMinus(s)
	s = spaceDivision.Replace(s)
	return rewriteLiterals(s)
}

func unaryMinus(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	prev := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' && (prev == 0 || strings.IndexByte("(*/,=+-", prev) >= 0) {
			b.WriteString("-1*")
		} else {
			b.WriteByte(c)
		}
		if c != ' ' {
			prev = c
		}
	}
	return b.String()
}

// rewriteLiterals leaves identifiers alone and rewrites numbers that
// gosymbol would read as floats or overflow on.
func rewriteLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isLetter(c):
			j := i + 1
			for j < len(s) && (isLetter(s[j]) || isDigit(s[j]) || s[j] == '_') {
				j++
			}
			b.WriteString(s[i:j])
			i = j
		case isDigit(c):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			whole := s[i:j]
			if j+1 < len(s) && s[j] == '.' && isDigit(s[j+1]) {
				k := j + 1
				for k < len(s) && isDigit(s[k]) {
					k++
				}
				frac := s[j+1 : k]
				b.WriteString("(" + integerLiteral(whole+frac) + " / " +
					integerLiteral("1"+strings.Repeat("0", len(frac))) + ")")
				i = k
				continue
			}
			b.WriteString(integerLiteral(whole))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// integerLiteral writes a digit string as an int64 literal, or as Horner
// arithmetic over 18-digit chunks when it is longer.
func integerLiteral(digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}
	if len(digits) <= maxLiteralDigits {
		return digits
	}
	head := len(digits) % maxLiteralDigits
	if head == 0 {
		head = maxLiteralDigits
	}
	out := chunk(digits[:head])
	for i := head; i < len(digits); i += maxLiteralDigits {
		out = "(" + out + "*" + chunkBase + "+" + chunk(digits[i:i+maxLiteralDigits]) + ")"
	}
	return out
}

func chunk(digits string) string {
	if d := strings.TrimLeft(digits, "0"); d != "" {
		return d
	}
	return "0"
}

// screenOperands rejects what gosymbol folds wrongly while it parses: a
// divisor or negative power of an exact zero, which it multiplies away when
// the other factor is zero, and a numeric base raised to an integer beyond
// int64, whose exponent it reads with Int64.
func screenOperands(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '/' && s[i] != '^' {
			continue
		}
		op, ok := parseNum(s[i+1 : operandEnd(s, i+1)])
		if !ok {
			continue
		}
		if s[i] == '/' {
			if op.IsZero() {
				return ErrDivisionByZero
			}
			continue
		}
		wide := op.IsInteger() && !op.Rat().Num().IsInt64()
		if !wide && !op.IsNegative() {
			continue
		}
		base, ok := parseNum(s[operandStart(s, i):i])
		switch {
		case !ok:
		case base.IsZero() && op.IsNegative():
			return ErrDivisionByZero
		case wide && !base.IsZero() && !base.IsOne() && !base.IsNegOne():
			return fmt.Errorf("%w: power %s of %s", ErrTooLarge, Format(op), Format(base))
		}
	}
	return nil
}

func parseNum(s string) (*gs.Num, bool) {
	e, err := gs.ParseWithError(s)
	if err != nil {
		return nil, false
	}
	n, ok := e.(*gs.Num)
	return n, ok
}

// operandEnd returns the end of the power operand that starts at i: any
// signs, a primary and a trailing ^ chain.
func operandEnd(s string, i int) int {
	i = skipSpaces(s, i)
	for i < len(s) && (s[i] == '-' || s[i] == '+') {
		i = skipSpaces(s, i+1)
	}
	switch {
	case i >= len(s):
		return i
	case s[i] == '(':
		i = groupEnd(s, i)
	case isLetter(s[i]):
		for i < len(s) && isWord(s[i]) {
			i++
		}
		if j := skipSpaces(s, i); j < len(s) && s[j] == '(' {
			i = groupEnd(s, j)
		}
	case isDigit(s[i]):
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return i
	}
	if j := skipSpaces(s, i); j < len(s) && s[j] == '^' {
		return operandEnd(s, j+1)
	}
	return i
}

// operandStart returns the start of the primary that ends just before i.
func operandStart(s string, i int) int {
	j := i
	for j > 0 && s[j-1] == ' ' {
		j--
	}
	if j > 0 && s[j-1] == ')' {
		depth := 0
	scan:
		for j > 0 {
			j--
			switch s[j] {
			case ')':
				depth++
			case '(':
				if depth--; depth == 0 {
					break scan
				}
			}
		}
	}
	for j > 0 && isWord(s[j-1]) {
		j--
	}
	return j
}

// groupEnd returns the index just past the parenthesis matching s[i].
func groupEnd(s string, i int) int {
	depth := 0
	for ; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

func isWord(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80 }
