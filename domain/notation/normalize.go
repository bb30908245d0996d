// Package notation rewrites user-entered math shorthand into the expression
// grammar understood by the algebra engine.
package notation

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Variables are the letters that receive an implicit multiplication when
// directly preceded by a digit.
const Variables = "xy"

var superscripts = map[rune]rune{
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
	'⁻': '-',
}

var glyphs = strings.NewReplacer(
	"×", "*",
	"·", "*",
	"÷", "/",
	"−", "-",
)

// Normalize converts raw input to engine notation:
//
//  1. superscript exponents become ^n, compatibility glyphs fold to ASCII
//  2. all whitespace is removed
//  3. ^ becomes **
//  4. : becomes /
//  5. * is inserted between a digit and a following variable letter
//
// Normalize never fails and is idempotent on its own output.
func Normalize(raw string) string {
	s := foldGlyphs(raw)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "^", "**")
	s = strings.ReplaceAll(s, ":", "/")
	return InsertMultiplication(s, Variables)
}

func foldGlyphs(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inExponent := false
	for _, r := range s {
		if d, ok := superscripts[r]; ok {
			if !inExponent {
				b.WriteByte('^')
				inExponent = true
			}
			b.WriteRune(d)
			continue
		}
		inExponent = false
		b.WriteRune(r)
	}
	return glyphs.Replace(norm.NFKC.String(b.String()))
}

// InsertMultiplication writes '*' between every digit and an immediately
// following letter from letters, in one left-to-right pass. A letter at the
// start of s has no predecessor and is left alone.
func InsertMultiplication(s, letters string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 && unicode.IsDigit(prev) && strings.ContainsRune(letters, r) {
			b.WriteByte('*')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
