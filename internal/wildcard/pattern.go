// Package wildcard matches a single pattern containing one-character gap
// symbols by searching for its literal fragments and checking that every
// fragment agrees on where the whole pattern starts.
package wildcard

import (
	"strings"
	"unicode/utf8"
)

// Pattern is a wildcard pattern split into literal fragments. Offsets[k] is
// the rune index of the first character of Fragments[k] in Text.
type Pattern struct {
	Text      string
	Wildcard  rune
	Fragments []string
	Offsets   []int
}

// Decompose splits pattern into maximal runs of non-wildcard characters.
func Decompose(pattern string, wildcard rune) Pattern {
	p := Pattern{Text: pattern, Wildcard: wildcard}

	var current strings.Builder
	atFragmentStart := true
	i := 0
	for _, c := range pattern {
		if c == wildcard {
			atFragmentStart = true
			p.flush(&current)
		} else {
			if atFragmentStart {
				p.Offsets = append(p.Offsets, i)
				atFragmentStart = false
			}
			current.WriteRune(c)
		}
		i++
	}
	p.flush(&current)

	return p
}

func (p *Pattern) flush(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	p.Fragments = append(p.Fragments, b.String())
	b.Reset()
}

// Len returns the pattern length in characters.
func (p Pattern) Len() int {
	return utf8.RuneCountInString(p.Text)
}

// Glob renders the pattern for a glob matcher where '?' stands for exactly
// one character.
func (p Pattern) Glob() string {
	var b strings.Builder
	for _, c := range p.Text {
		switch {
		case c == p.Wildcard:
			b.WriteByte('?')
		case c == '*' || c == '?' || c == '\\':
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
