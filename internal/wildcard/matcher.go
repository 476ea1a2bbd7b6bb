package wildcard

import (
	"iter"
	"sort"
	"unicode/utf8"

	"github.com/tidwall/match"
	"github.com/vladimirlihacky/CaAA/internal/automaton"
)

// Matcher finds every start position of a wildcard pattern in a text. It
// is immutable and safe for concurrent use.
type Matcher struct {
	pattern Pattern
	length  int
	glob    string
	ac      *automaton.Automaton
}

// NewMatcher builds the fragment automaton for p. Fragment k is pattern id k.
func NewMatcher(p Pattern, opts ...automaton.BuildOption) *Matcher {
	return &Matcher{
		pattern: p,
		length:  p.Len(),
		glob:    p.Glob(),
		ac:      automaton.Build(p.Fragments, opts...),
	}
}

func (m *Matcher) Pattern() Pattern {
	return m.pattern
}

// Search yields the 0-based start of every full-pattern occurrence in
// ascending order. Nothing is yielded before the whole text is scanned.
func (m *Matcher) Search(text string) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, start := range m.FindAll(text) {
			if !yield(start) {
				return
			}
		}
	}
}

// FindAll returns the ascending 0-based starts of every occurrence.
func (m *Matcher) FindAll(text string) []int {
	total := len(m.pattern.Fragments)
	if total == 0 {
		return nil
	}

	last := utf8.RuneCountInString(text) - m.length
	if last < 0 {
		return nil
	}

	seen := make(map[int]map[int]struct{})
	for hit := range m.ac.Search(text) {
		start := hit.Start - m.pattern.Offsets[hit.Pattern.ID]
		if start < 0 || start > last {
			continue
		}
		fragments, ok := seen[start]
		if !ok {
			fragments = make(map[int]struct{}, total)
			seen[start] = fragments
		}
		fragments[hit.Pattern.ID] = struct{}{}
	}

	var starts []int
	for start, fragments := range seen {
		if len(fragments) == total {
			starts = append(starts, start)
		}
	}
	sort.Ints(starts)
	return starts
}

// MatchAt reports whether the pattern occurs at the given 0-based start. It
// does not use the automaton. A pattern without literal characters never
// matches, consistent with FindAll.
func (m *Matcher) MatchAt(text string, start int) bool {
	if len(m.pattern.Fragments) == 0 || start < 0 {
		return false
	}
	runes := []rune(text)
	if start > len(runes)-m.length {
		return false
	}
	return match.Match(string(runes[start:start+m.length]), m.glob)
}
