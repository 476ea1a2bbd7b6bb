package automaton

import "iter"

// Search scans text once and yields every pattern occurrence, overlapping
// ones included. Events come in order of the end position; occurrences that
// end at the same character are not ordered by start.
func (a *Automaton) Search(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		state := root
		i := 0
		for _, c := range text {
			state = a.step(state, c)
			for _, id := range a.nodes[state].out {
				m := Match{Pattern: a.patterns[id], Start: i - a.lengths[id] + 1}
				a.observer.MatchEmitted(m)
				if !yield(m) {
					return
				}
			}
			i++
		}
	}
}

// FindAll collects Search into a slice.
func (a *Automaton) FindAll(text string) []Match {
	var matches []Match
	for m := range a.Search(text) {
		matches = append(matches, m)
	}
	return matches
}

// Contains reports whether any pattern occurs in text.
func (a *Automaton) Contains(text string) bool {
	for range a.Search(text) {
		return true
	}
	return false
}

func (a *Automaton) step(state int, c rune) int {
	for {
		if next, ok := a.nodes[state].next[c]; ok {
			return next
		}
		if a.nodes[state].fail == noLink {
			return root
		}
		state = a.nodes[state].fail
	}
}
