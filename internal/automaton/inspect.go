package automaton

import "strings"

// Stats summarizes the shape of the trie.
type Stats struct {
	Nodes        int `json:"nodes"`
	Patterns     int `json:"patterns"`
	MaxOutDegree int `json:"max_out_degree"`
	MaxDepth     int `json:"max_depth"`
}

// Stats describes the trie shape. MaxOutDegree is the largest number of
// child edges leaving a single node.
func (a *Automaton) Stats() Stats {
	stats := Stats{Nodes: len(a.nodes), Patterns: len(a.patterns)}
	for _, n := range a.nodes {
		if len(n.next) > stats.MaxOutDegree {
			stats.MaxOutDegree = len(n.next)
		}
		if n.depth > stats.MaxDepth {
			stats.MaxDepth = n.depth
		}
	}
	return stats
}

// Cut returns text with every character covered by some match removed.
func (a *Automaton) Cut(text string) string {
	runes := []rune(text)
	keep := make([]bool, len(runes))
	for i := range keep {
		keep[i] = true
	}

	for m := range a.Search(text) {
		end := m.Start + a.lengths[m.Pattern.ID]
		for i := max(m.Start, 0); i < end && i < len(runes); i++ {
			keep[i] = false
		}
	}

	var b strings.Builder
	for i, r := range runes {
		if keep[i] {
			b.WriteRune(r)
		}
	}
	return b.String()
}
