// Package automaton implements an Aho-Corasick multi-pattern matcher.
//
// Nodes live in a flat arena and refer to each other by index, both for
// child edges and for failure links. An Automaton is immutable once Build
// returns and may be searched from several goroutines at once.
package automaton

const (
	root   = 0
	noLink = -1
)

// Pattern is a literal pattern and its position in the list given to Build.
type Pattern struct {
	ID   int
	Text string
}

// Match reports a pattern occurrence. Start is the 0-based character (rune)
// index of the first character of the occurrence.
type Match struct {
	Pattern Pattern
	Start   int
}

type node struct {
	next    map[rune]int
	symbols []rune
	fail    int
	depth   int
	out     []int
}

// Automaton is a built pattern set ready for searching.
type Automaton struct {
	nodes    []node
	patterns []Pattern
	lengths  []int
	observer Observer
}

// BuildOption configures Build.
type BuildOption func(*Automaton)

// WithObserver installs an observer notified during construction and search.
func WithObserver(obs Observer) BuildOption {
	return func(a *Automaton) {
		if obs != nil {
			a.observer = obs
		}
	}
}

// Build constructs the automaton for patterns. Pattern ids are list
// positions. Empty patterns keep their id but are never reported.
func Build(patterns []string, opts ...BuildOption) *Automaton {
	a := &Automaton{
		nodes:    []node{{next: map[rune]int{}, fail: noLink}},
		patterns: make([]Pattern, len(patterns)),
		lengths:  make([]int, len(patterns)),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}

	for i, text := range patterns {
		a.patterns[i] = Pattern{ID: i, Text: text}
		if text == "" {
			continue
		}
		a.insert(i)
	}
	a.link()

	return a
}

func (a *Automaton) insert(id int) {
	current := root
	length := 0
	for _, c := range a.patterns[id].Text {
		next, ok := a.nodes[current].next[c]
		if !ok {
			a.nodes = append(a.nodes, node{
				next:  map[rune]int{},
				fail:  noLink,
				depth: a.nodes[current].depth + 1,
			})
			next = len(a.nodes) - 1
			a.nodes[current].next[c] = next
			a.nodes[current].symbols = append(a.nodes[current].symbols, c)
			a.observer.NodeCreated(next, current, c)
		}
		current = next
		length++
	}
	a.lengths[id] = length
	a.nodes[current].out = append(a.nodes[current].out, id)
	a.observer.PatternInserted(current, a.patterns[id])
}

// link assigns failure links breadth-first and closes every output set over
// its failure chain. Each node is visited once.
func (a *Automaton) link() {
	queue := make([]int, 0, len(a.nodes))
	for _, c := range a.nodes[root].symbols {
		child := a.nodes[root].next[c]
		a.nodes[child].fail = root
		a.observer.FailureLinked(child, root)
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]

		for _, c := range a.nodes[state].symbols {
			child := a.nodes[state].next[c]
			queue = append(queue, child)

			fail := a.nodes[state].fail
			for fail != noLink {
				if _, ok := a.nodes[fail].next[c]; ok {
					break
				}
				fail = a.nodes[fail].fail
			}
			if fail == noLink {
				a.nodes[child].fail = root
			} else {
				a.nodes[child].fail = a.nodes[fail].next[c]
			}
			a.observer.FailureLinked(child, a.nodes[child].fail)

			inherited := a.nodes[a.nodes[child].fail].out
			if len(inherited) > 0 {
				a.nodes[child].out = append(a.nodes[child].out, inherited...)
			}
		}
	}
}

// Patterns returns a copy of the pattern list, indexed by id.
func (a *Automaton) Patterns() []Pattern {
	return append([]Pattern(nil), a.patterns...)
}

// Len returns the number of trie nodes, root included.
func (a *Automaton) Len() int {
	return len(a.nodes)
}
