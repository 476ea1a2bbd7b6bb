package automaton

// Observer receives construction and search events. Implementations used
// with a shared automaton must be safe for concurrent use.
type Observer interface {
	NodeCreated(node, parent int, symbol rune)
	PatternInserted(node int, p Pattern)
	FailureLinked(node, target int)
	MatchEmitted(m Match)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) NodeCreated(int, int, rune)   {}
func (NopObserver) PatternInserted(int, Pattern) {}
func (NopObserver) FailureLinked(int, int)       {}
func (NopObserver) MatchEmitted(Match)           {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return NopObserver{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiObserver) NodeCreated(node, parent int, symbol rune) {
	for _, o := range m {
		o.NodeCreated(node, parent, symbol)
	}
}

func (m multiObserver) PatternInserted(node int, p Pattern) {
	for _, o := range m {
		o.PatternInserted(node, p)
	}
}

func (m multiObserver) FailureLinked(node, target int) {
	for _, o := range m {
		o.FailureLinked(node, target)
	}
}

func (m multiObserver) MatchEmitted(match Match) {
	for _, o := range m {
		o.MatchEmitted(match)
	}
}
