package logging

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/vladimirlihacky/CaAA/internal/automaton"
)

const (
	EventNodeCreated     = "node_created"
	EventPatternInserted = "pattern_inserted"
	EventFailureLinked   = "failure_linked"
	EventMatchEmitted    = "match_emitted"
)

// TraceEvent is one step of automaton construction or search.
type TraceEvent struct {
	Seq       uint64 `json:"seq"`
	Event     string `json:"event"`
	Node      *int   `json:"node,omitempty"`
	Parent    *int   `json:"parent,omitempty"`
	Target    *int   `json:"target,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	PatternID *int   `json:"pattern_id,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Start     *int   `json:"start,omitempty"`
}

// TraceLogger is an automaton.Observer that writes every event as a JSON
// line. Write errors are kept and returned by Err.
type TraceLogger struct {
	mu  sync.Mutex
	w   io.Writer
	seq uint64
	err error
}

func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{w: w}
}

func OpenTraceLog(path string) (*TraceLogger, func() error, error) {
	w, closer, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	return NewTraceLogger(w), closer, nil
}

func (l *TraceLogger) NodeCreated(node, parent int, symbol rune) {
	l.write(TraceEvent{Event: EventNodeCreated, Node: &node, Parent: &parent, Symbol: string(symbol)})
}

func (l *TraceLogger) PatternInserted(node int, p automaton.Pattern) {
	l.write(TraceEvent{Event: EventPatternInserted, Node: &node, PatternID: &p.ID, Pattern: snippet(p.Text)})
}

func (l *TraceLogger) FailureLinked(node, target int) {
	l.write(TraceEvent{Event: EventFailureLinked, Node: &node, Target: &target})
}

func (l *TraceLogger) MatchEmitted(m automaton.Match) {
	l.write(TraceEvent{Event: EventMatchEmitted, PatternID: &m.Pattern.ID, Pattern: snippet(m.Pattern.Text), Start: &m.Start})
}

func (l *TraceLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *TraceLogger) write(event TraceEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return
	}

	l.seq++
	event.Seq = l.seq
	data, err := json.Marshal(event)
	if err != nil {
		l.err = err
		return
	}
	_, l.err = l.w.Write(append(data, '\n'))
}
