package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimirlihacky/CaAA/internal/automaton"
)

func TestRequestLoggerWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRequestLogger(&buf)

	req := Request{
		Timestamp:  time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		RequestID:  "req-1",
		Endpoint:   "wildcard",
		Pattern:    strings.Repeat("a", 100),
		StatusCode: 200,
		Matches:    3,
	}
	require.NoError(t, logger.Write(req))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var parsed Request
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &parsed))
	assert.Equal(t, "req-1", parsed.RequestID)
	assert.Equal(t, 3, parsed.Matches)
	assert.Len(t, parsed.Pattern, maxSnippet)
}

func TestOpenRequestLogCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "requests.jsonl")
	logger, closer, err := OpenRequestLog(path)
	require.NoError(t, err)
	require.NoError(t, logger.Write(Request{RequestID: "a"}))
	require.NoError(t, logger.Write(Request{RequestID: "b"}))
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestTraceLoggerRecordsConstructionAndSearch(t *testing.T) {
	var buf bytes.Buffer
	trace := NewTraceLogger(&buf)

	a := automaton.Build([]string{"ab", "b"}, automaton.WithObserver(trace))
	a.FindAll("ab")
	require.NoError(t, trace.Err())

	var events []TraceEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var event TraceEvent
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		events = append(events, event)
	}

	counts := map[string]int{}
	for i, event := range events {
		assert.Equal(t, uint64(i+1), event.Seq)
		counts[event.Event]++
	}
	assert.Equal(t, map[string]int{
		EventNodeCreated:     3,
		EventPatternInserted: 2,
		EventFailureLinked:   3,
		EventMatchEmitted:    2,
	}, counts)

	last := events[len(events)-1]
	require.NotNil(t, last.Start)
	require.NotNil(t, last.PatternID)
	assert.Equal(t, EventMatchEmitted, last.Event)
	assert.Nil(t, last.Node)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTraceLoggerKeepsFirstError(t *testing.T) {
	trace := NewTraceLogger(failingWriter{})
	automaton.Build([]string{"abc"}, automaton.WithObserver(trace))

	assert.EqualError(t, trace.Err(), "disk full")
}
