package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimirlihacky/CaAA/internal/logging"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestWildcardCommand(t *testing.T) {
	out, _, err := execute(t, "abaca\na?a\n?\n", "wildcard")
	require.NoError(t, err)
	assert.Equal(t, "1\n3\n", out)
}

func TestWildcardCommandCRLFAndNoMatches(t *testing.T) {
	out, _, err := execute(t, "abaca\r\nzz$\r\n$\r\n", "wildcard")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWildcardCommandTrimsLines(t *testing.T) {
	out, _, err := execute(t, "  ACTANCA \nA$$A$\t\n$ \n", "wildcard")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestWildcardCommandRejectsLongWildcard(t *testing.T) {
	_, _, err := execute(t, "abc\na**\n**\n", "wildcard")
	require.Error(t, err)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "single character")
}

func TestWildcardCommandNeedsThreeLines(t *testing.T) {
	_, _, err := execute(t, "abc\na?\n", "wildcard")
	assert.EqualError(t, err, "expected 3 input lines (text, pattern, wildcard), got 2")
}

func TestWildcardCommandTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	out, _, err := execute(t, "aXbaYb\na?b\n?\n", "wildcard", "--trace", path)
	require.NoError(t, err)
	assert.Equal(t, "1\n4\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	events := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var event logging.TraceEvent
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		events[event.Event]++
	}
	assert.Equal(t, 2, events[logging.EventPatternInserted])
	assert.Equal(t, 4, events[logging.EventMatchEmitted])
}

func TestWildcardCommandTraceToStderr(t *testing.T) {
	_, stderr, err := execute(t, "ab\nab\n?\n", "wildcard", "--trace", "-")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"event":"node_created"`)
}

func TestSearchCommand(t *testing.T) {
	out, _, err := execute(t, "ahishers\nhe\nshe\nhis\nhers\n", "search")
	require.NoError(t, err)
	assert.Equal(t, "2 3\n4 2\n5 1\n5 4\n", out)
}

func TestSearchCommandKeepsBlankLineNumbering(t *testing.T) {
	out, _, err := execute(t, "banana\nan\n\nna\n", "search")
	require.NoError(t, err)
	assert.Equal(t, "2 1\n3 3\n4 1\n5 3\n", out)
}

func TestSearchCommandPatternFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.txt")
	require.NoError(t, os.WriteFile(path, []byte("# fruit\nan\n\n  na\n"), 0o600))

	out, _, err := execute(t, "banana\nignored\n", "search", "--patterns", path)
	require.NoError(t, err)
	assert.Equal(t, "2 1\n3 2\n4 1\n5 2\n", out)
}

func TestSearchCommandEmptyInput(t *testing.T) {
	_, _, err := execute(t, "", "search")
	assert.EqualError(t, err, "expected text on the first input line")
}

func TestInspectCommand(t *testing.T) {
	out, _, err := execute(t, "xabyb\nab\nac\nad\nb\n", "inspect")
	require.NoError(t, err)
	assert.Equal(t, "nodes: 6\npatterns: 4\nmax out-degree: 3\nmax depth: 2\ncut: xy\n", out)

	out, _, err = execute(t, "xabyb\nab\n", "inspect", "--format", "json")
	require.NoError(t, err)
	var result inspectResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "xyb", result.Cut)
	assert.Equal(t, 3, result.Stats.Nodes)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("configVersion: 1\nwildcard:\n  symbol: \"*\"\n"), 0o600))

	out, _, err := execute(t, "", "validate", "-c", good)
	require.NoError(t, err)
	assert.Equal(t, "config ok\n", out)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("configVersion: 1\nwildcard:\n  symbol: \"ab\"\n"), 0o600))
	_, _, err = execute(t, "", "validate", "-c", bad)
	require.Error(t, err)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "wildcard.symbol")

	_, _, err = execute(t, "", "validate")
	assert.EqualError(t, err, "config path is required")
}

func TestReportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	logger, closer, err := logging.OpenRequestLog(path)
	require.NoError(t, err)
	require.NoError(t, logger.Write(logging.Request{Timestamp: time.Now(), Endpoint: "search", StatusCode: 200, Matches: 3}))
	require.NoError(t, logger.Write(logging.Request{Timestamp: time.Now(), Endpoint: "wildcard", StatusCode: 400}))
	require.NoError(t, closer())

	out, _, err := execute(t, "", "report", "--in", path, "--format", "json")
	require.NoError(t, err)
	var summary struct {
		Total        int `json:"total"`
		ClientErrors int `json:"client_errors"`
		Matches      int `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ClientErrors)
	assert.Equal(t, 3, summary.Matches)

	_, _, err = execute(t, "", "report", "--in", path, "--format", "xml")
	assert.EqualError(t, err, `unknown format "xml"`)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "version=dev commit=none buildDate=unknown\n", out)
}
