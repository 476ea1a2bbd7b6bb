package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vladimirlihacky/CaAA/internal/automaton"
	"github.com/vladimirlihacky/CaAA/internal/logging"
)

// readLines returns every input line with the line terminator removed.
// Other whitespace is kept since it may be part of a text or pattern.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// readPatternFile reads one pattern per line, skipping blanks and # comments.
func readPatternFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	lines, err := readLines(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var patterns []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, trimmed)
	}
	return patterns, nil
}

// readTextAndPatterns takes the text from the first input line and the
// patterns either from patternsPath or from the remaining lines.
func readTextAndPatterns(r io.Reader, patternsPath string) (string, []string, error) {
	lines, err := readLines(r)
	if err != nil {
		return "", nil, err
	}
	if len(lines) == 0 {
		return "", nil, errors.New("expected text on the first input line")
	}
	text := lines[0]

	if patternsPath != "" {
		patterns, err := readPatternFile(patternsPath)
		if err != nil {
			return "", nil, err
		}
		return text, patterns, nil
	}

	// Blank lines stay as empty patterns so numbering follows line positions.
	return text, lines[1:], nil
}

type traceSink struct {
	logger *logging.TraceLogger
	close  func() error
}

// openTrace returns a sink for path, or nil when path is empty. "-" writes
// to the command's stderr.
func openTrace(path string, stderr io.Writer) (*traceSink, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return &traceSink{logger: logging.NewTraceLogger(stderr), close: func() error { return nil }}, nil
	}
	logger, closer, err := logging.OpenTraceLog(path)
	if err != nil {
		return nil, fmt.Errorf("open trace log: %w", err)
	}
	return &traceSink{logger: logger, close: closer}, nil
}

func (t *traceSink) options() []automaton.BuildOption {
	if t == nil {
		return nil
	}
	return []automaton.BuildOption{automaton.WithObserver(t.logger)}
}

// finish closes the sink and reports the first write error, if any.
func (t *traceSink) finish() error {
	if t == nil {
		return nil
	}
	if err := t.logger.Err(); err != nil {
		_ = t.close()
		return fmt.Errorf("write trace log: %w", err)
	}
	return t.close()
}
