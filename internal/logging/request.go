package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"
)

const maxSnippet = 64

// Request is written as a single JSON object per service request.
type Request struct {
	Timestamp   time.Time `json:"ts"`
	RequestID   string    `json:"request_id"`
	ClientIP    string    `json:"client_ip"`
	Endpoint    string    `json:"endpoint"`
	Patterns    int       `json:"patterns"`
	Pattern     string    `json:"pattern,omitempty"`
	TextLength  int       `json:"text_length"`
	Matches     int       `json:"matches"`
	StatusCode  int       `json:"status_code"`
	RateLimited bool      `json:"rate_limited"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
}

type RequestLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewRequestLogger(w io.Writer) *RequestLogger {
	return &RequestLogger{w: w}
}

func OpenRequestLog(path string) (*RequestLogger, func() error, error) {
	w, closer, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	return NewRequestLogger(w), closer, nil
}

func (l *RequestLogger) Write(req Request) error {
	req.Pattern = snippet(req.Pattern)
	req.Error = snippet(req.Error)

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(append(data, '\n'))
	return err
}

func snippet(value string) string {
	if utf8.RuneCountInString(value) <= maxSnippet {
		return value
	}
	return string([]rune(value)[:maxSnippet])
}

// openAppend opens path for appending; "-" means stderr.
func openAppend(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stderr, func() error { return nil }, nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}
