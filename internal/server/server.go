package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vladimirlihacky/CaAA/internal/automaton"
	"github.com/vladimirlihacky/CaAA/internal/config"
	"github.com/vladimirlihacky/CaAA/internal/logging"
	"github.com/vladimirlihacky/CaAA/internal/observability"
	"github.com/vladimirlihacky/CaAA/internal/ratelimit"
)

const (
	EndpointSearch   = "search"
	EndpointWildcard = "wildcard"
)

// Server answers literal and wildcard search requests over HTTP. Every
// request builds its own automaton; nothing is shared between requests
// except the limiter, the logs and the metrics.
type Server struct {
	limits        config.Limits
	wildcard      rune
	rateLimitCode int
	limiter       *ratelimit.Limiter
	requestLog    *logging.RequestLogger
	metrics       *observability.Metrics
	trace         automaton.Observer
	requestCount  uint64
	now           func() time.Time
}

func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	wildcard, err := config.ParseWildcard(cfg.Wildcard.Symbol)
	if err != nil {
		return nil, err
	}

	s := &Server{
		limits:        cfg.Limits,
		wildcard:      wildcard,
		rateLimitCode: rateLimitStatus(cfg.RateLimit.StatusCode),
		now:           time.Now,
	}
	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return s, nil
}

func (s *Server) SetRequestLogger(logger *logging.RequestLogger) {
	s.requestLog = logger
}

func (s *Server) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SetTraceObserver installs an observer attached to every automaton the
// server builds.
func (s *Server) SetTraceObserver(obs automaton.Observer) {
	s.trace = obs
}

// Prune forgets rate limit buckets idle for longer than idle.
func (s *Server) Prune(idle time.Duration) int {
	return s.limiter.Prune(s.now().Add(-idle))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "/v1/search":
		s.serveEndpoint(w, r, EndpointSearch, s.handleSearch)
	case "/v1/wildcard":
		s.serveEndpoint(w, r, EndpointWildcard, s.handleWildcard)
	default:
		http.NotFound(w, r)
	}
}

// handlerFunc decodes its own request body, fills entry and returns the
// response body or an error.
type handlerFunc func(r *http.Request, entry *logging.Request) (any, error)

func (s *Server) serveEndpoint(w http.ResponseWriter, r *http.Request, endpoint string, handle handlerFunc) {
	start := s.now()
	entry := logging.Request{
		Timestamp: start.UTC(),
		RequestID: s.newRequestID(),
		ClientIP:  clientIP(r),
		Endpoint:  endpoint,
	}
	w.Header().Set("X-Request-Id", entry.RequestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.fail(w, &entry, start, &requestError{status: http.StatusMethodNotAllowed, msg: "method not allowed"})
		return
	}

	if !s.limiter.Allow(entry.ClientIP, start) {
		entry.RateLimited = true
		s.fail(w, &entry, start, &requestError{status: s.rateLimitCode, msg: "rate limit exceeded"})
		return
	}

	if s.limits.MaxBodyBytes > 0 {
		if r.ContentLength > s.limits.MaxBodyBytes {
			s.fail(w, &entry, start, &requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxBodyBytes)
	}

	resp, err := handle(r, &entry)
	if err != nil {
		s.fail(w, &entry, start, err)
		return
	}

	entry.StatusCode = http.StatusOK
	writeJSON(w, http.StatusOK, resp)
	s.finish(entry, start)
}

func (s *Server) fail(w http.ResponseWriter, entry *logging.Request, start time.Time, err error) {
	status := http.StatusInternalServerError
	body := errorResponse{Error: err.Error()}

	var reqErr *requestError
	var verr *config.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.status
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body.Problems = verr.Problems
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
		body.Error = "request body too large"
	}

	entry.StatusCode = status
	entry.Error = body.Error
	writeJSON(w, status, body)
	s.finish(*entry, start)
}

func (s *Server) finish(entry logging.Request, start time.Time) {
	entry.DurationMS = s.now().Sub(start).Milliseconds()
	if s.requestLog != nil {
		_ = s.requestLog.Write(entry)
	}
	if s.metrics != nil {
		s.metrics.Observe(entry)
	}
}

func (s *Server) observer(kind string) automaton.Observer {
	return automaton.Observers(s.metrics.Observer(kind), s.trace)
}

func (s *Server) newRequestID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return hex.EncodeToString(buf[:])
	}
	value := atomic.AddUint64(&s.requestCount, 1)
	return fmt.Sprintf("req-%d", value)
}

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func rateLimitStatus(code int) int {
	if code <= 0 {
		return http.StatusTooManyRequests
	}
	return code
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
