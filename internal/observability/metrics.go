package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vladimirlihacky/CaAA/internal/automaton"
	"github.com/vladimirlihacky/CaAA/internal/logging"
)

type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	ratelimitHitsTotal *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	nodesTotal         *prometheus.CounterVec
	failureLinksTotal  *prometheus.CounterVec
	patternsTotal      *prometheus.CounterVec
	matchesTotal       *prometheus.CounterVec
	resultsTotal       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_requests_total", Help: "Total requests"},
			[]string{"endpoint", "code"},
		),
		ratelimitHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_ratelimit_hits_total", Help: "Total rate limited requests"},
			[]string{"endpoint"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caaa_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_automaton_nodes_total", Help: "Trie nodes created"},
			[]string{"kind"},
		),
		failureLinksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_automaton_failure_links_total", Help: "Failure links assigned"},
			[]string{"kind"},
		),
		patternsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_automaton_patterns_total", Help: "Patterns inserted into automata"},
			[]string{"kind"},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_automaton_matches_total", Help: "Match events emitted by automata"},
			[]string{"kind"},
		),
		resultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "caaa_results_total", Help: "Results returned to clients"},
			[]string{"endpoint"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.requestsTotal,
		m.ratelimitHitsTotal,
		m.requestDuration,
		m.nodesTotal,
		m.failureLinksTotal,
		m.patternsTotal,
		m.matchesTotal,
		m.resultsTotal,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Observe records a finished request.
func (m *Metrics) Observe(req logging.Request) {
	if m == nil {
		return
	}

	m.requestsTotal.WithLabelValues(req.Endpoint, strconv.Itoa(req.StatusCode)).Inc()
	m.requestDuration.WithLabelValues(req.Endpoint).Observe((time.Duration(req.DurationMS) * time.Millisecond).Seconds())
	if req.RateLimited {
		m.ratelimitHitsTotal.WithLabelValues(req.Endpoint).Inc()
	}
	if req.Matches > 0 {
		m.resultsTotal.WithLabelValues(req.Endpoint).Add(float64(req.Matches))
	}
}

// Observer returns an automaton.Observer counting events under the given
// kind label, e.g. "literal" or "fragment". A nil Metrics yields a no-op.
func (m *Metrics) Observer(kind string) automaton.Observer {
	if m == nil {
		return automaton.NopObserver{}
	}
	return &automatonObserver{
		nodes:    m.nodesTotal.WithLabelValues(kind),
		links:    m.failureLinksTotal.WithLabelValues(kind),
		patterns: m.patternsTotal.WithLabelValues(kind),
		matches:  m.matchesTotal.WithLabelValues(kind),
	}
}

type automatonObserver struct {
	nodes    prometheus.Counter
	links    prometheus.Counter
	patterns prometheus.Counter
	matches  prometheus.Counter
}

func (o *automatonObserver) NodeCreated(int, int, rune)             { o.nodes.Inc() }
func (o *automatonObserver) PatternInserted(int, automaton.Pattern) { o.patterns.Inc() }
func (o *automatonObserver) FailureLinked(int, int)                 { o.links.Inc() }
func (o *automatonObserver) MatchEmitted(automaton.Match)           { o.matches.Inc() }
