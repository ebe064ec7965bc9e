// Package metrics exposes redirect security and performance telemetry as Prometheus collectors
// and as a JSON snapshot for dashboards that poll the API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"quantum-redirect/internal/redirect/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

const (
	namespace = "quantum"
	// window is the number of recent samples each rolling average covers.
	window = 256
)

var stageBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .15, .25, .5, 1}

// Metrics implements usecase.Recorder. It is safe for concurrent use.
type Metrics struct {
	registry      *prometheus.Registry
	redirects     prometheus.Counter
	successful    prometheus.Counter
	blocked       prometheus.Counter
	violations    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	totalDuration prometheus.Histogram

	mu          sync.Mutex
	totals      counts
	enforced    map[domain.Violation]int64
	tolerated   map[domain.Violation]int64
	timings     map[domain.State]*ring
	completions ring
}

type counts struct {
	redirects  int64
	successful int64
	blocked    int64
}

// New registers all collectors on a fresh registry, together with the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Short-link clicks that entered the redirect protocol.",
		}),
		successful: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_successful_total",
			Help:      "Clicks that reached their final destination.",
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_attempts_total",
			Help:      "Requests rejected by an enforced protocol violation.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Protocol violations by kind; enforced=false marks tolerated ones.",
		}, []string{"violation", "enforced"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Processing time of each protocol stage.",
			Buckets:   stageBuckets,
		}, []string{"stage"}),
		totalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redirect_duration_seconds",
			Help:      "Time from Stage 1 to the final URL for completed redirects.",
			Buckets:   stageBuckets,
		}),
		enforced:  make(map[domain.Violation]int64),
		tolerated: make(map[domain.Violation]int64),
		timings:   make(map[domain.State]*ring),
	}

	m.registry.MustRegister(
		m.redirects,
		m.successful,
		m.blocked,
		m.violations,
		m.stageDuration,
		m.totalDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Export every violation series from the start so rate() sees the first increment.
	for _, v := range domain.Violations {
		for _, enforced := range []string{"true", "false"} {
			m.violations.WithLabelValues(string(v), enforced)
		}
	}
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordRedirectStarted() {
	m.redirects.Inc()
	m.mu.Lock()
	m.totals.redirects++
	m.mu.Unlock()
}

// RecordRedirectCompleted counts a successful click and adds its end-to-end time to the
// rolling average.
func (m *Metrics) RecordRedirectCompleted(total time.Duration) {
	m.successful.Inc()
	m.totalDuration.Observe(total.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.successful++
	m.completions.add(total)
}

// RecordViolation counts v. Only enforced violations are blocked attempts.
func (m *Metrics) RecordViolation(v domain.Violation, enforced bool) {
	m.violations.WithLabelValues(string(v), strconv.FormatBool(enforced)).Inc()
	if enforced {
		m.blocked.Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if enforced {
		m.totals.blocked++
		m.enforced[v]++
	} else {
		m.tolerated[v]++
	}
}

func (m *Metrics) RecordStage(state domain.State, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.timings[state]
	if !ok {
		r = &ring{}
		m.timings[state] = r
	}
	r.add(elapsed)
}

// ReportStoreUnavailable counts a nonce store outage that was absorbed by the local fallback.
func (m *Metrics) ReportStoreUnavailable(error) {
	m.RecordViolation(domain.ErrUpstreamStoreUnavailable, false)
}

// Snapshot is the JSON metrics document.
type Snapshot struct {
	TotalRedirects      int64              `json:"total_redirects"`
	SuccessfulRedirects int64              `json:"successful_redirects"`
	BlockedAttempts     int64              `json:"blocked_attempts"`
	Violations          map[string]int64   `json:"violations"`
	ToleratedViolations map[string]int64   `json:"tolerated_violations"`
	// AverageProcessingMs covers the last window completed redirects, Stage 1 to final URL.
	AverageProcessingMs float64            `json:"average_processing_time_ms"`
	StageAverageMs      map[string]float64 `json:"stage_average_ms"`
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	byName := func(v domain.Violation, n int64) (string, int64) { return string(v), n }

	stageAvg := make(map[string]float64, len(m.timings))
	for state, r := range m.timings {
		stageAvg[string(state)] = averageMs(r.samples())
	}

	return Snapshot{
		TotalRedirects:      m.totals.redirects,
		SuccessfulRedirects: m.totals.successful,
		BlockedAttempts:     m.totals.blocked,
		Violations:          lo.MapEntries(m.enforced, byName),
		ToleratedViolations: lo.MapEntries(m.tolerated, byName),
		AverageProcessingMs: averageMs(m.completions.samples()),
		StageAverageMs:      stageAvg,
	}
}

func averageMs(samples []time.Duration) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := lo.Sum(samples)
	return float64(total) / float64(len(samples)) / float64(time.Millisecond)
}

// ring keeps the most recent window samples.
type ring struct {
	buf  [window]time.Duration
	next int
	full bool
}

func (r *ring) add(d time.Duration) {
	r.buf[r.next] = d
	r.next = (r.next + 1) % window
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) samples() []time.Duration {
	if r.full {
		return append([]time.Duration(nil), r.buf[:]...)
	}
	return append([]time.Duration(nil), r.buf[:r.next]...)
}
