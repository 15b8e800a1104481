// Package metrics records run counters in a private Prometheus registry and
// exports them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Item outcomes recorded by ItemOutcome.
const (
	OutcomeSummarized = "summarized"
	OutcomeCached     = "cached"
	OutcomeDegraded   = "degraded"
	OutcomeSkipped    = "skipped"
)

// Metrics holds the collectors for a single run. A nil *Metrics is valid
// and records nothing.
//
// Metrics:
//   - ghreport_items_fetched_total - items returned by the activity source
//   - ghreport_items_total{tier,outcome} - planned items by final outcome
//   - ghreport_cache_lookups_total{kind,result} - cache hits and misses
//   - ghreport_summarizer_calls_total{model,result} - summarizer calls
//   - ghreport_summarizer_call_duration_seconds{model} - call latency
//   - ghreport_summarizer_tokens_total{direction} - tokens consumed
//   - ghreport_source_failures_total - repositories that failed to fetch
//   - ghreport_overflow_items_total{tier,section} - items dropped by caps
//   - ghreport_tracked_repos - repositories tracked after the run
//   - ghreport_run_duration_seconds - wall time of the run
//   - ghreport_last_run_timestamp_seconds - when the run finished
type Metrics struct {
	registry *prometheus.Registry

	itemsFetched   prometheus.Counter
	items          *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	calls          *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	tokens         *prometheus.CounterVec
	sourceFailures prometheus.Counter
	overflow       *prometheus.CounterVec
	trackedRepos   prometheus.Gauge
	runDuration    prometheus.Gauge
	lastRun        prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		itemsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghreport_items_fetched_total",
			Help: "Total number of activity items returned by the source",
		}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghreport_items_total",
			Help: "Planned items by tier and outcome",
		}, []string{"tier", "outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghreport_cache_lookups_total",
			Help: "Cache lookups by entry kind and result",
		}, []string{"kind", "result"}),
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghreport_summarizer_calls_total",
			Help: "Summarizer calls by model and result",
		}, []string{"model", "result"}),
		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ghreport_summarizer_call_duration_seconds",
			Help:    "Duration of summarizer calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}, []string{"model"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghreport_summarizer_tokens_total",
			Help: "Tokens consumed by summarizer calls",
		}, []string{"direction"}),
		sourceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghreport_source_failures_total",
			Help: "Repositories whose activity could not be fetched",
		}),
		overflow: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghreport_overflow_items_total",
			Help: "Items dropped by per-tier caps",
		}, []string{"tier", "section"}),
		trackedRepos: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ghreport_tracked_repos",
			Help: "Repositories tracked after the run",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ghreport_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ghreport_last_run_timestamp_seconds",
			Help: "Unix time at which the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ItemsFetched adds n fetched items.
func (m *Metrics) ItemsFetched(n int) {
	if m == nil {
		return
	}
	m.itemsFetched.Add(float64(n))
}

// ItemOutcome records the final outcome of a planned item.
func (m *Metrics) ItemOutcome(tier, outcome string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(tier, outcome).Inc()
}

// CacheLookup records a cache hit or miss for an entry kind.
func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

// SummarizerCall records one summarizer call and its latency.
func (m *Metrics) SummarizerCall(model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.calls.WithLabelValues(model, result).Inc()
	m.callDuration.WithLabelValues(model).Observe(d.Seconds())
}

// Tokens adds consumed input and output tokens.
func (m *Metrics) Tokens(input, output int64) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues("input").Add(float64(input))
	m.tokens.WithLabelValues("output").Add(float64(output))
}

// SourceFailure records a repository whose fetch failed.
func (m *Metrics) SourceFailure() {
	if m == nil {
		return
	}
	m.sourceFailures.Inc()
}

// Overflow records n items dropped from a tier section.
func (m *Metrics) Overflow(tier, section string, n int) {
	if m == nil {
		return
	}
	m.overflow.WithLabelValues(tier, section).Add(float64(n))
}

// TrackedRepos sets the tracked repository count.
func (m *Metrics) TrackedRepos(n int) {
	if m == nil {
		return
	}
	m.trackedRepos.Set(float64(n))
}

// RunFinished records the run's duration and completion time.
func (m *Metrics) RunFinished(start, end time.Time) {
	if m == nil {
		return
	}
	m.runDuration.Set(end.Sub(start).Seconds())
	m.lastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
