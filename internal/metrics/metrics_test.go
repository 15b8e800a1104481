package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	m := New()

	m.ItemsFetched(12)
	m.ItemOutcome("critical", OutcomeSummarized)
	m.ItemOutcome("critical", OutcomeSummarized)
	m.ItemOutcome("low", OutcomeDegraded)
	m.CacheLookup("summary", true)
	m.CacheLookup("summary", false)
	m.SummarizerCall("claude-haiku-4-5", 300*time.Millisecond, nil)
	m.SummarizerCall("claude-haiku-4-5", time.Second, errors.New("boom"))
	m.Tokens(100, 20)
	m.SourceFailure()
	m.Overflow("medium", "items", 50)
	m.TrackedRepos(7)
	start := time.Unix(1_699_999_910, 0)
	m.RunFinished(start, start.Add(90*time.Second))

	path := filepath.Join(t.TempDir(), "ghreport.prom")
	require.NoError(t, m.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	for _, want := range []string{
		"ghreport_items_fetched_total 12",
		`ghreport_items_total{outcome="summarized",tier="critical"} 2`,
		`ghreport_items_total{outcome="degraded",tier="low"} 1`,
		`ghreport_cache_lookups_total{kind="summary",result="hit"} 1`,
		`ghreport_cache_lookups_total{kind="summary",result="miss"} 1`,
		`ghreport_summarizer_calls_total{model="claude-haiku-4-5",result="error"} 1`,
		`ghreport_summarizer_call_duration_seconds_count{model="claude-haiku-4-5"} 2`,
		`ghreport_summarizer_tokens_total{direction="input"} 100`,
		"ghreport_source_failures_total 1",
		`ghreport_overflow_items_total{section="items",tier="medium"} 50`,
		"ghreport_tracked_repos 7",
		"ghreport_run_duration_seconds 90",
		"ghreport_last_run_timestamp_seconds 1.7e+09",
	} {
		assert.Contains(t, out, want)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ItemsFetched(1)
		m.ItemOutcome("high", OutcomeCached)
		m.CacheLookup("source", true)
		m.SummarizerCall("m", time.Second, nil)
		m.Tokens(1, 1)
		m.SourceFailure()
		m.Overflow("low", "comments", 1)
		m.TrackedRepos(1)
		m.RunFinished(time.Now(), time.Now())
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	}, "separate registries must not collide")
}
