package pipeline

import (
	"time"

	"github.com/spiffcs/ghreport/internal/history"
	"github.com/spiffcs/ghreport/internal/plan"
	"github.com/spiffcs/ghreport/internal/triage"
)

// ItemStatus is how a planned item's summary was resolved.
type ItemStatus string

const (
	StatusPending       ItemStatus = "pending"
	StatusSummarized    ItemStatus = "summarized"
	StatusCached        ItemStatus = "cached"
	StatusDegraded      ItemStatus = "degraded"
	StatusFailed        ItemStatus = "failed"
	StatusSkipped       ItemStatus = "skipped"
	StatusNotSummarized ItemStatus = "not_summarized"
)

// AnnotatedItem is a scored item with its summary, if any.
type AnnotatedItem struct {
	triage.ScoredItem
	Summary string     `json:"summary,omitempty"`
	Status  ItemStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
}

// Section is one tier of the digest.
type Section struct {
	Tier     triage.Tier     `json:"tier"`
	Model    string          `json:"model"`
	Items    []AnnotatedItem `json:"items"`
	Overflow []plan.Overflow `json:"overflow,omitempty"`
}

// SourceFailure records a repository whose activity could not be fetched.
type SourceFailure struct {
	Repo  string `json:"repo"`
	Error string `json:"error"`
}

// RunSummary counts what a run did and what it could not do.
type RunSummary struct {
	Repos           int             `json:"repos"`
	Tracked         int             `json:"tracked"`
	Fetched         int             `json:"fetched"`
	Items           int             `json:"items"`
	Summarized      int             `json:"summarized"`
	CacheHits       int             `json:"cacheHits"`
	Degraded        int             `json:"degraded"`
	Skipped         int             `json:"skipped"`
	Truncated       bool            `json:"truncated"`
	Overflow        int             `json:"overflow"`
	SourceFailures  []SourceFailure `json:"sourceFailures,omitempty"`
	SkippedRepos    []string        `json:"skippedRepos,omitempty"`
	Added           []string        `json:"added,omitempty"`
	Removed         []string        `json:"removed,omitempty"`
	DiscoveryError  string          `json:"discoveryError,omitempty"`
	EstimatedTokens int             `json:"estimatedTokens,omitempty"`
	Cancelled       bool            `json:"cancelled"`
	Duration        time.Duration   `json:"durationNs"`
}

// Partial reports whether anything was left undone.
func (s *RunSummary) Partial() bool {
	return s.Cancelled || s.Degraded > 0 || s.Skipped > 0 || s.Truncated ||
		len(s.SourceFailures) > 0 || len(s.SkippedRepos) > 0 || s.DiscoveryError != ""
}

func (s *RunSummary) collect(sections []Section) {
	for _, sec := range sections {
		s.Items += len(sec.Items)
		for _, ai := range sec.Items {
			switch ai.Status {
			case StatusSummarized:
				s.Summarized++
			case StatusCached:
				s.CacheHits++
			case StatusDegraded, StatusFailed:
				s.Degraded++
			case StatusSkipped:
				s.Skipped++
			}
		}
	}
}

// Digest is the result of a run, ready to render.
type Digest struct {
	RunID       string     `json:"runId"`
	User        string     `json:"user"`
	Since       time.Time  `json:"since"`
	GeneratedAt time.Time  `json:"generatedAt"`
	DryRun      bool       `json:"dryRun,omitempty"`
	Sections    []Section  `json:"sections"`
	Summary     RunSummary `json:"summary"`
}

// Section returns the digest section for tier, or nil.
func (d *Digest) Section(tier triage.Tier) *Section {
	for i := range d.Sections {
		if d.Sections[i].Tier == tier {
			return &d.Sections[i]
		}
	}
	return nil
}

// Record converts the digest into a run history entry.
func (d *Digest) Record(runErr error) history.RunRecord {
	s := d.Summary
	rec := history.RunRecord{
		Timestamp:  d.GeneratedAt,
		RunID:      d.RunID,
		Duration:   s.Duration,
		Repos:      s.Repos,
		Fetched:    s.Fetched,
		Summarized: s.Summarized,
		CacheHits:  s.CacheHits,
		Degraded:   s.Degraded,
		Skipped:    s.Skipped,
		Overflow:   s.Overflow,
		Failures:   len(s.SourceFailures),
		Added:      s.Added,
		Removed:    s.Removed,
		Cancelled:  s.Cancelled,
	}
	for _, sec := range d.Sections {
		switch sec.Tier {
		case triage.TierCritical:
			rec.Critical = len(sec.Items)
		case triage.TierHigh:
			rec.High = len(sec.Items)
		case triage.TierMedium:
			rec.Medium = len(sec.Items)
		case triage.TierLow:
			rec.Low = len(sec.Items)
		}
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	return rec
}
