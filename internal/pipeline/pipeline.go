// Package pipeline drives a report run: fetch activity for the tracked
// repositories, normalize and score it, update the tracked set, plan tiered
// batches, and summarize each planned item through the cache.
//
// Every summarizer result is committed to the cache as soon as it arrives,
// so a cancelled run leaves the next one strictly less work to do.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/cache"
	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/metrics"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/plan"
	"github.com/spiffcs/ghreport/internal/state"
	"github.com/spiffcs/ghreport/internal/tracker"
	"github.com/spiffcs/ghreport/internal/triage"
	"github.com/spiffcs/ghreport/internal/watch"
)

// Stage identifies a step of the run for progress reporting.
type Stage int

const (
	StageFetch Stage = iota
	StageScore
	StageTrack
	StageSummarize
)

// ProgressFunc is called as work completes within a stage.
type ProgressFunc func(stage Stage, completed, total int)

// Deps are the collaborators of an Orchestrator. Source is required.
// Summarizer, Cache, Tracker and Metrics may be nil.
type Deps struct {
	Source     ActivitySource
	Summarizer Summarizer
	Cache      cache.Cacher
	Tracker    *tracker.Tracker
	Matcher    *watch.Matcher
	Metrics    *metrics.Metrics
}

// Settings tune a run.
type Settings struct {
	User                 string
	Weights              config.ScoreWeights
	PrimaryModel         string
	SecondaryModel       string
	MaxItems             int
	MaxComments          int
	FetchConcurrency     int
	SummarizeConcurrency int
	MaxAttempts          int
	SummaryTTL           time.Duration
	MaxLookback          time.Duration
}

// RunOptions select what a single run does.
type RunOptions struct {
	// Since overrides the fetch lower bound derived from the state.
	Since time.Time

	// SkipSummaries plans items without summarizing them.
	SkipSummaries bool

	// DryRun fetches and plans, estimates summarizer input, and leaves the
	// tracked set and last-run time untouched.
	DryRun bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used to stamp the run.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithBackOff sets the retry policy factory. A new policy is created for
// every retried call.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(o *Orchestrator) { o.newBackOff = fn }
}

// Orchestrator runs the report pipeline.
type Orchestrator struct {
	deps       Deps
	settings   Settings
	now        func() time.Time
	progress   ProgressFunc
	newBackOff func() backoff.BackOff
}

// New creates an Orchestrator. Zero settings fall back to defaults.
func New(deps Deps, settings Settings, opts ...Option) *Orchestrator {
	if deps.Matcher == nil {
		deps.Matcher = watch.NewMatcher(watch.DefaultRules())
	}
	if settings.PrimaryModel == "" {
		settings.PrimaryModel = constants.DefaultPrimaryModel
	}
	if settings.SecondaryModel == "" {
		settings.SecondaryModel = constants.DefaultSecondaryModel
	}
	if settings.FetchConcurrency <= 0 {
		settings.FetchConcurrency = constants.DefaultFetchConcurrency
	}
	if settings.SummarizeConcurrency <= 0 {
		settings.SummarizeConcurrency = constants.DefaultSummarizeConcurrency
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = constants.DefaultMaxAttempts
	}
	if settings.MaxLookback <= 0 {
		settings.MaxLookback = constants.DefaultMaxLookbackDays * 24 * time.Hour
	}
	if settings.Weights == (config.ScoreWeights{}) {
		settings.Weights = config.DefaultScoreWeights()
	}

	o := &Orchestrator{
		deps:       deps,
		settings:   settings,
		now:        time.Now,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = constants.RetryInitialInterval
	b.MaxInterval = constants.RetryMaxInterval
	return b
}

func (o *Orchestrator) report(stage Stage, completed, total int) {
	if o.progress != nil {
		o.progress(stage, completed, total)
	}
}

// Run executes one report run against st. It always returns a digest, which
// is partial when the run was cancelled or aborted. The error is non-nil
// only for a fatal external failure. The caller owns saving st.
func (o *Orchestrator) Run(ctx context.Context, st *state.State, opts RunOptions) (*Digest, error) {
	rs := newRunState(uuid.NewString(), o.now())
	logger := log.With("run", rs.id)

	since := opts.Since
	if since.IsZero() {
		since = st.Since(rs.now, o.settings.MaxLookback)
	}

	digest := &Digest{
		RunID:       rs.id,
		User:        o.settings.User,
		Since:       since,
		GeneratedAt: rs.now,
		DryRun:      opts.DryRun,
	}
	summary := &digest.Summary
	finish := func() {
		summary.Cancelled = ctx.Err() != nil
		summary.Duration = o.now().Sub(rs.now)
		summary.Tracked = st.Len()
		o.deps.Metrics.TrackedRepos(summary.Tracked)
		o.deps.Metrics.RunFinished(rs.now, rs.now.Add(summary.Duration))
	}

	profiles := st.Profiles()
	repos := make([]string, 0, len(profiles))
	byKey := make(map[string]*model.RepoProfile, len(profiles))
	for i := range profiles {
		repos = append(repos, profiles[i].Name)
		byKey[strings.ToLower(profiles[i].Name)] = &profiles[i]
	}
	summary.Repos = len(repos)
	logger.Info("starting run", "repos", len(repos), "since", since.Format(time.RFC3339), "dry_run", opts.DryRun)

	fetched, err := o.fetch(ctx, repos, since, rs)
	summary.Fetched = len(fetched.items)
	summary.SourceFailures = fetched.failures
	summary.SkippedRepos = fetched.skipped
	o.deps.Metrics.ItemsFetched(len(fetched.items))
	if err != nil {
		finish()
		return digest, fmt.Errorf("fetch activity: %w", err)
	}

	items := normalize(fetched.items, byKey, since, o.settings.User)
	if !opts.DryRun {
		for _, item := range items {
			st.Touch(item.Repo, item.UpdatedAt)
		}
	}

	scorerProfiles := make(map[string]*model.RepoProfile, len(byKey))
	for _, p := range byKey {
		scorerProfiles[p.Name] = p
	}
	o.report(StageScore, 0, len(items))
	for i := range items {
		p := scorerProfiles[items[i].Repo]
		items[i].MatchedRules = o.deps.Matcher.Match(&items[i], o.deps.Matcher.ActiveRules(p), o.settings.User)
	}
	scored := triage.NewScorer(o.settings.User, o.settings.Weights, rs.now).Prioritize(items, scorerProfiles)
	o.report(StageScore, len(items), len(items))
	logger.Debug("scored items", "items", len(scored))

	if o.deps.Tracker != nil && !opts.DryRun && ctx.Err() == nil {
		o.report(StageTrack, 0, 1)
		res := o.deps.Tracker.Update(ctx, st, rs.now)
		summary.Added = res.Added
		summary.Removed = res.Removed
		if res.DiscoveryErr != nil {
			summary.DiscoveryError = res.DiscoveryErr.Error()
		}
		o.report(StageTrack, 1, 1)
	}

	p := plan.NewPlanner(plan.Options{
		MaxItems:       o.settings.MaxItems,
		MaxComments:    o.settings.MaxComments,
		PrimaryModel:   o.settings.PrimaryModel,
		SecondaryModel: o.settings.SecondaryModel,
		Concurrency:    o.settings.SummarizeConcurrency,
	}).Plan(scored)
	summary.Truncated = p.Truncated()
	for _, ov := range p.Overflow() {
		summary.Overflow += ov.Count
		o.deps.Metrics.Overflow(string(ov.Tier), string(ov.Section), ov.Count)
	}

	summarizeItems := !opts.SkipSummaries && !opts.DryRun && o.deps.Summarizer != nil
	digest.Sections, err = o.execute(ctx, p, scorerProfiles, rs, summarizeItems)
	summary.collect(digest.Sections)
	if opts.DryRun {
		summary.EstimatedTokens = o.estimate(digest.Sections, scorerProfiles)
	}

	if err == nil && ctx.Err() == nil && !opts.DryRun {
		st.SetLastRun(rs.watermark())
	}
	finish()

	logger.Info("run complete",
		"items", summary.Items,
		"summarized", summary.Summarized,
		"cache_hits", summary.CacheHits,
		"degraded", summary.Degraded,
		"skipped", summary.Skipped,
		"cancelled", summary.Cancelled)

	return digest, err
}
