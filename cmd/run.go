package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/cache"
	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/duration"
	"github.com/spiffcs/ghreport/internal/ghclient"
	"github.com/spiffcs/ghreport/internal/history"
	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/metrics"
	"github.com/spiffcs/ghreport/internal/output"
	"github.com/spiffcs/ghreport/internal/pipeline"
	"github.com/spiffcs/ghreport/internal/summarize"
	"github.com/spiffcs/ghreport/internal/tui"
	"github.com/spiffcs/ghreport/internal/watch"
)

// runRuntime bundles TUI-related state that's threaded through a run.
type runRuntime struct {
	useTUI  bool
	tasks   []tui.Task
	cancel  context.CancelFunc
	events  chan tui.Event
	tuiDone chan error
}

// startTUI initializes and starts the TUI goroutine if TUI mode is enabled.
func (rt *runRuntime) startTUI() {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		rt.tuiDone <- tui.Run(rt.events, tui.WithTasks(rt.tasks), tui.WithCancel(rt.cancel))
	}()
}

// close closes the event channel and waits for the TUI to finish.
func (rt *runRuntime) close() {
	if rt.events == nil {
		return
	}
	close(rt.events)
	rt.events = nil
	if err := <-rt.tuiDone; err != nil {
		log.Debug("tui exited with error", "error", err)
	}
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *runRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if rt.events == nil {
		return
	}
	tui.SendTaskEvent(rt.events, task, status, opts...)
}

// progress returns the pipeline progress callback for this runtime. In TUI
// mode each report also checks the GitHub rate limit so the display can
// show when requests are paused.
func (rt *runRuntime) progress(limits *ghclient.RateLimitState) pipeline.ProgressFunc {
	if !rt.useTUI {
		return logProgress()
	}

	next := tui.Progress(rt.events)
	events := rt.events
	var (
		mu      sync.Mutex
		limited bool
	)
	return func(stage pipeline.Stage, completed, total int) {
		_, _, resetAt, now := limits.Status()
		mu.Lock()
		changed := now != limited
		limited = now
		mu.Unlock()
		if changed {
			tui.SendEvent(events, tui.RateLimitEvent{Limited: now, ResetAt: resetAt})
		}
		next(stage, completed, total)
	}
}

// NewCmdRun creates the run command.
func NewCmdRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a report (same as root ghreport)",
		Long: `Fetches activity since the last run from every tracked repository,
scores and tiers it, summarizes the top items and prints the report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

// addRunFlags adds the run-specific flags to a command.
func addRunFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().StringVarP(&opts.Since, "since", "s", "", "Fetch activity since (e.g., 1d, 1w, 30d); default is the last run")
	cmd.Flags().BoolVar(&opts.NoSummarize, "no-summarize", false, "Score and plan without calling the summarizer")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Ignore the on-disk cache for this run")
	cmd.Flags().BoolVar(&opts.ClearCache, "clear-cache", false, "Clear the cache before running")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would be fetched and summarized, with a token estimate, without saving state")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

func runReport(cmd *cobra.Command, opts *Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, cleanup, err := setupRuntime(cmd, opts)
	if err != nil {
		return err
	}
	defer cleanup()
	rt.cancel = cancel

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	format, err := resolveFormat(opts, cfg)
	if err != nil {
		return err
	}
	var since time.Time
	if opts.Since != "" {
		if since, err = duration.Parse(opts.Since); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	st, statePath, err := loadState(cfg)
	if err != nil {
		return err
	}
	if demoted := st.SyncConfigured(cfg.ConfiguredRepos(), time.Now()); len(demoted) > 0 {
		log.Info("repositories removed from config are now auto-tracked", "repos", demoted)
	}

	rt.startTUI()
	defer rt.close()

	gh, user, err := authenticate(ctx, cfg, rt)
	if err != nil {
		return err
	}

	m := metrics.New()
	deps := pipeline.Deps{
		Source:  gh,
		Tracker: newTracker(cfg, gh, user),
		Matcher: watch.NewMatcher(cfg.GetWatchRules()),
		Metrics: m,
	}
	if store := prepareCache(cfg, opts); store != nil {
		deps.Cache = store
	}
	if !opts.NoSummarize && !opts.DryRun {
		sum, err := newSummarizer(cfg)
		if err != nil {
			return err
		}
		deps.Summarizer = sum
	}

	orch := pipeline.New(deps, pipelineSettings(cfg, user), pipeline.WithProgress(rt.progress(gh.RateLimit())))
	digest, runErr := orch.Run(ctx, st, pipeline.RunOptions{
		Since:         since,
		SkipSummaries: opts.NoSummarize,
		DryRun:        opts.DryRun,
	})
	rt.close()
	if rt.useTUI {
		log.Initialize(opts.Verbosity, cmd.ErrOrStderr())
	} else {
		log.ProgressDone()
	}

	if !opts.DryRun {
		if err := st.Save(statePath); err != nil {
			log.Warn("could not save state", "path", statePath, "error", err)
		}
		recordHistory(digest, runErr)
	}
	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			log.Warn("could not write metrics", "path", opts.MetricsFile, "error", err)
		}
	}
	warnLowRateLimit(gh)

	formatter := output.NewFormatter(format, output.Options{
		Hyperlinks: term.IsTerminal(int(os.Stdout.Fd())),
		Verbose:    opts.Verbosity > 0,
	})
	if err := formatter.Format(digest, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return runErr
}

// setupRuntime starts profiling, picks the progress display and initializes
// logging. The returned cleanup stops profiling.
func setupRuntime(cmd *cobra.Command, opts *Options) (*runRuntime, func(), error) {
	profiler := NewProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := profiler.Start(); err != nil {
		return nil, nil, err
	}

	useTUI := shouldUseTUI(opts)

	// Suppress logs during TUI to avoid interleaving with display
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, cmd.ErrOrStderr())
	}

	rt := &runRuntime{useTUI: useTUI, tasks: tui.DefaultTasks()}
	if opts.DryRun {
		rt.tasks = tui.DryRunTasks()
	}
	return rt, profiler.Stop, nil
}

func resolveFormat(opts *Options, cfg *config.Config) (output.Format, error) {
	f := opts.Format
	if f == "" {
		f = cfg.DefaultFormat
	}
	for _, v := range config.ValidFormats {
		if v == f {
			return output.Format(f), nil
		}
	}
	return "", fmt.Errorf("invalid output format %q (use table, json, or markdown)", f)
}

// authenticate creates the GitHub client and resolves the reporting user.
func authenticate(ctx context.Context, cfg *config.Config, rt *runRuntime) (*ghclient.Client, string, error) {
	rt.sendEvent(tui.TaskAuth, tui.StatusRunning)
	gh, err := newGitHubClient(cfg)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return nil, "", err
	}
	user, err := resolveUser(ctx, cfg, gh)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return nil, "", err
	}
	rt.sendEvent(tui.TaskAuth, tui.StatusComplete, tui.WithMessage(user))
	log.Info("authenticated", "user", user)
	return gh, user, nil
}

// prepareCache opens, clears and sweeps the cache as the options ask. It
// returns nil when the cache is disabled or unusable.
func prepareCache(cfg *config.Config, opts *Options) *cache.Store {
	cs := cfg.GetCache()
	if !opts.ClearCache && (!cs.Enabled || opts.NoCache) {
		return nil
	}

	store, err := openCache(cfg)
	if err != nil {
		log.Warn("failed to initialize cache, continuing without it", "error", err)
		return nil
	}
	if opts.ClearCache {
		if err := store.Clear(); err != nil {
			log.Warn("failed to clear cache", "error", err)
		}
	}
	if !cs.Enabled || opts.NoCache {
		return nil
	}
	if n, err := store.Sweep(cs.Retention); err != nil {
		log.Warn("cache sweep failed", "error", err)
	} else if n > 0 {
		log.Debug("swept stale cache entries", "count", n)
	}
	return store
}

func newSummarizer(cfg *config.Config) (*summarize.Client, error) {
	ss := cfg.GetSummarizer()
	client, err := summarize.NewClient(cfg.GetAnthropicAPIKey(),
		summarize.WithRateLimit(ss.RequestsPerSecond, ss.Burst),
		summarize.WithMaxTokens(int64(ss.MaxTokens)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w. Set ANTHROPIC_API_KEY or pass --no-summarize", err)
	}
	return client, nil
}

func pipelineSettings(cfg *config.Config, user string) pipeline.Settings {
	ss := cfg.GetSummarizer()
	rs := cfg.GetSettings()
	return pipeline.Settings{
		User:                 user,
		Weights:              cfg.GetScoreWeights(),
		PrimaryModel:         ss.PrimaryModel,
		SecondaryModel:       ss.SecondaryModel,
		MaxItems:             rs.MaxItems,
		MaxComments:          rs.MaxComments,
		FetchConcurrency:     cfg.GetFetchConcurrency(),
		SummarizeConcurrency: cfg.GetSummarizeConcurrency(),
		MaxAttempts:          ss.MaxAttempts,
		SummaryTTL:           cfg.GetCache().SummaryTTL,
		MaxLookback:          time.Duration(rs.MaxLookbackDays) * 24 * time.Hour,
	}
}

func recordHistory(digest *pipeline.Digest, runErr error) {
	store, err := history.NewStore()
	if err != nil {
		log.Debug("run history unavailable", "error", err)
		return
	}
	if err := store.Append(digest.Record(runErr)); err != nil {
		log.Warn("could not record run history", "error", err)
	}
}

func warnLowRateLimit(gh *ghclient.Client) {
	remaining, limit, resetAt, limited := gh.RateLimit().Status()
	switch {
	case limited:
		log.Warn("GitHub rate limit exhausted", "resetsIn", time.Until(resetAt).Round(time.Second))
	case limit > 0 && remaining < constants.RateLimitLowWatermark:
		log.Warn("GitHub rate limit running low", "remaining", remaining, "limit", limit)
	}
}
