package cmd

// Options holds the shared command-line options for the ghreport CLI.
type Options struct {
	ConfigPath string
	Format     string
	Since      string
	Verbosity  int
	TUI        *bool // nil = auto-detect, true = force TUI, false = disable TUI

	NoSummarize bool // Plan and render without calling the summarizer
	NoCache     bool // Bypass the on-disk cache for this run
	ClearCache  bool // Clear the cache before running
	DryRun      bool // Fetch and plan only, leaving state untouched
	MetricsFile string

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithConfigPath loads configuration from a single explicit file.
func WithConfigPath(path string) Option {
	return func(o *Options) {
		o.ConfigPath = path
	}
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithSince overrides the fetch window (e.g., "1w", "30d", "6mo").
func WithSince(since string) Option {
	return func(o *Options) {
		o.Since = since
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithDryRun fetches and plans without summarizing or saving state.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithNoSummarize skips the summarizer.
func WithNoSummarize(skip bool) Option {
	return func(o *Options) {
		o.NoSummarize = skip
	}
}

// WithNoCache bypasses the on-disk cache.
func WithNoCache(noCache bool) Option {
	return func(o *Options) {
		o.NoCache = noCache
	}
}

// WithMetricsFile writes Prometheus metrics to path after the run.
func WithMetricsFile(path string) Option {
	return func(o *Options) {
		o.MetricsFile = path
	}
}
