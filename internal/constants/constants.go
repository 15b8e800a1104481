// Package constants provides a centralized location for the default values
// and magic numbers used throughout ghreport.
package constants

import "time"

// TUI update and display constants
const (
	// TUIUpdateInterval is the minimum time between TUI progress updates
	// to provide smooth progress display without excessive overhead.
	TUIUpdateInterval = 50 * time.Millisecond

	// LogThrottlePercent is the interval (in percent) at which progress
	// logs are emitted when not using the TUI.
	LogThrottlePercent = 5

	// TruncationSuffixWidth is the width of the "..." suffix when truncating strings.
	TruncationSuffixWidth = 3
)

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100

	// DefaultSummarizerRPS is the sustained summarizer request rate.
	DefaultSummarizerRPS = 2.0

	// DefaultSummarizerBurst is the summarizer limiter burst size.
	DefaultSummarizerBurst = 4
)

// Summarizer defaults
const (
	// DefaultPrimaryModel serves the Critical and High tiers.
	DefaultPrimaryModel = "claude-sonnet-4-5"

	// DefaultSecondaryModel serves the Medium and Low tiers.
	DefaultSecondaryModel = "claude-haiku-4-5"

	// DefaultSummaryMaxTokens bounds the length of a single summary.
	DefaultSummaryMaxTokens = 512
)

// Cache constants
const (
	// SummaryCacheTTL is the default lifetime of a summarizer cache entry.
	SummaryCacheTTL = 24 * time.Hour

	// CacheRetention is the horizon past which entries are swept
	// regardless of their TTL.
	CacheRetention = 7 * 24 * time.Hour
)

// Concurrency defaults. Fetch and summarize draw on separate rate budgets.
const (
	DefaultFetchConcurrency     = 16
	MinFetchConcurrency         = 1
	MaxFetchConcurrency         = 64
	DefaultSummarizeConcurrency = 4
	MinSummarizeConcurrency     = 1
	MaxSummarizeConcurrency     = 16
)

// Retry constants for summarizer calls
const (
	// DefaultMaxAttempts bounds the number of summarizer calls per item,
	// including the first.
	DefaultMaxAttempts = 4

	// RetryInitialInterval is the first backoff delay.
	RetryInitialInterval = 500 * time.Millisecond

	// RetryMaxInterval caps a single backoff delay.
	RetryMaxInterval = 10 * time.Second
)

// Repository tracking defaults
const (
	// TrackerAddWindow is the trailing window over which a candidate's
	// activity must reach the minimum score to be auto-tracked.
	TrackerAddWindow = 7 * 24 * time.Hour

	// TrackerRemoveAfter is how long an auto-tracked repository may stay
	// silent before it is dropped.
	TrackerRemoveAfter = 30 * 24 * time.Hour

	// DefaultMinActivityScore is the weighted activity needed for auto-add.
	DefaultMinActivityScore = 5
)

// Report caps
const (
	// DefaultMaxItems caps issues and pull requests per tier section.
	DefaultMaxItems = 100

	// DefaultMaxComments caps comments per tier section.
	DefaultMaxComments = 500

	// DefaultMaxLookbackDays bounds how far back a first run fetches.
	DefaultMaxLookbackDays = 30

	// MaxContentBytes bounds the item text sent to the summarizer.
	MaxContentBytes = 12 * 1024
)

// Item state constants
const (
	// StateOpen indicates an issue or PR is open.
	StateOpen = "open"

	// StateClosed indicates an issue or PR is closed.
	StateClosed = "closed"

	// StateMerged indicates a PR has been merged.
	StateMerged = "merged"
)
