package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/duration"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/watch"
)

// Config represents the application configuration
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty" toml:"default_format,omitempty"`

	// Username overrides the login used for mention and involvement
	// detection. Empty means the token's authenticated user.
	Username  string `yaml:"username,omitempty" toml:"username,omitempty"`
	StateFile string `yaml:"state_file,omitempty" toml:"state_file,omitempty"`

	Labels     []LabelConfig       `yaml:"labels,omitempty" toml:"labels,omitempty"`
	Repos      []RepoConfig        `yaml:"repos,omitempty" toml:"repos,omitempty"`
	WatchRules map[string][]string `yaml:"watch_rules,omitempty" toml:"watch_rules,omitempty"`

	// Top-level config sections
	DynamicRepos *DynamicReposConfig `yaml:"dynamic_repos,omitempty" toml:"dynamic_repos,omitempty"`
	Summarizer   *SummarizerConfig   `yaml:"summarizer,omitempty" toml:"summarizer,omitempty"`
	Cache        *CacheConfig        `yaml:"cache,omitempty" toml:"cache,omitempty"`
	Concurrency  *ConcurrencyConfig  `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	Settings     *SettingsConfig     `yaml:"settings,omitempty" toml:"settings,omitempty"`
	Scoring      *ScoringOverrides   `yaml:"scoring,omitempty" toml:"scoring,omitempty"`

	// Secrets are only ever read from the environment.
	githubToken     string
	anthropicAPIKey string
}

// LabelConfig groups repositories that share importance, context and
// watch rules.
type LabelConfig struct {
	Name        string   `yaml:"name" toml:"name"`
	Description string   `yaml:"description,omitempty" toml:"description,omitempty"`
	Importance  string   `yaml:"importance,omitempty" toml:"importance,omitempty"`
	Context     string   `yaml:"context,omitempty" toml:"context,omitempty"`
	WatchRules  []string `yaml:"watch_rules,omitempty" toml:"watch_rules,omitempty"`
}

// RepoConfig is an explicitly tracked repository.
type RepoConfig struct {
	Name               string   `yaml:"name" toml:"name"`
	Labels             []string `yaml:"labels,omitempty" toml:"labels,omitempty"`
	ImportanceOverride string   `yaml:"importance_override,omitempty" toml:"importance_override,omitempty"`
	WatchRules         []string `yaml:"watch_rules,omitempty" toml:"watch_rules,omitempty"`
	CustomContext      string   `yaml:"custom_context,omitempty" toml:"custom_context,omitempty"`
}

// DynamicReposConfig controls automatic tracking of active repositories.
type DynamicReposConfig struct {
	Enabled                 *bool            `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	AutoAddThresholdDays    int              `yaml:"auto_add_threshold_days,omitempty" toml:"auto_add_threshold_days,omitempty"`
	AutoRemoveThresholdDays int              `yaml:"auto_remove_threshold_days,omitempty" toml:"auto_remove_threshold_days,omitempty"`
	MinActivityScore        int              `yaml:"min_activity_score,omitempty" toml:"min_activity_score,omitempty"`
	ActivityWeights         *ActivityWeights `yaml:"activity_weights,omitempty" toml:"activity_weights,omitempty"`
}

// ActivityWeights weights the kinds of activity counted toward auto-tracking.
type ActivityWeights struct {
	Commits  int `yaml:"commits" toml:"commits"`
	PRs      int `yaml:"prs" toml:"prs"`
	Issues   int `yaml:"issues" toml:"issues"`
	Comments int `yaml:"comments" toml:"comments"`
}

// DefaultActivityWeights returns commits×4, prs×3, issues×2, comments×1.
func DefaultActivityWeights() ActivityWeights {
	return ActivityWeights{Commits: 4, PRs: 3, Issues: 2, Comments: 1}
}

// SummarizerConfig selects models and pacing for the AI summarizer.
type SummarizerConfig struct {
	PrimaryModel      string  `yaml:"primary_model,omitempty" toml:"primary_model,omitempty"`
	SecondaryModel    string  `yaml:"secondary_model,omitempty" toml:"secondary_model,omitempty"`
	MaxAttempts       int     `yaml:"max_attempts,omitempty" toml:"max_attempts,omitempty"`
	MaxTokens         int     `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" toml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty" toml:"burst,omitempty"`
}

// CacheConfig controls the on-disk response cache.
type CacheConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Dir        string `yaml:"dir,omitempty" toml:"dir,omitempty"`
	SummaryTTL string `yaml:"summary_ttl,omitempty" toml:"summary_ttl,omitempty"`
	Retention  string `yaml:"retention,omitempty" toml:"retention,omitempty"`
	Compress   *bool  `yaml:"compress,omitempty" toml:"compress,omitempty"`
}

// ConcurrencyConfig sizes the fetch and summarize worker pools.
type ConcurrencyConfig struct {
	Fetch     int `yaml:"fetch,omitempty" toml:"fetch,omitempty"`
	Summarize int `yaml:"summarize,omitempty" toml:"summarize,omitempty"`
}

// SettingsConfig holds report-wide limits.
type SettingsConfig struct {
	MaxItems        int `yaml:"max_items,omitempty" toml:"max_items,omitempty"`
	MaxComments     int `yaml:"max_comments,omitempty" toml:"max_comments,omitempty"`
	MaxLookbackDays int `yaml:"max_lookback_days,omitempty" toml:"max_lookback_days,omitempty"`
}

// TrackerSettings is the resolved dynamic tracking configuration.
type TrackerSettings struct {
	Enabled          bool
	AddWindow        time.Duration
	RemoveAfter      time.Duration
	MinActivityScore int
	Weights          ActivityWeights
}

// SummarizerSettings is the resolved summarizer configuration.
type SummarizerSettings struct {
	PrimaryModel      string
	SecondaryModel    string
	MaxAttempts       int
	MaxTokens         int
	RequestsPerSecond float64
	Burst             int
}

// CacheSettings is the resolved cache configuration.
type CacheSettings struct {
	Enabled    bool
	Dir        string
	SummaryTTL time.Duration
	Retention  time.Duration
	Compress   bool
}

// ReportSettings is the resolved report limits.
type ReportSettings struct {
	MaxItems        int
	MaxComments     int
	MaxLookbackDays int
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".ghreport"
	}
	return filepath.Join(configDir, "ghreport")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".ghreport.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .ghreport.yaml config on top (local values take precedence).
// Environment overrides are applied last and the result is validated.
func Load() (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		global, err := readFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load global config file: %w", err)
		}
		cfg = mergeConfig(cfg, global)
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		local, err := readFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load local config file: %w", err)
		}
		cfg = mergeConfig(cfg, local)
	}

	return finish(cfg)
}

// LoadFrom loads a single explicit config file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func LoadFrom(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return finish(mergeConfig(&Config{DefaultFormat: "table"}, cfg))
}

func finish(cfg *Config) (*Config, error) {
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{
		DefaultFormat:   firstNonEmpty(local.DefaultFormat, global.DefaultFormat),
		Username:        firstNonEmpty(local.Username, global.Username),
		StateFile:       firstNonEmpty(local.StateFile, global.StateFile),
		githubToken:     firstNonEmpty(local.githubToken, global.githubToken),
		anthropicAPIKey: firstNonEmpty(local.anthropicAPIKey, global.anthropicAPIKey),
	}

	// Arrays: local replaces if non-empty
	result.Labels = global.Labels
	if len(local.Labels) > 0 {
		result.Labels = local.Labels
	}
	result.Repos = global.Repos
	if len(local.Repos) > 0 {
		result.Repos = local.Repos
	}

	// Watch rules merge per rule name
	if len(global.WatchRules) > 0 || len(local.WatchRules) > 0 {
		result.WatchRules = make(map[string][]string, len(global.WatchRules)+len(local.WatchRules))
		maps.Copy(result.WatchRules, global.WatchRules)
		maps.Copy(result.WatchRules, local.WatchRules)
	}

	result.DynamicRepos = mergeDynamicRepos(global.DynamicRepos, local.DynamicRepos)
	result.Summarizer = mergeSummarizer(global.Summarizer, local.Summarizer)
	result.Cache = mergeCache(global.Cache, local.Cache)
	result.Concurrency = mergeConcurrency(global.Concurrency, local.Concurrency)
	result.Settings = mergeSettings(global.Settings, local.Settings)
	result.Scoring = mergeScoringOverrides(global.Scoring, local.Scoring)

	return result
}

func mergeDynamicRepos(global, local *DynamicReposConfig) *DynamicReposConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &DynamicReposConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.Enabled != nil {
			result.Enabled = local.Enabled
		}
		result.AutoAddThresholdDays = firstNonZero(local.AutoAddThresholdDays, result.AutoAddThresholdDays)
		result.AutoRemoveThresholdDays = firstNonZero(local.AutoRemoveThresholdDays, result.AutoRemoveThresholdDays)
		result.MinActivityScore = firstNonZero(local.MinActivityScore, result.MinActivityScore)
		if local.ActivityWeights != nil {
			result.ActivityWeights = local.ActivityWeights
		}
	}
	return result
}

func mergeSummarizer(global, local *SummarizerConfig) *SummarizerConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &SummarizerConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		result.PrimaryModel = firstNonEmpty(local.PrimaryModel, result.PrimaryModel)
		result.SecondaryModel = firstNonEmpty(local.SecondaryModel, result.SecondaryModel)
		result.MaxAttempts = firstNonZero(local.MaxAttempts, result.MaxAttempts)
		result.MaxTokens = firstNonZero(local.MaxTokens, result.MaxTokens)
		result.Burst = firstNonZero(local.Burst, result.Burst)
		if local.RequestsPerSecond != 0 {
			result.RequestsPerSecond = local.RequestsPerSecond
		}
	}
	return result
}

func mergeCache(global, local *CacheConfig) *CacheConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &CacheConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.Enabled != nil {
			result.Enabled = local.Enabled
		}
		if local.Compress != nil {
			result.Compress = local.Compress
		}
		result.Dir = firstNonEmpty(local.Dir, result.Dir)
		result.SummaryTTL = firstNonEmpty(local.SummaryTTL, result.SummaryTTL)
		result.Retention = firstNonEmpty(local.Retention, result.Retention)
	}
	return result
}

func mergeConcurrency(global, local *ConcurrencyConfig) *ConcurrencyConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &ConcurrencyConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		result.Fetch = firstNonZero(local.Fetch, result.Fetch)
		result.Summarize = firstNonZero(local.Summarize, result.Summarize)
	}
	return result
}

func mergeSettings(global, local *SettingsConfig) *SettingsConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &SettingsConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		result.MaxItems = firstNonZero(local.MaxItems, result.MaxItems)
		result.MaxComments = firstNonZero(local.MaxComments, result.MaxComments)
		result.MaxLookbackDays = firstNonZero(local.MaxLookbackDays, result.MaxLookbackDays)
	}
	return result
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// GetTracker returns the dynamic tracking settings with defaults applied.
func (c *Config) GetTracker() TrackerSettings {
	ts := TrackerSettings{
		Enabled:          true,
		AddWindow:        constants.TrackerAddWindow,
		RemoveAfter:      constants.TrackerRemoveAfter,
		MinActivityScore: constants.DefaultMinActivityScore,
		Weights:          DefaultActivityWeights(),
	}
	d := c.DynamicRepos
	if d == nil {
		return ts
	}
	if d.Enabled != nil {
		ts.Enabled = *d.Enabled
	}
	if d.AutoAddThresholdDays > 0 {
		ts.AddWindow = time.Duration(d.AutoAddThresholdDays) * 24 * time.Hour
	}
	if d.AutoRemoveThresholdDays > 0 {
		ts.RemoveAfter = time.Duration(d.AutoRemoveThresholdDays) * 24 * time.Hour
	}
	if d.MinActivityScore > 0 {
		ts.MinActivityScore = d.MinActivityScore
	}
	if d.ActivityWeights != nil {
		ts.Weights = *d.ActivityWeights
	}
	return ts
}

// GetSummarizer returns the summarizer settings with defaults applied.
func (c *Config) GetSummarizer() SummarizerSettings {
	ss := SummarizerSettings{
		PrimaryModel:      constants.DefaultPrimaryModel,
		SecondaryModel:    constants.DefaultSecondaryModel,
		MaxAttempts:       constants.DefaultMaxAttempts,
		MaxTokens:         constants.DefaultSummaryMaxTokens,
		RequestsPerSecond: constants.DefaultSummarizerRPS,
		Burst:             constants.DefaultSummarizerBurst,
	}
	s := c.Summarizer
	if s == nil {
		return ss
	}
	ss.PrimaryModel = firstNonEmpty(s.PrimaryModel, ss.PrimaryModel)
	ss.SecondaryModel = firstNonEmpty(s.SecondaryModel, ss.SecondaryModel)
	if s.MaxAttempts > 0 {
		ss.MaxAttempts = s.MaxAttempts
	}
	if s.MaxTokens > 0 {
		ss.MaxTokens = s.MaxTokens
	}
	if s.RequestsPerSecond > 0 {
		ss.RequestsPerSecond = s.RequestsPerSecond
	}
	if s.Burst > 0 {
		ss.Burst = s.Burst
	}
	return ss
}

// GetCache returns the cache settings with defaults applied. Durations
// that fail to parse fall back to their defaults; Validate reports them.
func (c *Config) GetCache() CacheSettings {
	cs := CacheSettings{
		Enabled:    true,
		SummaryTTL: constants.SummaryCacheTTL,
		Retention:  constants.CacheRetention,
		Compress:   true,
	}
	cc := c.Cache
	if cc == nil {
		return cs
	}
	if cc.Enabled != nil {
		cs.Enabled = *cc.Enabled
	}
	if cc.Compress != nil {
		cs.Compress = *cc.Compress
	}
	cs.Dir = cc.Dir
	if d, err := duration.ParseDuration(cc.SummaryTTL); err == nil && d > 0 {
		cs.SummaryTTL = d
	}
	if d, err := duration.ParseDuration(cc.Retention); err == nil && d > 0 {
		cs.Retention = d
	}
	return cs
}

// GetFetchConcurrency returns the fetch pool size.
func (c *Config) GetFetchConcurrency() int {
	if c.Concurrency != nil && c.Concurrency.Fetch > 0 {
		return c.Concurrency.Fetch
	}
	return constants.DefaultFetchConcurrency
}

// GetSummarizeConcurrency returns the summarize pool size.
func (c *Config) GetSummarizeConcurrency() int {
	if c.Concurrency != nil && c.Concurrency.Summarize > 0 {
		return c.Concurrency.Summarize
	}
	return constants.DefaultSummarizeConcurrency
}

// GetSettings returns the report limits with defaults applied.
func (c *Config) GetSettings() ReportSettings {
	rs := ReportSettings{
		MaxItems:        constants.DefaultMaxItems,
		MaxComments:     constants.DefaultMaxComments,
		MaxLookbackDays: constants.DefaultMaxLookbackDays,
	}
	s := c.Settings
	if s == nil {
		return rs
	}
	rs.MaxItems = firstNonZero(s.MaxItems, rs.MaxItems)
	rs.MaxComments = firstNonZero(s.MaxComments, rs.MaxComments)
	rs.MaxLookbackDays = firstNonZero(s.MaxLookbackDays, rs.MaxLookbackDays)
	return rs
}

// GetStateFile returns the path of the persisted repository state.
func (c *Config) GetStateFile() string {
	if c.StateFile != "" {
		return expandHome(c.StateFile)
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ".ghreport-state.json"
	}
	return filepath.Join(cacheDir, "ghreport", "state.json")
}

// GetCacheDir returns the configured cache directory, or empty for the
// platform default.
func (c *Config) GetCacheDir() string {
	return expandHome(c.GetCache().Dir)
}

// GetWatchRules returns the built-in rules with configured rules layered
// on top, sorted by name. A configured rule replaces a built-in rule of
// the same name.
func (c *Config) GetWatchRules() []watch.Rule {
	byName := make(map[string][]string)
	for _, r := range watch.DefaultRules() {
		byName[r.Name] = r.Patterns
	}
	maps.Copy(byName, c.WatchRules)

	rules := make([]watch.Rule, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		rules = append(rules, watch.Rule{Name: name, Patterns: byName[name]})
	}
	return rules
}

// ConfiguredRepos resolves each configured repository into a profile with
// its label-derived importance, context and watch rules filled in.
func (c *Config) ConfiguredRepos() []model.RepoProfile {
	labels := make(map[string]LabelConfig, len(c.Labels))
	for _, l := range c.Labels {
		labels[strings.ToLower(l.Name)] = l
	}

	profiles := make([]model.RepoProfile, 0, len(c.Repos))
	for _, r := range c.Repos {
		p := model.RepoProfile{
			Name:          r.Name,
			Labels:        slices.Clone(r.Labels),
			CustomContext: r.CustomContext,
			WatchRules:    slices.Clone(r.WatchRules),
		}
		if imp, err := model.ParseImportance(r.ImportanceOverride); err == nil {
			p.Importance = imp
		}
		var contexts []string
		for _, name := range r.Labels {
			l, ok := labels[strings.ToLower(name)]
			if !ok {
				continue
			}
			if imp, err := model.ParseImportance(l.Importance); err == nil && imp.Rank() > rankOf(p.LabelImportance) {
				p.LabelImportance = imp
			}
			if l.Context != "" {
				contexts = append(contexts, l.Context)
			}
			p.LabelWatchRules = append(p.LabelWatchRules, l.WatchRules...)
		}
		p.LabelContext = strings.Join(contexts, "\n")
		slices.Sort(p.LabelWatchRules)
		p.LabelWatchRules = slices.Compact(p.LabelWatchRules)
		profiles = append(profiles, p)
	}
	return profiles
}

func rankOf(i model.Importance) int {
	if i == "" {
		return -1
	}
	return i.Rank()
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Following 12-factor app best practices, tokens are only read from the environment.
func (c *Config) GetGitHubToken() string {
	return c.githubToken
}

// GetAnthropicAPIKey returns the summarizer API key from ANTHROPIC_API_KEY.
func (c *Config) GetAnthropicAPIKey() string {
	return c.anthropicAPIKey
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(ConfigPath(), string(data))
}

// SetDefaultFormat records the default output format in the global config
// file, leaving the rest of that file as it was.
func SetDefaultFormat(format string) error {
	if !isValidFormat(format) {
		return fmt.Errorf("invalid format: %s (must be one of %s)", format, strings.Join(ValidFormats, ", "))
	}
	cfg := &Config{}
	if ConfigFileExists() {
		global, err := readFile(ConfigPath())
		if err != nil {
			return err
		}
		cfg = global
	}
	cfg.DefaultFormat = format
	return cfg.Save()
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	enabled := true
	compress := true
	weights := DefaultActivityWeights()
	rules := make(map[string][]string)
	for _, r := range watch.DefaultRules() {
		rules[r.Name] = r.Patterns
		if rules[r.Name] == nil {
			rules[r.Name] = []string{}
		}
	}

	return &Config{
		DefaultFormat: "table",
		Labels: []LabelConfig{
			{
				Name:        "work",
				Description: "Repositories I maintain at work",
				Importance:  string(model.ImportanceHigh),
				Context:     "Focus on API changes and anything that blocks a release.",
				WatchRules:  []string{watch.RuleAPIChanges, watch.RuleBreakingChanges},
			},
		},
		Repos:      []RepoConfig{},
		WatchRules: rules,
		DynamicRepos: &DynamicReposConfig{
			Enabled:                 &enabled,
			AutoAddThresholdDays:    int(constants.TrackerAddWindow / (24 * time.Hour)),
			AutoRemoveThresholdDays: int(constants.TrackerRemoveAfter / (24 * time.Hour)),
			MinActivityScore:        constants.DefaultMinActivityScore,
			ActivityWeights:         &weights,
		},
		Summarizer: &SummarizerConfig{
			PrimaryModel:      constants.DefaultPrimaryModel,
			SecondaryModel:    constants.DefaultSecondaryModel,
			MaxAttempts:       constants.DefaultMaxAttempts,
			MaxTokens:         constants.DefaultSummaryMaxTokens,
			RequestsPerSecond: constants.DefaultSummarizerRPS,
			Burst:             constants.DefaultSummarizerBurst,
		},
		Cache: &CacheConfig{
			Enabled:    &enabled,
			SummaryTTL: duration.Format(constants.SummaryCacheTTL),
			Retention:  duration.Format(constants.CacheRetention),
			Compress:   &compress,
		},
		Concurrency: &ConcurrencyConfig{
			Fetch:     constants.DefaultFetchConcurrency,
			Summarize: constants.DefaultSummarizeConcurrency,
		},
		Settings: &SettingsConfig{
			MaxItems:        constants.DefaultMaxItems,
			MaxComments:     constants.DefaultMaxComments,
			MaxLookbackDays: constants.DefaultMaxLookbackDays,
		},
		Scoring: defaultScoringOverrides(),
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# ghreport configuration file
# See: ghreport config defaults  (for all available options)

# Output format: table, json or markdown
default_format: table

# Labels group repositories by importance and context
# labels:
#   - name: work
#     importance: high
#     context: Focus on API changes.
#     watch_rules: [api_changes, breaking_changes]

# Explicitly tracked repositories
# repos:
#   - name: owner/repo
#     labels: [work]
#     importance_override: critical

# Secrets come from the environment:
#   GITHUB_TOKEN, ANTHROPIC_API_KEY
`
}

// SeededConfig returns the minimal template with repos listing the given
// repositories instead of the commented example.
func SeededConfig(repos []string) (string, error) {
	if len(repos) == 0 {
		return MinimalConfig(), nil
	}
	entries := make([]RepoConfig, 0, len(repos))
	for _, r := range repos {
		entries = append(entries, RepoConfig{Name: r})
	}
	data, err := yaml.Marshal(struct {
		Repos []RepoConfig `yaml:"repos"`
	}{entries})
	if err != nil {
		return "", fmt.Errorf("failed to marshal repos: %w", err)
	}

	example := `# Explicitly tracked repositories
# repos:
#   - name: owner/repo
#     labels: [work]
#     importance_override: critical
`
	seeded := "# Repositories you were active in recently\n" + string(data)
	return strings.Replace(MinimalConfig(), example, seeded, 1), nil
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
