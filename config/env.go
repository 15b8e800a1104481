package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides holds values read from the environment. Zero values mean
// unset and leave the file configuration in place.
type envOverrides struct {
	GitHubToken          string `env:"GITHUB_TOKEN"`
	AnthropicAPIKey      string `env:"ANTHROPIC_API_KEY"`
	FetchConcurrency     int    `env:"GHREPORT_FETCH_CONCURRENCY"`
	SummarizeConcurrency int    `env:"GHREPORT_SUMMARIZE_CONCURRENCY"`
	CacheDir             string `env:"GHREPORT_CACHE_DIR"`
	StateFile            string `env:"GHREPORT_STATE_FILE"`
}

func (c *Config) applyEnv() error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	c.githubToken = e.GitHubToken
	c.anthropicAPIKey = e.AnthropicAPIKey

	if e.FetchConcurrency != 0 || e.SummarizeConcurrency != 0 {
		c.Concurrency = mergeConcurrency(c.Concurrency, &ConcurrencyConfig{
			Fetch:     e.FetchConcurrency,
			Summarize: e.SummarizeConcurrency,
		})
	}
	if e.CacheDir != "" {
		c.Cache = mergeCache(c.Cache, &CacheConfig{Dir: e.CacheDir})
	}
	if e.StateFile != "" {
		c.StateFile = e.StateFile
	}
	return nil
}
