package cmd

import (
	"context"
	"fmt"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/cache"
	"github.com/spiffcs/ghreport/internal/ghclient"
	"github.com/spiffcs/ghreport/internal/state"
	"github.com/spiffcs/ghreport/internal/tracker"
)

// openCache opens the on-disk cache at the configured or default location.
func openCache(cfg *config.Config) (*cache.Store, error) {
	dir := cfg.GetCacheDir()
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
		dir = d
	}
	return cache.NewStore(dir, cache.WithCompression(cfg.GetCache().Compress))
}

// loadState reads the persisted repository state.
func loadState(cfg *config.Config) (*state.State, string, error) {
	path := cfg.GetStateFile()
	st, err := state.Load(path)
	if err != nil {
		return nil, "", err
	}
	return st, path, nil
}

// newGitHubClient creates a client from the token in the environment.
func newGitHubClient(cfg *config.Config) (*ghclient.Client, error) {
	client, err := ghclient.NewClient(cfg.GetGitHubToken())
	if err != nil {
		return nil, fmt.Errorf("%w. Set the GITHUB_TOKEN environment variable", err)
	}
	return client, nil
}

// resolveUser returns the configured username, falling back to the
// token's owner.
func resolveUser(ctx context.Context, cfg *config.Config, client *ghclient.Client) (string, error) {
	if cfg.Username != "" {
		return cfg.Username, nil
	}
	user, err := client.AuthenticatedUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user, nil
}

// newTracker wires a tracker to the GitHub discovery search.
func newTracker(cfg *config.Config, client *ghclient.Client, user string) *tracker.Tracker {
	return tracker.New(client, user, cfg.GetTracker())
}
