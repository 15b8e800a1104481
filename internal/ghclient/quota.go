package ghclient

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
)

// Quota is the primary rate limit budget of one GitHub API.
type Quota struct {
	Name      string
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Low reports whether the remaining budget is under threshold.
func (q Quota) Low(threshold int) bool {
	return q.Remaining < threshold
}

// Quotas fetches the current core, search and GraphQL rate limits. The
// rate_limit endpoint does not count against any of them.
func (c *Client) Quotas(ctx context.Context) ([]Quota, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, classify(fmt.Errorf("get rate limits: %w", err))
	}

	var out []Quota
	add := func(name string, r *gh.Rate) {
		if r == nil {
			return
		}
		out = append(out, Quota{
			Name:      name,
			Remaining: r.Remaining,
			Limit:     r.Limit,
			ResetAt:   r.Reset.Time,
		})
	}
	add("core", limits.Core)
	add("search", limits.Search)
	add("graphql", limits.GraphQL)
	return out, nil
}
