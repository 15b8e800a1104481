package ghclient

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/tracker"
	"github.com/spiffcs/ghreport/internal/urlutil"
)

// discoveryQualifiers select issues and pull requests the user touched.
var discoveryQualifiers = []string{"involves", "author", "mentions", "assignee", "reviewed-by"}

// maxDiscoveryResults bounds each discovery search.
const maxDiscoveryResults = 300

// Discover finds repositories in which user was active since the given time
// and counts that activity per repository. A failed search fails discovery;
// a failed commit count only leaves that repository's commits at zero.
func (c *Client) Discover(ctx context.Context, user string, since time.Time) ([]tracker.Candidate, error) {
	byRepo := make(map[string]*tracker.Candidate)
	seen := make(map[int64]bool)

	for _, qualifier := range discoveryQualifiers {
		query := fmt.Sprintf("%s:%s updated:>=%s", qualifier, user, since.UTC().Format(time.DateOnly))
		issues, err := c.searchAll(ctx, query)
		if err != nil {
			return nil, classify(fmt.Errorf("discover %s: %w", qualifier, err))
		}

		for _, issue := range issues {
			if seen[issue.GetID()] {
				continue
			}
			seen[issue.GetID()] = true

			repo := urlutil.RepoFromAPIURL(issue.GetRepositoryURL())
			if repo == "" {
				continue
			}
			cand, ok := byRepo[strings.ToLower(repo)]
			if !ok {
				cand = &tracker.Candidate{Repo: repo}
				byRepo[strings.ToLower(repo)] = cand
			}
			if issue.IsPullRequest() {
				cand.Metrics.PRs++
			} else {
				cand.Metrics.Issues++
			}
			cand.Metrics.Comments += issue.GetComments()
			if updated := issue.GetUpdatedAt().Time; updated.After(cand.LastActivity) {
				cand.LastActivity = updated
			}
		}
	}

	out := make([]tracker.Candidate, 0, len(byRepo))
	for _, cand := range byRepo {
		n, err := c.countCommits(ctx, cand.Repo, user, since)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug("could not count commits", "repo", cand.Repo, "error", err)
		}
		cand.Metrics.Commits = n
		out = append(out, *cand)
	}
	slices.SortFunc(out, func(a, b tracker.Candidate) int {
		return strings.Compare(strings.ToLower(a.Repo), strings.ToLower(b.Repo))
	})

	log.Debug("discovery complete", "user", user, "repos", len(out))
	return out, nil
}

func (c *Client) searchAll(ctx context.Context, query string) ([]*gh.Issue, error) {
	opts := &gh.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var issues []*gh.Issue
	for {
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, err
		}
		issues = append(issues, result.Issues...)
		if resp.NextPage == 0 || len(issues) >= maxDiscoveryResults {
			return issues, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) countCommits(ctx context.Context, repo, user string, since time.Time) (int, error) {
	owner, name, err := urlutil.SplitRepo(repo)
	if err != nil {
		return 0, err
	}

	opts := &gh.CommitsListOptions{
		Author: user,
		Since:  since,
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	count := 0
	for {
		commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return count, classify(err)
		}
		count += len(commits)
		if resp.NextPage == 0 {
			return count, nil
		}
		opts.Page = resp.NextPage
	}
}
