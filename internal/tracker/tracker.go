// Package tracker maintains the set of automatically tracked repositories
// using separate add and remove thresholds.
package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/state"
)

// Metrics counts a repository's activity over the discovery window.
type Metrics struct {
	Commits  int `json:"commits"`
	PRs      int `json:"prs"`
	Issues   int `json:"issues"`
	Comments int `json:"comments"`
}

// ActivityScore weights the metrics into a single number.
func ActivityScore(m Metrics, w config.ActivityWeights) int {
	return m.Commits*w.Commits + m.PRs*w.PRs + m.Issues*w.Issues + m.Comments*w.Comments
}

// Candidate is a repository in which the user was recently active.
type Candidate struct {
	Repo         string
	Metrics      Metrics
	LastActivity time.Time
}

// Discoverer finds repositories with recent activity by a user.
type Discoverer interface {
	Discover(ctx context.Context, user string, since time.Time) ([]Candidate, error)
}

// Result describes the changes one Update made to the tracked set.
type Result struct {
	Added   []string
	Removed []string

	// DiscoveryErr is set when discovery failed. The tracked set is left
	// unchanged in that case.
	DiscoveryErr error
}

// Preview is a scored candidate as shown by repos discover.
type Preview struct {
	Candidate
	Score     int
	Tracked   bool
	WouldAdd  bool
	Threshold int
}

// Tracker applies auto-add and auto-remove rules to a state.
type Tracker struct {
	discoverer Discoverer
	user       string
	settings   config.TrackerSettings
}

// New creates a tracker. Settings are expected to have passed config
// validation, so AddWindow is shorter than RemoveAfter.
func New(d Discoverer, user string, settings config.TrackerSettings) *Tracker {
	return &Tracker{
		discoverer: d,
		user:       user,
		settings:   settings,
	}
}

// Update discovers candidate repositories and reconciles the tracked set:
// active untracked repositories scoring at least the minimum are added,
// tracked repositories refresh their LastSeen, and auto-tracked
// repositories silent for longer than RemoveAfter are dropped. When
// discovery fails nothing is added or removed.
func (t *Tracker) Update(ctx context.Context, st *state.State, now time.Time) Result {
	if !t.settings.Enabled {
		return Result{}
	}

	candidates, err := t.discoverer.Discover(ctx, t.user, now.Add(-t.settings.AddWindow))
	if err != nil {
		log.Warn("repository discovery failed, tracked set unchanged", "error", err)
		return Result{DiscoveryErr: fmt.Errorf("discovering repositories: %w", err)}
	}

	var res Result
	for _, c := range candidates {
		score := ActivityScore(c.Metrics, t.settings.Weights)

		if st.Tracked(c.Repo) {
			st.Touch(c.Repo, c.LastActivity)
			st.SetActivityScore(c.Repo, score)
			continue
		}
		if score < t.settings.MinActivityScore {
			log.Trace("candidate below threshold", "repo", c.Repo, "score", score, "min", t.settings.MinActivityScore)
			continue
		}
		lastSeen := c.LastActivity
		if lastSeen.IsZero() {
			lastSeen = now
		}
		if st.Add(model.RepoProfile{
			Name:          c.Repo,
			AutoTracked:   true,
			TrackedSince:  now,
			LastSeen:      lastSeen,
			ActivityScore: score,
		}) {
			log.Info("auto-tracking repository", "repo", c.Repo, "score", score)
			res.Added = append(res.Added, c.Repo)
		}
	}

	for _, p := range st.Profiles() {
		if !p.AutoTracked || p.Manual {
			continue
		}
		if now.Sub(p.LastSeen) > t.settings.RemoveAfter {
			if st.Remove(p.Name) {
				log.Info("dropping inactive repository", "repo", p.Name, "lastSeen", p.LastSeen)
				res.Removed = append(res.Removed, p.Name)
			}
		}
	}

	slices.Sort(res.Added)
	slices.Sort(res.Removed)
	return res
}

// Preview scores discovered candidates without changing the state. The
// result is sorted by score descending, then name.
func (t *Tracker) Preview(ctx context.Context, st *state.State, now time.Time) ([]Preview, error) {
	candidates, err := t.discoverer.Discover(ctx, t.user, now.Add(-t.settings.AddWindow))
	if err != nil {
		return nil, fmt.Errorf("discovering repositories: %w", err)
	}

	previews := make([]Preview, 0, len(candidates))
	for _, c := range candidates {
		score := ActivityScore(c.Metrics, t.settings.Weights)
		tracked := st.Tracked(c.Repo)
		previews = append(previews, Preview{
			Candidate: c,
			Score:     score,
			Tracked:   tracked,
			WouldAdd:  !tracked && t.settings.Enabled && score >= t.settings.MinActivityScore,
			Threshold: t.settings.MinActivityScore,
		})
	}
	slices.SortFunc(previews, func(a, b Preview) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Repo, b.Repo)
	})
	return previews, nil
}
