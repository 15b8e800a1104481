package pipeline

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/ghreport/internal/cache"
	"github.com/spiffcs/ghreport/internal/errs"
	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/model"
)

type fetchResult struct {
	items    []model.ActivityItem
	failures []SourceFailure
	skipped  []string
}

// fetch lists activity for every repository on the fetch pool. Per-repo
// failures are recorded and the rest continue; only a fatal error aborts.
func (o *Orchestrator) fetch(ctx context.Context, repos []string, since time.Time, rs *runState) (*fetchResult, error) {
	res := &fetchResult{}
	var mu sync.Mutex
	var completed atomic.Int32
	total := len(repos)
	o.report(StageFetch, 0, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.FetchConcurrency)

	for _, repo := range repos {
		g.Go(func() error {
			defer func() { o.report(StageFetch, int(completed.Add(1)), total) }()

			if gctx.Err() != nil {
				mu.Lock()
				res.skipped = append(res.skipped, repo)
				mu.Unlock()
				return nil
			}

			items, err := o.fetchRepo(gctx, repo, since, rs)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.items = append(res.items, items...)
			case errs.IsFatal(err):
				return err
			case gctx.Err() != nil:
				res.skipped = append(res.skipped, repo)
			default:
				log.Warn("could not fetch activity", "repo", repo, "error", err)
				o.deps.Metrics.SourceFailure()
				res.failures = append(res.failures, SourceFailure{Repo: repo, Error: err.Error()})
			}
			return nil
		})
	}

	err := g.Wait()
	slices.Sort(res.skipped)
	slices.SortFunc(res.failures, func(a, b SourceFailure) int { return cmp.Compare(a.Repo, b.Repo) })
	return res, err
}

// sourceEntry is a cached fetch. Since is the lower bound it was fetched
// with and FetchedAt bounds what it can contain.
type sourceEntry struct {
	Since     time.Time            `json:"since"`
	FetchedAt time.Time            `json:"fetchedAt"`
	Items     []model.ActivityItem `json:"items"`
}

// fetchRepo returns the repository's activity from the source cache, or
// from the source with retries, committing a fresh result to the cache.
// A cache hit must cover since, and lowers the run's watermark to the
// entry's fetch time.
func (o *Orchestrator) fetchRepo(ctx context.Context, repo string, since time.Time, rs *runState) ([]model.ActivityItem, error) {
	fp := cache.SourceFingerprint(repo, since)
	if o.deps.Cache != nil {
		if entry, ok := o.cachedSource(fp, repo, since); ok {
			o.deps.Metrics.CacheLookup(string(cache.KindSource), true)
			log.Trace("source cache hit", "repo", repo, "fetched_at", entry.FetchedAt)
			rs.servedFromCache(entry.FetchedAt)
			return entry.Items, nil
		}
		o.deps.Metrics.CacheLookup(string(cache.KindSource), false)
	}

	fetchedAt := o.now()
	items, err := retry(ctx, o, func() ([]model.ActivityItem, error) {
		var items []model.ActivityItem
		for item, err := range o.deps.Source.Activity(ctx, repo, since) {
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("fetched activity", "repo", repo, "items", len(items))

	if o.deps.Cache != nil {
		payload, err := json.Marshal(sourceEntry{Since: since, FetchedAt: fetchedAt, Items: items})
		if err == nil {
			err = o.deps.Cache.Put(fp, cache.KindSource, payload, cache.TTLFor(cache.KindSource, rs.now, 0))
		}
		if err != nil {
			log.Warn("could not cache activity", "repo", repo, "error", err)
		}
	}
	return items, nil
}

func (o *Orchestrator) cachedSource(fp, repo string, since time.Time) (sourceEntry, bool) {
	payload, ok := o.deps.Cache.Get(fp)
	if !ok {
		return sourceEntry{}, false
	}
	var entry sourceEntry
	if err := json.Unmarshal(payload, &entry); err != nil || entry.FetchedAt.IsZero() {
		log.Debug("discarding undecodable source entry", "repo", repo)
		return sourceEntry{}, false
	}
	if entry.Since.After(since) {
		log.Trace("source entry starts after since", "repo", repo, "entry_since", entry.Since)
		return sourceEntry{}, false
	}
	return entry, true
}

// retry runs op until it succeeds, fails with a non-transient error, or
// MaxAttempts is reached. No attempt starts once ctx is done.
func retry[T any](ctx context.Context, o *Orchestrator, op func() (T, error)) (T, error) {
	return backoff.Retry[T](ctx, func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		v, err := op()
		if err != nil && !errs.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(o.newBackOff()),
		backoff.WithMaxTries(uint(o.settings.MaxAttempts)),
	)
}
