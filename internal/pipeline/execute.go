package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/spiffcs/ghreport/internal/cache"
	"github.com/spiffcs/ghreport/internal/errs"
	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/metrics"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/plan"
	"github.com/spiffcs/ghreport/internal/summarize"
)

// outcome is the resolution of one fingerprint.
type outcome struct {
	result summarize.Result
	status ItemStatus
	err    error
}

// execute summarizes every planned item. Jobs are submitted in tier order
// to the summarize pool and each holds its tier's budget while running.
// A fatal summarizer error stops new calls and is returned.
func (o *Orchestrator) execute(ctx context.Context, p *plan.Plan, profiles map[string]*model.RepoProfile, rs *runState, enabled bool) ([]Section, error) {
	batches := p.Batches()
	sections := make([]Section, len(batches))
	total := 0
	for i, b := range batches {
		items := b.Items()
		sections[i] = Section{
			Tier:     b.Tier(),
			Model:    b.Model(),
			Items:    make([]AnnotatedItem, len(items)),
			Overflow: b.Overflow(),
		}
		for j, it := range items {
			sections[i].Items[j] = AnnotatedItem{ScoredItem: it, Status: StatusPending}
		}
		total += len(items)
	}

	if !enabled {
		for i := range sections {
			for j := range sections[i].Items {
				sections[i].Items[j].Status = StatusNotSummarized
			}
		}
		return sections, nil
	}

	var completed atomic.Int32
	o.report(StageSummarize, 0, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.SummarizeConcurrency)

	for i, b := range batches {
		budget := semaphore.NewWeighted(int64(b.Concurrency()))
		for j := range sections[i].Items {
			ai := &sections[i].Items[j]
			if gctx.Err() != nil {
				ai.Status = StatusSkipped
				continue
			}
			g.Go(func() error {
				defer func() { o.report(StageSummarize, int(completed.Add(1)), total) }()

				if err := budget.Acquire(gctx, 1); err != nil {
					ai.Status = StatusSkipped
					return nil
				}
				defer budget.Release(1)

				profile := profiles[ai.Item.Repo]
				return o.summarizeItem(gctx, ai, profile, b.Model(), rs)
			})
		}
	}

	err := g.Wait()
	for i := range sections {
		for j := range sections[i].Items {
			ai := &sections[i].Items[j]
			if ai.Status == StatusPending {
				ai.Status = StatusSkipped
			}
			o.deps.Metrics.ItemOutcome(string(sections[i].Tier), ai.Status.metricOutcome())
		}
	}
	return sections, err
}

// summarizeItem resolves the item's summary and records the outcome on ai.
func (o *Orchestrator) summarizeItem(ctx context.Context, ai *AnnotatedItem, profile *model.RepoProfile, modelID string, rs *runState) error {
	content := summarize.BuildContent(&ai.Item, profile)
	fp := cache.SummaryFingerprint(modelID, summarize.PromptVersion, content)

	// Do runs the function on the first caller's goroutine only.
	leader := false
	v, _, _ := rs.group.Do(fp, func() (any, error) {
		leader = true
		return o.resolve(ctx, fp, modelID, content, rs), nil
	})
	out := v.(outcome)

	status := out.status
	if !leader && status == StatusSummarized {
		status = StatusCached
	}
	ai.Status = status
	ai.Summary = out.result.Text
	if out.err != nil {
		ai.Error = out.err.Error()
	}
	if status == StatusFailed {
		return out.err
	}
	return nil
}

// resolve returns the summary for fp from this run, the cache, or the
// summarizer, in that order. A fingerprint that already degraded in this
// run degrades again without another call. A fresh summary is committed to the cache
// before the fingerprint is marked resolved.
func (o *Orchestrator) resolve(ctx context.Context, fp, modelID, content string, rs *runState) outcome {
	if res, ok := rs.lookup(fp); ok {
		return outcome{result: res, status: StatusCached}
	}
	if err, ok := rs.degradedErr(fp); ok {
		return outcome{status: StatusDegraded, err: err}
	}

	if o.deps.Cache != nil {
		payload, ok := o.deps.Cache.Get(fp)
		o.deps.Metrics.CacheLookup(string(cache.KindSummary), ok)
		if ok {
			var res summarize.Result
			if err := json.Unmarshal(payload, &res); err == nil && res.Text != "" {
				rs.markResolved(fp, res)
				return outcome{result: res, status: StatusCached}
			}
			log.Debug("discarding undecodable summary entry", "fingerprint", fp[:12])
		}
	}

	if ctx.Err() != nil {
		return outcome{status: StatusSkipped}
	}

	req := summarize.Request{Model: modelID, PromptVersion: summarize.PromptVersion, Content: content}
	res, err := retry(ctx, o, func() (summarize.Result, error) {
		start := time.Now()
		res, err := o.deps.Summarizer.Summarize(ctx, req)
		o.deps.Metrics.SummarizerCall(modelID, time.Since(start), err)
		return res, err
	})

	switch {
	case err == nil:
	case errs.IsFatal(err):
		return outcome{status: StatusFailed, err: err}
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return outcome{status: StatusSkipped}
	default:
		log.Debug("summary degraded", "model", modelID, "error", err)
		err = fmt.Errorf("summarize: %w", err)
		rs.markDegraded(fp, err)
		return outcome{status: StatusDegraded, err: err}
	}

	o.deps.Metrics.Tokens(res.Usage.InputTokens, res.Usage.OutputTokens)
	if o.deps.Cache != nil {
		payload, err := json.Marshal(res)
		if err == nil {
			err = o.deps.Cache.Put(fp, cache.KindSummary, payload, cache.TTLFor(cache.KindSummary, rs.now, o.settings.SummaryTTL))
		}
		if err != nil {
			log.Warn("could not cache summary", "error", err)
		}
	}
	rs.markResolved(fp, res)
	return outcome{result: res, status: StatusSummarized}
}

// estimate approximates the summarizer input tokens for planned items that
// are not already cached.
func (o *Orchestrator) estimate(sections []Section, profiles map[string]*model.RepoProfile) int {
	seen := make(map[string]bool)
	tokens := 0
	for _, s := range sections {
		for _, ai := range s.Items {
			content := summarize.BuildContent(&ai.Item, profiles[ai.Item.Repo])
			fp := cache.SummaryFingerprint(s.Model, summarize.PromptVersion, content)
			if seen[fp] {
				continue
			}
			seen[fp] = true
			if o.deps.Cache != nil {
				if _, ok := o.deps.Cache.Get(fp); ok {
					continue
				}
			}
			tokens += summarize.EstimateTokens(content)
		}
	}
	return tokens
}

func (s ItemStatus) metricOutcome() string {
	switch s {
	case StatusSummarized:
		return metrics.OutcomeSummarized
	case StatusCached:
		return metrics.OutcomeCached
	case StatusDegraded, StatusFailed:
		return metrics.OutcomeDegraded
	default:
		return metrics.OutcomeSkipped
	}
}
