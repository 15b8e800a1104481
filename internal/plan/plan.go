// Package plan groups scored items into tiered, capped batches with a
// summarizer model and concurrency budget for each.
package plan

import (
	"slices"

	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/triage"
)

// Section distinguishes the separately capped parts of a report.
type Section string

const (
	SectionItems    Section = "items"
	SectionComments Section = "comments"
)

// Overflow records items dropped by a section cap. Tier is the tier of
// the highest-scored dropped item.
type Overflow struct {
	Tier    triage.Tier `json:"tier"`
	Section Section     `json:"section"`
	Count   int         `json:"count"`
}

// Batch is one tier's worth of work. It is read-only once planned.
type Batch struct {
	tier        triage.Tier
	items       []triage.ScoredItem
	model       string
	concurrency int
	overflow    []Overflow
}

// Tier returns the batch's tier.
func (b Batch) Tier() triage.Tier { return b.tier }

// Items returns a copy of the batch's items in presentation order.
func (b Batch) Items() []triage.ScoredItem { return slices.Clone(b.items) }

// Len returns the number of items in the batch.
func (b Batch) Len() int { return len(b.items) }

// Model returns the summarizer model assigned to the batch.
func (b Batch) Model() string { return b.model }

// Concurrency returns the batch's share of the summarize pool.
func (b Batch) Concurrency() int { return b.concurrency }

// Overflow returns a copy of the batch's overflow records.
func (b Batch) Overflow() []Overflow { return slices.Clone(b.overflow) }

// Plan is the ordered list of batches for a run.
type Plan struct {
	batches   []Batch
	truncated bool
}

// Batches returns the batches ordered from Critical to Low. Tiers with
// neither items nor overflow are absent.
func (p *Plan) Batches() []Batch { return slices.Clone(p.batches) }

// Truncated reports whether any cap dropped items.
func (p *Plan) Truncated() bool { return p.truncated }

// Overflow returns every overflow record across all batches.
func (p *Plan) Overflow() []Overflow {
	var out []Overflow
	for _, b := range p.batches {
		out = append(out, b.overflow...)
	}
	return out
}

// ItemCount returns the number of planned items across all batches.
func (p *Plan) ItemCount() int {
	n := 0
	for _, b := range p.batches {
		n += len(b.items)
	}
	return n
}

// Options configures a Planner. Caps of zero or less are unlimited.
type Options struct {
	MaxItems       int
	MaxComments    int
	PrimaryModel   string
	SecondaryModel string
	Concurrency    int
}

// Planner turns scored items into a Plan.
type Planner struct {
	opts Options
}

// NewPlanner creates a planner.
func NewPlanner(opts Options) *Planner {
	opts.Concurrency = max(opts.Concurrency, 1)
	return &Planner{opts: opts}
}

// Plan applies the report-wide caps to the highest-scored items, then
// groups the survivors by tier and assigns each tier its model and
// concurrency. Each capped section yields one overflow record carrying the
// whole dropped count, attached to the tier where the cut falls.
func (p *Planner) Plan(scored []triage.ScoredItem) *Plan {
	all := slices.Clone(scored)
	triage.Sort(all)

	var regular, comments []triage.ScoredItem
	for _, it := range all {
		if it.Item.Kind == model.KindComment {
			comments = append(comments, it)
		} else {
			regular = append(regular, it)
		}
	}

	var overflow []Overflow
	regular, overflow = capSection(regular, p.opts.MaxItems, SectionItems, overflow)
	comments, overflow = capSection(comments, p.opts.MaxComments, SectionComments, overflow)

	byTier := make(map[triage.Tier][]triage.ScoredItem)
	for _, it := range append(regular, comments...) {
		byTier[it.Tier] = append(byTier[it.Tier], it)
	}
	overflowByTier := make(map[triage.Tier][]Overflow)
	for _, o := range overflow {
		overflowByTier[o.Tier] = append(overflowByTier[o.Tier], o)
	}

	plan := &Plan{truncated: len(overflow) > 0}
	for _, tier := range triage.AllTiers() {
		items := byTier[tier]
		if len(items) == 0 && len(overflowByTier[tier]) == 0 {
			continue
		}
		triage.Sort(items)
		plan.batches = append(plan.batches, Batch{
			tier:        tier,
			items:       items,
			model:       p.modelFor(tier),
			concurrency: p.concurrencyFor(tier),
			overflow:    overflowByTier[tier],
		})
	}
	return plan
}

// capSection keeps the first limit items of a score-sorted section.
func capSection(items []triage.ScoredItem, limit int, section Section, overflow []Overflow) ([]triage.ScoredItem, []Overflow) {
	if limit <= 0 || len(items) <= limit {
		return items, overflow
	}
	return items[:limit], append(overflow, Overflow{Tier: items[limit].Tier, Section: section, Count: len(items) - limit})
}

func (p *Planner) modelFor(tier triage.Tier) string {
	switch tier {
	case triage.TierCritical, triage.TierHigh:
		return p.opts.PrimaryModel
	default:
		return p.opts.SecondaryModel
	}
}

func (p *Planner) concurrencyFor(tier triage.Tier) int {
	switch tier {
	case triage.TierCritical, triage.TierHigh:
		return p.opts.Concurrency
	case triage.TierMedium:
		return max(p.opts.Concurrency/2, 1)
	default:
		return 1
	}
}
