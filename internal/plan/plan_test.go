package plan

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/triage"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func item(id string, kind model.Kind, tier triage.Tier, score float64) triage.ScoredItem {
	return triage.ScoredItem{
		Item:  model.ActivityItem{ID: id, Kind: kind, UpdatedAt: t0},
		Score: score,
		Tier:  tier,
	}
}

func options() Options {
	return Options{
		MaxItems:       100,
		MaxComments:    500,
		PrimaryModel:   "big",
		SecondaryModel: "small",
		Concurrency:    4,
	}
}

func TestPlan_TierOrderAndAssignment(t *testing.T) {
	scored := []triage.ScoredItem{
		item("low", model.KindIssue, triage.TierLow, 1),
		item("crit", model.KindPullRequest, triage.TierCritical, 200),
		item("med", model.KindIssue, triage.TierMedium, 40),
	}

	p := NewPlanner(options()).Plan(scored)
	batches := p.Batches()
	require.Len(t, batches, 3, "empty tiers are omitted")

	tests := []struct {
		tier        triage.Tier
		model       string
		concurrency int
	}{
		{triage.TierCritical, "big", 4},
		{triage.TierMedium, "small", 2},
		{triage.TierLow, "small", 1},
	}
	for i, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			b := batches[i]
			assert.Equal(t, tt.tier, b.Tier())
			assert.Equal(t, tt.model, b.Model())
			assert.Equal(t, tt.concurrency, b.Concurrency())
			assert.Equal(t, 1, b.Len())
		})
	}
	assert.False(t, p.Truncated())
	assert.Equal(t, 3, p.ItemCount())
}

func TestPlan_HighUsesPrimaryModel(t *testing.T) {
	p := NewPlanner(options()).Plan([]triage.ScoredItem{item("h", model.KindIssue, triage.TierHigh, 90)})
	require.Len(t, p.Batches(), 1)
	assert.Equal(t, "big", p.Batches()[0].Model())
	assert.Equal(t, 4, p.Batches()[0].Concurrency())
}

func TestPlan_CapKeepsTopScored(t *testing.T) {
	var scored []triage.ScoredItem
	for i := range 150 {
		scored = append(scored, item(fmt.Sprintf("issue-%03d", i), model.KindIssue, triage.TierMedium, float64(i)))
	}

	p := NewPlanner(options()).Plan(scored)

	require.True(t, p.Truncated())
	assert.Equal(t, []Overflow{{Tier: triage.TierMedium, Section: SectionItems, Count: 50}}, p.Overflow())

	batch := p.Batches()[0]
	items := batch.Items()
	require.Len(t, items, 100)
	assert.Equal(t, 149.0, items[0].Score)
	assert.Equal(t, 50.0, items[99].Score)
}

func TestPlan_CommentsCappedSeparately(t *testing.T) {
	opts := options()
	opts.MaxItems = 2
	opts.MaxComments = 3

	var scored []triage.ScoredItem
	for i := range 4 {
		scored = append(scored, item(fmt.Sprintf("i%d", i), model.KindIssue, triage.TierHigh, float64(100+i)))
		scored = append(scored, item(fmt.Sprintf("c%d", i), model.KindComment, triage.TierHigh, float64(100+i)))
	}
	scored = append(scored, item("c-low", model.KindComment, triage.TierLow, 1))

	p := NewPlanner(opts).Plan(scored)

	assert.Equal(t, []Overflow{
		{Tier: triage.TierHigh, Section: SectionItems, Count: 2},
		{Tier: triage.TierHigh, Section: SectionComments, Count: 2},
	}, p.Overflow())
	require.Len(t, p.Batches(), 1, "the low comment falls below the report-wide cap")
	assert.Equal(t, 5, p.Batches()[0].Len())
}

func TestPlan_CapSpansTiers(t *testing.T) {
	var scored []triage.ScoredItem
	for i := range 75 {
		scored = append(scored,
			item(fmt.Sprintf("high-%02d", i), model.KindIssue, triage.TierHigh, float64(100+i)),
			item(fmt.Sprintf("med-%02d", i), model.KindIssue, triage.TierMedium, float64(i)),
		)
	}

	p := NewPlanner(options()).Plan(scored)

	require.True(t, p.Truncated())
	assert.Equal(t, 100, p.ItemCount())
	assert.Equal(t, []Overflow{{Tier: triage.TierMedium, Section: SectionItems, Count: 50}}, p.Overflow())

	batches := p.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, triage.TierHigh, batches[0].Tier())
	assert.Equal(t, 75, batches[0].Len())
	assert.Empty(t, batches[0].Overflow())

	med := batches[1].Items()
	require.Len(t, med, 25)
	assert.Equal(t, 74.0, med[0].Score)
	assert.Equal(t, 50.0, med[24].Score)
	assert.Len(t, batches[1].Overflow(), 1)
}

func TestPlan_CutAtTierBoundary(t *testing.T) {
	opts := options()
	opts.MaxItems = 2

	p := NewPlanner(opts).Plan([]triage.ScoredItem{
		item("c1", model.KindIssue, triage.TierCritical, 200),
		item("c2", model.KindIssue, triage.TierCritical, 190),
		item("l1", model.KindIssue, triage.TierLow, 5),
	})

	batches := p.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, 2, batches[0].Len())
	assert.Equal(t, triage.TierLow, batches[1].Tier())
	assert.Zero(t, batches[1].Len(), "the tier keeps its overflow record with no items")
	assert.Equal(t, []Overflow{{Tier: triage.TierLow, Section: SectionItems, Count: 1}}, batches[1].Overflow())
	assert.Equal(t, 2, p.ItemCount())
}

func TestPlan_Immutable(t *testing.T) {
	p := NewPlanner(options()).Plan([]triage.ScoredItem{item("a", model.KindIssue, triage.TierHigh, 90)})

	items := p.Batches()[0].Items()
	items[0].Score = 0
	items[0].Tier = triage.TierLow

	batches := p.Batches()
	batches[0] = Batch{}

	again := p.Batches()[0].Items()
	assert.Equal(t, 90.0, again[0].Score)
	assert.Equal(t, triage.TierHigh, again[0].Tier)
}

func TestPlan_Empty(t *testing.T) {
	p := NewPlanner(Options{}).Plan(nil)
	assert.Empty(t, p.Batches())
	assert.False(t, p.Truncated())
	assert.Zero(t, p.ItemCount())
}

func TestNewPlanner_MinimumConcurrency(t *testing.T) {
	p := NewPlanner(Options{Concurrency: 0}).Plan([]triage.ScoredItem{
		item("c", model.KindIssue, triage.TierCritical, 200),
		item("m", model.KindIssue, triage.TierMedium, 40),
	})
	for _, b := range p.Batches() {
		assert.Equal(t, 1, b.Concurrency())
	}
}
