package triage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/watch"
)

var runClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newScorer() *Scorer {
	return NewScorer("alice", config.DefaultScoreWeights(), runClock)
}

func profile(imp model.Importance) *model.RepoProfile {
	return &model.RepoProfile{Name: "acme/api", Importance: imp}
}

func TestScorer_Score(t *testing.T) {
	tests := []struct {
		name    string
		item    model.ActivityItem
		profile *model.RepoProfile
		matched []string
		want    float64
	}{
		{
			name:    "fresh critical base",
			item:    model.ActivityItem{UpdatedAt: runClock},
			profile: profile(model.ImportanceCritical),
			want:    100,
		},
		{
			name:    "one half-life halves the base",
			item:    model.ActivityItem{UpdatedAt: runClock.Add(-48 * time.Hour)},
			profile: profile(model.ImportanceHigh),
			want:    25,
		},
		{
			name:    "future timestamps do not inflate the base",
			item:    model.ActivityItem{UpdatedAt: runClock.Add(time.Hour)},
			profile: profile(model.ImportanceLow),
			want:    5,
		},
		{
			name:    "nil profile scores as medium",
			item:    model.ActivityItem{UpdatedAt: runClock},
			profile: nil,
			want:    20,
		},
		{
			name:    "rule bonuses add per rule",
			item:    model.ActivityItem{UpdatedAt: runClock},
			profile: profile(model.ImportanceMedium),
			matched: []string{watch.RuleSecurityIssues, watch.RulePerformance, watch.RuleMentions},
			want:    20 + 15 + 5 + 5,
		},
		{
			name:    "only the strongest involvement counts",
			item:    model.ActivityItem{UpdatedAt: runClock, Author: "Alice", Body: "@alice", Participants: []string{"alice"}},
			profile: profile(model.ImportanceMedium),
			want:    20 + 20,
		},
		{
			name:    "mention beats participation",
			item:    model.ActivityItem{UpdatedAt: runClock, Author: "bob", Body: "ping @alice", Participants: []string{"alice"}},
			profile: profile(model.ImportanceMedium),
			want:    20 + 10,
		},
		{
			name:    "participation alone",
			item:    model.ActivityItem{UpdatedAt: runClock, Author: "bob", Participants: []string{"carol", "ALICE"}},
			profile: profile(model.ImportanceMedium),
			want:    20 + 5,
		},
	}

	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(&tt.item, tt.profile, tt.matched)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScorer_NeverNegative(t *testing.T) {
	w := config.DefaultScoreWeights()
	w.RuleBonus = -50
	s := NewScorer("alice", w, runClock)

	item := model.ActivityItem{UpdatedAt: runClock}
	got := s.Score(&item, profile(model.ImportanceLow), []string{watch.RulePerformance})
	assert.Zero(t, got)
}

func TestScorer_Deterministic(t *testing.T) {
	item := model.ActivityItem{
		ID:        "i1",
		UpdatedAt: runClock.Add(-7 * time.Hour),
		Author:    "alice",
		Title:     "BREAKING: drop v1 endpoints",
	}
	p := profile(model.ImportanceHigh)
	matched := []string{watch.RuleBreakingChanges}

	first := newScorer().Score(&item, p, matched)
	for range 100 {
		assert.Equal(t, first, newScorer().Score(&item, p, matched))
	}
}

func TestScorer_SingleBreakingRuleOnCriticalRepo(t *testing.T) {
	// base 100 decayed over one hour, +15 breaking change, +20 author.
	item := model.ActivityItem{UpdatedAt: runClock.Add(-time.Hour), Author: "alice"}
	got := newScorer().ScoreItem(item, profile(model.ImportanceCritical))

	want := 100*math.Pow(0.5, 1.0/48) + 20
	assert.InDelta(t, want, got.Score, 1e-9)

	item.MatchedRules = []string{watch.RuleBreakingChanges}
	got = newScorer().ScoreItem(item, profile(model.ImportanceCritical))
	assert.InDelta(t, want+15, got.Score, 1e-9)
	assert.Equal(t, TierHigh, got.Tier)
	assert.Equal(t, model.ImportanceCritical, got.Importance)
}

func TestTierFor(t *testing.T) {
	w := config.DefaultScoreWeights()

	tests := []struct {
		score float64
		want  Tier
	}{
		{200, TierCritical},
		{150, TierCritical},
		{149.999, TierHigh},
		{80, TierHigh},
		{79.999, TierMedium},
		{30, TierMedium},
		{29.999, TierLow},
		{0, TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.want.Display(), func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.score, w), "score %v", tt.score)
		})
	}
}
