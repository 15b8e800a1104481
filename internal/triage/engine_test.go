package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghreport/internal/model"
)

func scored(id string, score float64, imp model.Importance, updated time.Time) ScoredItem {
	return ScoredItem{
		Item:       model.ActivityItem{ID: id, UpdatedAt: updated},
		Score:      score,
		Importance: imp,
	}
}

func TestSort(t *testing.T) {
	t0 := runClock
	items := []ScoredItem{
		scored("d", 50, model.ImportanceLow, t0),
		scored("c", 50, model.ImportanceHigh, t0.Add(-time.Hour)),
		scored("b", 50, model.ImportanceHigh, t0),
		scored("z", 90, model.ImportanceLow, t0),
		scored("a2", 50, model.ImportanceHigh, t0),
		scored("a1", 50, model.ImportanceHigh, t0),
	}

	Sort(items)

	var ids []string
	for _, it := range items {
		ids = append(ids, it.Item.ID)
	}
	assert.Equal(t, []string{"z", "a1", "a2", "b", "c", "d"}, ids)
}

func TestPrioritize(t *testing.T) {
	s := newScorer()
	profiles := map[string]*model.RepoProfile{
		"acme/api":  {Name: "acme/api", Importance: model.ImportanceCritical},
		"acme/docs": {Name: "acme/docs", Importance: model.ImportanceLow},
	}
	items := []model.ActivityItem{
		{ID: "docs-1", Repo: "acme/docs", UpdatedAt: runClock},
		{ID: "api-1", Repo: "acme/api", UpdatedAt: runClock},
		{ID: "unknown-1", Repo: "other/repo", UpdatedAt: runClock},
	}

	got := s.Prioritize(items, profiles)
	require.Len(t, got, 3)

	assert.Equal(t, "api-1", got[0].Item.ID)
	assert.Equal(t, TierHigh, got[0].Tier)
	assert.Equal(t, "unknown-1", got[1].Item.ID, "repos without a profile score as medium")
	assert.Equal(t, "docs-1", got[2].Item.ID)
	assert.Equal(t, TierLow, got[2].Tier)
}

func TestFilters(t *testing.T) {
	items := []ScoredItem{
		{Item: model.ActivityItem{ID: "1", Kind: model.KindIssue}, Tier: TierHigh},
		{Item: model.ActivityItem{ID: "2", Kind: model.KindComment}, Tier: TierLow},
		{Item: model.ActivityItem{ID: "3", Kind: model.KindPullRequest}, Tier: TierHigh},
	}

	high := FilterByTier(items, TierHigh)
	assert.Len(t, high, 2)

	comments := FilterByKind(items, model.KindComment)
	require.Len(t, comments, 1)
	assert.Equal(t, "2", comments[0].Item.ID)

	assert.Len(t, FilterByKind(items), 3)
}
