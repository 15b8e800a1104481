package triage

import (
	"cmp"
	"slices"

	"github.com/spiffcs/ghreport/internal/model"
)

// ScoreItem scores a single item using its MatchedRules.
func (s *Scorer) ScoreItem(item model.ActivityItem, profile *model.RepoProfile) ScoredItem {
	score := s.Score(&item, profile, item.MatchedRules)
	return ScoredItem{
		Item:       item,
		Score:      score,
		Tier:       TierFor(score, s.weights),
		Importance: EffectiveImportance(profile),
	}
}

// Prioritize scores every item against its repository's profile and
// returns them in presentation order.
func (s *Scorer) Prioritize(items []model.ActivityItem, profiles map[string]*model.RepoProfile) []ScoredItem {
	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, s.ScoreItem(item, profiles[item.Repo]))
	}
	Sort(scored)
	return scored
}

// Sort orders items by score descending, then repository importance
// descending, then most recently updated, then ID. The order is total so
// equal inputs always render identically.
func Sort(items []ScoredItem) {
	slices.SortStableFunc(items, compare)
}

func compare(a, b ScoredItem) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Importance.Rank(), a.Importance.Rank()); c != 0 {
		return c
	}
	if c := b.Item.UpdatedAt.Compare(a.Item.UpdatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Item.ID, b.Item.ID)
}

// FilterByTier returns the items in the given tier, preserving order.
func FilterByTier(items []ScoredItem, tier Tier) []ScoredItem {
	filtered := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if item.Tier == tier {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// FilterByKind returns the items of the given kinds, preserving order.
func FilterByKind(items []ScoredItem, kinds ...model.Kind) []ScoredItem {
	if len(kinds) == 0 {
		return items
	}
	filtered := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if slices.Contains(kinds, item.Item.Kind) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
