// Package triage scores activity items and assigns them to priority tiers.
package triage

import "github.com/spiffcs/ghreport/internal/model"

// Prioritizer scores a batch of items and returns them in presentation
// order. This interface enables substituting the scorer in unit tests.
type Prioritizer interface {
	Prioritize(items []model.ActivityItem, profiles map[string]*model.RepoProfile) []ScoredItem
}

// Ensure Scorer implements Prioritizer interface.
var _ Prioritizer = (*Scorer)(nil)
