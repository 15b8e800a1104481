package triage

import (
	"github.com/spiffcs/ghreport/internal/model"
)

// Tier is a discrete priority bucket derived from a score.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// AllTiers returns the tiers from most to least urgent.
func AllTiers() []Tier {
	return []Tier{TierCritical, TierHigh, TierMedium, TierLow}
}

// Rank orders tiers from low (0) to critical (3).
func (t Tier) Rank() int {
	switch t {
	case TierCritical:
		return 3
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	default:
		return 0
	}
}

// Display returns a human-readable tier name
func (t Tier) Display() string {
	switch t {
	case TierCritical:
		return "Critical"
	case TierHigh:
		return "High"
	case TierMedium:
		return "Medium"
	case TierLow:
		return "Low"
	default:
		return string(t)
	}
}

// ScoredItem wraps an activity item with priority information
type ScoredItem struct {
	Item       model.ActivityItem `json:"item"`
	Score      float64            `json:"score"`
	Tier       Tier               `json:"tier"`
	Importance model.Importance   `json:"importance"`
}
