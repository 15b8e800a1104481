package triage

import (
	"math"
	"slices"
	"time"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/watch"
)

// highSignalRules earn the larger per-rule bonus.
var highSignalRules = []string{
	watch.RuleAPIChanges,
	watch.RuleBreakingChanges,
	watch.RuleSecurityIssues,
}

// Scorer computes deterministic priority scores. The clock is fixed at
// construction so every item in a run is aged against the same instant.
type Scorer struct {
	weights config.ScoreWeights
	user    string
	now     time.Time
}

// NewScorer creates a scorer for the given user, weights, and run clock.
func NewScorer(user string, weights config.ScoreWeights, now time.Time) *Scorer {
	return &Scorer{
		weights: weights,
		user:    user,
		now:     now,
	}
}

// Now returns the run clock the scorer ages items against.
func (s *Scorer) Now() time.Time {
	return s.now
}

// Score returns the item's priority score: the importance base weight
// decayed by age, plus watch rule and involvement bonuses, never below 0.
func (s *Scorer) Score(item *model.ActivityItem, profile *model.RepoProfile, matched []string) float64 {
	score := s.decayedBase(item, EffectiveImportance(profile))
	score += s.ruleBonus(matched)
	score += s.involvementBonus(item)
	return max(score, 0)
}

func (s *Scorer) baseWeight(imp model.Importance) float64 {
	switch imp {
	case model.ImportanceCritical:
		return s.weights.CriticalBase
	case model.ImportanceHigh:
		return s.weights.HighBase
	case model.ImportanceLow:
		return s.weights.LowBase
	default:
		return s.weights.MediumBase
	}
}

func (s *Scorer) decayedBase(item *model.ActivityItem, imp model.Importance) float64 {
	base := s.baseWeight(imp)
	if s.weights.HalfLifeHours <= 0 {
		return base
	}
	ageHours := max(s.now.Sub(item.UpdatedAt).Hours(), 0)
	return base * math.Pow(0.5, ageHours/s.weights.HalfLifeHours)
}

func (s *Scorer) ruleBonus(matched []string) float64 {
	bonus := 0.0
	for _, rule := range matched {
		if slices.Contains(highSignalRules, rule) {
			bonus += s.weights.HighSignalRuleBonus
		} else {
			bonus += s.weights.RuleBonus
		}
	}
	return bonus
}

// involvementBonus applies only the strongest form of involvement.
func (s *Scorer) involvementBonus(item *model.ActivityItem) float64 {
	switch {
	case item.IsAuthor(s.user):
		return s.weights.AuthorBonus
	case item.Mentions(s.user):
		return s.weights.MentionBonus
	case item.Participated(s.user):
		return s.weights.ParticipantBonus
	default:
		return 0
	}
}

// TierFor maps a score onto a tier. Each threshold belongs to the tier
// above it.
func TierFor(score float64, w config.ScoreWeights) Tier {
	switch {
	case score >= w.CriticalThreshold:
		return TierCritical
	case score >= w.HighThreshold:
		return TierHigh
	case score >= w.MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// EffectiveImportance returns the importance used for scoring a profile's
// items: the repo override, then label importance, then medium.
func EffectiveImportance(profile *model.RepoProfile) model.Importance {
	return profile.EffectiveImportance()
}
