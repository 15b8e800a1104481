package config

// ScoringOverrides allows customizing the priority scorer. Unset fields
// keep their defaults.
type ScoringOverrides struct {
	CriticalBase        *float64 `yaml:"critical_base,omitempty" toml:"critical_base,omitempty"`
	HighBase            *float64 `yaml:"high_base,omitempty" toml:"high_base,omitempty"`
	MediumBase          *float64 `yaml:"medium_base,omitempty" toml:"medium_base,omitempty"`
	LowBase             *float64 `yaml:"low_base,omitempty" toml:"low_base,omitempty"`
	HalfLifeHours       *float64 `yaml:"half_life_hours,omitempty" toml:"half_life_hours,omitempty"`
	HighSignalRuleBonus *float64 `yaml:"high_signal_rule_bonus,omitempty" toml:"high_signal_rule_bonus,omitempty"`
	RuleBonus           *float64 `yaml:"rule_bonus,omitempty" toml:"rule_bonus,omitempty"`
	AuthorBonus         *float64 `yaml:"author_bonus,omitempty" toml:"author_bonus,omitempty"`
	MentionBonus        *float64 `yaml:"mention_bonus,omitempty" toml:"mention_bonus,omitempty"`
	ParticipantBonus    *float64 `yaml:"participant_bonus,omitempty" toml:"participant_bonus,omitempty"`
	CriticalThreshold   *float64 `yaml:"critical_threshold,omitempty" toml:"critical_threshold,omitempty"`
	HighThreshold       *float64 `yaml:"high_threshold,omitempty" toml:"high_threshold,omitempty"`
	MediumThreshold     *float64 `yaml:"medium_threshold,omitempty" toml:"medium_threshold,omitempty"`
}

// ScoreWeights defines the complete set of scoring weights
type ScoreWeights struct {
	// Base weight by effective repository importance
	CriticalBase float64
	HighBase     float64
	MediumBase   float64
	LowBase      float64

	// HalfLifeHours is the age at which the base weight has halved.
	HalfLifeHours float64

	// Per matched rule
	HighSignalRuleBonus float64
	RuleBonus           float64

	// Involvement; only the largest applies
	AuthorBonus      float64
	MentionBonus     float64
	ParticipantBonus float64

	// Tier lower bounds, inclusive
	CriticalThreshold float64
	HighThreshold     float64
	MediumThreshold   float64
}

// DefaultScoreWeights returns the default scoring weights
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		CriticalBase: 100,
		HighBase:     50,
		MediumBase:   20,
		LowBase:      5,

		HalfLifeHours: 48,

		HighSignalRuleBonus: 15,
		RuleBonus:           5,

		AuthorBonus:      20,
		MentionBonus:     10,
		ParticipantBonus: 5,

		CriticalThreshold: 150,
		HighThreshold:     80,
		MediumThreshold:   30,
	}
}

// GetScoreWeights returns score weights with user overrides merged with defaults
func (c *Config) GetScoreWeights() ScoreWeights {
	weights := DefaultScoreWeights()
	s := c.Scoring
	if s == nil {
		return weights
	}

	apply := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&weights.CriticalBase, s.CriticalBase)
	apply(&weights.HighBase, s.HighBase)
	apply(&weights.MediumBase, s.MediumBase)
	apply(&weights.LowBase, s.LowBase)
	apply(&weights.HalfLifeHours, s.HalfLifeHours)
	apply(&weights.HighSignalRuleBonus, s.HighSignalRuleBonus)
	apply(&weights.RuleBonus, s.RuleBonus)
	apply(&weights.AuthorBonus, s.AuthorBonus)
	apply(&weights.MentionBonus, s.MentionBonus)
	apply(&weights.ParticipantBonus, s.ParticipantBonus)
	apply(&weights.CriticalThreshold, s.CriticalThreshold)
	apply(&weights.HighThreshold, s.HighThreshold)
	apply(&weights.MediumThreshold, s.MediumThreshold)

	return weights
}

func mergeScoringOverrides(global, local *ScoringOverrides) *ScoringOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &ScoringOverrides{}
	if global != nil {
		*result = *global
	}
	if local == nil {
		return result
	}

	pick := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	pick(&result.CriticalBase, local.CriticalBase)
	pick(&result.HighBase, local.HighBase)
	pick(&result.MediumBase, local.MediumBase)
	pick(&result.LowBase, local.LowBase)
	pick(&result.HalfLifeHours, local.HalfLifeHours)
	pick(&result.HighSignalRuleBonus, local.HighSignalRuleBonus)
	pick(&result.RuleBonus, local.RuleBonus)
	pick(&result.AuthorBonus, local.AuthorBonus)
	pick(&result.MentionBonus, local.MentionBonus)
	pick(&result.ParticipantBonus, local.ParticipantBonus)
	pick(&result.CriticalThreshold, local.CriticalThreshold)
	pick(&result.HighThreshold, local.HighThreshold)
	pick(&result.MediumThreshold, local.MediumThreshold)

	return result
}

func defaultScoringOverrides() *ScoringOverrides {
	w := DefaultScoreWeights()
	return &ScoringOverrides{
		CriticalBase:        &w.CriticalBase,
		HighBase:            &w.HighBase,
		MediumBase:          &w.MediumBase,
		LowBase:             &w.LowBase,
		HalfLifeHours:       &w.HalfLifeHours,
		HighSignalRuleBonus: &w.HighSignalRuleBonus,
		RuleBonus:           &w.RuleBonus,
		AuthorBonus:         &w.AuthorBonus,
		MentionBonus:        &w.MentionBonus,
		ParticipantBonus:    &w.ParticipantBonus,
		CriticalThreshold:   &w.CriticalThreshold,
		HighThreshold:       &w.HighThreshold,
		MediumThreshold:     &w.MediumThreshold,
	}
}
