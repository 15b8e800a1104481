package model

import (
	"fmt"
	"strings"
	"time"
)

// Importance ranks how much a repository matters to the user.
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// Rank orders importances from low (0) to critical (3). Unknown values rank
// as medium.
func (i Importance) Rank() int {
	switch i {
	case ImportanceLow:
		return 0
	case ImportanceHigh:
		return 2
	case ImportanceCritical:
		return 3
	default:
		return 1
	}
}

// ParseImportance parses an importance name, case-insensitively.
func ParseImportance(s string) (Importance, error) {
	switch imp := Importance(strings.ToLower(strings.TrimSpace(s))); imp {
	case ImportanceLow, ImportanceMedium, ImportanceHigh, ImportanceCritical:
		return imp, nil
	default:
		return "", fmt.Errorf("invalid importance %q: use low, medium, high, or critical", s)
	}
}

// RepoProfile is the tracked state of a single repository.
type RepoProfile struct {
	Name          string     `json:"name"`
	Labels        []string   `json:"labels,omitempty"`
	Importance    Importance `json:"importance,omitempty"`
	CustomContext string     `json:"customContext,omitempty"`
	WatchRules    []string   `json:"watchRules,omitempty"`
	LastSeen      time.Time  `json:"lastSeen"`
	ActivityScore int        `json:"activityScore"`
	AutoTracked   bool       `json:"autoTracked"`
	TrackedSince  time.Time  `json:"trackedSince"`

	// Manual marks a repository added from the command line rather than the
	// config file. Manual repositories are never auto-removed.
	Manual bool `json:"manual,omitempty"`

	// LabelImportance is the highest importance among the profile's labels.
	// It is derived from configuration on every load and never persisted.
	LabelImportance Importance `json:"-"`

	// LabelContext concatenates the context text of the profile's labels.
	LabelContext string `json:"-"`

	// LabelWatchRules is the union of the watch rules of the profile's labels.
	LabelWatchRules []string `json:"-"`
}

// EffectiveImportance returns the repo-level override when set, the
// label-derived importance otherwise, and medium when neither is known.
func (p *RepoProfile) EffectiveImportance() Importance {
	if p == nil {
		return ImportanceMedium
	}
	if p.Importance != "" {
		return p.Importance
	}
	if p.LabelImportance != "" {
		return p.LabelImportance
	}
	return ImportanceMedium
}

// Owner returns the owner half of an "owner/name" repository.
func (p *RepoProfile) Owner() string {
	owner, _, _ := strings.Cut(p.Name, "/")
	return owner
}
