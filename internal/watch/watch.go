// Package watch matches activity items against named watch rules.
package watch

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/spiffcs/ghreport/internal/model"
)

// Rule names with built-in meaning.
const (
	RuleAPIChanges      = "api_changes"
	RuleBreakingChanges = "breaking_changes"
	RuleSecurityIssues  = "security_issues"
	RulePerformance     = "performance"
	RuleMentions        = "mentions"
	RuleReviewRequests  = "review_requests"
	RuleAllActivity     = "all_activity"
)

// RegexPrefix marks a pattern as a regular expression rather than a
// literal substring.
const RegexPrefix = "re:"

// UsernamePlaceholder is replaced with the current user's login.
const UsernamePlaceholder = "{username}"

// Rule is a named set of patterns. A rule with no patterns matches every
// item.
type Rule struct {
	Name     string   `yaml:"name" json:"name" toml:"name"`
	Patterns []string `yaml:"patterns" json:"patterns" toml:"patterns"`
}

// DefaultRules returns the built-in watch rules.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleAPIChanges, Patterns: []string{"public API", "breaking change", "deprecation", "new feature"}},
		{Name: RuleBreakingChanges, Patterns: []string{"BREAKING", "migration", "major version"}},
		{Name: RuleSecurityIssues, Patterns: []string{"security", "vulnerability", "CVE", "exploit"}},
		{Name: RulePerformance, Patterns: []string{"performance", "regression", "benchmark", "slow"}},
		{Name: RuleMentions, Patterns: []string{RegexPrefix + `@` + UsernamePlaceholder + `\b`}},
		{Name: RuleReviewRequests, Patterns: []string{"review requested", "PTAL", "feedback needed"}},
		{Name: RuleAllActivity},
	}
}

type pattern struct {
	raw     string
	re      *regexp.Regexp // nil for literals
	literal string         // lowercased
	user    bool           // contains the username placeholder
}

// Matcher tests items against a fixed rule set. It is safe for concurrent
// use.
type Matcher struct {
	rules map[string][]pattern
	names []string

	mu       sync.Mutex
	perLogin map[string]*regexp.Regexp
}

// NewMatcher compiles rules. Patterns that are not valid regular
// expressions are kept as literals, so construction never fails. A later
// rule with the same name replaces an earlier one.
func NewMatcher(rules []Rule) *Matcher {
	m := &Matcher{
		rules:    make(map[string][]pattern, len(rules)),
		perLogin: make(map[string]*regexp.Regexp),
	}
	for _, r := range rules {
		if _, seen := m.rules[r.Name]; !seen {
			m.names = append(m.names, r.Name)
		}
		compiled := make([]pattern, 0, len(r.Patterns))
		for _, raw := range r.Patterns {
			compiled = append(compiled, compilePattern(raw))
		}
		m.rules[r.Name] = compiled
	}
	return m
}

func compilePattern(raw string) pattern {
	p := pattern{raw: raw, user: strings.Contains(raw, UsernamePlaceholder)}
	expr, isRegex := strings.CutPrefix(raw, RegexPrefix)
	if !isRegex {
		p.literal = strings.ToLower(raw)
		return p
	}
	if p.user {
		// Compiled per login on first use.
		return p
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		p.literal = strings.ToLower(expr)
		return p
	}
	p.re = re
	return p
}

// Names returns the rule names in definition order.
func (m *Matcher) Names() []string {
	return slices.Clone(m.names)
}

// Has reports whether a rule with the given name exists.
func (m *Matcher) Has(name string) bool {
	_, ok := m.rules[name]
	return ok
}

// ActiveRules returns the rules that apply to a repository: the union of
// its own and its labels' watch rules, or every rule except the catch-all
// when neither names any.
func (m *Matcher) ActiveRules(p *model.RepoProfile) []string {
	var active []string
	if p != nil {
		active = append(active, p.WatchRules...)
		active = append(active, p.LabelWatchRules...)
	}
	if len(active) == 0 {
		for _, name := range m.names {
			if name != RuleAllActivity {
				active = append(active, name)
			}
		}
	}
	slices.Sort(active)
	return slices.Compact(active)
}

// Match returns the sorted names of the active rules the item satisfies.
// Unknown rule names are ignored.
func (m *Matcher) Match(item *model.ActivityItem, active []string, username string) []string {
	if item == nil {
		return nil
	}
	text := searchableText(item)
	lower := strings.ToLower(text)

	var matched []string
	for _, name := range active {
		patterns, ok := m.rules[name]
		if !ok {
			continue
		}
		if len(patterns) == 0 || m.anyMatch(patterns, text, lower, username) {
			matched = append(matched, name)
		}
	}

	// Labels alone can signal security or breaking work.
	for _, label := range item.Labels {
		l := strings.ToLower(label)
		if slices.Contains(active, RuleSecurityIssues) && (strings.Contains(l, "security") || strings.Contains(l, "vulnerability")) {
			matched = append(matched, RuleSecurityIssues)
		}
		if slices.Contains(active, RuleBreakingChanges) && (strings.Contains(l, "breaking") || strings.Contains(l, "major")) {
			matched = append(matched, RuleBreakingChanges)
		}
	}

	slices.Sort(matched)
	return slices.Compact(matched)
}

func (m *Matcher) anyMatch(patterns []pattern, text, lower, username string) bool {
	for _, p := range patterns {
		switch {
		case p.user:
			if username == "" {
				continue
			}
			if m.matchUserPattern(p, text, lower, username) {
				return true
			}
		case p.re != nil:
			if p.re.MatchString(text) {
				return true
			}
		default:
			if p.literal != "" && strings.Contains(lower, p.literal) {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) matchUserPattern(p pattern, text, lower, username string) bool {
	expr, isRegex := strings.CutPrefix(p.raw, RegexPrefix)
	if !isRegex {
		lit := strings.ToLower(strings.ReplaceAll(p.raw, UsernamePlaceholder, username))
		return strings.Contains(lower, lit)
	}

	key := username + "\x00" + p.raw
	m.mu.Lock()
	re, ok := m.perLogin[key]
	if !ok {
		compiled, err := regexp.Compile("(?i)" + strings.ReplaceAll(expr, UsernamePlaceholder, regexp.QuoteMeta(username)))
		if err == nil {
			re = compiled
		}
		m.perLogin[key] = re
	}
	m.mu.Unlock()

	if re == nil {
		lit := strings.ToLower(strings.ReplaceAll(expr, UsernamePlaceholder, username))
		return strings.Contains(lower, lit)
	}
	return re.MatchString(text)
}

func searchableText(item *model.ActivityItem) string {
	var b strings.Builder
	b.WriteString(item.Title)
	b.WriteByte('\n')
	b.WriteString(item.Body)
	for _, l := range item.Labels {
		b.WriteByte('\n')
		b.WriteString(l)
	}
	return b.String()
}
