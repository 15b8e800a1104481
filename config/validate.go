package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/duration"
	"github.com/spiffcs/ghreport/internal/model"
)

// ValidFormats lists the accepted values of default_format.
var ValidFormats = []string{"table", "json", "markdown"}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.DefaultFormat != "" && !isValidFormat(c.DefaultFormat) {
		errs = append(errs, fmt.Errorf("default_format %q: use one of %s", c.DefaultFormat, strings.Join(ValidFormats, ", ")))
	}

	tracker := c.GetTracker()
	if tracker.AddWindow >= tracker.RemoveAfter {
		errs = append(errs, fmt.Errorf("dynamic_repos: auto_add_threshold_days (%s) must be shorter than auto_remove_threshold_days (%s)",
			duration.Format(tracker.AddWindow), duration.Format(tracker.RemoveAfter)))
	}

	if cc := c.Concurrency; cc != nil {
		if cc.Fetch != 0 && (cc.Fetch < constants.MinFetchConcurrency || cc.Fetch > constants.MaxFetchConcurrency) {
			errs = append(errs, fmt.Errorf("concurrency.fetch %d out of range [%d, %d]",
				cc.Fetch, constants.MinFetchConcurrency, constants.MaxFetchConcurrency))
		}
		if cc.Summarize != 0 && (cc.Summarize < constants.MinSummarizeConcurrency || cc.Summarize > constants.MaxSummarizeConcurrency) {
			errs = append(errs, fmt.Errorf("concurrency.summarize %d out of range [%d, %d]",
				cc.Summarize, constants.MinSummarizeConcurrency, constants.MaxSummarizeConcurrency))
		}
	}

	if cc := c.Cache; cc != nil {
		fields := []struct{ name, value string }{
			{"cache.summary_ttl", cc.SummaryTTL},
			{"cache.retention", cc.Retention},
		}
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			if _, err := duration.ParseDuration(f.value); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			}
		}
	}

	if s := c.Settings; s != nil {
		if s.MaxItems < 0 || s.MaxComments < 0 || s.MaxLookbackDays < 0 {
			errs = append(errs, errors.New("settings: limits must not be negative"))
		}
	}

	rules := make(map[string]bool)
	for _, r := range c.GetWatchRules() {
		rules[r.Name] = true
	}

	labels := make(map[string]bool, len(c.Labels))
	for _, l := range c.Labels {
		if l.Name == "" {
			errs = append(errs, errors.New("labels: a label has no name"))
			continue
		}
		labels[strings.ToLower(l.Name)] = true
		if l.Importance != "" {
			if _, err := model.ParseImportance(l.Importance); err != nil {
				errs = append(errs, fmt.Errorf("label %s: %w", l.Name, err))
			}
		}
		errs = append(errs, unknownRules("label "+l.Name, l.WatchRules, rules)...)
	}

	seen := make(map[string]bool, len(c.Repos))
	for _, r := range c.Repos {
		owner, name, ok := strings.Cut(r.Name, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			errs = append(errs, fmt.Errorf("repo %q: expected owner/name", r.Name))
			continue
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("repo %s: listed more than once", r.Name))
		}
		seen[key] = true
		if r.ImportanceOverride != "" {
			if _, err := model.ParseImportance(r.ImportanceOverride); err != nil {
				errs = append(errs, fmt.Errorf("repo %s: %w", r.Name, err))
			}
		}
		for _, l := range r.Labels {
			if !labels[strings.ToLower(l)] {
				errs = append(errs, fmt.Errorf("repo %s: unknown label %q", r.Name, l))
			}
		}
		errs = append(errs, unknownRules("repo "+r.Name, r.WatchRules, rules)...)
	}

	return errors.Join(errs...)
}

func unknownRules(owner string, names []string, known map[string]bool) []error {
	var errs []error
	for _, n := range names {
		if !known[n] {
			errs = append(errs, fmt.Errorf("%s: unknown watch rule %q", owner, n))
		}
	}
	return errs
}

func isValidFormat(f string) bool {
	for _, v := range ValidFormats {
		if v == f {
			return true
		}
	}
	return false
}
