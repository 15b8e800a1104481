package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/spiffcs/ghreport/internal/model"
)

// normalize prepares fetched activity for scoring. It drops items from
// untracked repositories and items older than since, renames each item's
// repository to its profile's canonical name, collapses duplicate IDs to
// the most recent copy, tidies text and labels, and turns comments that
// mention user into mentions. The result is ordered by ID.
func normalize(items []model.ActivityItem, profiles map[string]*model.RepoProfile, since time.Time, user string) []model.ActivityItem {
	byID := make(map[string]model.ActivityItem, len(items))

	for _, item := range items {
		p, ok := profiles[strings.ToLower(item.Repo)]
		if !ok || item.ID == "" {
			continue
		}
		if item.UpdatedAt.Before(since) {
			continue
		}

		item.Repo = p.Name
		item.Title = strings.TrimSpace(item.Title)
		item.Body = strings.TrimSpace(strings.ReplaceAll(item.Body, "\r\n", "\n"))
		item.Labels = normalizeLabels(item.Labels)
		item.MatchedRules = nil
		if item.Kind == model.KindComment && item.Mentions(user) {
			item.Kind = model.KindMention
		}

		if prev, ok := byID[item.ID]; ok && !item.UpdatedAt.After(prev.UpdatedAt) {
			continue
		}
		byID[item.ID] = item
	}

	out := make([]model.ActivityItem, 0, len(byID))
	for _, item := range byID {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b model.ActivityItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// normalizeLabels trims labels and removes blanks and case-insensitive
// duplicates, keeping the first spelling.
func normalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		k := strings.ToLower(l)
		if l == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b string) int { return cmp.Compare(strings.ToLower(a), strings.ToLower(b)) })
	return out
}
