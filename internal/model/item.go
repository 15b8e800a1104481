// Package model contains the domain types shared across the report pipeline.
// These types are independent of any external GitHub library.
package model

import (
	"slices"
	"strings"
	"time"
)

// Kind identifies what sort of activity an item represents.
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pr"
	KindComment     Kind = "comment"
	KindMention     Kind = "mention"
)

// AllKinds contains all valid item kinds.
var AllKinds = []Kind{
	KindIssue,
	KindPullRequest,
	KindComment,
	KindMention,
}

// Display returns a short label for tables.
func (k Kind) Display() string {
	switch k {
	case KindIssue:
		return "ISS"
	case KindPullRequest:
		return "PR"
	case KindComment:
		return "CMT"
	case KindMention:
		return "@"
	default:
		return string(k)
	}
}

// ActivityItem is a single unit of repository activity: an issue, a pull
// request, or a comment on one of them.
type ActivityItem struct {
	ID           string    `json:"id"`
	Repo         string    `json:"repo"`
	Kind         Kind      `json:"kind"`
	Number       int       `json:"number,omitempty"`
	Title        string    `json:"title"`
	Body         string    `json:"body,omitempty"`
	Author       string    `json:"author"`
	State        string    `json:"state,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Labels       []string  `json:"labels,omitempty"`
	URL          string    `json:"url"`
	CommentCount int       `json:"commentCount,omitempty"`

	// Participants holds the logins of users who commented on the item.
	Participants []string `json:"participants,omitempty"`

	// MatchedRules is filled in by the watch rule matcher.
	MatchedRules []string `json:"matchedRules,omitempty"`
}

// HasLabel reports whether the item carries the label, ignoring case.
func (a *ActivityItem) HasLabel(name string) bool {
	for _, l := range a.Labels {
		if strings.EqualFold(l, name) {
			return true
		}
	}
	return false
}

// IsAuthor reports whether login authored the item.
func (a *ActivityItem) IsAuthor(login string) bool {
	return login != "" && strings.EqualFold(a.Author, login)
}

// Mentions reports whether login is @-mentioned in the title or body.
func (a *ActivityItem) Mentions(login string) bool {
	if login == "" {
		return false
	}
	needle := "@" + strings.ToLower(login)
	text := strings.ToLower(a.Title + "\n" + a.Body)
	for {
		i := strings.Index(text, needle)
		if i < 0 {
			return false
		}
		end := i + len(needle)
		// "@bob" must not match "@bobby"
		if end == len(text) || !isLoginRune(rune(text[end])) {
			return true
		}
		text = text[end:]
	}
}

// Participated reports whether login commented on the item.
func (a *ActivityItem) Participated(login string) bool {
	if login == "" {
		return false
	}
	return slices.ContainsFunc(a.Participants, func(p string) bool {
		return strings.EqualFold(p, login)
	})
}

func isLoginRune(r rune) bool {
	return r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
