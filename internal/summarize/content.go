package summarize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/model"
)

// PromptVersion identifies the system prompt and the BuildContent layout.
// It is part of every summary fingerprint, so changing either must bump it.
const PromptVersion = "2"

// BuildContent renders the text sent to the summarizer for an item. The
// output depends only on the item and profile, which keeps fingerprints
// stable across runs.
func BuildContent(item *model.ActivityItem, profile *model.RepoProfile) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Repository: %s\n", item.Repo)
	fmt.Fprintf(&sb, "Type: %s\n", kindName(item.Kind))
	if item.Number > 0 {
		fmt.Fprintf(&sb, "Number: #%d\n", item.Number)
	}
	fmt.Fprintf(&sb, "Title: %s\n", item.Title)
	fmt.Fprintf(&sb, "Author: %s\n", item.Author)
	if item.State != "" {
		fmt.Fprintf(&sb, "State: %s\n", item.State)
	}
	if len(item.Labels) > 0 {
		fmt.Fprintf(&sb, "Labels: %s\n", strings.Join(item.Labels, ", "))
	}
	if len(item.MatchedRules) > 0 {
		fmt.Fprintf(&sb, "Flagged as: %s\n", strings.Join(item.MatchedRules, ", "))
	}
	if item.CommentCount > 0 {
		fmt.Fprintf(&sb, "Comments: %d\n", item.CommentCount)
	}

	if profile != nil {
		if ctx := strings.TrimSpace(profile.CustomContext); ctx != "" {
			fmt.Fprintf(&sb, "\nAbout this repository:\n%s\n", ctx)
		}
		if ctx := strings.TrimSpace(profile.LabelContext); ctx != "" {
			fmt.Fprintf(&sb, "\nReader's interests:\n%s\n", ctx)
		}
	}

	header := sb.String()
	body := strings.TrimSpace(item.Body)
	if body == "" {
		return header
	}

	const bodyHeading = "\nContent:\n"
	budget := constants.MaxContentBytes - len(header) - len(bodyHeading)
	if budget <= 0 {
		return truncate(header, constants.MaxContentBytes)
	}
	return header + bodyHeading + truncate(body, budget)
}

// EstimateTokens approximates the input tokens for content, at roughly four
// bytes per token.
func EstimateTokens(content string) int {
	return (len(content) + len(systemPrompt) + 3) / 4
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func kindName(k model.Kind) string {
	switch k {
	case model.KindPullRequest:
		return "pull request"
	case model.KindComment:
		return "comment"
	case model.KindMention:
		return "mention"
	default:
		return "issue"
	}
}
