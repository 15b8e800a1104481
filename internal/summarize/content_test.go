package summarize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/model"
)

func TestBuildContent(t *testing.T) {
	item := &model.ActivityItem{
		Repo:         "acme/widgets",
		Kind:         model.KindPullRequest,
		Number:       42,
		Title:        "Drop the v1 API",
		Body:         "This removes every v1 endpoint.",
		Author:       "alice",
		State:        "open",
		Labels:       []string{"breaking"},
		MatchedRules: []string{"api_changes", "breaking_changes"},
	}
	profile := &model.RepoProfile{
		Name:          "acme/widgets",
		CustomContext: "Public SDK used by partners.",
		LabelContext:  "Cares about API stability.",
	}

	got := BuildContent(item, profile)

	for _, want := range []string{
		"Repository: acme/widgets",
		"Type: pull request",
		"Number: #42",
		"Labels: breaking",
		"Flagged as: api_changes, breaking_changes",
		"About this repository:\nPublic SDK used by partners.",
		"Reader's interests:\nCares about API stability.",
		"Content:\nThis removes every v1 endpoint.",
	} {
		assert.Contains(t, got, want)
	}
	assert.Equal(t, got, BuildContent(item, profile), "content must be deterministic")
}

func TestBuildContent_NilProfileAndEmptyBody(t *testing.T) {
	got := BuildContent(&model.ActivityItem{Repo: "a/b", Kind: model.KindIssue, Title: "t"}, nil)
	assert.NotContains(t, got, "Content:")
	assert.NotContains(t, got, "About this repository")
	assert.Contains(t, got, "Type: issue")
}

func TestBuildContent_TruncatesOnRuneBoundary(t *testing.T) {
	item := &model.ActivityItem{
		Repo:  "a/b",
		Title: "long",
		Body:  strings.Repeat("é", constants.MaxContentBytes),
	}

	got := BuildContent(item, nil)
	assert.LessOrEqual(t, len(got), constants.MaxContentBytes)
	assert.True(t, utf8.ValidString(got))
}

func TestEstimateTokens(t *testing.T) {
	small := EstimateTokens("abcd")
	large := EstimateTokens(strings.Repeat("abcd", 1000))
	assert.Positive(t, small)
	assert.Equal(t, 999, large-small)
}
