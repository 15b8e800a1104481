package ghclient

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/urlutil"
)

// Activity lists issues, pull requests and their comments in repo updated
// at or after since. Results are fetched page by page as the sequence is
// consumed. A failure is yielded once and ends the sequence.
func (c *Client) Activity(ctx context.Context, repo string, since time.Time) iter.Seq2[model.ActivityItem, error] {
	return func(yield func(model.ActivityItem, error) bool) {
		owner, name, err := urlutil.SplitRepo(repo)
		if err != nil {
			yield(model.ActivityItem{}, err)
			return
		}

		query := fmt.Sprintf("repo:%s/%s updated:>=%s", owner, name, since.UTC().Format(time.DateOnly))
		opts := &gh.SearchOptions{
			Sort:  "updated",
			Order: "desc",
			ListOptions: gh.ListOptions{
				PerPage: 100,
			},
		}

		for {
			result, resp, err := c.client.Search.Issues(ctx, query, opts)
			if err != nil {
				yield(model.ActivityItem{}, classify(fmt.Errorf("search activity in %s: %w", repo, err)))
				return
			}
			log.Trace("activity page", "repo", repo, "page", opts.Page, "items", len(result.Issues))

			for _, issue := range result.Issues {
				// the search qualifier has day granularity
				if issue.GetUpdatedAt().Time.Before(since) {
					continue
				}

				item := issueToItem(repo, issue)
				var comments []model.ActivityItem
				if issue.GetComments() > 0 {
					comments, err = c.comments(ctx, owner, name, &item, since)
					if err != nil {
						yield(model.ActivityItem{}, err)
						return
					}
				}
				item.Participants = participants(comments)

				if !yield(item, nil) {
					return
				}
				for _, cm := range comments {
					if !yield(cm, nil) {
						return
					}
				}
			}

			if resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

// comments lists the parent's comments updated at or after since.
func (c *Client) comments(ctx context.Context, owner, name string, parent *model.ActivityItem, since time.Time) ([]model.ActivityItem, error) {
	opts := &gh.IssueListCommentsOptions{
		Since: &since,
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var items []model.ActivityItem
	for {
		comments, resp, err := c.client.Issues.ListComments(ctx, owner, name, parent.Number, opts)
		if err != nil {
			return nil, classify(fmt.Errorf("list comments on %s#%d: %w", parent.Repo, parent.Number, err))
		}
		for _, cm := range comments {
			items = append(items, commentToItem(parent, cm))
		}
		if resp.NextPage == 0 {
			return items, nil
		}
		opts.Page = resp.NextPage
	}
}

func issueToItem(repo string, issue *gh.Issue) model.ActivityItem {
	kind := model.KindIssue
	if issue.IsPullRequest() {
		kind = model.KindPullRequest
	}

	var labels []string
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return model.ActivityItem{
		ID:           fmt.Sprintf("%s#%d", repo, issue.GetNumber()),
		Repo:         repo,
		Kind:         kind,
		Number:       issue.GetNumber(),
		Title:        issue.GetTitle(),
		Body:         issue.GetBody(),
		Author:       issue.GetUser().GetLogin(),
		State:        issue.GetState(),
		CreatedAt:    issue.GetCreatedAt().Time,
		UpdatedAt:    issue.GetUpdatedAt().Time,
		Labels:       labels,
		URL:          issue.GetHTMLURL(),
		CommentCount: issue.GetComments(),
	}
}

func commentToItem(parent *model.ActivityItem, cm *gh.IssueComment) model.ActivityItem {
	return model.ActivityItem{
		ID:        fmt.Sprintf("%s/comment-%d", parent.ID, cm.GetID()),
		Repo:      parent.Repo,
		Kind:      model.KindComment,
		Number:    parent.Number,
		Title:     "Re: " + parent.Title,
		Body:      cm.GetBody(),
		Author:    cm.GetUser().GetLogin(),
		State:     parent.State,
		CreatedAt: cm.GetCreatedAt().Time,
		UpdatedAt: cm.GetUpdatedAt().Time,
		Labels:    slices.Clone(parent.Labels),
		URL:       cm.GetHTMLURL(),
	}
}

func participants(comments []model.ActivityItem) []string {
	var logins []string
	for _, cm := range comments {
		if cm.Author != "" {
			logins = append(logins, strings.ToLower(cm.Author))
		}
	}
	slices.Sort(logins)
	return slices.Compact(logins)
}
