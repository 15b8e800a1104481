package pipeline

import (
	"context"
	"iter"
	"time"

	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/summarize"
)

// ActivitySource lists a repository's activity since a point in time. The
// sequence is lazy; a yielded error ends it.
type ActivitySource interface {
	Activity(ctx context.Context, repo string, since time.Time) iter.Seq2[model.ActivityItem, error]
}

// Summarizer produces a summary for prepared content. Errors should be
// classified with errs.Transient or errs.Fatal where possible.
type Summarizer interface {
	Summarize(ctx context.Context, req summarize.Request) (summarize.Result, error)
}

// Ensure the production summarizer satisfies Summarizer.
var _ Summarizer = (*summarize.Client)(nil)
