// Package output renders a pipeline digest for the terminal or for files.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/spiffcs/ghreport/internal/format"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/pipeline"
	"github.com/spiffcs/ghreport/internal/triage"
	"github.com/spiffcs/ghreport/internal/watch"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders a digest.
type Formatter interface {
	Format(d *pipeline.Digest, w io.Writer) error
}

// Options tune rendering.
type Options struct {
	// Now anchors relative ages. Defaults to the digest's generation time.
	Now time.Time

	// Hyperlinks enables OSC 8 links in the table format.
	Hyperlinks bool

	// Verbose lists every degraded item and source failure in the footer.
	Verbose bool
}

// NewFormatter creates a formatter for the specified format. Unknown formats
// fall back to the table.
func NewFormatter(f Format, opts Options) Formatter {
	switch f {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{opts: opts}
	default:
		return &TableFormatter{opts: opts}
	}
}

func (o Options) now(d *pipeline.Digest) time.Time {
	if !o.Now.IsZero() {
		return o.Now
	}
	if !d.GeneratedAt.IsZero() {
		return d.GeneratedAt
	}
	return time.Now()
}

// itemIcon picks the marker shown next to an item title.
func itemIcon(ai *pipeline.AnnotatedItem) string {
	item := &ai.Item
	return format.DetermineIcon(format.IconOptions{
		CommentCount:      item.CommentCount,
		HotTopicThreshold: format.HotTopicThreshold,
		Mentioned:         item.Kind == model.KindMention,
		Security:          hasRule(item, watch.RuleSecurityIssues),
		Breaking:          hasRule(item, watch.RuleBreakingChanges),
	}).String()
}

func hasRule(item *model.ActivityItem, rule string) bool {
	for _, r := range item.MatchedRules {
		if r == rule {
			return true
		}
	}
	return false
}

// statusNote describes an item whose summary is missing.
func statusNote(ai *pipeline.AnnotatedItem) string {
	switch ai.Status {
	case pipeline.StatusDegraded, pipeline.StatusFailed:
		return "summary unavailable"
	case pipeline.StatusSkipped:
		return "summary skipped (run interrupted)"
	}
	return ""
}

func overflowNote(o []overflowLine) []string {
	notes := make([]string, 0, len(o))
	for _, l := range o {
		notes = append(notes, fmt.Sprintf("+%d more %s not shown", l.count, l.section))
	}
	return notes
}

type overflowLine struct {
	section string
	count   int
}

func overflowLines(sec *pipeline.Section) []overflowLine {
	lines := make([]overflowLine, 0, len(sec.Overflow))
	for _, o := range sec.Overflow {
		if o.Count > 0 {
			lines = append(lines, overflowLine{section: string(o.Section), count: o.Count})
		}
	}
	return lines
}

// nonEmpty returns the digest sections that have something to show.
func nonEmpty(d *pipeline.Digest) []*pipeline.Section {
	var out []*pipeline.Section
	for _, tier := range triage.AllTiers() {
		sec := d.Section(tier)
		if sec != nil && (len(sec.Items) > 0 || len(overflowLines(sec)) > 0) {
			out = append(out, sec)
		}
	}
	return out
}

// summaryLines renders the run summary as plain sentences shared by the
// table and markdown formats.
func summaryLines(d *pipeline.Digest, verbose bool) []string {
	s := &d.Summary
	lines := []string{
		fmt.Sprintf("%d items from %d repositories (%d fetched)", s.Items, s.Repos, s.Fetched),
	}
	if d.DryRun {
		lines = append(lines, fmt.Sprintf("dry run: ~%d summarizer input tokens for %d items", s.EstimatedTokens, s.Items))
	} else {
		lines = append(lines, fmt.Sprintf("%d summarized, %d from cache, %d unavailable, %d skipped",
			s.Summarized, s.CacheHits, s.Degraded, s.Skipped))
	}
	if s.Truncated {
		lines = append(lines, fmt.Sprintf("%d items over the section caps were left out", s.Overflow))
	}
	if n := len(s.SourceFailures); n > 0 {
		lines = append(lines, fmt.Sprintf("%d repositories could not be fetched", n))
		if verbose {
			for _, f := range s.SourceFailures {
				lines = append(lines, fmt.Sprintf("  %s: %s", f.Repo, f.Error))
			}
		}
	}
	if n := len(s.SkippedRepos); n > 0 {
		lines = append(lines, fmt.Sprintf("%d repositories were not fetched before the run stopped", n))
	}
	for _, r := range s.Added {
		lines = append(lines, "now tracking "+r)
	}
	for _, r := range s.Removed {
		lines = append(lines, "stopped tracking "+r)
	}
	if s.DiscoveryError != "" {
		lines = append(lines, "repository discovery failed: "+s.DiscoveryError)
	}
	if s.Cancelled {
		lines = append(lines, "run interrupted; the next run resumes from cached summaries")
	}
	return lines
}
