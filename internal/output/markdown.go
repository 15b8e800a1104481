package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiffcs/ghreport/internal/format"
	"github.com/spiffcs/ghreport/internal/pipeline"
	"github.com/spiffcs/ghreport/internal/triage"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	opts Options
}

// Format writes the digest as a Markdown document.
func (f *MarkdownFormatter) Format(d *pipeline.Digest, w io.Writer) error {
	fmt.Fprintln(w, "# GitHub Activity Report")
	fmt.Fprintf(w, "\n*Generated: %s*", d.GeneratedAt.Format("2006-01-02 15:04"))
	if !d.Since.IsZero() {
		fmt.Fprintf(w, " *· activity since %s*", d.Since.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	sections := nonEmpty(d)
	if len(sections) == 0 {
		fmt.Fprintln(w, "No activity found.")
		fmt.Fprintln(w)
	}

	now := f.opts.now(d)
	for _, sec := range sections {
		fmt.Fprintf(w, "## %s %s (%d)\n\n", tierEmoji(sec.Tier), sec.Tier.Display(), len(sec.Items))

		for i := range sec.Items {
			ai := &sec.Items[i]
			item := &ai.Item

			title := escapeLinkText(format.OneLine(item.Title))
			if icon := itemIcon(ai); icon != "" {
				title = icon + " " + title
			}
			if item.URL != "" {
				fmt.Fprintf(w, "### [%s](%s)\n\n", title, item.URL)
			} else {
				fmt.Fprintf(w, "### %s\n\n", title)
			}

			fmt.Fprintf(w, "- **Repository:** %s\n", item.Repo)
			fmt.Fprintf(w, "- **Type:** %s\n", item.Kind)
			if item.Author != "" {
				fmt.Fprintf(w, "- **Author:** @%s\n", item.Author)
			}
			fmt.Fprintf(w, "- **Updated:** %s ago\n", format.Age(now, item.UpdatedAt))
			fmt.Fprintf(w, "- **Score:** %.1f\n", ai.Score)
			if len(item.Labels) > 0 {
				fmt.Fprintf(w, "- **Labels:** %s\n", formatLabels(item.Labels))
			}
			if len(item.MatchedRules) > 0 {
				fmt.Fprintf(w, "- **Flagged as:** %s\n", strings.Join(item.MatchedRules, ", "))
			}
			fmt.Fprintln(w)

			switch {
			case ai.Summary != "":
				for _, line := range strings.Split(strings.TrimSpace(ai.Summary), "\n") {
					fmt.Fprintf(w, "> %s\n", line)
				}
				fmt.Fprintln(w)
			case statusNote(ai) != "":
				fmt.Fprintf(w, "*%s*\n\n", statusNote(ai))
			}
		}

		for _, note := range overflowNote(overflowLines(sec)) {
			fmt.Fprintf(w, "*%s*\n\n", note)
		}
	}

	fmt.Fprintln(w, "## Run Summary")
	fmt.Fprintln(w)
	for _, line := range summaryLines(d, f.opts.Verbose) {
		if strings.HasPrefix(line, "  ") {
			fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(line))
			continue
		}
		fmt.Fprintf(w, "- %s\n", line)
	}
	return nil
}

func tierEmoji(t triage.Tier) string {
	switch t {
	case triage.TierCritical:
		return "🔴"
	case triage.TierHigh:
		return "🟠"
	case triage.TierMedium:
		return "🟡"
	default:
		return "⚪"
	}
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

func formatLabels(labels []string) string {
	formatted := make([]string, len(labels))
	for i, l := range labels {
		formatted[i] = "`" + l + "`"
	}
	return strings.Join(formatted, " ")
}
