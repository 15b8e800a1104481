package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/spiffcs/ghreport/internal/format"
	"github.com/spiffcs/ghreport/internal/pipeline"
	"github.com/spiffcs/ghreport/internal/triage"
)

// Column widths
const (
	colScore = 6
	colType  = 4
	colRepo  = 26
	colTitle = 52
	colAge   = 5

	summaryIndent = "      "
	summaryWidth  = 90
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	opts Options
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func (f *TableFormatter) hyperlink(text, url string) string {
	if !f.opts.Hyperlinks || url == "" {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format writes every non-empty tier section followed by the run summary.
func (f *TableFormatter) Format(d *pipeline.Digest, w io.Writer) error {
	sections := nonEmpty(d)
	if len(sections) == 0 {
		fmt.Fprintln(w, "No activity found.")
	}

	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		f.writeSection(d, sec, w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 60))
	for _, line := range summaryLines(d, f.opts.Verbose) {
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}

func (f *TableFormatter) writeSection(d *pipeline.Digest, sec *pipeline.Section, w io.Writer) {
	header := fmt.Sprintf("%s (%d)", colorTier(sec.Tier, strings.ToUpper(sec.Tier.Display())), len(sec.Items))
	if sec.Model != "" && !d.DryRun {
		header += color.New(color.Faint).Sprintf("  %s", sec.Model)
	}
	fmt.Fprintln(w, header)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %s\n",
		colScore, "Score",
		colType, "Type",
		colRepo, "Repository",
		colTitle, "Title",
		"Age")
	fmt.Fprintln(w, strings.Repeat("-", colScore+colType+colRepo+colTitle+colAge+8))

	now := f.opts.now(d)
	for i := range sec.Items {
		ai := &sec.Items[i]
		item := &ai.Item

		title := format.OneLine(item.Title)
		if icon := itemIcon(ai); icon != "" {
			title = icon + " " + title
		}
		title, titleWidth := format.TruncateToWidth(title, colTitle)
		title = format.PadRight(f.hyperlink(title, item.URL), titleWidth, colTitle)

		repo, repoWidth := format.TruncateToWidth(item.Repo, colRepo)

		fmt.Fprintf(w, "%-*.1f  %-*s  %s  %s  %s\n",
			colScore, ai.Score,
			colType, item.Kind.Display(),
			format.PadRight(repo, repoWidth, colRepo),
			title,
			format.Age(now, item.UpdatedAt),
		)

		switch {
		case ai.Summary != "":
			for _, line := range format.Wrap(ai.Summary, summaryWidth) {
				fmt.Fprintf(w, "%s%s\n", summaryIndent, line)
			}
		case statusNote(ai) != "":
			fmt.Fprintf(w, "%s%s\n", summaryIndent, color.YellowString(statusNote(ai)))
		}
	}

	for _, note := range overflowNote(overflowLines(sec)) {
		fmt.Fprintf(w, "%s\n", color.New(color.Faint).Sprint(note))
	}
}

func colorTier(t triage.Tier, s string) string {
	switch t {
	case triage.TierCritical:
		return color.New(color.FgRed, color.Bold).Sprint(s)
	case triage.TierHigh:
		return color.YellowString(s)
	case triage.TierMedium:
		return color.CyanString(s)
	default:
		return color.WhiteString(s)
	}
}
