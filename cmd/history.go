package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghreport/internal/history"
)

// NewCmdHistory creates the history command.
func NewCmdHistory(opts *Options) *cobra.Command {
	var (
		limit        int
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long:  `Show a summary of recent report runs: item counts per tier, summaries, cache hits and failures.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			initLogging(cmd, opts)

			store, err := history.NewStore()
			if err != nil {
				return fmt.Errorf("failed to open run history: %w", err)
			}
			return writeHistory(cmd.OutOrStdout(), store.Recent(limit), outputFormat)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")

	return cmd
}

func writeHistory(out io.Writer, records []history.RunRecord, outputFormat string) error {
	switch outputFormat {
	case "json":
		if records == nil {
			records = []history.RunRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "table":
	default:
		return fmt.Errorf("invalid format: %s (must be table or json)", outputFormat)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	fmt.Fprintln(out, bold.Sprint(
		pad("WHEN", 17)+" "+
			pad("TOOK", 7)+" "+
			pad("REPOS", 5)+" "+
			pad("CRIT/HIGH/MED/LOW", 17)+" "+
			pad("SUMMARIZED", 10)+" "+
			pad("CACHED", 6)+" "+
			"NOTES"))

	for _, r := range records {
		tiers := fmt.Sprintf("%d/%d/%d/%d", r.Critical, r.High, r.Medium, r.Low)
		line := fmt.Sprintf("%s %s %s %s %s %s %s",
			pad(r.Timestamp.Local().Format("2006-01-02 15:04"), 17),
			pad(r.Duration.Round(100*time.Millisecond).String(), 7),
			pad(fmt.Sprint(r.Repos), 5),
			pad(tiers, 17),
			pad(fmt.Sprint(r.Summarized), 10),
			pad(fmt.Sprint(r.CacheHits), 6),
			historyNotes(r))
		if r.Error != "" {
			line = red.Sprint(line)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func historyNotes(r history.RunRecord) string {
	var notes []string
	if r.Cancelled {
		notes = append(notes, "cancelled")
	}
	if r.Error != "" {
		notes = append(notes, "failed: "+r.Error)
	}
	if r.Failures > 0 {
		notes = append(notes, fmt.Sprintf("%d source failures", r.Failures))
	}
	if r.Degraded > 0 {
		notes = append(notes, fmt.Sprintf("%d unavailable", r.Degraded))
	}
	if r.Overflow > 0 {
		notes = append(notes, fmt.Sprintf("%d not shown", r.Overflow))
	}
	if n := len(r.Added); n > 0 {
		notes = append(notes, fmt.Sprintf("+%d tracked", n))
	}
	if n := len(r.Removed); n > 0 {
		notes = append(notes, fmt.Sprintf("-%d tracked", n))
	}
	if len(notes) == 0 {
		return "-"
	}
	return strings.Join(notes, ", ")
}
