package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRateLimitStatus(cmd, opts)
		},
	}
	cmd.AddCommand(NewCmdRateLimitStatus(opts))
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long:  `Display the current GitHub API rate limit status for the core, search and GraphQL APIs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRateLimitStatus(cmd, opts)
		},
	}
}

func runRateLimitStatus(cmd *cobra.Command, opts *Options) error {
	initLogging(cmd, opts)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	quotas, err := client.Quotas(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	writeQuotas(cmd.OutOrStdout(), quotas, time.Now())
	return nil
}

func writeQuotas(out io.Writer, quotas []ghclient.Quota, now time.Time) {
	warn := color.New(color.FgYellow)

	fmt.Fprintln(out, "GitHub API Rate Limits:")
	fmt.Fprintln(out)
	for _, q := range quotas {
		resetIn := q.ResetAt.Sub(now).Round(time.Second)
		if resetIn < 0 {
			resetIn = 0
		}
		line := fmt.Sprintf("%-8s %d/%d remaining (resets in %s)", q.Name+":", q.Remaining, q.Limit, resetIn)
		if q.Low(constants.RateLimitLowWatermark) {
			fmt.Fprintln(out, warn.Sprint(line+"  low"))
			continue
		}
		fmt.Fprintln(out, line)
	}
}
