package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghreport/internal/format"
	"github.com/spiffcs/ghreport/internal/model"
	"github.com/spiffcs/ghreport/internal/tracker"
	"github.com/spiffcs/ghreport/internal/urlutil"
)

// NewCmdRepos creates the repos command with subcommands.
func NewCmdRepos(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Show and manage tracked repositories",
		Long: `Show and manage the repositories ghreport fetches activity from.

Repositories come from three places: the config file, 'ghreport repos add',
and automatic tracking of repositories you have been active in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReposList(cmd, opts)
		},
	}

	cmd.AddCommand(newCmdReposList(opts))
	cmd.AddCommand(newCmdReposAdd(opts))
	cmd.AddCommand(newCmdReposRemove(opts))
	cmd.AddCommand(newCmdReposDiscover(opts))

	return cmd
}

func newCmdReposList(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReposList(cmd, opts)
		},
	}
}

func newCmdReposAdd(opts *Options) *cobra.Command {
	var importance string

	cmd := &cobra.Command{
		Use:   "add <owner/repo>",
		Short: "Track a repository until it is removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReposAdd(cmd, opts, args[0], importance)
		},
	}

	cmd.Flags().StringVar(&importance, "importance", "", "Importance of the repository (low, medium, high, critical)")

	return cmd
}

func newCmdReposRemove(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <owner/repo>",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a repository",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReposRemove(cmd, opts, args[0])
		},
	}
}

func newCmdReposDiscover(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Preview which active repositories would be auto-tracked",
		Long: `Search your recent GitHub activity and show each repository's activity
score against the auto-add threshold. Nothing is saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReposDiscover(cmd, opts)
		},
	}
}

func runReposList(cmd *cobra.Command, opts *Options) error {
	initLogging(cmd, opts)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	st, _, err := loadState(cfg)
	if err != nil {
		return err
	}
	st.SyncConfigured(cfg.ConfiguredRepos(), time.Now())

	writeRepos(cmd.OutOrStdout(), st.Profiles(), time.Now())
	return nil
}

func runReposAdd(cmd *cobra.Command, opts *Options, name, importance string) error {
	initLogging(cmd, opts)

	if err := validateRepoName(name); err != nil {
		return err
	}
	p := model.RepoProfile{
		Name:         name,
		Manual:       true,
		TrackedSince: time.Now(),
	}
	if importance != "" {
		imp, err := model.ParseImportance(importance)
		if err != nil {
			return err
		}
		p.Importance = imp
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	st, path, err := loadState(cfg)
	if err != nil {
		return err
	}
	if !st.Add(p) {
		return fmt.Errorf("%s is already tracked", name)
	}
	if err := st.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Now tracking %s.\n", name)
	return nil
}

func runReposRemove(cmd *cobra.Command, opts *Options, name string) error {
	initLogging(cmd, opts)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	for _, c := range cfg.ConfiguredRepos() {
		if strings.EqualFold(c.Name, name) {
			return fmt.Errorf("%s is listed in the config file; remove it there", name)
		}
	}

	st, path, err := loadState(cfg)
	if err != nil {
		return err
	}
	if !st.Remove(name) {
		return fmt.Errorf("%s is not tracked", name)
	}
	if err := st.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped tracking %s.\n", name)
	return nil
}

func runReposDiscover(cmd *cobra.Command, opts *Options) error {
	initLogging(cmd, opts)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	st, _, err := loadState(cfg)
	if err != nil {
		return err
	}
	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}
	user, err := resolveUser(cmd.Context(), cfg, client)
	if err != nil {
		return err
	}

	previews, err := newTracker(cfg, client, user).Preview(cmd.Context(), st, time.Now())
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	writePreviews(cmd.OutOrStdout(), previews)
	return nil
}

func validateRepoName(name string) error {
	_, _, err := urlutil.SplitRepo(name)
	return err
}

func pad(s string, width int) string {
	return format.PadRight(s, format.DisplayWidth(s), width)
}

func repoSource(p model.RepoProfile) string {
	switch {
	case p.Manual:
		return "manual"
	case p.AutoTracked:
		return "auto"
	default:
		return "config"
	}
}

func writeRepos(out io.Writer, profiles []model.RepoProfile, now time.Time) {
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No repositories tracked. Add some to the config file or run 'ghreport repos add owner/repo'.")
		return
	}

	header := color.New(color.Bold)
	fmt.Fprintln(out, header.Sprint(
		pad("REPOSITORY", 40)+" "+
			pad("IMPORTANCE", 10)+" "+
			pad("SOURCE", 7)+" "+
			pad("SEEN", 5)+" "+
			"SCORE"))

	for _, p := range profiles {
		name, _ := format.TruncateToWidth(p.Name, 40)
		score := "-"
		if p.AutoTracked {
			score = fmt.Sprintf("%d", p.ActivityScore)
		}
		fmt.Fprintf(out, "%s %s %s %s %s\n",
			pad(name, 40),
			pad(string(p.EffectiveImportance()), 10),
			pad(repoSource(p), 7),
			pad(format.Age(now, p.LastSeen), 5),
			score)
	}
	fmt.Fprintf(out, "\n%d repositories\n", len(profiles))
}

func writePreviews(out io.Writer, previews []tracker.Preview) {
	if len(previews) == 0 {
		fmt.Fprintln(out, "No recent activity found.")
		return
	}

	add := color.New(color.FgGreen)
	fmt.Fprintf(out, "Auto-add threshold: %d\n\n", previews[0].Threshold)
	for _, p := range previews {
		name, _ := format.TruncateToWidth(p.Repo, 40)
		line := fmt.Sprintf("%s score %-4d commits %-3d prs %-3d issues %-3d comments %-3d",
			pad(name, 40), p.Score,
			p.Metrics.Commits, p.Metrics.PRs, p.Metrics.Issues, p.Metrics.Comments)
		switch {
		case p.Tracked:
			fmt.Fprintln(out, line+"  tracked")
		case p.WouldAdd:
			fmt.Fprintln(out, add.Sprint(line+"  would add"))
		default:
			fmt.Fprintln(out, line)
		}
	}
}
