package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghreport/config"
	"github.com/spiffcs/ghreport/internal/duration"
	"github.com/spiffcs/ghreport/internal/state"
	"github.com/spiffcs/ghreport/internal/tracker"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig(opts *Options) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

When run without arguments, shows the current merged configuration.

Subcommands:
  init      Create a minimal config file
  path      Show config file locations
  defaults  Show all default values
  show      Show current merged config (same as bare 'ghreport config')
  set       Set a configuration value`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	cmd.AddCommand(NewCmdConfigInit(opts))
	cmd.AddCommand(NewCmdConfigPath())
	cmd.AddCommand(NewCmdConfigDefaults())
	cmd.AddCommand(NewCmdConfigShow(opts))
	cmd.AddCommand(NewCmdConfigSet())

	return cmd
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit(opts *Options) *cobra.Command {
	var (
		global, local bool
		fromActivity  bool
		lookback      string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a minimal config file",
		Long: `Create a minimal config file with starter settings.

Use --global to create in ~/.config/ghreport/config.yaml (applies everywhere)
Use --local to create in ./.ghreport.yaml (applies only in this directory)
Without flags, you'll be prompted to choose.

Use --from-activity to list the repositories you were active in over the
--lookback window (requires GITHUB_TOKEN).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var window time.Duration
			if fromActivity {
				d, err := duration.ParseDuration(lookback)
				if err != nil {
					return fmt.Errorf("invalid --lookback: %w", err)
				}
				window = d
			}
			return runConfigInit(cmd, opts, global, local, window)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create global config file (~/.config/ghreport/config.yaml)")
	cmd.Flags().BoolVar(&local, "local", false, "Create local config file (./.ghreport.yaml)")
	cmd.Flags().BoolVar(&fromActivity, "from-activity", false, "Seed repos from your recent GitHub activity")
	cmd.Flags().StringVar(&lookback, "lookback", "30d", "Activity window for --from-activity (e.g. 2w, 30d)")

	return cmd
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		Long:  `Show the paths to global and local config files and indicate which exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigPath(cmd.OutOrStdout())
		},
	}
}

// NewCmdConfigDefaults creates the config defaults subcommand.
func NewCmdConfigDefaults() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show all default configuration values",
		Long: `Show a complete configuration with all default values.

This can be redirected to create a config file with all defaults:
  ghreport config defaults > ~/.config/ghreport/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeConfig(cmd.OutOrStdout(), config.DefaultConfig(), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow(opts *Options) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current merged configuration",
		Long:  `Show the current configuration after merging defaults, global, and local configs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

// NewCmdConfigSet creates the config set subcommand.
func NewCmdConfigSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a value in the global config file. Available keys:
  format      - Default output format (table, json, markdown)`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	}
}

// runConfigInit writes a starter config. A positive lookback seeds repos
// from activity discovered over that window.
func runConfigInit(cmd *cobra.Command, opts *Options, global, local bool, lookback time.Duration) error {
	out := cmd.OutOrStdout()
	paths := config.GetConfigPaths()

	location, err := configLocation(global, local, cmd.InOrStdin(), out, paths)
	if err != nil {
		return err
	}
	targetPath := paths.GlobalPath
	if location == "local" {
		targetPath = paths.LocalPath
	}

	if _, err := os.Stat(targetPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'ghreport config show' to view current config", targetPath)
	}

	content := config.MinimalConfig()
	var repos []string
	if lookback > 0 {
		initLogging(cmd, opts)
		repos, err = activeRepos(cmd.Context(), opts, lookback)
		if err != nil {
			return err
		}
		if content, err = config.SeededConfig(repos); err != nil {
			return err
		}
	}
	if err := config.SaveTo(targetPath, content); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created %s config file: %s\n", location, targetPath)
	if lookback > 0 {
		fmt.Fprintf(out, "Found %d active repositories in the last %s.\n", len(repos), duration.Format(lookback))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Edit this file to add labels and repositories.")
	fmt.Fprintln(out, "Run 'ghreport config defaults' to see all available options.")
	return nil
}

// activeRepos discovers the repositories the user was active in over
// lookback, most active first.
func activeRepos(ctx context.Context, opts *Options, lookback time.Duration) ([]string, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	client, err := newGitHubClient(cfg)
	if err != nil {
		return nil, err
	}
	user, err := resolveUser(ctx, cfg, client)
	if err != nil {
		return nil, err
	}

	settings := cfg.GetTracker()
	settings.AddWindow = lookback
	previews, err := tracker.New(client, user, settings).Preview(ctx, state.New(), time.Now())
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	return previewRepos(previews), nil
}

func previewRepos(previews []tracker.Preview) []string {
	repos := make([]string, 0, len(previews))
	for _, p := range previews {
		repos = append(repos, p.Repo)
	}
	return repos
}

// configLocation resolves --global/--local, asking on in when neither
// flag was given.
func configLocation(global, local bool, in io.Reader, out io.Writer, paths config.ConfigPathInfo) (string, error) {
	switch {
	case global && local:
		return "", fmt.Errorf("cannot specify both --global and --local")
	case global:
		return "global", nil
	case local:
		return "local", nil
	}

	fmt.Fprintln(out, "Where would you like to create the config file?")
	fmt.Fprintf(out, "  [1] Global (%s) - applies everywhere\n", paths.GlobalPath)
	fmt.Fprintf(out, "  [2] Local (%s) - applies only in this directory\n", paths.LocalPath)
	fmt.Fprint(out, "Choose [1/2]: ")

	choice, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(out)

	switch strings.TrimSpace(choice) {
	case "1":
		return "global", nil
	case "2":
		return "local", nil
	default:
		return "", fmt.Errorf("invalid choice: %s (must be 1 or 2)", strings.TrimSpace(choice))
	}
}

func runConfigPath(out io.Writer) error {
	paths := config.GetConfigPaths()

	fmt.Fprintln(out, "Configuration file locations:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Global: %s (%s)\n", paths.GlobalPath, existence(paths.GlobalExists))
	fmt.Fprintf(out, "  Local:  %s (%s)\n", paths.LocalPath, existence(paths.LocalExists))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Load order: defaults -> global -> local -> environment (later overrides earlier)")

	return nil
}

func existence(exists bool) string {
	if exists {
		return "exists"
	}
	return "not found"
}

func runConfigShow(cmd *cobra.Command, opts *Options, format string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return writeConfig(cmd.OutOrStdout(), cfg, format)
}

func writeConfig(out io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		yamlStr, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		fmt.Fprint(out, yamlStr)
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	switch key {
	case "token", "github_token", "anthropic_api_key":
		return fmt.Errorf("secrets cannot be stored in config files. Set GITHUB_TOKEN or ANTHROPIC_API_KEY in the environment instead")
	case "format":
		if err := config.SetDefaultFormat(value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default format set to %s.\n", value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return nil
}
