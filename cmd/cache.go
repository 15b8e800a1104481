package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghreport/internal/cache"
	"github.com/spiffcs/ghreport/internal/format"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the source and summary cache",
	}

	cmd.AddCommand(newCmdCacheClear(opts))
	cmd.AddCommand(newCmdCacheStats(opts))
	cmd.AddCommand(newCmdCacheSweep(opts))

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cacheForCommand(opts)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cacheForCommand(opts)
			if err != nil {
				return err
			}
			stats, err := store.Stats()
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache statistics (%s):\n", store.Dir())
			for _, kind := range cache.AllKinds() {
				ks := stats.ByKind[kind]
				fmt.Fprintf(out, "  %s entries:\n", kind)
				fmt.Fprintf(out, "    Total:   %d\n", ks.Total)
				fmt.Fprintf(out, "    Valid:   %d\n", ks.Valid)
				fmt.Fprintf(out, "    Expired: %d\n", ks.Expired)
				fmt.Fprintf(out, "    Size:    %s\n", format.Bytes(ks.Bytes))
			}
			if stats.Corrupt > 0 {
				fmt.Fprintf(out, "  Unreadable entries: %d\n", stats.Corrupt)
			}
			fmt.Fprintf(out, "  Total: %d entries (%d valid), %s\n", stats.Total(), stats.Valid(), format.Bytes(stats.Bytes))
			return nil
		},
	}
}

// newCmdCacheSweep creates the cache sweep subcommand.
func newCmdCacheSweep(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired entries and entries past the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store, err := openCache(cfg)
			if err != nil {
				return fmt.Errorf("failed to access cache: %w", err)
			}

			expired, err := store.InvalidateExpired()
			if err != nil {
				return fmt.Errorf("failed to remove expired entries: %w", err)
			}
			stale, err := store.Sweep(cfg.GetCache().Retention)
			if err != nil {
				return fmt.Errorf("failed to sweep cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired and %d stale entries.\n", expired, stale)
			return nil
		},
	}
}

func cacheForCommand(opts *Options) (*cache.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	store, err := openCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to access cache: %w", err)
	}
	return store, nil
}
