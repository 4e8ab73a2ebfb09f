package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/cache"
)

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.New(true, a.cfg.Cache.Dir, a.cfg.Cache.TTLSeconds)
			if err != nil {
				return fail(fmt.Errorf("opening cache: %w", err))
			}
			n, err := c.Clear()
			if err != nil {
				return fail(fmt.Errorf("clearing cache: %w", err))
			}
			success(a.stdout, "Cache cleared (%d entries).\n", n)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.New(a.cfg.Cache.Enabled, a.cfg.Cache.Dir, a.cfg.Cache.TTLSeconds)
			if err != nil {
				return fail(fmt.Errorf("opening cache: %w", err))
			}
			if !c.Enabled() {
				fmt.Fprintln(a.stdout, "Cache is disabled.")
				return nil
			}
			stats, err := c.GetStats()
			if err != nil {
				return fail(fmt.Errorf("reading cache stats: %w", err))
			}
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.stdout, string(data))
			return nil
		},
	}

	cmd.AddCommand(clearCmd, show)
	return cmd
}
