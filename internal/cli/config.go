package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/config"
	"github.com/dshills/gitprompt/internal/providers"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gitprompt configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return fail(err)
			}
			if _, err := os.Stat(path); err == nil {
				warning(a.stderr, "Config file already exists at %s\n", path)
				return nil
			}
			if err := config.Save(config.Default()); err != nil {
				return fail(fmt.Errorf("writing config: %w", err))
			}
			success(a.stdout, "Config file created at %s\n", path)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile()
			if err != nil {
				return fail(err)
			}
			if err := config.SetField(&cfg, args[0], args[1]); err != nil {
				return &cmdError{code: ExitUsageError, err: err}
			}
			if err := config.Save(cfg); err != nil {
				return fail(fmt.Errorf("saving config: %w", err))
			}
			success(a.stdout, "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(a.cfg, "", "  ")
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.stdout, string(data))
			for _, info := range providers.Known() {
				if info.KeyEnv == "" {
					continue
				}
				state := "not set"
				if a.cfg.Keys.For(info.Name) != "" {
					state = "set"
				}
				note(a.stderr, "%s: %s\n", info.KeyEnv, state)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, set, show)
	return cmd
}
