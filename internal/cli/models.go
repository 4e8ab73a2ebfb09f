package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/providers"
)

const (
	doctorTimeout = 30 * time.Second
	ollamaTimeout = 3 * time.Second
)

func (a *app) modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Provider and model management",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List providers, their default models and key status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tMODEL\tKEY\tDESCRIPTION")
			for _, info := range providers.Known() {
				model := a.cfg.ModelFor(info.Name)
				if model == "" {
					model = info.DefaultModel
				}
				key := "-"
				if info.KeyEnv != "" {
					key = "missing " + info.KeyEnv
					if a.cfg.Keys.For(info.Name) != "" {
						key = "ok"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, model, key, info.Description)
			}
			if err := tw.Flush(); err != nil {
				return fail(err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), ollamaTimeout)
			defer cancel()
			names, err := a.ollamaModels(ctx)
			if err != nil {
				note(a.stderr, "Ollama not reachable at %s\n", a.cfg.Ollama.BaseURL)
				return nil
			}
			fmt.Fprintln(a.stdout, "\nInstalled Ollama models:")
			for _, n := range names {
				fmt.Fprintf(a.stdout, "  - %s\n", n)
			}
			return nil
		},
	}

	doctor := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the configured provider answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.stdout, "Checking %s...\n", a.cfg.Provider)
			s, err := eng.Streamer(a.cfg.Provider, a.model)
			if err != nil {
				return fail(err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()
			if _, err := s.Stream(ctx, "Respond with exactly: ok", func(string) error { return nil }); err != nil {
				return fail(err)
			}
			success(a.stdout, "OK: %s (%s) is configured and responding\n", s.Name(), s.Model())
			return nil
		},
	}

	cmd.AddCommand(list, doctor)
	return cmd
}

func (a *app) ollamaModels(ctx context.Context) ([]string, error) {
	o, err := providers.NewOllama(providers.Options{BaseURL: a.cfg.Ollama.BaseURL})
	if err != nil {
		return nil, err
	}
	return o.Models(ctx)
}
