package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/gitprompt/internal/templates"
)

func (a *app) templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List and inspect prompt templates",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and user templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.TemplatesPath()
			list, err := templates.Load(dir)
			if err != nil {
				return fail(err)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE\tLIMIT\tOUTPUT\tDESCRIPTION")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					t.Meta.Name, t.Execution.Source, t.Execution.Limit, t.Execution.OutputMode, t.Meta.Description)
			}
			if err := tw.Flush(); err != nil {
				return fail(err)
			}
			note(a.stderr, "User templates: %s\n", dir)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a template as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := templates.Load(a.cfg.TemplatesPath())
			if err != nil {
				return fail(err)
			}
			t, err := templates.Find(list, args[0])
			if err != nil {
				return &cmdError{code: ExitUsageError, err: err}
			}
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(t); err != nil {
				return fail(err)
			}
			return enc.Close()
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
