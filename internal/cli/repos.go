package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/config"
	"github.com/dshills/gitprompt/internal/workflow"
)

func (a *app) reposCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage remembered repository paths",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List remembered repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.pathStore()
			if err != nil {
				return fail(err)
			}
			paths, err := store.Load()
			if err != nil {
				return fail(err)
			}
			if len(paths) == 0 {
				note(a.stderr, "No saved repositories.\n")
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(a.stdout, p)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Remember a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := workflow.RepoRoot(args[0])
			if err != nil {
				return fail(err)
			}
			store, err := a.pathStore()
			if err != nil {
				return fail(err)
			}
			if err := config.Remember(store, root); err != nil {
				return fail(err)
			}
			success(a.stderr, "Saved %s\n", root)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <path>",
		Short: "Forget a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.pathStore()
			if err != nil {
				return fail(err)
			}
			changed, err := config.Forget(store, args[0])
			if err != nil {
				return fail(err)
			}
			if !changed {
				warning(a.stderr, "%s was not saved\n", config.NormalizePath(args[0]))
				return nil
			}
			success(a.stderr, "Removed %s\n", config.NormalizePath(args[0]))
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
