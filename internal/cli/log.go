package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/output"
)

func (a *app) logCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List the commits a query selects",
		Long: "Log prints one line per selected commit so a query can be checked " +
			"before extracting it or building a prompt from it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			root, err := a.repoRoot()
			if err != nil {
				return fail(err)
			}
			eng, err := a.engine()
			if err != nil {
				return fail(err)
			}
			records, err := eng.FetchData(cmd.Context(), root, f)
			if err != nil {
				return fail(err)
			}
			return output.WriteLog(a.stdout, records)
		},
	}
	ff.register(cmd)
	return cmd
}
