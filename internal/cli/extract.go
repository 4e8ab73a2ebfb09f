package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/workflow"
)

type filterFlags struct {
	mode    string
	limit   int
	since   string
	until   string
	author  string
	hashes  []string
	exclude []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.mode, "mode", "", "Source: staged, history or hashes (default history, or hashes when --hash is set)")
	fl.IntVarP(&f.limit, "limit", "n", 0, "Maximum number of commits (history is capped at 1000)")
	fl.StringVar(&f.since, "since", "", "Only commits on or after this date (YYYY-MM-DD)")
	fl.StringVar(&f.until, "until", "", "Only commits on or before this date (YYYY-MM-DD)")
	fl.StringVar(&f.author, "author", "", "Only commits whose author name contains this text")
	fl.StringSliceVar(&f.hashes, "hash", nil, "Commit hash or revision to include (repeatable)")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "Path globs to leave out of diffs (repeatable)")
}

func (f *filterFlags) filter() (gitctx.Filter, error) {
	mode := f.mode
	if mode == "" && len(f.hashes) > 0 {
		mode = string(gitctx.ModeHashes)
	}
	filter, err := gitctx.FilterFromMap(map[string]any{
		"mode":    mode,
		"limit":   f.limit,
		"since":   f.since,
		"until":   f.until,
		"author":  f.author,
		"hashes":  f.hashes,
		"exclude": f.exclude,
	})
	if err != nil {
		return filter, &cmdError{code: ExitUsageError, err: err}
	}
	return filter, nil
}

func (a *app) extractCmd() *cobra.Command {
	var (
		ff     filterFlags
		out    string
		redact bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Save raw commit records as a JSON file",
		Long: "Extract streams the selected commits (or the staged changes) into a JSON array " +
			"with hash, short_hash, author, date, message and diff fields. Without --out the " +
			"file is written under the output directory in a folder named for the query.",
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
			ext, err := eng.ExtractRaw(cmd.Context(), root, f, workflow.ExtractOptions{Out: out, Redact: redact})
			if err != nil {
				return fail(err)
			}
			if ext.Count == 0 {
				return &cmdError{code: ExitNoData, err: fmt.Errorf("no matching data; wrote an empty array to %s", ext.Path)}
			}
			success(a.stderr, "Saved %d record(s) to %s\n", ext.Count, ext.Path)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path")
	cmd.Flags().BoolVar(&redact, "redact", false, "Apply the privacy policy to diffs before saving")
	return cmd
}
