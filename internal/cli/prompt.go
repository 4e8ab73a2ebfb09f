package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/output"
	"github.com/dshills/gitprompt/internal/prompt"
	"github.com/dshills/gitprompt/internal/templates"
	"github.com/dshills/gitprompt/internal/tokens"
	"github.com/dshills/gitprompt/internal/workflow"
)

func (a *app) promptCmd() *cobra.Command {
	var (
		hashes []string
		user   string
		limit  int
		out    string
		save   bool
		exec   string
	)
	cmd := &cobra.Command{
		Use:   "prompt [template]",
		Short: "Build an LLM prompt from a template or selected commits",
		Long: "Prompt fetches the records a template asks for (staged changes or recent history), " +
			"packs their diffs into the template within the token budget, and prints the result. " +
			"Without a template, --hash selects commits for an ad-hoc analysis prompt.",
		Example: "  gitprompt prompt code-review\n" +
			"  gitprompt prompt release-notes --limit 50 --save\n" +
			"  gitprompt prompt --hash abc1234 --hash def5678 --exec openai",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(hashes) == 0 {
				return errors.New("give a template name or at least one --hash")
			}
			root, err := a.repoRoot()
			if err != nil {
				return fail(err)
			}
			eng, err := a.engine()
			if err != nil {
				return fail(err)
			}

			var tpl templates.Template
			if len(args) == 1 {
				list, err := templates.Load(a.cfg.TemplatesPath())
				if err != nil {
					return fail(err)
				}
				if tpl, err = templates.Find(list, args[0]); err != nil {
					return &cmdError{code: ExitUsageError, err: err}
				}
			} else {
				if user != "" && !strings.Contains(user, prompt.Placeholder) {
					user += "\n\n" + prompt.Placeholder
				}
				tpl = templates.Adhoc(user)
			}

			var res prompt.Result
			if len(hashes) > 0 {
				res, err = eng.Run(cmd.Context(), root, tpl, gitctx.Filter{Mode: gitctx.ModeHashes, Hashes: hashes})
			} else {
				res, err = eng.RunTemplate(cmd.Context(), root, tpl, limit)
			}
			if err != nil {
				return fail(err)
			}
			output.WriteSummary(a.stderr, res.Included, res.Omitted, res.Tokens, a.cfg.MaxTokens)

			mode := tpl.Execution.OutputMode
			switch {
			case exec != "":
				mode = templates.OutputExecute
			case out != "" || save:
				mode = templates.OutputFile
			}
			return a.deliver(cmd.Context(), eng, root, mode, res.Payload, out, exec)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&hashes, "hash", nil, "Commit hash or revision to analyze (repeatable)")
	fl.StringVar(&user, "user", "", "User prompt for --hash without a template")
	fl.IntVarP(&limit, "limit", "n", 0, "Override the template's commit limit")
	fl.StringVarP(&out, "out", "o", "", "Save the prompt to this file")
	fl.BoolVar(&save, "save", false, "Save the prompt under the output directory")
	fl.StringVar(&exec, "exec", "", "Send the prompt to this provider and stream the reply")
	return cmd
}

// deliver sends an assembled prompt where mode says.
func (a *app) deliver(ctx context.Context, eng *workflow.Engine, root, mode, payload, out, provider string) error {
	switch mode {
	case templates.OutputExecute:
		if provider == "" {
			provider = a.cfg.Provider
		}
		return a.stream(ctx, eng, provider, payload)
	case templates.OutputFile:
		path := out
		if path == "" {
			path = eng.PromptPath(root)
		}
		if err := output.SavePrompt(path, payload); err != nil {
			return fail(err)
		}
		success(a.stderr, "Prompt saved to %s\n", path)
		return nil
	default:
		if err := output.WritePrompt(a.stdout, payload, ""); err != nil {
			return fail(err)
		}
		return nil
	}
}

// stream sends text to provider and copies the reply to stdout as it arrives.
func (a *app) stream(ctx context.Context, eng *workflow.Engine, provider, text string) error {
	note(a.stderr, "Sending ~%d tokens to %s...\n", tokens.Count(text, a.cfg.TokenModel), provider)
	_, err := eng.Stream(ctx, provider, a.model, text, func(chunk string) error {
		_, err := io.WriteString(a.stdout, chunk)
		return err
	})
	fmt.Fprintln(a.stdout)
	if err != nil {
		return fail(err)
	}
	return nil
}
