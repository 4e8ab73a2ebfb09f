package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send a prompt straight to a provider",
		Long: "Ask streams a provider's reply to stdout. The prompt comes from the arguments, " +
			"or from stdin when none are given or the only argument is \"-\", so a saved " +
			"prompt can be piped in.",
		Example: "  gitprompt ask \"Explain git rebase in one paragraph\"\n" +
			"  gitprompt prompt code-review | gitprompt ask --provider ollama",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 || text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fail(fmt.Errorf("reading stdin: %w", err))
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("empty prompt")
			}
			eng, err := a.engine()
			if err != nil {
				return fail(err)
			}
			return a.stream(cmd.Context(), eng, a.cfg.Provider, text)
		},
	}
}
