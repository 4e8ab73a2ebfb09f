package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/gitprompt/internal/cache"
	"github.com/dshills/gitprompt/internal/config"
	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/logging"
	"github.com/dshills/gitprompt/internal/providers"
	"github.com/dshills/gitprompt/internal/workflow"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitNoData       = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// cmdError carries the exit code for a failure detected after argument
// parsing. Any other error returned by cobra is a usage error.
type cmdError struct {
	code int
	err  error
}

func (e *cmdError) Error() string { return e.err.Error() }
func (e *cmdError) Unwrap() error { return e.err }

// fail classifies err into an exit code.
func fail(err error) error {
	code := ExitRuntimeError
	switch {
	case errors.Is(err, workflow.ErrNoData):
		code = ExitNoData
	case errors.Is(err, providers.ErrMissingKey), providers.IsAuthError(err):
		code = ExitAuthError
	case errors.Is(err, providers.ErrUnknownProvider), errors.Is(err, gitctx.ErrInvalidMode),
		errors.Is(err, gitctx.ErrInvalidRepository):
		code = ExitUsageError
	}
	return &cmdError{code: code, err: err}
}

// app holds the state shared by one invocation of the command tree.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flags
	repo      string
	verbose   bool
	provider  string
	model     string
	maxTokens int
	noRedact  bool

	cfg        config.Config
	logCloser  io.Closer
	store      config.PathStore
	engineOpts []workflow.Option
}

// Run executes the command line and returns an exit code.
func Run() int {
	return newApp(os.Stdout, os.Stderr).execute(os.Args[1:])
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	err := root.ExecuteContext(ctx)
	if a.logCloser != nil {
		a.logCloser.Close()
	}
	if err == nil {
		return ExitSuccess
	}

	var ce *cmdError
	if !errors.As(err, &ce) {
		failure(a.stderr, "Error: %v\n", err)
		fmt.Fprintf(a.stderr, "Run '%s --help' for usage.\n", root.CommandPath())
		return ExitUsageError
	}
	if ce.code == ExitNoData {
		warning(a.stderr, "%v\n", ce.err)
	} else {
		failure(a.stderr, "Error: %v\n", ce.err)
	}
	return ce.code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gitprompt",
		Short: "Turn git history into LLM prompts",
		Long: "gitprompt extracts commit and staged-change diffs from a git repository, " +
			"packs them into prompt templates within a token budget, and saves them or " +
			"streams them to an LLM provider.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.repo, "repo", "C", ".", "Path to the git repository")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Show debug logging on stderr")
	pf.StringVar(&a.provider, "provider", "", "LLM provider (openai, xai, gemini, anthropic, lmstudio, ollama)")
	pf.StringVar(&a.model, "model", "", "Model name")
	pf.IntVar(&a.maxTokens, "max-tokens", 0, "Token budget for assembled prompts")
	pf.BoolVar(&a.noRedact, "no-redact", false, "Disable secret redaction (use with caution)")

	root.AddCommand(
		a.logCmd(),
		a.extractCmd(),
		a.promptCmd(),
		a.askCmd(),
		a.templatesCmd(),
		a.reposCmd(),
		a.configCmd(),
		a.modelsCmd(),
		a.cacheCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) overrides() map[string]string {
	m := make(map[string]string)
	if a.provider != "" {
		m["provider"] = a.provider
	}
	if a.model != "" {
		m["model"] = a.model
	}
	if a.maxTokens > 0 {
		m["maxTokens"] = strconv.Itoa(a.maxTokens)
	}
	return m
}

// setup loads configuration and installs logging before any command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.overrides())
	if err != nil {
		return &cmdError{code: ExitUsageError, err: err}
	}
	if a.noRedact {
		cfg.Privacy.RedactSecrets = false
		cfg.Privacy.RedactPaths = nil
		warning(a.stderr, "WARNING: secret redaction is disabled\n")
	}
	a.cfg = cfg

	closer, err := logging.Setup(logging.Options{
		File:    cfg.LogPath(),
		Level:   cfg.LogLevel,
		Verbose: a.verbose,
		Console: a.stderr,
	})
	if err != nil {
		return &cmdError{code: ExitUsageError, err: err}
	}
	a.logCloser = closer
	slog.Debug("command started", slog.String("command", cmd.CommandPath()), slog.String("repo", a.repo))
	return nil
}

func (a *app) engine() (*workflow.Engine, error) {
	c, err := cache.New(a.cfg.Cache.Enabled, a.cfg.Cache.Dir, a.cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	opts := append([]workflow.Option{workflow.WithCache(c)}, a.engineOpts...)
	return workflow.New(a.cfg, opts...), nil
}

func (a *app) pathStore() (config.PathStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	return config.DefaultPathStore()
}

// repoRoot resolves --repo and remembers it for later runs.
func (a *app) repoRoot() (string, error) {
	root, err := workflow.RepoRoot(a.repo)
	if err != nil {
		return "", err
	}
	store, err := a.pathStore()
	if err == nil {
		err = config.Remember(store, root)
	}
	if err != nil {
		slog.Warn("could not remember repository", slog.String("path", root), slog.Any("error", err))
	}
	return root, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gitprompt version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "gitprompt version %s\n", version)
		},
	}
}
