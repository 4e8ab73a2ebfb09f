package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/gitprompt/internal/cache"
	"github.com/dshills/gitprompt/internal/config"
	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/output"
	"github.com/dshills/gitprompt/internal/prompt"
	"github.com/dshills/gitprompt/internal/providers"
	"github.com/dshills/gitprompt/internal/redact"
	"github.com/dshills/gitprompt/internal/templates"
	"github.com/dshills/gitprompt/internal/tokens"
)

var (
	// ErrNoData means the query matched no records.
	ErrNoData = errors.New("no data found")
	// ErrSaveFailed means the extraction file could not be written.
	ErrSaveFailed = errors.New("saving extraction failed")
)

// StreamerFactory creates a provider client by name.
type StreamerFactory func(name string, opts providers.Options) (providers.Streamer, error)

// Engine ties fetching, prompt assembly, persistence and delivery together.
type Engine struct {
	cfg         config.Config
	counter     tokens.Counter
	cache       *cache.Cache
	newStreamer StreamerFactory
	now         func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCounter replaces the token counter chosen from the config.
func WithCounter(c tokens.Counter) Option {
	return func(e *Engine) { e.counter = c }
}

// WithCache sets the response cache. Without one nothing is cached.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithStreamerFactory replaces providers.New.
func WithStreamerFactory(f StreamerFactory) Option {
	return func(e *Engine) { e.newStreamer = f }
}

// WithClock sets the time source used for output file names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine for cfg.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		newStreamer: providers.New,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.counter == nil {
		e.counter = tokens.ForModel(cfg.TokenModel)
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

func (e *Engine) filter(f gitctx.Filter) gitctx.Filter {
	f.Exclude = append(append([]string(nil), f.Exclude...), e.cfg.Exclude...)
	return f
}

func (e *Engine) policy() redact.Policy {
	return redact.Policy{
		Secrets: e.cfg.Privacy.RedactSecrets,
		Paths:   e.cfg.Privacy.RedactPaths,
	}
}

// FetchData returns every record matching f.
func (e *Engine) FetchData(ctx context.Context, repo string, f gitctx.Filter) ([]gitctx.CommitRecord, error) {
	seq, err := gitctx.Fetch(ctx, repo, e.filter(f))
	if err != nil {
		return nil, err
	}
	return gitctx.Collect(seq)
}

// BuildPrompt redacts records and packs them into tpl's prompts within the
// configured token budget.
func (e *Engine) BuildPrompt(tpl templates.Template, records []gitctx.CommitRecord) prompt.Result {
	policy := e.policy()
	redacted := make([]gitctx.CommitRecord, len(records))
	for i, r := range records {
		redacted[i] = redact.Record(r, policy)
	}
	return prompt.New(e.counter, e.cfg.MaxTokens).Assemble(tpl.Prompts.System, tpl.Prompts.User, redacted)
}

// Run fetches the records selected by f and builds tpl's prompt from them.
func (e *Engine) Run(ctx context.Context, repo string, tpl templates.Template, f gitctx.Filter) (prompt.Result, error) {
	records, err := e.FetchData(ctx, repo, f)
	if err != nil {
		return prompt.Result{}, err
	}
	if len(records) == 0 {
		return prompt.Result{}, ErrNoData
	}
	res := e.BuildPrompt(tpl, records)
	if res.Omitted > 0 {
		slog.Warn("prompt truncated to fit token limit",
			slog.String("template", tpl.Meta.Name),
			slog.Int("included", res.Included),
			slog.Int("omitted", res.Omitted),
			slog.Int("max_tokens", e.cfg.MaxTokens))
	}
	return res, nil
}

// RunTemplate builds tpl's prompt from the records its execution block
// selects. A positive limit overrides the template's own.
func (e *Engine) RunTemplate(ctx context.Context, repo string, tpl templates.Template, limit int) (prompt.Result, error) {
	f := tpl.Filter()
	if limit > 0 && f.Mode == gitctx.ModeHistory {
		f.Limit = limit
	}
	return e.Run(ctx, repo, tpl, f)
}

// Extraction describes a raw extraction file.
type Extraction struct {
	Path  string
	Count int
}

// ExtractOptions controls where and how raw records are written.
type ExtractOptions struct {
	// Out is the file to write. Empty picks a timestamped file under the
	// configured output directory.
	Out string
	// Redact applies the privacy policy to each record before it is written.
	Redact bool
}

// ExtractRaw streams the records matching f into a JSON file without
// holding them in memory. A query with no matches still writes [].
func (e *Engine) ExtractRaw(ctx context.Context, repo string, f gitctx.Filter, opts ExtractOptions) (Extraction, error) {
	root, err := RepoRoot(repo)
	if err != nil {
		return Extraction{}, err
	}
	seq, err := gitctx.Fetch(ctx, root, e.filter(f))
	if err != nil {
		return Extraction{}, err
	}
	if opts.Redact {
		seq = redact.Records(seq, e.policy())
	}
	outPath := opts.Out
	if outPath == "" {
		outPath = output.ResolvePath(e.cfg.OutputDir, output.FolderFor(f), output.FileName(root, "json", e.now()))
	}
	n, ok := output.SaveRecords(outPath, seq)
	if !ok {
		if ctx.Err() != nil {
			return Extraction{Path: outPath, Count: n}, ctx.Err()
		}
		return Extraction{Path: outPath, Count: n}, fmt.Errorf("%w: %s", ErrSaveFailed, outPath)
	}
	return Extraction{Path: outPath, Count: n}, nil
}

// PromptPath returns where a prompt built from repo would be saved.
func (e *Engine) PromptPath(repo string) string {
	return output.ResolvePath(e.cfg.OutputDir, output.FolderPrompts, output.FileName(repo, "txt", e.now()))
}

// Streamer creates the client for provider using the configured model,
// key and endpoint. An empty model means the configured or default one.
func (e *Engine) Streamer(provider, model string) (providers.Streamer, error) {
	if model == "" {
		model = e.cfg.ModelFor(provider)
	}
	opts := providers.Options{
		Model:  model,
		APIKey: e.cfg.Keys.For(provider),
	}
	if info, ok := providers.Lookup(provider); ok && info.Name == "ollama" {
		opts.BaseURL = e.cfg.Ollama.BaseURL
	}
	return e.newStreamer(provider, opts)
}

// Stream sends text to provider and passes the reply to onChunk as it
// arrives. A cached reply is delivered as a single chunk.
func (e *Engine) Stream(ctx context.Context, provider, model, text string, onChunk func(string) error) (string, error) {
	s, err := e.Streamer(provider, model)
	if err != nil {
		return "", err
	}
	key := cache.Key{Provider: s.Name(), Model: s.Model(), Prompt: text}
	if e.cache != nil {
		if resp, ok := e.cache.Get(key); ok {
			slog.Debug("cache hit", slog.String("provider", key.Provider), slog.String("model", key.Model))
			return resp, onChunk(resp)
		}
	}

	start := time.Now()
	resp, err := s.Stream(ctx, text, onChunk)
	if err != nil {
		return resp, err
	}
	slog.Info("completion received",
		slog.String("provider", key.Provider),
		slog.String("model", key.Model),
		slog.Int("chars", len(resp)),
		slog.Duration("elapsed", time.Since(start)))

	if e.cache != nil {
		if err := e.cache.Put(key, resp); err != nil {
			slog.Warn("caching response failed", slog.Any("error", err))
		}
	}
	return resp, nil
}

// RepoRoot resolves path to the top of its working tree.
func RepoRoot(path string) (string, error) {
	r, err := gitctx.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return r.Root, nil
}
