package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gitprompt/internal/cache"
	"github.com/dshills/gitprompt/internal/config"
	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/output"
	"github.com/dshills/gitprompt/internal/providers"
	"github.com/dshills/gitprompt/internal/templates"
	"github.com/dshills/gitprompt/internal/tokens"
)

// newRepo creates a repository with three commits and returns its path.
func newRepo(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	when := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	commit := func(name, content, msg string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		when = when.Add(time.Hour)
		_, err = wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "Ada Lovelace", Email: "ada@example.com", When: when},
		})
		require.NoError(t, err)
	}
	commit("hello.py", "print('Hello')\n", "Initial commit")
	commit("hello.py", "print('Hello, World!')\n", "Update greeting")
	commit("config.py", "password = \"correct-horse-battery\"\n", "Add config")
	return dir
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	return cfg
}

type fakeStreamer struct {
	name, model string
	reply       []string
	calls       int
	prompts     []string
}

func (f *fakeStreamer) Name() string  { return f.name }
func (f *fakeStreamer) Model() string { return f.model }

func (f *fakeStreamer) Stream(_ context.Context, prompt string, onChunk func(string) error) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	for _, c := range f.reply {
		if err := onChunk(c); err != nil {
			return "", err
		}
	}
	return strings.Join(f.reply, ""), nil
}

func TestFetchData(t *testing.T) {
	dir := newRepo(t)
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))

	recs, err := e.FetchData(context.Background(), dir, gitctx.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Add config", recs[0].Message)
	assert.Equal(t, "Update greeting", recs[1].Message)
}

func TestFetchData_ConfigExclude(t *testing.T) {
	dir := newRepo(t)
	cfg := testConfig(t)
	cfg.Exclude = []string{"config.py"}
	e := New(cfg, WithCounter(tokens.Heuristic{}))

	recs, err := e.FetchData(context.Background(), dir, gitctx.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, gitctx.NoChanges, recs[0].Diff)
}

func TestRunTemplate(t *testing.T) {
	dir := newRepo(t)
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	tpl := templates.Template{
		Meta:      templates.Meta{Name: "review"},
		Execution: templates.Execution{Source: "history", Limit: 1},
		Prompts:   templates.Prompts{System: "Be terse.", User: "Review:\n{DIFF_CONTENT}"},
	}

	res, err := e.RunTemplate(context.Background(), dir, tpl, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Included)
	assert.Contains(t, res.Payload, "--- SYSTEM PROMPT ---\nBe terse.")
	assert.Contains(t, res.Payload, "--- NEW FILE: config.py ---")
	assert.NotContains(t, res.Payload, "correct-horse-battery", "diffs are redacted")
	assert.NotContains(t, res.Payload, "{DIFF_CONTENT}")

	res, err = e.RunTemplate(context.Background(), dir, tpl, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Included)
}

func TestRunTemplate_NoData(t *testing.T) {
	dir := newRepo(t)
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	tpl := templates.Template{
		Meta:      templates.Meta{Name: "staged"},
		Execution: templates.Execution{Source: "staged"},
		Prompts:   templates.Prompts{User: "{DIFF_CONTENT}"},
	}
	_, err := e.RunTemplate(context.Background(), dir, tpl, 0)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRun_Hashes(t *testing.T) {
	dir := newRepo(t)
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	recs, err := e.FetchData(context.Background(), dir, gitctx.Filter{})
	require.NoError(t, err)

	res, err := e.Run(context.Background(), dir, templates.Adhoc(""),
		gitctx.Filter{Mode: gitctx.ModeHashes, Hashes: []string{recs[2].Hash}})
	require.NoError(t, err)
	assert.Contains(t, res.Payload, "Analyze these specific commits:")
	assert.Contains(t, res.Payload, "+print('Hello')")
}

func TestExtractRaw(t *testing.T) {
	dir := newRepo(t)
	cfg := testConfig(t)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	e := New(cfg, WithCounter(tokens.Heuristic{}), WithClock(func() time.Time { return now }))

	ext, err := e.ExtractRaw(context.Background(), dir, gitctx.Filter{Limit: 2}, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, ext.Count)
	want := filepath.Join(cfg.OutputDir, output.FolderFor(gitctx.Filter{Limit: 2}),
		filepath.Base(dir)+"_20240506_070809.json")
	assert.Equal(t, want, ext.Path)

	recs, err := output.ReadRecords(ext.Path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Add config", recs[0].Message)
	assert.Contains(t, recs[0].Diff, "correct-horse-battery", "raw archives are not redacted")
}

func TestExtractRaw_Redacted(t *testing.T) {
	dir := newRepo(t)
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	out := filepath.Join(t.TempDir(), "redacted.json")

	ext, err := e.ExtractRaw(context.Background(), dir, gitctx.Filter{Limit: 1}, ExtractOptions{Out: out, Redact: true})
	require.NoError(t, err)
	require.Equal(t, 1, ext.Count)

	recs, err := output.ReadRecords(out)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotContains(t, recs[0].Diff, "correct-horse-battery")
	assert.Contains(t, recs[0].Diff, "[REDACTED]")
}

func TestExtractRaw_EmptyWritesArray(t *testing.T) {
	dir := newRepo(t)
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	out := filepath.Join(t.TempDir(), "staged.json")

	ext, err := e.ExtractRaw(context.Background(), dir, gitctx.Filter{Mode: gitctx.ModeStaged}, ExtractOptions{Out: out})
	require.NoError(t, err)
	assert.Zero(t, ext.Count)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestExtractRaw_InvalidRepo(t *testing.T) {
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	_, err := e.ExtractRaw(context.Background(), t.TempDir(), gitctx.Filter{}, ExtractOptions{})
	assert.ErrorIs(t, err, gitctx.ErrInvalidRepository)
}

func TestStream_Caches(t *testing.T) {
	c, err := cache.New(true, t.TempDir(), 0)
	require.NoError(t, err)
	fake := &fakeStreamer{name: "openai", model: "gpt-5-mini", reply: []string{"Looks ", "good."}}
	var gotOpts providers.Options
	cfg := testConfig(t)
	cfg.Keys.OpenAI = "sk-test"
	e := New(cfg, WithCounter(tokens.Heuristic{}), WithCache(c),
		WithStreamerFactory(func(name string, opts providers.Options) (providers.Streamer, error) {
			gotOpts = opts
			return fake, nil
		}))

	var chunks []string
	onChunk := func(s string) error { chunks = append(chunks, s); return nil }

	out, err := e.Stream(context.Background(), "openai", "", "prompt", onChunk)
	require.NoError(t, err)
	assert.Equal(t, "Looks good.", out)
	assert.Equal(t, "sk-test", gotOpts.APIKey)

	chunks = nil
	out, err = e.Stream(context.Background(), "openai", "", "prompt", onChunk)
	require.NoError(t, err)
	assert.Equal(t, "Looks good.", out)
	assert.Equal(t, []string{"Looks good."}, chunks)
	assert.Equal(t, 1, fake.calls)

	_, err = e.Stream(context.Background(), "openai", "", "other prompt", onChunk)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestStreamer_OllamaUsesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ollama.BaseURL = "http://gpu:11434"
	cfg.Ollama.Model = "qwen2.5-coder:7b"
	var gotOpts providers.Options
	e := New(cfg, WithCounter(tokens.Heuristic{}),
		WithStreamerFactory(func(name string, opts providers.Options) (providers.Streamer, error) {
			gotOpts = opts
			return &fakeStreamer{name: name, model: opts.Model}, nil
		}))

	s, err := e.Streamer("ollama", "")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder:7b", s.Model())
	assert.Equal(t, "http://gpu:11434", gotOpts.BaseURL)
}

func TestStreamer_UnknownProvider(t *testing.T) {
	e := New(testConfig(t), WithCounter(tokens.Heuristic{}))
	_, err := e.Streamer("nope", "")
	assert.ErrorIs(t, err, providers.ErrUnknownProvider)
}
