package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/prompt"
)

const validJSON = `{
  "meta": {"name": "security", "description": "Security audit"},
  "execution": {"source": "history", "limit": 5, "output_mode": "execute"},
  "prompts": {"system": "You audit code.", "user": "Audit:\n{DIFF_CONTENT}"}
}`

const validYAML = `meta:
  name: explain
  description: Explain staged work
execution:
  source: staged
prompts:
  user: "Explain {DIFF_CONTENT}"
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParse_JSON(t *testing.T) {
	tpl, err := Parse("security.json", []byte(validJSON))
	require.NoError(t, err)
	assert.Equal(t, "security", tpl.Meta.Name)
	assert.Equal(t, 5, tpl.Execution.Limit)
	assert.Equal(t, OutputExecute, tpl.Execution.OutputMode)
	assert.Equal(t, gitctx.Filter{Mode: gitctx.ModeHistory, Limit: 5}, tpl.Filter())
}

func TestParse_YAMLDefaults(t *testing.T) {
	tpl, err := Parse("explain.yml", []byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.Execution.Limit)
	assert.Equal(t, OutputAuto, tpl.Execution.OutputMode)
	assert.Empty(t, tpl.Prompts.System)
	assert.Equal(t, gitctx.ModeStaged, tpl.Filter().Mode)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad.json":    `{"meta": `,
		"nouser.json": `{"meta":{"name":"x"},"execution":{"source":"history"},"prompts":{}}`,
		"source.json": `{"meta":{"name":"x"},"execution":{"source":"range"},"prompts":{"user":"u"}}`,
		"mode.json":   `{"meta":{"name":"x"},"execution":{"source":"staged","output_mode":"clipboard"},"prompts":{"user":"u"}}`,
		"noname.yaml": "execution:\n  source: staged\nprompts:\n  user: u\n",
		"notes.txt":   "anything",
	}
	for name, body := range tests {
		_, err := Parse(name, []byte(body))
		assert.Error(t, err, name)
	}
}

func TestLoadDir_SkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "security.json", validJSON)
	writeFile(t, dir, "explain.yaml", validYAML)
	writeFile(t, dir, "broken.json", `{"meta":`)
	writeFile(t, dir, "README.md", "# templates")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	list, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, tpl := range list {
		assert.NotEmpty(t, tpl.Path)
	}
}

func TestLoadDir_MissingIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates")
	list, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, list)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBuiltin(t *testing.T) {
	list := Builtin()
	require.Len(t, list, 3)
	for _, tpl := range list {
		assert.Contains(t, tpl.Prompts.User, prompt.Placeholder, tpl.Meta.Name)
		assert.Empty(t, tpl.Path)
	}
}

func TestLoad_DirectoryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cr.yaml", `meta:
  name: code-review
  description: house rules
execution:
  source: history
  limit: 3
prompts:
  user: "Custom {DIFF_CONTENT}"
`)
	list, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "code-review", list[0].Meta.Name)
	assert.Equal(t, "house rules", list[0].Meta.Description)
	assert.Equal(t, "release-notes", list[2].Meta.Name)

	tpl, err := Find(list, "commit-message")
	require.NoError(t, err)
	assert.Equal(t, gitctx.ModeStaged, tpl.Filter().Mode)

	_, err = Find(list, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdhoc(t *testing.T) {
	tpl := Adhoc("")
	require.NoError(t, tpl.Validate())
	assert.Equal(t, "You are a senior software engineer.", tpl.Prompts.System)
	assert.Equal(t, "Analyze these specific commits:\n\n{DIFF_CONTENT}", tpl.Prompts.User)
	assert.Equal(t, "Explain {DIFF_CONTENT}", Adhoc("Explain {DIFF_CONTENT}").Prompts.User)
}
