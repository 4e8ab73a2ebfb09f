package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/prompt"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// ErrNotFound is returned by Find when no template has the requested name.
var ErrNotFound = errors.New("template not found")

// Output modes.
const (
	OutputAuto    = "auto"
	OutputStdout  = "stdout"
	OutputFile    = "file"
	OutputExecute = "execute"
)

// Meta identifies a template.
type Meta struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Execution says which records feed the template and where the prompt goes.
type Execution struct {
	Source     string `json:"source" yaml:"source"`
	Limit      int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	OutputMode string `json:"output_mode,omitempty" yaml:"output_mode,omitempty"`
}

// Prompts holds the prompt text. User must contain {DIFF_CONTENT} to receive
// diffs.
type Prompts struct {
	System string `json:"system,omitempty" yaml:"system,omitempty"`
	User   string `json:"user" yaml:"user"`
}

// Template is a named, reusable prompt recipe.
type Template struct {
	Meta      Meta      `json:"meta" yaml:"meta"`
	Execution Execution `json:"execution" yaml:"execution"`
	Prompts   Prompts   `json:"prompts" yaml:"prompts"`

	// Path is the file the template was loaded from; empty for built-ins.
	Path string `json:"-" yaml:"-"`
}

// Validate fills defaults and checks required fields.
func (t *Template) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Meta.Name) == "" {
		errs = append(errs, errors.New("meta.name is required"))
	}
	switch t.Execution.Source {
	case string(gitctx.ModeStaged), string(gitctx.ModeHistory):
	default:
		errs = append(errs, fmt.Errorf("execution.source %q must be staged or history", t.Execution.Source))
	}
	if t.Execution.Limit < 0 {
		errs = append(errs, fmt.Errorf("execution.limit %d must not be negative", t.Execution.Limit))
	}
	if t.Execution.Limit == 0 {
		t.Execution.Limit = 1
	}
	switch t.Execution.OutputMode {
	case "":
		t.Execution.OutputMode = OutputAuto
	case OutputAuto, OutputStdout, OutputFile, OutputExecute:
	default:
		errs = append(errs, fmt.Errorf("execution.output_mode %q is not supported", t.Execution.OutputMode))
	}
	if strings.TrimSpace(t.Prompts.User) == "" {
		errs = append(errs, errors.New("prompts.user is required"))
	}
	return errors.Join(errs...)
}

// Filter returns the record query the template runs.
func (t Template) Filter() gitctx.Filter {
	if t.Execution.Source == string(gitctx.ModeStaged) {
		return gitctx.Filter{Mode: gitctx.ModeStaged}
	}
	return gitctx.Filter{Mode: gitctx.ModeHistory, Limit: t.Execution.Limit}
}

// Adhoc is the template used for an explicit selection of commits.
func Adhoc(user string) Template {
	if user == "" {
		user = "Analyze these specific commits:\n\n" + prompt.Placeholder
	}
	return Template{
		Meta:      Meta{Name: "Interactive", Description: "Ad-hoc analysis"},
		Execution: Execution{Source: string(gitctx.ModeHistory), Limit: 1, OutputMode: OutputAuto},
		Prompts: Prompts{
			System: "You are a senior software engineer.",
			User:   user,
		},
	}
}

// Parse decodes a template from JSON or YAML, chosen by file extension.
func Parse(name string, data []byte) (Template, error) {
	var t Template
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = json.Unmarshal(data, &t)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &t)
	default:
		return t, fmt.Errorf("%s: unsupported template format", name)
	}
	if err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Builtin returns the templates compiled into the binary.
func Builtin() []Template {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		slog.Error("reading built-in templates", slog.Any("error", err))
		return nil
	}
	var out []Template
	for _, e := range entries {
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			slog.Error("reading built-in template", slog.String("file", e.Name()), slog.Any("error", err))
			continue
		}
		t, err := Parse(e.Name(), data)
		if err != nil {
			slog.Error("invalid built-in template", slog.Any("error", err))
			continue
		}
		out = append(out, t)
	}
	return out
}

// LoadDir reads every JSON or YAML template in dir. Invalid files are logged
// and skipped. A missing directory is created and yields no templates.
func LoadDir(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("template directory not found, creating it", slog.String("dir", dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating template directory: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading template directory: %w", err)
	}

	var out []Template
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("failed to read template", slog.String("file", path), slog.Any("error", err))
			continue
		}
		t, err := Parse(e.Name(), data)
		if err != nil {
			slog.Error("template validation failed", slog.String("file", path), slog.Any("error", err))
			continue
		}
		t.Path = path
		out = append(out, t)
	}
	return out, nil
}

// Load merges the built-ins with templates from dir, which win on a name
// clash. An empty dir loads only the built-ins. The result is sorted by name.
func Load(dir string) ([]Template, error) {
	byName := map[string]Template{}
	for _, t := range Builtin() {
		byName[t.Meta.Name] = t
	}
	if dir != "" {
		loaded, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, t := range loaded {
			byName[t.Meta.Name] = t
		}
	}
	out := make([]Template, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta.Name < out[j].Meta.Name })
	return out, nil
}

// Find looks a template up by name.
func Find(list []Template, name string) (Template, error) {
	for _, t := range list {
		if t.Meta.Name == name {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}
