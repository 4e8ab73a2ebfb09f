package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

var (
	// ErrUnknownProvider is returned by New for an unrecognized provider name.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingKey is returned when a provider needs an API key and none is set.
	ErrMissingKey = errors.New("missing API key")
)

// Streamer sends a prompt to a model and streams the reply.
type Streamer interface {
	// Stream calls onChunk for each piece of text as it arrives and returns
	// the full reply. An error from onChunk aborts the stream.
	Stream(ctx context.Context, prompt string, onChunk func(string) error) (string, error)
	Name() string
	Model() string
}

// Options configures a provider client. Zero fields take the provider's
// defaults.
type Options struct {
	Model      string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type kind int

const (
	kindOpenAICompatible kind = iota
	kindOllama
)

// Info describes a supported provider.
type Info struct {
	Name         string
	DefaultModel string
	BaseURL      string
	KeyEnv       string
	Description  string

	kind kind
}

var catalog = map[string]Info{
	"openai": {
		Name:         "openai",
		DefaultModel: "gpt-5-mini",
		KeyEnv:       "OPENAI_API_KEY",
		Description:  "General purpose model with high reasoning capabilities.",
	},
	"xai": {
		Name:         "xai",
		DefaultModel: "grok-4-1-fast-reasoning",
		BaseURL:      "https://api.x.ai/v1/",
		KeyEnv:       "XAI_API_KEY",
		Description:  "Optimized for logic and complex deduction tasks.",
	},
	"gemini": {
		Name:         "gemini",
		DefaultModel: "gemini-2.5-pro",
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta/openai/",
		KeyEnv:       "GEMINI_API_KEY",
		Description:  "Multimodal model with large context window.",
	},
	"anthropic": {
		Name:         "anthropic",
		DefaultModel: "claude-sonnet-4-5",
		BaseURL:      "https://api.anthropic.com/v1/",
		KeyEnv:       "ANTHROPIC_API_KEY",
		Description:  "Claude models through the OpenAI-compatible endpoint.",
	},
	"lmstudio": {
		Name:         "lmstudio",
		DefaultModel: "local-model",
		BaseURL:      "http://localhost:1234/v1/",
		Description:  "Local models served by LM Studio.",
	},
	"ollama": {
		Name:         "ollama",
		DefaultModel: "llama3.1:8b",
		BaseURL:      defaultOllamaURL,
		Description:  "Local inference provider.",
		kind:         kindOllama,
	},
}

var aliases = map[string]string{
	"google": "gemini",
	"grok":   "xai",
	"claude": "anthropic",
}

// Lookup returns the catalog entry for name or one of its aliases.
func Lookup(name string) (Info, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	info, ok := catalog[name]
	return info, ok
}

// Known lists the supported providers sorted by name.
func Known() []Info {
	out := make([]Info, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New creates a provider by name.
func New(name string, opts Options) (Streamer, error) {
	info, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if opts.Model == "" {
		opts.Model = info.DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = info.BaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 300 * time.Second}
	}
	switch info.kind {
	case kindOllama:
		return NewOllama(opts)
	default:
		if info.KeyEnv != "" && opts.APIKey == "" {
			return nil, fmt.Errorf("%w: set %s", ErrMissingKey, info.KeyEnv)
		}
		return NewOpenAICompatible(info.Name, opts), nil
	}
}
