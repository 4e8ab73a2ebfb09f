package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama streams completions from a local Ollama server.
type Ollama struct {
	model   string
	baseURL string
	client  *api.Client
}

// NewOllama creates an Ollama provider. No API key is required.
func NewOllama(opts Options) (*Ollama, error) {
	base := normalizeOllamaURL(opts.BaseURL)
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", base, err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Ollama{
		model:   opts.Model,
		baseURL: base,
		client:  api.NewClient(u, hc),
	}, nil
}

// normalizeOllamaURL strips a trailing slash and any OpenAI-compatible path
// suffix, leaving the server root.
func normalizeOllamaURL(base string) string {
	if base == "" {
		return defaultOllamaURL
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1/chat/completions")
	base = strings.TrimSuffix(base, "/v1")
	return base
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// Stream generates a completion for prompt.
func (o *Ollama) Stream(ctx context.Context, prompt string, onChunk func(string) error) (string, error) {
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
	}

	var full strings.Builder
	err := streamWithRetry(ctx, func() bool { return full.Len() > 0 }, func() error {
		err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
			if resp.Response == "" {
				return nil
			}
			full.WriteString(resp.Response)
			return onChunk(resp.Response)
		})
		return o.classify(err)
	})
	if err != nil {
		return full.String(), fmt.Errorf("ollama: %w", err)
	}
	if full.Len() == 0 {
		return "", errors.New("ollama: empty response")
	}
	return full.String(), nil
}

// Models lists the models installed on the server.
func (o *Ollama) Models(ctx context.Context) ([]string, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		return nil, o.classify(err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *Ollama) classify(err error) error {
	if err == nil {
		return nil
	}
	var se api.StatusError
	if errors.As(err, &se) {
		msg := se.ErrorMessage
		if msg == "" {
			msg = se.Status
		}
		return statusError(se.StatusCode, msg)
	}
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("cannot connect to Ollama at %s, make sure it is running: %w", o.baseURL, err)
	}
	return err
}
