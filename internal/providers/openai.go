package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAICompatible streams chat completions from OpenAI or any service that
// speaks the same API (xAI, Gemini, Anthropic, LM Studio).
type OpenAICompatible struct {
	name   string
	model  string
	client openai.Client
}

// NewOpenAICompatible creates a client for the named provider. SDK-level
// retries are disabled in favour of streamWithRetry.
func NewOpenAICompatible(name string, opts Options) *OpenAICompatible {
	key := opts.APIKey
	if key == "" {
		key = "unused"
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAICompatible{
		name:   name,
		model:  opts.Model,
		client: openai.NewClient(reqOpts...),
	}
}

func (o *OpenAICompatible) Name() string  { return o.name }
func (o *OpenAICompatible) Model() string { return o.model }

// Stream sends prompt as a single user message.
func (o *OpenAICompatible) Stream(ctx context.Context, prompt string, onChunk func(string) error) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	var full strings.Builder
	err := streamWithRetry(ctx, func() bool { return full.Len() > 0 }, func() error {
		stream := o.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}
			full.WriteString(text)
			if err := onChunk(text); err != nil {
				return err
			}
		}
		return o.classify(stream.Err())
	})
	if err != nil {
		return full.String(), fmt.Errorf("%s: %w", o.name, err)
	}
	if full.Len() == 0 {
		return "", fmt.Errorf("%s: empty response", o.name)
	}
	return full.String(), nil
}

func (o *OpenAICompatible) classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return statusError(apiErr.StatusCode, msg)
	}
	return fmt.Errorf("streaming response: %w", err)
}
