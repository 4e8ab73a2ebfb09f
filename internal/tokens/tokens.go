package tokens

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	// DefaultModel selects the encoding when none is configured.
	DefaultModel = "gpt-4"
	// FallbackEncoding is used when the model has no known encoding.
	FallbackEncoding = "cl100k_base"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter estimates the token length of text.
type Counter interface {
	Count(text string) int
}

// Heuristic approximates one token per four characters.
type Heuristic struct{}

// Count returns the rune count divided by four.
func (Heuristic) Count(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// Encoder counts tokens with a tiktoken encoding, falling back to
// [Heuristic] if encoding panics.
type Encoder struct {
	enc *tiktoken.Tiktoken
}

// Count never panics and never returns a negative value.
func (e *Encoder) Count(text string) (n int) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("token encoding failed, using heuristic", slog.Any("panic", p))
			n = Heuristic{}.Count(text)
		}
	}()
	return len(e.enc.EncodeOrdinary(text))
}

var (
	mu       sync.Mutex
	counters = map[string]Counter{}
)

// ForModel returns a cached Counter for model: the model's own encoding,
// else cl100k_base, else the character heuristic.
func ForModel(model string) Counter {
	if model == "" {
		model = DefaultModel
	}
	mu.Lock()
	defer mu.Unlock()
	if c, ok := counters[model]; ok {
		return c
	}
	c := resolve(model)
	counters[model] = c
	return c
}

func resolve(model string) Counter {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return &Encoder{enc: enc}
	}
	slog.Debug("no encoding for model", slog.String("model", model), slog.Any("error", err))
	enc, err = tiktoken.GetEncoding(FallbackEncoding)
	if err == nil {
		return &Encoder{enc: enc}
	}
	slog.Warn("tiktoken unavailable, estimating tokens from length", slog.Any("error", err))
	return Heuristic{}
}

// Count estimates the tokens of text under model's encoding.
func Count(text, model string) int {
	return ForModel(model).Count(text)
}
