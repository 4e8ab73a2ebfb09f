package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

const maxAttempts = 3

// baseDelay is the first back-off interval; tests shorten it.
var baseDelay = time.Second

type rateLimitError struct {
	message string
}

func (e *rateLimitError) Error() string { return "rate limited: " + e.message }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

func isRetryable(err error) bool {
	var rl *rateLimitError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}

// statusError maps an HTTP status to the error kinds retry understands.
func statusError(code int, message string) error {
	switch {
	case code == 401 || code == 403:
		return &authError{message: message}
	case code == 429:
		return &rateLimitError{message: message}
	case code >= 500:
		return &serverError{statusCode: code, body: message}
	default:
		return fmt.Errorf("API error (status %d): %s", code, message)
	}
}

// streamWithRetry runs attempt with exponential back-off. Once any text has
// been delivered to the caller, failures are final.
func streamWithRetry(ctx context.Context, emitted func() bool, attempt func() error) error {
	return retry.Do(attempt,
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !emitted() && isRetryable(err)
		}),
	)
}
