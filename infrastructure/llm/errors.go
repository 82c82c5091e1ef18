package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ragarena/arena/internal/ports"
)

// Errors returned by the client and providers.
var (
	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrNoResponseChoice indicates the response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// classifyHTTPError maps a provider HTTP status to the shared port
// sentinels so callers can match with errors.Is across providers.
func classifyHTTPError(provider, model string, statusCode int, err error) error {
	var sentinel error
	switch {
	case statusCode == 401 || statusCode == 403:
		sentinel = ports.ErrAuthenticationFailed
	case statusCode == 429:
		sentinel = ports.ErrRateLimited
	case statusCode >= 500:
		sentinel = ports.ErrServiceUnavailable
	default:
		return &ports.LLMError{
			Model:     model,
			Operation: "complete",
			Err:       fmt.Errorf("%s API error (HTTP %d): %w", provider, statusCode, err),
		}
	}
	return &ports.LLMError{
		Model:     model,
		Operation: "complete",
		Err:       fmt.Errorf("%w: %s (HTTP %d): %v", sentinel, provider, statusCode, err),
	}
}

// classifyContextError maps context cancellation and deadline errors to
// the shared timeout sentinel.
func classifyContextError(model string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ports.LLMError{
			Model:     model,
			Operation: "complete",
			Err:       fmt.Errorf("%w: %v", ports.ErrTimeout, err),
		}
	}
	return err
}
