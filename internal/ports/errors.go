package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors returned by port implementations.
var (
	// ErrNoCredentials indicates the LLM provider has no API key
	// configured. Judges treat this as the silent-fallback signal.
	ErrNoCredentials = errors.New("no credentials configured")

	// ErrRateLimited indicates the service has rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates the service returned a payload that
	// does not parse as the expected shape.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrAuthenticationFailed indicates authentication was rejected.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRecordNotFound indicates the requested row does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists indicates an insert raced with another writer.
	ErrRecordExists = errors.New("record already exists")

	// ErrUpdateConflict indicates a conditional update lost its race and
	// the caller should re-read and retry.
	ErrUpdateConflict = errors.New("concurrent update conflict")
)

// LLMError wraps an error from an LLM provider with model and operation
// context plus optional rate-limit information.
type LLMError struct {
	// Model is the identifier of the model that generated the error.
	Model string

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error.
	Err error

	// RetryAfter indicates how long to wait before retrying, if known.
	RetryAfter *time.Duration
}

// Error implements the error interface for LLMError.
func (e *LLMError) Error() string {
	return fmt.Sprintf("llm error: model=%s, operation=%s, err=%v", e.Model, e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *LLMError) Unwrap() error { return e.Err }

// AgentError wraps a failed agent invocation with the transport context
// needed to generate useful per-question feedback.
type AgentError struct {
	// Challenge is the challenge being evaluated.
	Challenge string

	// StatusCode is the HTTP status returned by the agent, 0 when the
	// request never completed.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for AgentError.
func (e *AgentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agent error: challenge=%s, status=%d, err=%v", e.Challenge, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("agent error: challenge=%s, err=%v", e.Challenge, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *AgentError) Unwrap() error { return e.Err }
