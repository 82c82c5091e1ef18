// Package llm provides the rubric-grading LLM client used by the
// response judges. It abstracts the supported providers (OpenAI,
// Anthropic) behind one interface and layers cross-cutting concerns
// such as rate limiting, timeouts, and metrics through a middleware
// chain.
//
// The grading call is optional by design: a missing credential yields
// no client at all and the judges grade with their deterministic
// rules. Construction is therefore split into NewClient, which
// requires credentials, and NewLazyClient, which defers provider
// setup until the first grading call.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	response, err := client.Complete(ctx, prompt, nil)
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ragarena/arena/internal/ports"
)

// CoreLLM defines the minimal interface a provider must implement.
// Middleware wraps any conforming implementation, so providers stay
// free of operational concerns.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text with input and output token counts. The opts map carries
	// provider settings such as temperature, max_tokens, system, and
	// response_format.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string
}

// TokenEstimator approximates token counts when the provider does not
// report them, for cost accounting and rate limiting.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// Middleware wraps a CoreLLM to add cross-cutting functionality.
// Middlewares compose without touching provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds the settings for one provider client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the model; empty means the provider default.
	Model string

	// BaseURL overrides the provider's default endpoint. Used for
	// proxies and test servers.
	BaseURL string

	// Timeout bounds each request. Zero means no client-side timeout
	// beyond the caller's context.
	Timeout time.Duration

	// TokenEstimator overrides the character-based default.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient over a middleware-wrapped provider.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

// NewClient creates a client for the named provider. It fails when the
// provider is unknown or credentials are missing; callers that want
// silent degradation use NewLazyClient instead.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ports.ErrNoCredentials
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", providerType, err)
	}

	// Apply middleware in reverse so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = SimpleTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and returns the response text with
// input and output token counts.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count of the given text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SimpleTokenEstimator estimates roughly four characters per token,
// which tracks English text closely enough for rate limiting.
type SimpleTokenEstimator struct{}

// EstimateTokens returns an approximate token count.
func (SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a name. Built-in
// providers register themselves at init.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
