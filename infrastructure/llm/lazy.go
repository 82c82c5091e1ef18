package llm

import (
	"context"
	"sync"

	"github.com/ragarena/arena/internal/ports"
)

// LazyClient defers provider construction until the first grading
// call, then reuses the one client for the process lifetime. Workers
// construct it unconditionally at startup; if no credential is
// configured, every call returns ErrNoCredentials and the judges fall
// back to rule-based grading without any setup cost.
type LazyClient struct {
	providerType string
	config       ClientConfig

	once   sync.Once
	client *Client
	err    error
}

// NewLazyClient creates a client whose provider is built on first use.
func NewLazyClient(providerType string, config ClientConfig) *LazyClient {
	return &LazyClient{providerType: providerType, config: config}
}

func (l *LazyClient) init() (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = NewClient(l.providerType, l.config)
	})
	return l.client, l.err
}

// Complete sends a prompt and returns the response text.
func (l *LazyClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	client, err := l.init()
	if err != nil {
		return "", err
	}
	return client.Complete(ctx, prompt, options)
}

// EstimateTokens approximates the token count of the given text.
func (l *LazyClient) EstimateTokens(text string) (int, error) {
	client, err := l.init()
	if err != nil {
		return SimpleTokenEstimator{}.EstimateTokens(text), nil
	}
	return client.EstimateTokens(text)
}

// GetModel returns the configured model name without forcing
// initialization; judges consult it before the first call.
func (l *LazyClient) GetModel() string { return l.config.Model }

var _ ports.LLMClient = (*LazyClient)(nil)
