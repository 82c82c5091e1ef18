package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// AnthropicDefaultModel is used when no model is configured.
	AnthropicDefaultModel = "claude-3-5-haiku-latest"

	// anthropicDefaultMaxTokens bounds responses when the caller sets
	// no limit; Anthropic requires an explicit value.
	anthropicDefaultMaxTokens = 1024
)

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider implements CoreLLM for Anthropic's messages API.
type anthropicProvider struct {
	client    anthropic.Client
	model     string
	estimator TokenEstimator
}

func newAnthropicProvider(config ClientConfig) (CoreLLM, error) {
	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &anthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		estimator: SimpleTokenEstimator{},
	}, nil
}

// DoRequest sends a messages request and returns the generated content
// with token usage.
func (p *anthropicProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	maxTokens := anthropicDefaultMaxTokens
	if v, ok := optInt(opts, "max_tokens"); ok && v > 0 {
		maxTokens = v
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(optString(opts, "model", p.model)),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if temp, ok := optFloat(opts, "temperature"); ok {
		params.Temperature = anthropic.Float(clamp(temp, 0.0, 1.0))
	}
	if system := optString(opts, "system", ""); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		}
	}
	response := text.String()
	if response == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := orEstimate(int(message.Usage.InputTokens), prompt, p.estimator)
	tokensOut := orEstimate(int(message.Usage.OutputTokens), response, p.estimator)
	return response, tokensIn, tokensOut, nil
}

func (p *anthropicProvider) GetModel() string { return p.model }

func (p *anthropicProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return classifyContextError(p.model, err)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyHTTPError("anthropic", p.model, apiErr.StatusCode, err)
	}
	return classifyHTTPError("anthropic", p.model, 0, err)
}
