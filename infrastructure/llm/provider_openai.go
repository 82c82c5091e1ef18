package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIDefaultModel is used when no model is configured.
const OpenAIDefaultModel = "gpt-4o-mini"

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
}

// openAIProvider implements CoreLLM for OpenAI's chat completions API.
type openAIProvider struct {
	client    *openai.Client
	model     string
	estimator TokenEstimator
}

func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &openAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		estimator: SimpleTokenEstimator{},
	}, nil
}

// DoRequest sends a chat completion request and returns the generated
// content with token usage.
func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	req := openai.ChatCompletionRequest{
		Model:    optString(opts, "model", p.model),
		Messages: buildOpenAIMessages(prompt, optString(opts, "system", "")),
	}
	if temp, ok := optFloat(opts, "temperature"); ok {
		req.Temperature = float32(clamp(temp, 0.0, 2.0))
	}
	if maxTokens, ok := optInt(opts, "max_tokens"); ok && maxTokens > 0 {
		req.MaxTokens = maxTokens
	}
	if format, ok := opts["response_format"].(map[string]string); ok && format["type"] == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, 0, ErrNoResponseChoice
	}

	content := resp.Choices[0].Message.Content
	tokensIn := orEstimate(resp.Usage.PromptTokens, prompt, p.estimator)
	tokensOut := orEstimate(resp.Usage.CompletionTokens, content, p.estimator)
	return content, tokensIn, tokensOut, nil
}

func (p *openAIProvider) GetModel() string { return p.model }

func (p *openAIProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return classifyContextError(p.model, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyHTTPError("openai", p.model, apiErr.HTTPStatusCode, err)
	}
	return classifyHTTPError("openai", p.model, 0, err)
}

func buildOpenAIMessages(prompt, system string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}
