package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ragarena/arena/internal/ports"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name         string
		providerType string
		config       ClientConfig
		wantErr      error
	}{
		{
			name:         "openai with key",
			providerType: "openai",
			config:       ClientConfig{APIKey: "sk-test", Model: "gpt-4o-mini"},
		},
		{
			name:         "anthropic with key",
			providerType: "anthropic",
			config:       ClientConfig{APIKey: "sk-ant-test"},
		},
		{
			name:         "missing credentials",
			providerType: "openai",
			config:       ClientConfig{Model: "gpt-4o-mini"},
			wantErr:      ports.ErrNoCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.providerType, tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, client.GetModel())
		})
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient("parrot", ClientConfig{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

func TestNewClient_DefaultModels(t *testing.T) {
	openaiClient, err := NewClient("openai", ClientConfig{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, OpenAIDefaultModel, openaiClient.GetModel())

	anthropicClient, err := NewClient("anthropic", ClientConfig{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, AnthropicDefaultModel, anthropicClient.GetModel())
}

func TestClient_MiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return &MockCoreLLM{DoRequestFunc: func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
				order = append(order, name)
				return next.DoRequest(ctx, prompt, opts)
			}}
		}
	}

	core := &MockCoreLLM{Model: "mock", Response: "ok"}
	RegisterProviderFactory("mock-order", func(ClientConfig) (CoreLLM, error) { return core, nil })

	client, err := NewClient("mock-order", ClientConfig{
		APIKey:     "key",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	response, err := client.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, core.Calls())
}

func TestClient_EstimateTokens(t *testing.T) {
	RegisterProviderFactory("mock-estimate", func(ClientConfig) (CoreLLM, error) {
		return &MockCoreLLM{Model: "mock"}, nil
	})
	client, err := NewClient("mock-estimate", ClientConfig{APIKey: "key"})
	require.NoError(t, err)

	count, err := client.EstimateTokens("twelve chars")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLazyClient_NoCredentials(t *testing.T) {
	lazy := NewLazyClient("openai", ClientConfig{Model: "gpt-4o-mini"})

	_, err := lazy.Complete(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, ports.ErrNoCredentials)

	// Repeated calls keep returning the cached construction error.
	_, err = lazy.Complete(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, ports.ErrNoCredentials)

	count, err := lazy.EstimateTokens("text")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "gpt-4o-mini", lazy.GetModel())
}

func TestLazyClient_InitializesOnce(t *testing.T) {
	core := &MockCoreLLM{Model: "mock", Response: "graded"}
	var constructions int
	RegisterProviderFactory("mock-lazy", func(ClientConfig) (CoreLLM, error) {
		constructions++
		return core, nil
	})

	lazy := NewLazyClient("mock-lazy", ClientConfig{APIKey: "key", Model: "mock"})
	for i := 0; i < 3; i++ {
		response, err := lazy.Complete(context.Background(), "prompt", nil)
		require.NoError(t, err)
		assert.Equal(t, "graded", response)
	}
	assert.Equal(t, 1, constructions)
	assert.Equal(t, 3, core.Calls())
}

func TestRateLimitMiddleware_Paces(t *testing.T) {
	core := &MockCoreLLM{Model: "mock", Response: "ok"}
	limited := RateLimitMiddleware(rate.Limit(100), 1)(core)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, _, err := limited.DoRequest(context.Background(), "p", nil)
		require.NoError(t, err)
	}
	// Burst of 1 at 100 rps: two waits of ~10ms each.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, 3, core.Calls())
}

func TestRateLimitMiddleware_ContextCanceled(t *testing.T) {
	core := &MockCoreLLM{Model: "mock", Response: "ok"}
	limited := RateLimitMiddleware(rate.Limit(0.001), 1)(core)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, _, err := limited.DoRequest(ctx, "first", nil)
	require.NoError(t, err)
	_, _, _, err = limited.DoRequest(ctx, "second", nil)
	require.Error(t, err)
	assert.Equal(t, 1, core.Calls())
}

func TestTimeoutMiddleware(t *testing.T) {
	core := &MockCoreLLM{DoRequestFunc: func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
		select {
		case <-time.After(time.Second):
			return "too late", 0, 0, nil
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}}
	bounded := TimeoutMiddleware(20 * time.Millisecond)(core)

	_, _, _, err := bounded.DoRequest(context.Background(), "p", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutMiddleware_DisabledWhenNonPositive(t *testing.T) {
	core := &MockCoreLLM{Model: "mock"}
	assert.Same(t, CoreLLM(core), TimeoutMiddleware(0)(core))
}

func TestMetricsMiddleware(t *testing.T) {
	core := &MockCoreLLM{Model: "mock", Response: "ok"}
	collector := &recordingCollector{}
	instrumented := MetricsMiddleware(collector)(core)

	_, _, _, err := instrumented.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"llm_requests_total"}, collector.counters)
	assert.Equal(t, []string{"llm_request"}, collector.latencies)

	core.Err = errors.New("boom")
	_, _, _, err = instrumented.DoRequest(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, collector.counters, "llm_request_errors_total")
}

type recordingCollector struct {
	counters   []string
	latencies  []string
	histograms []string
}

func (c *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	c.counters = append(c.counters, metric)
}

func (c *recordingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	c.latencies = append(c.latencies, operation)
}

func (c *recordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	c.histograms = append(c.histograms, metric)
}
