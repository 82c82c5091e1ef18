package llm

import (
	"context"
	"time"

	"github.com/ragarena/arena/internal/ports"
)

// metricsLLM records call counts, latency, and token usage for every
// grading request.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware instruments grading calls with the given collector.
// A nil collector disables the middleware.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		if collector == nil {
			return next
		}
		return &metricsLLM{next: next, collector: collector}
	}
}

// DoRequest forwards the call and records its outcome.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{"model": m.next.GetModel()}
	m.collector.RecordLatency("llm_request", time.Since(start), labels)
	if err != nil {
		m.collector.RecordCounter("llm_request_errors_total", 1, labels)
		return response, tokensIn, tokensOut, err
	}
	m.collector.RecordCounter("llm_requests_total", 1, labels)
	m.collector.RecordHistogram("llm_tokens_in", float64(tokensIn), labels)
	m.collector.RecordHistogram("llm_tokens_out", float64(tokensOut), labels)
	return response, tokensIn, tokensOut, nil
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }
