package llm

import (
	"context"
	"sync/atomic"
)

// MockCoreLLM is a scriptable CoreLLM for tests of the client and its
// middleware chain.
type MockCoreLLM struct {
	Model    string
	Response string
	Err      error

	// DoRequestFunc overrides the canned response when set.
	DoRequestFunc func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error)

	calls atomic.Int64
}

// DoRequest returns the scripted response and counts the call.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.calls.Add(1)
	if m.DoRequestFunc != nil {
		return m.DoRequestFunc(ctx, prompt, opts)
	}
	if m.Err != nil {
		return "", 0, 0, m.Err
	}
	return m.Response, len(prompt) / 4, len(m.Response) / 4, nil
}

// GetModel returns the scripted model name.
func (m *MockCoreLLM) GetModel() string { return m.Model }

// Calls returns how many requests the mock has served.
func (m *MockCoreLLM) Calls() int { return int(m.calls.Load()) }
