// Package agent invokes participant agents over HTTP. The invoker owns
// the wire contract with the participant's endpoint; every transport or
// format failure surfaces as a typed error the orchestrator turns into
// a zero-scored question result.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/ports"
)

// maxResponseBytes bounds how much of an agent's reply is read. Agents
// are untrusted; an unbounded body must not exhaust worker memory.
const maxResponseBytes = 1 << 20

// HTTPConfig defines the connection to one participant's endpoint.
type HTTPConfig struct {
	// EndpointURL is the participant's agent endpoint.
	EndpointURL string `yaml:"endpoint_url" json:"endpoint_url" validate:"required,url"`

	// KBSearchURL is the document-store search endpoint handed to the
	// agent so it can retrieve context. The challenge name is appended.
	KBSearchURL string `yaml:"kb_search_url" json:"kb_search_url" validate:"required,url"`

	// Timeout bounds the HTTP client itself. The orchestrator applies
	// the per-question deadline through the call context.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// HTTPInvoker implements ports.AgentInvoker over HTTP POST.
type HTTPInvoker struct {
	config HTTPConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPInvoker creates an invoker for one participant endpoint.
// logger may be nil.
func NewHTTPInvoker(config HTTPConfig, logger *zap.Logger) (*HTTPInvoker, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("agent configuration validation failed: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPInvoker{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// invokeRequest is the body POSTed to the participant's endpoint. The
// question text travels under "claim" for factcheck and "query" for
// legal; only one of the two is set per call.
type invokeRequest struct {
	Claim       string `json:"claim,omitempty"`
	Query       string `json:"query,omitempty"`
	KBSearchURL string `json:"kb_search_url"`
}

// Invoke POSTs one question to the agent and parses its reply.
func (inv *HTTPInvoker) Invoke(ctx context.Context, challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error) {
	body := invokeRequest{
		KBSearchURL: fmt.Sprintf("%s/%s/search", inv.config.KBSearchURL, challenge),
	}
	if challenge == domain.ChallengeLegal {
		body.Query = prompt
	} else {
		body.Claim = prompt
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.AgentResponse{}, &ports.AgentError{Challenge: string(challenge), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inv.config.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return domain.AgentResponse{}, &ports.AgentError{Challenge: string(challenge), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := inv.client.Do(req)
	if err != nil {
		inv.logger.Warn("agent request failed", zap.String("challenge", string(challenge)), zap.Error(err))
		return domain.AgentResponse{}, &ports.AgentError{
			Challenge: string(challenge),
			Err:       fmt.Errorf("agent request: %w", err),
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.AgentResponse{}, &ports.AgentError{
			Challenge: string(challenge),
			Err:       fmt.Errorf("reading agent response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.AgentResponse{}, &ports.AgentError{
			Challenge:  string(challenge),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("agent returned status %d: %s", resp.StatusCode, truncateBody(data)),
		}
	}

	var agentResp domain.AgentResponse
	if err := json.Unmarshal(data, &agentResp); err != nil {
		return domain.AgentResponse{}, &ports.AgentError{
			Challenge:  string(challenge),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: parsing agent JSON: %v", ports.ErrInvalidResponse, err),
		}
	}
	agentResp.Normalize()
	return agentResp, nil
}

func truncateBody(data []byte) string {
	const limit = 200
	if len(data) > limit {
		data = data[:limit]
	}
	return string(data)
}
