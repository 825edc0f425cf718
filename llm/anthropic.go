/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Anthropic connector implementing llm.Gateway: maps
             Complete/Structured onto the Messages API. Trimmed from
             the gateway's full AnthropicProvider (streaming, tool
             calling, embeddings are out of scope here — detection
             and verbalization only ever need one-shot completions).
Root Cause:  Sprint task T117 — the LLM provider SDK wrapper is an external
             collaborator; this is the thin dev/local connector the
             system ships so it runs without one, same spirit as
             main.go only registering a provider when its API key
             env var is set.
Context:     Structured() appends the schema as an instruction since
             Anthropic has no native JSON-schema response mode; a
             production deployment would swap this for the real
             tool-use-forced JSON path without touching llm.Gateway.
Suitability: L2 — well-documented API, single request/response shape.
──────────────────────────────────────────────────────────────
*/

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider implements Gateway against the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewAnthropicProvider creates a connector using the given API key and model.
func NewAnthropicProvider(apiKey, model string, timeout time.Duration) *AnthropicProvider {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: anthropicBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a one-shot user message and returns the text reply.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.call(ctx, prompt)
}

// Structured appends schema as an instruction and returns the raw
// assistant text, which is expected to be a JSON document matching it.
func (p *AnthropicProvider) Structured(ctx context.Context, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	full := prompt + "\n\nRespond with a single JSON object matching this schema, and nothing else:\n" + string(schema)
	text, err := p.call(ctx, full)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

func (p *AnthropicProvider) call(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("anthropic: no API key configured")
	}

	reqBody := anthropicRequest{
		Model:     p.model,
		MaxTokens: 1024,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: malformed response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return parsed.Content[0].Text, nil
}

// HealthCheck reports whether the connector is configured with an API key.
// A real deployment would ping a lightweight endpoint; this dev stub
// only checks configuration, matching the gateway's own cheap health
// semantics for connectors with no free health endpoint.
func (p *AnthropicProvider) HealthCheck(ctx context.Context) HealthStatus {
	now := time.Now()
	if p.apiKey == "" {
		return HealthStatus{Healthy: false, LastCheck: now, Error: "no API key configured"}
	}
	return HealthStatus{Healthy: true, LastCheck: now}
}
