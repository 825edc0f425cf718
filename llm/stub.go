package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StubProvider is a deterministic, no-network Gateway used in dev/test
// and as the last resort when no real provider key is configured. It
// never errors on HealthCheck, so it can always be registered as the
// default provider.
type StubProvider struct {
	// Responder, if set, is called to build the Complete response.
	Responder func(prompt string) string
}

// NewStubProvider creates a stub Gateway.
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

// Complete returns Responder(prompt), or an error when no Responder is set.
func (s *StubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if s.Responder != nil {
		return s.Responder(prompt), nil
	}
	return "", fmt.Errorf("llm: stub provider has no configured responder")
}

// Structured always fails: detection/verbalization callers must treat
// this as an LLM failure and fall back to their heuristic path, which
// is the behavior the stub exists to exercise in tests.
func (s *StubProvider) Structured(ctx context.Context, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	return nil, fmt.Errorf("llm: stub provider cannot produce structured output")
}

// HealthCheck always reports healthy so the stub can be wired as a
// guaranteed-present default provider.
func (s *StubProvider) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Healthy: true, LastCheck: time.Now()}
}
