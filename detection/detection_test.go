package detection_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/llm"
)

type scriptedGateway struct {
	structuredOut json.RawMessage
	structuredErr error
	completeOut   string
	completeErr   error
}

func (g *scriptedGateway) Complete(ctx context.Context, prompt string) (string, error) {
	return g.completeOut, g.completeErr
}

func (g *scriptedGateway) Structured(ctx context.Context, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	return g.structuredOut, g.structuredErr
}

func newRegistry(g llm.Gateway) *llm.Registry {
	reg := llm.NewRegistry(time.Second, 0)
	reg.Register("test", g)
	return reg
}

func TestRunPreFilterDetectsGibberish(t *testing.T) {
	sig := detection.RunPreFilter("sdfkjhqwkjhsdfkjh")
	if !sig.IsGibberish {
		t.Fatalf("expected gibberish detection")
	}
}

func TestRunPreFilterQuestionOpeningWord(t *testing.T) {
	sig := detection.RunPreFilter("when is the venue available for June")
	if !sig.HasQuestionSignal {
		t.Fatalf("expected leading interrogative to count as a question signal")
	}
}

func TestRunPreFilterNoFalseQuestionMidSentence(t *testing.T) {
	sig := detection.RunPreFilter("I know how that works already")
	if sig.HasQuestionSignal {
		t.Fatalf("mid-sentence interrogative should not count without punctuation")
	}
}

func TestDetectUnifiedMergesSignals(t *testing.T) {
	out := `{"intent":"event_request","is_acceptance":true,"confidence":0.9,"entities":{}}`
	g := &scriptedGateway{structuredOut: json.RawMessage(out)}
	d := detection.NewDetector(newRegistry(g))
	tenant := &catalog.Tenant{DetectionUnified: true}

	r := d.Detect(context.Background(), tenant, "test", "yes, that works for us?")
	if !r.IsAcceptance {
		t.Fatalf("expected LLM acceptance signal preserved")
	}
	if r.IsQuestion {
		t.Fatalf("LLM action signal should veto the pre-filter's question signal")
	}
}

func TestDetectUnifiedFallsBackOnLLMFailure(t *testing.T) {
	g := &scriptedGateway{structuredErr: context.DeadlineExceeded}
	d := detection.NewDetector(newRegistry(g))
	tenant := &catalog.Tenant{DetectionUnified: true}

	r := d.Detect(context.Background(), tenant, "test", "we have 150 guests for a wedding")
	if r.Fallback == nil {
		t.Fatalf("expected fallback context to be set")
	}
	if r.Intent != detection.IntentEventRequest {
		t.Fatalf("expected event_request fallback intent, got %q", r.Intent)
	}
	if r.Confidence > 0.5 {
		t.Fatalf("fallback confidence must be capped at 0.5, got %v", r.Confidence)
	}
}

func TestDetectLegacyModeUsesPreFilterDirectly(t *testing.T) {
	g := &scriptedGateway{completeOut: "event_request"}
	d := detection.NewDetector(newRegistry(g))
	tenant := &catalog.Tenant{DetectionUnified: false}

	r := d.Detect(context.Background(), tenant, "test", "sounds good, book it")
	if !r.IsConfirmation {
		t.Fatalf("expected pre-filter confirm word to set IsConfirmation in legacy mode")
	}
	if r.Intent != detection.IntentEventRequest {
		t.Fatalf("expected event_request intent from legacy LLM call, got %q", r.Intent)
	}
}
