/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Entry point for message detection. Dispatches to unified
             mode (one Structured() call returning the full Result,
             pre-filter signals fill gaps only) or legacy mode
             (pre-filter runs standalone, a narrower LLM classification
             call supplies intent only), per tenant.DetectionUnified.
Root Cause:  Sprint task T106 — detection pipeline.
Context:     The LLM-first signal-merge rule is the one invariant
             that must survive verbatim: the LLM can veto a pre-filter
             question signal by having already set an action signal,
             and pre-filter only fills fields the LLM left blank.
Suitability: L3 — orchestration with an explicit fallback contract.
──────────────────────────────────────────────────────────────
*/

package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/llm"
)

const unifiedSchema = `{
  "type": "object",
  "properties": {
    "language": {"type": "string"},
    "intent": {"type": "string"},
    "is_question": {"type": "boolean"},
    "is_acceptance": {"type": "boolean"},
    "is_rejection": {"type": "boolean"},
    "is_confirmation": {"type": "boolean"},
    "is_change_request": {"type": "boolean"},
    "is_manager_request": {"type": "boolean"},
    "is_ambiguous": {"type": "boolean"},
    "has_injection_attempt": {"type": "boolean"},
    "qna_types": {"type": "array", "items": {"type": "string"}},
    "entities": {"type": "object"},
    "confidence": {"type": "number"}
  }
}`

// Detector runs the detection pipeline against one tenant's configured
// LLM provider.
type Detector struct {
	registry *llm.Registry
}

// NewDetector creates a Detector backed by the given LLM registry.
func NewDetector(registry *llm.Registry) *Detector {
	return &Detector{registry: registry}
}

// Detect classifies one inbound message body in the context of a
// tenant's configuration, returning the unified Result.
func (d *Detector) Detect(ctx context.Context, t *catalog.Tenant, provider, body string) Result {
	pf := RunPreFilter(body)

	if t != nil && t.DetectionUnified {
		return d.detectUnified(ctx, provider, body, pf)
	}
	return d.detectLegacy(ctx, provider, body, pf)
}

func (d *Detector) detectUnified(ctx context.Context, provider, body string, pf PreFilterSignals) Result {
	prompt := buildUnifiedPrompt(body)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := d.registry.Structured(ctx, provider, prompt, json.RawMessage(unifiedSchema))
		if err != nil {
			return fallbackResult(body, pf, "detection", "llm_unreachable", err)
		}

		var r Result
		if err := json.Unmarshal(raw, &r); err != nil {
			lastErr = err
			continue
		}

		mergeSignals(&r, pf, body)
		return r
	}
	return fallbackResult(body, pf, "detection", "malformed_json", lastErr)
}

// detectLegacy runs the pre-filter standalone and asks the LLM only
// for an intent label, matching the gateway's pre-unification behavior
// still offered to tenants who opted in to DetectionUnified=false.
func (d *Detector) detectLegacy(ctx context.Context, provider, body string, pf PreFilterSignals) Result {
	prompt := "Classify this venue-booking message into exactly one of: event_request, nonsense, other.\nMessage: " + body
	text, err := d.registry.Complete(ctx, provider, prompt)
	if err != nil {
		return fallbackResult(body, pf, "detection", "llm_unreachable", err)
	}

	r := Result{
		Intent:     normalizeIntent(text),
		Confidence: 0.6,
	}
	applyPreFilterOnly(&r, pf)
	return r
}

// mergeSignals implements the LLM-first merge rule: the LLM's
// is_question/is_change_request/etc. win outright. Pre-filter's
// HasQuestionSignal is only consulted when the LLM result carries no
// action signal of its own, and even then only to set IsQuestion —
// never to flip an action signal the LLM already decided against.
func mergeSignals(r *Result, pf PreFilterSignals, msgBody string) {
	if !r.HasActionSignal() && !r.IsQuestion && pf.HasQuestionSignal {
		r.IsQuestion = true
	}
	if len(r.QnATypes) == 0 && len(pf.QnATypes) > 0 {
		r.QnATypes = pf.QnATypes
	}
	if pf.IsGibberish && r.Intent == "" {
		r.Intent = IntentNonsense
	}
	if r.Entities.ContactEmail == "" && pf.HasEmail {
		r.Entities.ContactEmail = emailPattern.FindString(msgBody)
	}
}

// applyPreFilterOnly is used in legacy mode, where there is no unified
// LLM entity extraction to defer to: every pre-filter signal applies
// directly.
func applyPreFilterOnly(r *Result, pf PreFilterSignals) {
	r.IsQuestion = pf.HasQuestionSignal
	r.QnATypes = pf.QnATypes
	if pf.IsGibberish {
		r.Intent = IntentNonsense
	}
	if pf.HasConfirmWord {
		r.IsConfirmation = true
	}
}

// fallbackResult builds a Result from pre-filter signals alone when
// the LLM call itself failed or returned unusable content: intent
// defaults to event_request only if the message looks like it carries
// booking entities (here approximated by the presence of a date-like
// or participant-count-like token), otherwise "other", and confidence
// is capped at 0.5 to mark the result as non-authoritative.
func fallbackResult(body string, pf PreFilterSignals, source, trigger string, err error) Result {
	intent := IntentOther
	if looksLikeEventRequest(body) {
		intent = IntentEventRequest
	}
	if pf.IsGibberish {
		intent = IntentNonsense
	}

	r := Result{
		Intent:     intent,
		Confidence: 0.5,
		Fallback: &FallbackContext{
			Source:        source,
			Trigger:       trigger,
			Context:       body,
			OriginalError: errString(err),
		},
	}
	applyPreFilterOnly(&r, pf)
	return r
}

func looksLikeEventRequest(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range []string{"wedding", "party", "meeting", "reception", "conference", "guests", "attendees", "people"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return strings.ContainsAny(body, "0123456789")
}

func normalizeIntent(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lower, "event_request"):
		return IntentEventRequest
	case strings.Contains(lower, "nonsense"):
		return IntentNonsense
	default:
		return IntentOther
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func buildUnifiedPrompt(body string) string {
	return fmt.Sprintf("You are the message understanding layer of a venue-booking assistant. "+
		"Analyze the guest message below and extract intent, action signals, and entities.\nMessage: %s", body)
}
