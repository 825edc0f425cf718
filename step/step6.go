/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Step 6 — Billing collection. Captures a structured billing
             address from free text, re-checks the confirmation gate,
             and advances to Step 7 once billing (and any required
             deposit) clears.
Root Cause:  Sprint task T117 — billing collection bridge: Step 5 sets
             awaiting_billing_for_accept and prompts for billing, Step 6
             is where that reply is parsed and the gate is re-evaluated.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"context"
	"regexp"
	"strings"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
	"github.com/venuehost/orchestrator/gate"
)

var postalPattern = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)

// Step6BillingCollection captures billing details and re-checks the gate.
func Step6BillingCollection(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}

	captureBillingFromText(ev, msg.Body)

	snap := gate.Check(ev)
	if !snap.BillingComplete {
		return StepResult{Drafts: []domain.Draft{{Body: "Almost there — I still need your full billing address (street, city, postal code, country) to proceed."}}, Action: ActionHalt, Halt: true}
	}
	ev.AwaitingBillingForAccept = false

	if snap.DepositRequired && !snap.DepositPaid {
		return StepResult{Drafts: []domain.Draft{{Body: "Thank you — your billing details are on file. A deposit is required to hold the date; please use the link in your booking portal to pay."}}, Action: ActionHalt, Halt: true}
	}

	ev.CurrentStep = 7
	return StepResult{Action: ActionAdvance, Halt: false}
}

// captureBillingFromText is a lightweight heuristic extractor: a real
// deployment would route this through the detection entity extractor,
// but billing addresses are free-text enough that a dedicated
// line-based capture is more reliable here.
func captureBillingFromText(ev *domain.Event, body string) {
	lines := strings.Split(body, "\n")
	if postalPattern.MatchString(body) {
		ev.Billing.PostalCode = postalPattern.FindString(body)
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if ev.Billing.Street == "" && containsDigit(trimmed) {
			ev.Billing.Street = trimmed
			continue
		}
		if ev.Billing.City == "" && !containsDigit(trimmed) {
			ev.Billing.City = trimmed
			continue
		}
	}
	if ev.Billing.Country == "" {
		ev.Billing.Country = "US"
	}
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
