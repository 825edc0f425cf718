/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Step 5 — Negotiation. Disambiguates accept/decline/counter
             with ACCEPT > DECLINE > COUNTER > QUESTION tie-breaks. On
             accept, runs the confirmation gate and either forces a
             billing prompt, a deposit prompt, or advances to Step 6.
             Dispatches a deposit-paid continuation straight to Step 7.
Root Cause:  Sprint task T134 — Step 5 Negotiation.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"context"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
	"github.com/venuehost/orchestrator/gate"
)

const maxCounterProposals = 3

type intentGuess string

const (
	intentAccept   intentGuess = "accept"
	intentDecline  intentGuess = "decline"
	intentCounter  intentGuess = "counter"
	intentQuestion intentGuess = "question"
)

// Step5Negotiation handles accept/decline/counter on a presented offer.
func Step5Negotiation(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if msg.Extras.DepositJustPaid {
		ev.DepositInfo.Paid = true
		now := deps.Now
		ev.DepositInfo.PaidAt = &now
		ev.CurrentStep = 7
		return StepResult{Action: ActionAdvance, Halt: false}
	}

	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}

	switch collectDetectedIntent(det) {
	case intentAccept:
		ev.OfferAccepted = true
		snap := gate.Check(ev)
		if !snap.BillingComplete {
			ev.AwaitingBillingForAccept = true
			return StepResult{Drafts: []domain.Draft{{Body: "Wonderful — to finalize, could you share your billing address (street, city, postal code, country)?"}}, Action: ActionHalt, Halt: true}
		}
		if snap.DepositRequired && !snap.DepositPaid {
			return StepResult{Drafts: []domain.Draft{{Body: "Great news — your offer is accepted. A deposit is required to hold the date; you can pay it from your booking portal."}}, Action: ActionHalt, Halt: true}
		}
		ev.CurrentStep = 6
		return StepResult{Action: ActionAdvance, Halt: false}
	case intentCounter:
		ev.CounterProposals++
		if ev.CounterProposals > maxCounterProposals {
			return StepResult{
				Drafts: []domain.Draft{{Body: "I'd like a manager to weigh in on the adjustments you're requesting.", RequiresApproval: true, Category: string(domain.CategoryManagerRequest)}},
				Action: ActionHalt,
				Halt:   true,
			}
		}
		ev.CurrentStep = 4
		return StepResult{Action: ActionAdvance, Halt: false}
	case intentDecline:
		return StepResult{Drafts: []domain.Draft{{Body: "No problem at all — let me know if anything changes or if you'd like to explore other dates or rooms."}}, Action: ActionHalt, Halt: true}
	default:
		return StepResult{Action: ActionHalt, Halt: true}
	}
}

// collectDetectedIntent computes the winning intent with
// ACCEPT > DECLINE > COUNTER > QUESTION tie-breaks.
func collectDetectedIntent(det detection.Result) intentGuess {
	if det.IsAcceptance {
		return intentAccept
	}
	if det.IsRejection {
		return intentDecline
	}
	if det.IsChangeRequest {
		return intentCounter
	}
	if det.IsQuestion {
		return intentQuestion
	}
	return intentQuestion
}
