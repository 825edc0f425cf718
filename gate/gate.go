/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L1
Logic:       check_confirmation_gate — pure prerequisite check with no
             side effects, reading only the event record.
Root Cause:  Sprint task T110 — confirmation gate.
Context:     Grounded on policy.OPAClient's pure-evaluation path: a
             read-only snapshot function the caller applies via its own
             update, never a direct mutate-in-place on the policy
             engine's side. The forbidden pattern this mirrors avoiding
             is event.update(fresh_entry) clobbering in-flight captures.
Suitability: L1 — boolean algebra over a handful of fields.
──────────────────────────────────────────────────────────────
*/

package gate

import "github.com/venuehost/orchestrator/domain"

// Status is the read-only snapshot returned by Check.
type Status struct {
	OfferAccepted   bool
	BillingComplete bool
	DepositRequired bool
	DepositPaid     bool
	ReadyForHIL     bool
}

// Check evaluates the confirmation gate against an event record. It
// performs no writes; callers apply whatever follow-up mutation the
// snapshot implies themselves.
func Check(ev *domain.Event) Status {
	s := Status{
		OfferAccepted:   ev.OfferAccepted,
		BillingComplete: ev.Billing.Complete(),
		DepositRequired: ev.DepositInfo.Required,
		DepositPaid:     ev.DepositInfo.Paid,
	}
	s.ReadyForHIL = s.OfferAccepted && s.BillingComplete && (!s.DepositRequired || s.DepositPaid)
	return s
}
