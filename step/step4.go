/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Step 4 — Offer. Composes room/date/window/participants/
             products into a priced offer, auto-including a deposit
             line when the tenant's policy requires one. Detects
             acceptance here too (offers can be accepted immediately).
Root Cause:  Sprint task T133 — Step 4 Offer.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"context"
	"fmt"
	"strings"

	"github.com/venuehost/orchestrator/billing"
	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

// Step4Offer composes and presents the priced offer.
func Step4Offer(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}
	if deps.Tenant == nil || ev.LockedRoomID == "" {
		return StepResult{Action: ActionHalt, Halt: true}
	}

	if det.IsAcceptance && det.Confidence >= 0.5 {
		ev.OfferAccepted = true
		ev.CurrentStep = 5
		return StepResult{Action: ActionAdvance, Halt: false}
	}

	room, ok := deps.Tenant.RoomByID(ev.LockedRoomID)
	if !ok {
		return StepResult{Action: ActionHalt, Halt: true}
	}

	products := deps.Tenant.ProductsForDateAndRoom(ev.ChosenDate, ev.LockedRoomID)
	items := billing.BuildLineItems(products, ev.ProductWishes, ev.Participants)
	offer := billing.ComputeOffer(room.UnitPrice, items, deps.Tenant.Deposit, ev.ChosenDate, deps.Now)

	if offer.DepositLine != nil {
		ev.DepositInfo = domain.DepositInfo{Required: true, Amount: offer.DepositDue, DueDate: offer.DepositDate}
	}

	body := formatOfferBody(ev, room, offer)
	prefix := ev.RoomConfirmationPfx
	ev.RoomConfirmationPfx = ""

	return StepResult{
		Drafts: []domain.Draft{{Body: prefix + body, Category: string(domain.CategoryOfferMessage), RequiresApproval: true}},
		Action: ActionHalt,
		Halt:   true,
	}
}

// formatOfferBody renders the structured offer body verbatim: the
// intro is verbalized separately (compose package) but the structured
// line items/totals never pass through the LLM.
func formatOfferBody(ev *domain.Event, room catalog.Room, offer billing.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\n", room.Name)
	fmt.Fprintf(&b, "Date: %s\n", ev.ChosenDate)
	if ev.Window.Start != "" {
		fmt.Fprintf(&b, "Time: %s - %s\n", ev.Window.Start, ev.Window.End)
	}
	fmt.Fprintf(&b, "Participants: %d\n\n", ev.Participants)
	for _, it := range offer.LineItems {
		fmt.Fprintf(&b, "- %s (%s): $%.2f x %d = $%.2f\n", it.Name, it.Unit, it.UnitPrice, it.Quantity, it.Total)
	}
	fmt.Fprintf(&b, "\nSubtotal: $%.2f\n", offer.Subtotal)
	if offer.DepositLine != nil {
		fmt.Fprintf(&b, "Deposit due %s: $%.2f\n", offer.DepositDate, offer.DepositDue)
	}
	fmt.Fprintf(&b, "Total: $%.2f\n", offer.Total)
	return b.String()
}
