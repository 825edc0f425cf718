/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Line-item totals and deposit computation for an offer.
             Deposit percentage/fixed amount, due-date formula
             due_date = max(today+1, event_date - deadline_days).
Root Cause:  Sprint task T101 — Step 4 Offer.
Context:     Adapted from metering.CostEngine's per-line-item
             accumulation shape: LineItem{unit price × quantity}
             summed, mirroring how the gateway costs a request out of
             its token usage records.
Suitability: L2 — arithmetic with a date-floor rule, no external deps.
──────────────────────────────────────────────────────────────
*/

package billing

import (
	"time"

	"github.com/venuehost/orchestrator/catalog"
)

// LineItem is one billed row on an offer.
type LineItem struct {
	ProductID string
	Name      string
	Unit      string // protected fact, never rewritten by the verbalizer
	UnitPrice float64
	Quantity  int
	Total     float64
}

// Offer is the fully computed structured offer body.
type Offer struct {
	LineItems    []LineItem
	Subtotal     float64
	DepositLine  *LineItem
	Total        float64
	DepositDue   float64
	DepositDate  string
}

// BuildLineItems prices a set of product wishes for a given participant
// count, using "per person"/"per event" unit semantics.
func BuildLineItems(products []catalog.Product, wishes []string, participants int) []LineItem {
	wanted := make(map[string]bool, len(wishes))
	for _, w := range wishes {
		wanted[w] = true
	}

	items := make([]LineItem, 0, len(wishes))
	for _, p := range products {
		if !wanted[p.ID] {
			continue
		}
		qty := 1
		if p.Unit == "per person" {
			qty = participants
		}
		items = append(items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Unit:      p.Unit,
			UnitPrice: p.UnitPrice,
			Quantity:  qty,
			Total:     p.UnitPrice * float64(qty),
		})
	}
	return items
}

// ComputeOffer totals the room charge plus line items and, when the
// tenant's deposit policy requires one, appends a deposit line and
// computes its due date.
func ComputeOffer(roomUnitPrice float64, items []LineItem, policy catalog.DepositPolicy, eventDate string, today time.Time) Offer {
	subtotal := roomUnitPrice
	for _, it := range items {
		subtotal += it.Total
	}

	offer := Offer{LineItems: items, Subtotal: subtotal, Total: subtotal}
	if !policy.Required {
		return offer
	}

	amount := policy.FixedAmount
	if policy.Percentage > 0 {
		amount = subtotal * policy.Percentage
	}
	due := DueDate(eventDate, policy.DeadlineDays, today)

	offer.DepositLine = &LineItem{Name: "Deposit", Unit: "per event", UnitPrice: amount, Quantity: 1, Total: amount}
	offer.DepositDue = amount
	offer.DepositDate = due
	return offer
}

// DueDate computes due_date = max(today+1, event_date - deadline_days).
// eventDate must be ISO (YYYY-MM-DD); on parse failure it falls back
// to today+1.
func DueDate(eventDate string, deadlineDays int, today time.Time) string {
	floor := today.AddDate(0, 0, 1)
	ev, err := time.Parse("2006-01-02", eventDate)
	if err != nil {
		return floor.Format("2006-01-02")
	}
	candidate := ev.AddDate(0, 0, -deadlineDays)
	if candidate.Before(floor) {
		return floor.Format("2006-01-02")
	}
	return candidate.Format("2006-01-02")
}
