package step

import (
	"context"
	"testing"
	"time"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

func tenantFixture() *catalog.Tenant {
	return &catalog.Tenant{
		TenantID: "acme",
		Rooms: []catalog.Room{
			{ID: "r1", Name: "Loft", CapacityMax: 50, UnitPrice: 500, Features: []string{"projector"}},
			{ID: "r2", Name: "Garden", CapacityMax: 200, UnitPrice: 1200, Features: []string{"outdoor"}},
		},
		Products: []catalog.Product{
			{ID: "p1", Name: "Lunch", Unit: "per person", UnitPrice: 25},
		},
		Deposit: catalog.DepositPolicy{Required: true, Percentage: 0.2, DeadlineDays: 10},
	}
}

func TestStep1RejectsOverCapacity(t *testing.T) {
	deps := Deps{Tenant: tenantFixture(), Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 1}
	det := detection.Result{Confidence: 0.9, Entities: detection.Entities{Participants: 500}}
	res := Step1Intake(context.Background(), deps, ev, domain.Message{Body: "500 guests"}, det)
	if !res.Halt || len(res.Drafts) == 0 {
		t.Fatalf("expected a halting capacity-rejection draft")
	}
}

func TestStep1AdvancesToStep2(t *testing.T) {
	deps := Deps{Tenant: tenantFixture(), Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 1}
	det := detection.Result{Confidence: 0.9, Entities: detection.Entities{Participants: 20, EventType: "wedding"}}
	res := Step1Intake(context.Background(), deps, ev, domain.Message{Body: "wedding for 20"}, det)
	if ev.CurrentStep != 2 || res.Action != ActionAdvance {
		t.Fatalf("expected advance to step 2, got step=%d action=%s", ev.CurrentStep, res.Action)
	}
}

func TestStep2ConfirmsExplicitDate(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 2}
	det := detection.Result{Confidence: 0.9, Entities: detection.Entities{Date: "2026-09-01"}}
	res := Step2DateConfirmation(context.Background(), deps, ev, domain.Message{Body: "Sept 1 2026"}, det)
	if ev.ChosenDate != "2026-09-01" || ev.CurrentStep != 3 || res.Halt {
		t.Fatalf("expected confirmed date advancing to step 3, got date=%s step=%d", ev.ChosenDate, ev.CurrentStep)
	}
}

func TestStep2EscalatesAfterThreeFailures(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 2, FailedDateTries: 2}
	det := detection.Result{Confidence: 0.9}
	res := Step2DateConfirmation(context.Background(), deps, ev, domain.Message{Body: "not sure yet"}, det)
	if len(res.Drafts) == 0 || res.Drafts[0].Category != string(domain.CategoryManagerRequest) {
		t.Fatalf("expected manager escalation after 3 failed tries")
	}
}

func TestStep3LocksBestFittingRoom(t *testing.T) {
	deps := Deps{Tenant: tenantFixture(), Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 3, ChosenDate: "2026-09-01", Participants: 20}
	det := detection.Result{Confidence: 0.9}
	res := Step3RoomAvailability(context.Background(), deps, ev, domain.Message{}, det)
	if ev.LockedRoomID != "r1" || ev.CurrentStep != 4 {
		t.Fatalf("expected tightest-fit room r1 locked, got %s step=%d", ev.LockedRoomID, ev.CurrentStep)
	}
	_ = res
}

func TestStep4ComposesOfferWithDeposit(t *testing.T) {
	deps := Deps{Tenant: tenantFixture(), Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 4, ChosenDate: "2026-09-01", Participants: 20, LockedRoomID: "r1"}
	det := detection.Result{Confidence: 0.9}
	res := Step4Offer(context.Background(), deps, ev, domain.Message{}, det)
	if !res.Halt || len(res.Drafts) == 0 || res.Drafts[0].Category != string(domain.CategoryOfferMessage) {
		t.Fatalf("expected an offer_message draft")
	}
	if ev.DepositInfo.Amount <= 0 {
		t.Fatalf("expected a computed deposit amount")
	}
}

func TestStep5AcceptAdvancesOrPromptsBilling(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 5, DepositInfo: domain.DepositInfo{Required: true}}
	det := detection.Result{Confidence: 0.9, IsAcceptance: true}
	res := Step5Negotiation(context.Background(), deps, ev, domain.Message{}, det)
	if !ev.OfferAccepted {
		t.Fatalf("expected offer_accepted true")
	}
	if !ev.AwaitingBillingForAccept {
		t.Fatalf("expected billing prompt when billing incomplete")
	}
	if !res.Halt {
		t.Fatalf("expected halt while awaiting billing")
	}
}

func TestStep5CounterProposalEscalatesAfterCap(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 5, CounterProposals: maxCounterProposals}
	det := detection.Result{Confidence: 0.9, IsChangeRequest: true}
	res := Step5Negotiation(context.Background(), deps, ev, domain.Message{}, det)
	if len(res.Drafts) == 0 || res.Drafts[0].Category != string(domain.CategoryManagerRequest) {
		t.Fatalf("expected manager escalation past the counter-proposal cap")
	}
}

func TestStep6AdvancesOnceBillingComplete(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 6, DepositInfo: domain.DepositInfo{Required: false}}
	det := detection.Result{Confidence: 0.9}
	msg := domain.Message{Body: "123 Main Street\nSpringfield\n94000\nUSA"}
	res := Step6BillingCollection(context.Background(), deps, ev, msg, det)
	if !ev.Billing.Complete() {
		t.Fatalf("expected billing captured complete, got %+v", ev.Billing)
	}
	if ev.CurrentStep != 7 || res.Halt {
		t.Fatalf("expected advance to step 7, got step=%d halt=%v", ev.CurrentStep, res.Halt)
	}
}

func TestStep7ConfirmsOnFirstEntry(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{CurrentStep: 7, ChosenDate: "2026-09-01", Status: domain.StatusOption}
	det := detection.Result{Confidence: 0.9}
	res := Step7ConfirmationAndSiteVisit(context.Background(), deps, ev, domain.Message{}, det)
	if ev.Status != domain.StatusConfirmed || !res.Halt || res.Drafts[0].Category != string(domain.CategoryConfirmationMessage) {
		t.Fatalf("expected confirmation on first entry into step 7")
	}
}

func TestStep7SiteVisitNeverRepromptsOnceScheduled(t *testing.T) {
	deps := Deps{Now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	ev := &domain.Event{
		CurrentStep: 7, ChosenDate: "2026-09-01", Status: domain.StatusConfirmed,
		SiteVisitState: domain.SiteVisitState{Status: domain.SiteVisitScheduled, ConfirmedDate: "2026-08-15", ConfirmedTime: "10:00"},
	}
	det := detection.Result{Confidence: 0.9}
	res := Step7ConfirmationAndSiteVisit(context.Background(), deps, ev, domain.Message{Body: "can we change the visit time?"}, det)
	if ev.SiteVisitState.Status != domain.SiteVisitScheduled || !res.Halt {
		t.Fatalf("expected no re-prompt once a site visit is scheduled")
	}
}

func TestCancelSiteVisitIfPastEventDate(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	ev := &domain.Event{
		ChosenDate:     "2026-08-10",
		SiteVisitState: domain.SiteVisitState{Status: domain.SiteVisitScheduled, ConfirmedDate: "2026-08-12"},
	}
	CancelSiteVisitIfPastEventDate(ev, now)
	if ev.SiteVisitState.Status != domain.SiteVisitCancelled {
		t.Fatalf("expected auto-cancel when site visit lands on/after the new event date")
	}
}

func TestDispatchAppliesEmptyReplySafetyNet(t *testing.T) {
	ev := &domain.Event{CurrentStep: 99}
	drafts := Dispatch(context.Background(), Deps{}, ev, domain.Message{}, detection.Result{Confidence: 0.9})
	if len(drafts) != 1 || drafts[0].Body == "" {
		t.Fatalf("expected a single safety-net draft for an unknown step")
	}
}
