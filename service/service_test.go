package service_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuehost/orchestrator/audit"
	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/domain"
	"github.com/venuehost/orchestrator/llm"
	"github.com/venuehost/orchestrator/secrets"
	"github.com/venuehost/orchestrator/service"
	"github.com/venuehost/orchestrator/store"
)

// scriptedGateway is a deterministic llm.Gateway double: each test wires
// exactly the Structured/Complete response its scenario needs, the same
// approach detection_test.go uses against the registry directly.
type scriptedGateway struct {
	structuredOut json.RawMessage
	structuredErr error
	completeOut   string
}

func (g *scriptedGateway) Complete(ctx context.Context, prompt string) (string, error) {
	return g.completeOut, nil
}

func (g *scriptedGateway) Structured(ctx context.Context, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	if g.structuredErr != nil {
		return nil, g.structuredErr
	}
	return g.structuredOut, nil
}

func newTestSetup(t *testing.T, g llm.Gateway, tenant *catalog.Tenant) (*service.Service, store.TenantStore) {
	t.Helper()

	catalogStore := catalog.NewStore()
	catalogStore.Put(tenant)

	tenantStore, err := store.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store setup: %v", err)
	}

	registry := llm.NewRegistry(5*time.Second, 0)
	registry.Register("test", g)

	log := zerolog.New(io.Discard)
	auditPipeline := audit.NewPipeline(log, audit.NewMemorySink())

	svc := service.New(log, catalogStore, tenantStore, secrets.NewStore(time.Minute), registry, auditPipeline)
	return svc, tenantStore
}

func taskByCategory(data *store.TenantData, category domain.TaskCategory) *domain.HILTask {
	for _, task := range data.Tasks {
		if task.Category == category {
			return task
		}
	}
	return nil
}

// A single message that names date, room, and headcount all at once
// shortcuts straight to a priced offer, which is withheld pending manager
// approval rather than sent straight to the client.
func TestShortcutLocksRoomAndEnqueuesOfferApproval(t *testing.T) {
	tenant := &catalog.Tenant{
		TenantID: "acme",
		LLMProvider: "test",
		DetectionUnified: true,
		Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room", CapacityMax: 150, UnitPrice: 10}},
	}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{"date":"2026-08-14","room_preference":"r1","participants":100}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	result, err := svc.StartConversation(context.Background(), "acme", "thread-1", "client@example.com", "Jane", "Inquiry", "We need the Garden Room on 2026-08-14 for 100 guests")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !result.PendingReview {
		t.Fatalf("expected the offer to be withheld pending manager approval, got %+v", result)
	}

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ev := data.Events[result.EventID]
	if ev.CurrentStep != 4 || ev.LockedRoomID != "r1" {
		t.Fatalf("expected shortcut to lock r1 and jump to step 4, got %+v", ev)
	}
	if task := taskByCategory(data, domain.CategoryOfferMessage); task == nil {
		t.Fatalf("expected an offer_message HIL task, got tasks %+v", data.Tasks)
	}
}

// A date-change detour only clears the room-evaluation hash, never
// the locked room itself; if the room is still free on the new date the
// negotiation resumes holding the same room.
func TestDateChangePreservesRoomLock(t *testing.T) {
	tenant := &catalog.Tenant{
		TenantID: "acme",
		LLMProvider: "test",
		DetectionUnified: true,
		Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room", CapacityMax: 150, UnitPrice: 10}},
	}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{"date":"2026-08-21"}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ev := &domain.Event{
		EventID: "evt-1", TenantID: "acme", ThreadID: "thread-2", ClientID: "client@example.com",
		CurrentStep: 5, Status: domain.StatusOption,
		ChosenDate: "2026-08-14", LockedRoomID: "r1", RoomEvalHash: "stale",
		Participants: 100,
	}
	data.Events[ev.EventID] = ev
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = svc.HandleMessage(context.Background(), "acme", "thread-2", "client@example.com", "Jane", "", "Actually, change the date to 2026-08-21", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-1"]
	if got.ChosenDate != "2026-08-21" {
		t.Fatalf("expected the new date to stick, got %q", got.ChosenDate)
	}
	if got.LockedRoomID != "r1" {
		t.Fatalf("a date change must not clear the locked room, got %q", got.LockedRoomID)
	}
	if got.CurrentStep != 5 {
		t.Fatalf("expected to land back in negotiation once the room cleared the re-check, got step %d", got.CurrentStep)
	}
}

// A site-visit date preference mentioned while a visit is proposed must
// not be mistaken for a requirements change: the booked room stays locked.
func TestSiteVisitDatePreferencePreservesRoomLock(t *testing.T) {
	tenant := &catalog.Tenant{
		TenantID: "acme",
		DevReuseEvents: true,
		LLMProvider: "test",
		DetectionUnified: true,
		Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room", CapacityMax: 150, UnitPrice: 10}},
	}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ev := &domain.Event{
		EventID: "evt-2", TenantID: "acme", ThreadID: "thread-3", ClientID: "client@example.com",
		CurrentStep: 7, Status: domain.StatusConfirmed,
		ChosenDate: "2026-08-14", LockedRoomID: "r1", RoomEvalHash: "unchanged",
		SiteVisitState: domain.SiteVisitState{Status: domain.SiteVisitProposed, ProposedSlots: []string{"2026-08-01", "2026-08-02"}},
	}
	data.Events[ev.EventID] = ev
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = svc.HandleMessage(context.Background(), "acme", "thread-3", "client@example.com", "Jane", "", "Actually, 2026-08-01 works better for the visit", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-2"]
	if got.LockedRoomID != "r1" || got.RoomEvalHash != "unchanged" {
		t.Fatalf("a site-visit preference must not touch the booked room, got locked_room=%q eval_hash=%q", got.LockedRoomID, got.RoomEvalHash)
	}
}

// An accept with a trailing question still resolves to acceptance;
// ACCEPT always outranks QUESTION in the negotiation tie-break.
func TestHybridAcceptWithQuestionAccepts(t *testing.T) {
	tenant := &catalog.Tenant{TenantID: "acme", LLMProvider: "test", DetectionUnified: true}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","is_acceptance":true,"is_question":true,"confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ev := &domain.Event{
		EventID: "evt-3", TenantID: "acme", ThreadID: "thread-4", ClientID: "client@example.com",
		CurrentStep: 5, Status: domain.StatusOption,
		ChosenDate: "2026-08-14", LockedRoomID: "r1",
		Billing: domain.Billing{Street: "1 Main St", City: "Springfield", PostalCode: "00000", Country: "US"},
	}
	data.Events[ev.EventID] = ev
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = svc.HandleMessage(context.Background(), "acme", "thread-4", "client@example.com", "Jane", "", "Yes, that works for us, but what's your cancellation policy?", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-3"]
	if !got.OfferAccepted {
		t.Fatalf("expected the accept signal to win the ACCEPT>QUESTION tie-break")
	}
	if got.Status != domain.StatusConfirmed || got.CurrentStep != 7 {
		t.Fatalf("expected billing-complete acceptance to cascade through billing collection to confirmation, got status=%s step=%d", got.Status, got.CurrentStep)
	}
	if task := taskByCategory(data, domain.CategoryConfirmationMessage); task == nil {
		t.Fatalf("expected a confirmation_message HIL task, got tasks %+v", data.Tasks)
	}
}

// Two events holding the same room and date, both still options,
// raise a soft, notify-only HIL task rather than blocking either client.
func TestSoftRoomConflictNotifiesManager(t *testing.T) {
	tenant := &catalog.Tenant{
		TenantID: "acme",
		LLMProvider: "test",
		DetectionUnified: true,
		Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room", CapacityMax: 150, UnitPrice: 10}},
	}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	holder := &domain.Event{
		EventID: "evt-holder", TenantID: "acme", ThreadID: "thread-holder", ClientID: "other@example.com",
		CurrentStep: 4, Status: domain.StatusOption,
		ChosenDate: "2026-08-14", LockedRoomID: "r1",
	}
	data.Events[holder.EventID] = holder
	newcomer := &domain.Event{
		EventID: "evt-newcomer", TenantID: "acme", ThreadID: "thread-new", ClientID: "client@example.com",
		CurrentStep: 3, Status: domain.StatusLead,
		ChosenDate: "2026-08-14", Participants: 80,
	}
	data.Events[newcomer.EventID] = newcomer
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = svc.HandleMessage(context.Background(), "acme", "thread-new", "client@example.com", "Jane", "", "Does that room work for our date?", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-newcomer"]
	if got.LockedRoomID != "r1" {
		t.Fatalf("expected the newcomer to also lock r1 for the conflict to arise, got %q", got.LockedRoomID)
	}
	if task := taskByCategory(data, domain.CategorySoftRoomConflictNotify); task == nil {
		t.Fatalf("expected a soft room conflict notification task, got tasks %+v", data.Tasks)
	}
	if task := taskByCategory(data, domain.CategoryRoomConflictResolution); task != nil {
		t.Fatalf("a soft conflict must never produce a resolution task, got %+v", task)
	}
}

// A hard conflict against an option-holding A first asks confirming B for
// a reason; supplying one creates the resolution task and releases B's
// lock. No resolution task exists before the reason arrives.
func TestHardConflictAsksForReasonThenResolves(t *testing.T) {
	tenant := &catalog.Tenant{
		TenantID: "acme",
		LLMProvider: "test",
		DetectionUnified: true,
		Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room", CapacityMax: 150, UnitPrice: 10}},
	}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","is_acceptance":true,"confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	holder := &domain.Event{
		EventID: "evt-holder", TenantID: "acme", ThreadID: "thread-holder", ClientID: "other@example.com",
		CurrentStep: 4, Status: domain.StatusOption,
		ChosenDate: "2026-08-14", LockedRoomID: "r1",
	}
	data.Events[holder.EventID] = holder
	confirmer := &domain.Event{
		EventID: "evt-confirmer", TenantID: "acme", ThreadID: "thread-confirm", ClientID: "client@example.com",
		CurrentStep: 5, Status: domain.StatusOption,
		ChosenDate: "2026-08-14", LockedRoomID: "r1",
		Billing: domain.Billing{Street: "1 Main St", City: "Springfield", PostalCode: "00000", Country: "US"},
	}
	data.Events[confirmer.EventID] = confirmer
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	// First turn: accepting the offer confirms the event and collides
	// with the holder; this must ask for a reason, not resolve outright.
	_, err = svc.HandleMessage(context.Background(), "acme", "thread-confirm", "client@example.com", "Jane", "", "Yes, we accept and would like to confirm", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage turn 1: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-confirmer"]
	if got.ConflictReasonPendingFor != "evt-holder" {
		t.Fatalf("expected a pending reason request against the holder, got %q", got.ConflictReasonPendingFor)
	}
	if task := taskByCategory(data, domain.CategoryRoomConflictResolution); task != nil {
		t.Fatalf("no resolution task should exist before a reason is supplied, got %+v", task)
	}
	if task := taskByCategory(data, domain.CategoryRoomConflictNeedsReason); task == nil {
		t.Fatalf("expected a room_conflict_needs_reason task, got tasks %+v", data.Tasks)
	}
	if got.LockedRoomID != "r1" {
		t.Fatalf("the room must stay held while a reason is pending, got %q", got.LockedRoomID)
	}

	// Second turn: the client supplies a reason, which must now create
	// the resolution task and release the confirmer's room hold.
	_, err = svc.HandleMessage(context.Background(), "acme", "thread-confirm", "client@example.com", "Jane", "", "our prior vendor fell through", domain.MessageExtras{ConflictReason: "our prior vendor fell through"})
	if err != nil {
		t.Fatalf("HandleMessage turn 2: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got = data.Events["evt-confirmer"]
	if got.ConflictReasonPendingFor != "" {
		t.Fatalf("expected the pending reason marker to clear, got %q", got.ConflictReasonPendingFor)
	}
	if got.LockedRoomID != "" {
		t.Fatalf("expected the room lock to release once the conflict resolved, got %q", got.LockedRoomID)
	}
	if task := taskByCategory(data, domain.CategoryRoomConflictResolution); task == nil {
		t.Fatalf("expected a resolution task once the reason was supplied, got tasks %+v", data.Tasks)
	}
}

// A hard conflict against an already-confirmed A blocks B outright with
// no task at all — the manager never needs to weigh in on this one.
func TestHardConflictFromConfirmedBlocksOutrightNoTask(t *testing.T) {
	tenant := &catalog.Tenant{
		TenantID: "acme",
		LLMProvider: "test",
		DetectionUnified: true,
		Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room", CapacityMax: 150, UnitPrice: 10}},
	}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	confirmedHolder := &domain.Event{
		EventID: "evt-confirmed", TenantID: "acme", ThreadID: "thread-confirmed", ClientID: "other@example.com",
		CurrentStep: 7, Status: domain.StatusConfirmed,
		ChosenDate: "2026-08-14", LockedRoomID: "r1",
	}
	data.Events[confirmedHolder.EventID] = confirmedHolder
	optioner := &domain.Event{
		EventID: "evt-optioner", TenantID: "acme", ThreadID: "thread-option", ClientID: "client@example.com",
		CurrentStep: 3, Status: domain.StatusLead,
		ChosenDate: "2026-08-14", Participants: 80,
	}
	data.Events[optioner.EventID] = optioner
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = svc.HandleMessage(context.Background(), "acme", "thread-option", "client@example.com", "Jane", "", "does that room still work?", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-optioner"]
	if got.LockedRoomID != "" {
		t.Fatalf("expected the losing event's room lock to be cleared outright, got %q", got.LockedRoomID)
	}
	if got.CurrentStep != 3 {
		t.Fatalf("expected redirection back to room availability, got step %d", got.CurrentStep)
	}
	if task := taskByCategory(data, domain.CategoryRoomConflictResolution); task != nil {
		t.Fatalf("blocking outright against a confirmed holder must never create a task, got %+v", task)
	}
	if task := taskByCategory(data, domain.CategoryRoomConflictNeedsReason); task != nil {
		t.Fatalf("blocking outright must never ask for a reason, got %+v", task)
	}
}

// Repeating the exact same inbound body is treated as a duplicate
// delivery, not a new turn — no step advance, no new HIL task.
func TestDuplicateMessageGetsFriendlyNudge(t *testing.T) {
	tenant := &catalog.Tenant{TenantID: "acme", LLMProvider: "test", DetectionUnified: true}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ev := &domain.Event{
		EventID: "evt-dup", TenantID: "acme", ThreadID: "thread-dup", ClientID: "client@example.com",
		CurrentStep: 3, Status: domain.StatusLead,
		LastInboundBody: "checking availability for our date",
	}
	data.Events[ev.EventID] = ev
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := svc.HandleMessage(context.Background(), "acme", "thread-dup", "client@example.com", "Jane", "", "checking availability for our date", domain.MessageExtras{})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if result.Response == "" {
		t.Fatalf("expected a nudge reply for a duplicate message")
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-dup"]
	if got.CurrentStep != 3 {
		t.Fatalf("a duplicate delivery must not advance the step, got %d", got.CurrentStep)
	}
	if len(data.Tasks) != 0 {
		t.Fatalf("a duplicate delivery must not create any HIL task, got %+v", data.Tasks)
	}
}

// A deposit-paid continuation is dispatched straight to negotiation's
// deposit check, which jumps directly to Step 7 and confirms the event.
func TestDepositPaidContinuationAdvancesToConfirmation(t *testing.T) {
	tenant := &catalog.Tenant{TenantID: "acme", LLMProvider: "test", DetectionUnified: true}
	g := &scriptedGateway{structuredOut: json.RawMessage(`{"intent":"event_request","confidence":0.9,"entities":{}}`)}
	svc, tenantStore := newTestSetup(t, g, tenant)

	data, err := tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ev := &domain.Event{
		EventID: "evt-deposit", TenantID: "acme", ThreadID: "thread-deposit", ClientID: "client@example.com",
		CurrentStep: 5, Status: domain.StatusOption,
		ChosenDate: "2026-08-14",
		DepositInfo: domain.DepositInfo{Required: true},
	}
	data.Events[ev.EventID] = ev
	if err := tenantStore.Save("acme", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := svc.HandleMessage(context.Background(), "acme", "thread-deposit", "client@example.com", "Jane", "", "I've just paid the deposit", domain.MessageExtras{DepositJustPaid: true})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !result.PendingReview {
		t.Fatalf("expected the confirmation message to be withheld pending approval, got %+v", result)
	}

	data, err = tenantStore.Load("acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := data.Events["evt-deposit"]
	if !got.DepositInfo.Paid || got.DepositInfo.PaidAt == nil {
		t.Fatalf("expected the deposit to be marked paid, got %+v", got.DepositInfo)
	}
	if got.Status != domain.StatusConfirmed || got.CurrentStep != 7 {
		t.Fatalf("expected the continuation to confirm the event at step 7, got status=%s step=%d", got.Status, got.CurrentStep)
	}
	if task := taskByCategory(data, domain.CategoryConfirmationMessage); task == nil {
		t.Fatalf("expected a confirmation_message HIL task, got tasks %+v", data.Tasks)
	}
}
