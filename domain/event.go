/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Core data model shared by every orchestrator package:
             Client, Event, HIL task, inbound Message, outbound Draft.
             Plain structs with json tags, same style as the gateway's
             ChatRequest/ChatResponse wire types.
Root Cause:  Sprint task T109 — single source of truth for the entities every
             component reads and mutates.
Context:     Event is the busiest type in the system: every step
             handler, the confirmation gate, the conflict detector,
             and the HIL queue all read and write it.
Suitability: L3 — data modeling, no control flow.
──────────────────────────────────────────────────────────────
*/

package domain

import "time"

// Status is the canonical lowercase lifecycle status shared by clients
// and events.
type Status string

const (
	StatusLead      Status = "lead"
	StatusOption    Status = "option"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Client identifies a booking contact by (tenant_id, email).
type Client struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Billing  Billing `json:"billing"`
	Status   Status `json:"status"`
}

// Billing is the structured billing address captured during negotiation.
type Billing struct {
	CompanyName string `json:"company_name,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Country     string `json:"country,omitempty"`
	VATNumber   string `json:"vat_number,omitempty"`
}

// Complete reports whether all fields required to raise the
// confirmation gate's billing prerequisite are present.
func (b Billing) Complete() bool {
	return b.Street != "" && b.City != "" && b.PostalCode != "" && b.Country != ""
}

// Window is a same-day event time span (no multi-day events).
type Window struct {
	Start string `json:"start,omitempty"` // "HH:MM"
	End   string `json:"end,omitempty"`
}

// DepositInfo tracks the simulated deposit payment lifecycle.
type DepositInfo struct {
	Required bool       `json:"required"`
	Amount   float64    `json:"amount,omitempty"`
	DueDate  string      `json:"due_date,omitempty"` // ISO date
	Paid     bool       `json:"paid"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}

// SiteVisitStatus enumerates the site-visit sub-flow states.
type SiteVisitStatus string

const (
	SiteVisitIdle           SiteVisitStatus = "idle"
	SiteVisitProposed       SiteVisitStatus = "proposed"
	SiteVisitTimePending    SiteVisitStatus = "time_pending"
	SiteVisitConfirmPending SiteVisitStatus = "confirm_pending"
	SiteVisitScheduled      SiteVisitStatus = "scheduled"
	SiteVisitCompleted      SiteVisitStatus = "completed"
	SiteVisitCancelled      SiteVisitStatus = "cancelled"
)

// SiteVisitState is the two-step site-visit proposal/scheduling flow.
type SiteVisitState struct {
	Status         SiteVisitStatus `json:"status"`
	RequestedDate  string          `json:"requested_date,omitempty"`
	RequestedTime  string          `json:"requested_time,omitempty"`
	ProposedSlots  []string        `json:"proposed_slots,omitempty"`
	ConfirmedDate  string          `json:"confirmed_date,omitempty"`
	ConfirmedTime  string          `json:"confirmed_time,omitempty"`
}

// AuditEntry records one step transition.
type AuditEntry struct {
	FromStep  int       `json:"from_step"`
	ToStep    int       `json:"to_step"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityEntry is one append-only, local-time activity log row,
// capped at 50 entries per event.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Coarse    string    `json:"coarse"`           // short label, e.g. "room_locked"
	Detailed  string    `json:"detailed,omitempty"` // full text, e.g. "Locked Room B for 2026-02-15"
}

const maxActivityEntries = 50

// Event represents one booking inquiry.
type Event struct {
	EventID  string `json:"event_id"`
	TenantID string `json:"tenant_id"`
	ClientID string `json:"client_id"` // client email, scoped by tenant
	ThreadID string `json:"thread_id"`

	CurrentStep int    `json:"current_step"`
	Status      Status `json:"status"`
	CallerStep  int    `json:"caller_step,omitempty"` // 0 means unset

	ChosenDate    string `json:"chosen_date,omitempty"`
	Window        Window `json:"window"`
	LockedRoomID  string `json:"locked_room_id,omitempty"`
	RoomEvalHash  string `json:"room_eval_hash,omitempty"`
	OfferHash     string `json:"offer_hash,omitempty"`
	OfferAccepted bool   `json:"offer_accepted"`

	Participants         int      `json:"participants,omitempty"`
	EventType            string   `json:"event_type,omitempty"`
	Layout               string   `json:"layout,omitempty"`
	SpecialRequirements  string   `json:"special_requirements,omitempty"`
	ProductWishes        []string `json:"product_wishes,omitempty"`
	ContactName          string   `json:"contact_name,omitempty"`
	ContactEmail         string   `json:"contact_email,omitempty"`
	ContactPhone         string   `json:"contact_phone,omitempty"`

	Billing     Billing     `json:"billing"`
	DepositInfo DepositInfo `json:"deposit_info"`

	SiteVisitState SiteVisitState `json:"site_visit_state"`

	AwaitingBillingForAccept bool `json:"awaiting_billing_for_accept,omitempty"`

	// Internal per-turn scratch fields, persisted so a restart can
	// resume mid-flow; cleared once consumed by the next handler.
	ClearedRoomName     string `json:"_cleared_room_name,omitempty"`
	RoomConfirmationPfx string `json:"_room_confirmation_prefix,omitempty"`
	LastInboundBody     string `json:"_last_inbound_body,omitempty"` // duplicate-gate comparison

	CounterProposals int `json:"counter_proposals,omitempty"`
	FailedDateTries  int `json:"failed_date_tries,omitempty"`

	// ConflictReasonPendingFor holds the holder event_id a hard
	// room-conflict reason was requested for; cleared once the reason
	// is supplied and the resolution task is created.
	ConflictReasonPendingFor string `json:"conflict_reason_pending_for,omitempty"`

	AuditLog    []AuditEntry    `json:"audit_log,omitempty"`
	ActivityLog []ActivityEntry `json:"activity_log,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detour marks a backward transition, recording the caller step so the
// handler can return to it later.
func (e *Event) Detour(target int, reason string, now time.Time) {
	e.CallerStep = e.CurrentStep
	e.AuditLog = append(e.AuditLog, AuditEntry{FromStep: e.CurrentStep, ToStep: target, Reason: reason, Timestamp: now})
	e.CurrentStep = target
}

// ReturnFromDetour restores current_step to caller_step and clears it.
func (e *Event) ReturnFromDetour(now time.Time) {
	if e.CallerStep == 0 {
		return
	}
	e.AuditLog = append(e.AuditLog, AuditEntry{FromStep: e.CurrentStep, ToStep: e.CallerStep, Reason: "detour_return", Timestamp: now})
	e.CurrentStep = e.CallerStep
	e.CallerStep = 0
}

// InDetour reports whether a back-edge is currently active.
func (e *Event) InDetour() bool {
	return e.CallerStep != 0
}

// RoomHeld reports whether this event currently holds a room.
func (e *Event) RoomHeld() bool {
	return e.LockedRoomID != "" && (e.Status == StatusOption || e.Status == StatusConfirmed)
}

// AppendActivity appends a capped, append-only activity entry.
func (e *Event) AppendActivity(coarse, detailed string, now time.Time) {
	e.ActivityLog = append(e.ActivityLog, ActivityEntry{Timestamp: now, Coarse: coarse, Detailed: detailed})
	if len(e.ActivityLog) > maxActivityEntries {
		e.ActivityLog = e.ActivityLog[len(e.ActivityLog)-maxActivityEntries:]
	}
}
