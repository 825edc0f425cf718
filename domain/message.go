package domain

import "time"

// MessageExtras carries synthetic flags attached to an inbound message.
type MessageExtras struct {
	EventID         string `json:"event_id,omitempty"`
	SkipDevChoice   bool   `json:"skip_dev_choice,omitempty"`
	DepositJustPaid bool   `json:"deposit_just_paid,omitempty"`
	// ConflictReason, when set, answers a pending hard room-conflict
	// reason request (Event.ConflictReasonPendingFor).
	ConflictReason string `json:"conflict_reason,omitempty"`
}

// Message is one inbound client message.
type Message struct {
	TenantID  string        `json:"tenant_id"`
	ClientID  string        `json:"client_id"`
	ThreadID  string        `json:"thread_id"`
	Subject   string        `json:"subject,omitempty"`
	Body      string        `json:"body"`
	Extras    MessageExtras `json:"extras,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Draft is one outbound candidate reply.
type Draft struct {
	Body             string `json:"body"`                       // client-facing text
	BodyMarkdown     string `json:"body_markdown,omitempty"`     // manager-only display; defaults to Body
	RequiresApproval bool   `json:"requires_approval"`
	Category         string `json:"category,omitempty"`
}

// EffectiveMarkdown returns the manager-facing body, defaulting to Body
// when no distinct markdown rendering was produced.
func (d Draft) EffectiveMarkdown() string {
	if d.BodyMarkdown == "" {
		return d.Body
	}
	return d.BodyMarkdown
}
