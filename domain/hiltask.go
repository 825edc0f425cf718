package domain

import "time"

// TaskCategory enumerates the HIL task categories.
type TaskCategory string

const (
	CategoryOfferMessage               TaskCategory = "offer_message"
	CategoryConfirmationMessage        TaskCategory = "confirmation_message"
	CategoryAIReplyApproval            TaskCategory = "ai_reply_approval"
	CategorySoftRoomConflictNotify     TaskCategory = "soft_room_conflict_notification"
	CategoryRoomConflictNeedsReason    TaskCategory = "room_conflict_needs_reason"
	CategoryRoomConflictResolution     TaskCategory = "room_conflict_resolution"
	CategoryManagerRequest             TaskCategory = "manager_request"
)

// TaskStatus enumerates the HIL task lifecycle.
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskApproved TaskStatus = "approved"
	TaskRejected TaskStatus = "rejected"
	TaskStale    TaskStatus = "stale"
)

// HILTask is one manager action item.
type HILTask struct {
	TaskID             string       `json:"task_id"`
	TenantID           string       `json:"tenant_id"`
	EventID            string       `json:"event_id"`
	ThreadID           string       `json:"thread_id"`
	Category           TaskCategory `json:"category"`
	Status             TaskStatus   `json:"status"`
	DraftBody          string       `json:"draft_body"`
	DraftBodyMarkdown  string       `json:"draft_body_markdown"`
	EditedBody         string       `json:"edited_body,omitempty"`
	Signature          string       `json:"signature"`
	CreatedAt          time.Time    `json:"created_at"`
	ResolvedAt         *time.Time   `json:"resolved_at,omitempty"`
	Notes              string       `json:"notes,omitempty"`
}

// EffectiveReply returns what the client actually receives on approval:
// the edited message if the manager supplied one, else the draft body
// verbatim — never the markdown.
func (t HILTask) EffectiveReply() string {
	if t.EditedBody != "" {
		return t.EditedBody
	}
	return t.DraftBody
}
