/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       HandleMessage is the single call every inbound message
             reduces to: resolve tenant/client/event under the event
             lock, run detection → pre-route → step dispatch, apply
             the post-dispatch room-conflict check, persist, and shape
             the response envelope.
Root Cause:  Sprint task T125 — send a message / start a conversation.
Context:     Grounded on router.NewRouter's request lifecycle (auth →
             rate limit → dispatch → record) collapsed here into one
             method since there is no network hop between stages —
             the "middleware chain" is this function's stage order.
Suitability: L4 — the system's top-level composition; each stage
             delegates to an already-tested package, the ordering and
             locking discipline is what's being built here.
──────────────────────────────────────────────────────────────
*/

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/conflict"
	"github.com/venuehost/orchestrator/domain"
	"github.com/venuehost/orchestrator/preroute"
	"github.com/venuehost/orchestrator/step"
	"github.com/venuehost/orchestrator/store"
)

// MessageResult is the response envelope returned to the caller.
type MessageResult struct {
	ThreadID      string              `json:"thread_id"`
	EventID       string              `json:"event_id"`
	Response      string              `json:"response"`
	CurrentStep   int                 `json:"current_step"`
	Status        domain.Status       `json:"status"`
	DepositInfo   *domain.DepositInfo `json:"deposit_info,omitempty"`
	PendingReview bool                `json:"pending_review,omitempty"`
}

// HandleMessage runs one inbound message through the full pipeline
// under the event lock for (tenant_id, thread_id).
func (s *Service) HandleMessage(ctx context.Context, tenantID, threadID, clientEmail, clientName, subject, body string, extras domain.MessageExtras) (MessageResult, error) {
	unlock := s.locks.Lock(lockKey(tenantID, threadID))
	defer unlock()

	now := s.now()

	tenant, err := s.catalog.Get(tenantID)
	if err != nil {
		return MessageResult{}, err
	}

	data, err := s.store.Load(tenantID)
	if err != nil {
		return MessageResult{}, fmt.Errorf("service: load tenant data: %w", err)
	}

	getOrCreateClient(data, tenantID, clientEmail, clientName)
	ev := resolveEvent(tenant, data, tenantID, threadID, clientEmail, extras, now)
	if ev.ClientID == "" {
		ev.ClientID = clientEmail
	}

	msg := domain.Message{
		TenantID:  tenantID,
		ClientID:  clientEmail,
		ThreadID:  threadID,
		Subject:   subject,
		Body:      body,
		Extras:    extras,
		Timestamp: now,
	}

	det := s.detector.Detect(ctx, tenant, tenant.LLMProvider, body)

	preResult := preroute.Run(ev, tenant, msg, det, ev.LastInboundBody, now)
	ev.LastInboundBody = body

	var result MessageResult
	switch preResult.Outcome {
	case preroute.OutcomeSilentIgnore:
		result = MessageResult{ThreadID: threadID, EventID: ev.EventID, CurrentStep: ev.CurrentStep, Status: ev.Status}

	case preroute.OutcomeReply:
		draft := domain.Draft{}
		if preResult.Draft != nil {
			draft = *preResult.Draft
		}
		reply, pending := s.finalizeDraft(data, tenant, ev, threadID, draft, now)
		ev.UpdatedAt = now
		result = MessageResult{ThreadID: threadID, EventID: ev.EventID, Response: reply, CurrentStep: ev.CurrentStep, Status: ev.Status, PendingReview: pending}

	case preroute.OutcomeDeferToHIL:
		draftBody := "A manager will review your message shortly."
		if preResult.Draft != nil {
			draftBody = preResult.Draft.Body
		}
		s.enqueueHIL(data, ev, threadID, domain.Draft{Body: draftBody, Category: string(domain.CategoryManagerRequest)}, now)
		ev.UpdatedAt = now
		result = MessageResult{ThreadID: threadID, EventID: ev.EventID, CurrentStep: ev.CurrentStep, Status: ev.Status, PendingReview: true}

	default: // OutcomeDispatch
		drafts := step.Dispatch(ctx, step.Deps{Tenant: tenant, Now: now}, ev, msg, det)
		s.applyConflictCheck(data, ev, threadID, msg, now)

		var reply string
		pendingAny := false
		for _, d := range drafts {
			r, pending := s.finalizeDraft(data, tenant, ev, threadID, d, now)
			if r != "" {
				if reply != "" {
					reply += "\n\n" + r
				} else {
					reply = r
				}
			}
			if pending {
				pendingAny = true
			}
		}
		ev.UpdatedAt = now

		var depositInfo *domain.DepositInfo
		if ev.DepositInfo.Required {
			di := ev.DepositInfo
			depositInfo = &di
		}
		result = MessageResult{ThreadID: threadID, EventID: ev.EventID, Response: reply, CurrentStep: ev.CurrentStep, Status: ev.Status, DepositInfo: depositInfo, PendingReview: pendingAny}
	}

	s.persistHIL(tenantID, data)
	if err := s.store.Save(tenantID, data); err != nil {
		return MessageResult{}, fmt.Errorf("service: save tenant data: %w", err)
	}
	s.record(tenantID, ev.EventID, "step_transition", fmt.Sprintf("outcome=%s step=%d status=%s", preResult.Outcome, ev.CurrentStep, ev.Status))
	return result, nil
}

// StartConversation is HandleMessage with no prior thread state; the
// caller supplies a fresh thread_id.
func (s *Service) StartConversation(ctx context.Context, tenantID, threadID, clientEmail, clientName, subject, body string) (MessageResult, error) {
	return s.HandleMessage(ctx, tenantID, threadID, clientEmail, clientName, subject, body, domain.MessageExtras{})
}

// finalizeDraft applies the HIL gate to one draft: a draft tagged
// requires_approval, or any draft at all when the tenant opted into
// reviewing every AI reply (hil_all_llm_replies), is enqueued and
// withheld from the client; everything else goes straight out.
func (s *Service) finalizeDraft(data *store.TenantData, tenant *catalog.Tenant, ev *domain.Event, threadID string, d domain.Draft, now time.Time) (reply string, pending bool) {
	if d.Body == "" && !d.RequiresApproval {
		return "", false
	}
	needsApproval := d.RequiresApproval || (tenant != nil && tenant.HilAllLLMReplies)
	if !needsApproval {
		return d.Body, false
	}
	s.enqueueHIL(data, ev, threadID, d, now)
	return "", true
}

// enqueueHIL wraps a withheld draft as a pending HIL task. It does not
// dedup at enqueue time: a repeated (thread, category, body) draft
// becomes a second pending task, and hil.Queue.Approve refuses to
// approve the same signature twice.
func (s *Service) enqueueHIL(data *store.TenantData, ev *domain.Event, threadID string, d domain.Draft, now time.Time) {
	category := domain.TaskCategory(d.Category)
	if category == "" {
		category = domain.CategoryAIReplyApproval
	}
	q := s.hilQueueFor(ev.TenantID, data)
	task := &domain.HILTask{
		TaskID:            newID("task"),
		TenantID:          ev.TenantID,
		EventID:           ev.EventID,
		ThreadID:          threadID,
		Category:          category,
		DraftBody:         d.Body,
		DraftBodyMarkdown: d.EffectiveMarkdown(),
		CreatedAt:         now,
	}
	q.Enqueue(task)
}

// applyConflictCheck runs the post-dispatch room-conflict detector:
// whenever this event currently holds a room, it's compared against
// every other room-holding event in the tenant on the same
// (date, room). A soft conflict (both still options) raises a
// notify-only HIL task. A hard conflict from an option-holding A
// against a confirming B asks B for a reason before a resolution task
// is ever created; a hard conflict from a confirmed A blocks B
// outright with no task at all.
func (s *Service) applyConflictCheck(data *store.TenantData, ev *domain.Event, threadID string, msg domain.Message, now time.Time) {
	if !ev.RoomHeld() {
		return
	}

	all := make([]*domain.Event, 0, len(data.Events))
	for _, e := range data.Events {
		all = append(all, e)
	}
	holders := conflict.FindHolders(all, ev.EventID, ev.ChosenDate, ev.LockedRoomID)
	if len(holders) == 0 {
		return
	}

	action := conflict.ActionOption
	if ev.Status == domain.StatusConfirmed {
		action = conflict.ActionConfirm
	}

	for _, holder := range holders {
		outcome := conflict.Evaluate(holder, action)
		date, roomID := ev.ChosenDate, ev.LockedRoomID

		switch {
		case outcome.NotifyOnly:
			s.enqueueHIL(data, ev, threadID, domain.Draft{
				Body:     fmt.Sprintf("Soft room conflict: %s and %s both hold %s on %s.", ev.EventID, holder.EventID, roomID, date),
				Category: string(domain.CategorySoftRoomConflictNotify),
			}, now)
			s.record(ev.TenantID, ev.EventID, "conflict_resolved", fmt.Sprintf("soft vs %s", holder.EventID))

		case outcome.Blocked && outcome.NeedsReason:
			if ev.ConflictReasonPendingFor == holder.EventID && msg.Extras.ConflictReason != "" {
				ev.ConflictReasonPendingFor = ""
				redirect := conflict.RedirectLoser(conflict.DimensionRoom)
				ev.LockedRoomID = ""
				ev.Status = domain.StatusLead
				ev.CurrentStep = redirect.RedirectStep
				s.enqueueHIL(data, ev, threadID, domain.Draft{
					Body:     fmt.Sprintf("Hard room conflict on %s/%s: %s holds an option; %s gave a reason to confirm anyway: %q.", date, roomID, holder.EventID, ev.EventID, msg.Extras.ConflictReason),
					Category: string(domain.CategoryRoomConflictResolution),
				}, now)
				s.record(ev.TenantID, ev.EventID, "conflict_resolved", fmt.Sprintf("hard vs %s, redirected to step %d", holder.EventID, redirect.RedirectStep))
				continue
			}
			ev.ConflictReasonPendingFor = holder.EventID
			s.enqueueHIL(data, ev, threadID, domain.Draft{
				Body:     fmt.Sprintf("%s and %s both hold %s on %s; %s held it first as an option. Please provide a reason to confirm anyway.", ev.EventID, holder.EventID, roomID, date, holder.EventID),
				Category: string(domain.CategoryRoomConflictNeedsReason),
			}, now)
			s.record(ev.TenantID, ev.EventID, "conflict_needs_reason", fmt.Sprintf("hard vs %s, awaiting reason", holder.EventID))

		case outcome.Blocked:
			redirect := conflict.RedirectLoser(conflict.DimensionRoom)
			ev.LockedRoomID = ""
			ev.Status = domain.StatusLead
			ev.CurrentStep = redirect.RedirectStep
			s.record(ev.TenantID, ev.EventID, "conflict_resolved", fmt.Sprintf("blocked outright vs confirmed %s, redirected to step %d, no task", holder.EventID, redirect.RedirectStep))
		}
	}
}
