/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Event read/lifecycle API: fetch a record, cancel it, mark
             a simulated deposit paid (re-entering the message pipeline
             with a synthetic deposit_just_paid message), and project
             the 7-step internal state machine onto the 5-stage UI
             progress/activity views.
Root Cause:  Sprint task T126 — event endpoints.
Context:     PayDeposit doesn't write deposit_info directly — it goes
             through HandleMessage like any other turn, so the event
             lock, pre-route bypass, and Step 7 dispatch all apply
             exactly as they would to a client-authored message
             (deposit_just_paid bypasses change detection).
Suitability: L3 — read projections plus one lifecycle transition.
──────────────────────────────────────────────────────────────
*/

package service

import (
	"context"
	"fmt"

	"github.com/venuehost/orchestrator/domain"
)

// ProgressStage is one of the five client-facing booking stages a
// manager or client sees instead of the internal 1..7 step number.
type ProgressStage struct {
	Stage  string `json:"stage"` // date | room | offer | deposit | confirmed
	Status string `json:"status"` // completed | active | pending
}

var progressStages = []string{"date", "room", "offer", "deposit", "confirmed"}

// stepToStage maps the internal current_step to the UI stage it's
// currently working through. Steps 1 (intake) and 2 (date) both
// precede a chosen date, so both land on "date"; step 6 (billing) is
// folded into "deposit" since billing collection only runs on the way
// to a deposit/confirmation.
func stepToStage(currentStep int) int {
	switch {
	case currentStep <= 2:
		return 0 // date
	case currentStep == 3:
		return 1 // room
	case currentStep == 4:
		return 2 // offer
	case currentStep == 5, currentStep == 6:
		return 3 // deposit
	default:
		return 4 // confirmed
	}
}

// GetEvent returns the full persisted event record.
func (s *Service) GetEvent(tenantID, eventID string) (*domain.Event, error) {
	data, err := s.store.Load(tenantID)
	if err != nil {
		return nil, err
	}
	ev, ok := data.Events[eventID]
	if !ok {
		return nil, fmt.Errorf("service: event %q not found", eventID)
	}
	return ev, nil
}

// CancelEvent transitions an event to cancelled on an explicit "CANCEL"
// confirmation literal, releasing any held room — the record stays,
// only its status and room hold change. Pending HIL tasks tied to it
// stay in the queue; ApproveTask rejects them once the event is
// cancelled.
func (s *Service) CancelEvent(tenantID, eventID, confirmation, reason string) error {
	if confirmation != "CANCEL" {
		return fmt.Errorf("service: cancellation requires the literal confirmation %q", "CANCEL")
	}

	ev, err := s.GetEvent(tenantID, eventID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(lockKey(tenantID, ev.ThreadID))
	defer unlock()

	now := s.now()
	data, err := s.store.Load(tenantID)
	if err != nil {
		return err
	}
	ev = data.Events[eventID]
	ev.Status = domain.StatusCancelled
	ev.LockedRoomID = ""
	ev.AppendActivity("cancelled", reason, now)
	ev.UpdatedAt = now

	if err := s.store.Save(tenantID, data); err != nil {
		return fmt.Errorf("service: save tenant data: %w", err)
	}
	s.record(tenantID, eventID, "step_transition", "status=cancelled")
	return nil
}

// PayDeposit marks the deposit paid and re-enters the message pipeline
// with a synthetic deposit_just_paid message so the normal Step 5→7
// continuation logic runs unchanged.
func (s *Service) PayDeposit(ctx context.Context, tenantID, eventID string) (MessageResult, error) {
	ev, err := s.GetEvent(tenantID, eventID)
	if err != nil {
		return MessageResult{}, err
	}
	return s.HandleMessage(ctx, tenantID, ev.ThreadID, ev.ClientID, "", "", "", domain.MessageExtras{
		EventID:         eventID,
		DepositJustPaid: true,
	})
}

// Progress projects the internal 1..7 step machine onto the 5 UI
// stages.
func (s *Service) Progress(tenantID, eventID string) ([]ProgressStage, error) {
	ev, err := s.GetEvent(tenantID, eventID)
	if err != nil {
		return nil, err
	}

	current := stepToStage(ev.CurrentStep)
	if ev.Status == domain.StatusConfirmed {
		current = len(progressStages) - 1
	}

	out := make([]ProgressStage, len(progressStages))
	for i, name := range progressStages {
		status := "pending"
		switch {
		case i < current:
			status = "completed"
		case i == current:
			status = "active"
		}
		out[i] = ProgressStage{Stage: name, Status: status}
	}
	if ev.Status == domain.StatusConfirmed {
		out[len(out)-1].Status = "completed"
	}
	return out, nil
}

// Activity returns the event's activity log, newest first, capped at
// limit entries. granularity "high" returns only the coarse label;
// "detailed" includes the full text.
func (s *Service) Activity(tenantID, eventID, granularity string, limit int) ([]domain.ActivityEntry, error) {
	ev, err := s.GetEvent(tenantID, eventID)
	if err != nil {
		return nil, err
	}

	entries := ev.ActivityLog
	out := make([]domain.ActivityEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if granularity == "high" {
			e.Detailed = ""
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
