/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Step 1 — Intake. Captures contact/event profile fields,
             pre-validates the requested date, and rejects
             over-capacity participant counts.
Root Cause:  Sprint task T130 — Step 1 Intake.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"context"
	"fmt"
	"time"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

// Step1Intake is the entry handler for new and continuing events.
func Step1Intake(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if !qnaBypass(ev, det) && det.IsQuestion && !hasEventDetails(det) {
		return StepResult{Halt: true, Action: ActionHalt}
	}
	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}

	captureProfile(ev, det)

	if det.Entities.Date != "" {
		if iso, ok := parseISODate(det.Entities.Date); ok && iso.Before(truncateToDay(deps.Now)) {
			// Past date: re-route to Step 2 so it rejects with alternatives.
			ev.CurrentStep = 2
			return StepResult{Action: ActionAdvance, Halt: false}
		}
		ev.ChosenDate = det.Entities.Date
	}

	if deps.Tenant != nil && det.Entities.Participants > 0 {
		max := deps.Tenant.LargestRoomCapacity()
		if max > 0 && det.Entities.Participants > max {
			body := fmt.Sprintf(
				"Unfortunately our largest room holds %d guests, which is fewer than the %d you mentioned. A few options: reduce the guest count, split across two rooms, or consider an external venue partner for a group this size.",
				max, det.Entities.Participants,
			)
			return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}
		}
	}

	ev.CurrentStep = 2
	return StepResult{Action: ActionAdvance, Halt: false}
}

func hasEventDetails(det detection.Result) bool {
	return det.Entities.Date != "" || det.Entities.Participants > 0 || det.Entities.EventType != ""
}

func captureProfile(ev *domain.Event, det detection.Result) {
	if det.Entities.EventType != "" {
		ev.EventType = det.Entities.EventType
	}
	if det.Entities.Participants > 0 {
		ev.Participants = det.Entities.Participants
	}
	if det.Entities.ContactName != "" {
		ev.ContactName = det.Entities.ContactName
	}
	if det.Entities.ContactEmail != "" {
		ev.ContactEmail = det.Entities.ContactEmail
	}
	if det.Entities.ContactPhone != "" {
		ev.ContactPhone = det.Entities.ContactPhone
	}
}

func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
