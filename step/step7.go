/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Step 7 — Confirmation & site visit. Confirms the booking,
             walks the two-step site-visit proposal/scheduling flow,
             and never re-prompts once a visit is already scheduled.
             Site visits are rejected outright on or after the event
             date.
Root Cause:  Sprint task T135 — Step 7 Confirmation & site visit.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

const siteVisitSlotCount = 5

var siteVisitTimeSlots = []string{"10:00", "13:00", "15:30"}

// Step7ConfirmationAndSiteVisit confirms the booking and drives the
// site-visit sub-flow.
func Step7ConfirmationAndSiteVisit(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}

	if ev.Status != domain.StatusConfirmed {
		ev.Status = domain.StatusConfirmed
		ev.AppendActivity("confirmed", fmt.Sprintf("Event confirmed for %s", ev.ChosenDate), deps.Now)
		return StepResult{
			Drafts: []domain.Draft{{Body: buildConfirmationBody(ev), Category: string(domain.CategoryConfirmationMessage), RequiresApproval: true}},
			Action: ActionHalt,
			Halt:   true,
		}
	}

	return handleSiteVisitTurn(deps, ev, msg, det)
}

func buildConfirmationBody(ev *domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wonderful news — your event on %s is confirmed! We can't wait to host you.\n\n", ev.ChosenDate)
	if ev.SiteVisitState.Status == domain.SiteVisitScheduled {
		fmt.Fprintf(&b, "Your site visit on %s at %s is already on the calendar — see you then.\n\n", ev.SiteVisitState.ConfirmedDate, ev.SiteVisitState.ConfirmedTime)
	} else {
		b.WriteString("Would you like to schedule a site visit before the event? Just let us know.\n\n")
	}
	b.WriteString("A few remaining items:\n- Confirm final headcount one week prior\n- Share any outstanding dietary or accessibility needs\n- Settle the final balance per the invoice schedule\n")
	return b.String()
}

// handleSiteVisitTurn advances site_visit_state one hop per message,
// per the two-step propose-then-schedule flow.
func handleSiteVisitTurn(deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	sv := &ev.SiteVisitState

	switch sv.Status {
	case domain.SiteVisitScheduled, domain.SiteVisitCompleted:
		// Never re-prompt once scheduled; any further chatter about the
		// visit is acknowledged without reopening the flow.
		return StepResult{Action: ActionHalt, Halt: true}

	case domain.SiteVisitIdle:
		if !wantsSiteVisit(msg.Body, det) {
			return StepResult{Action: ActionHalt, Halt: true}
		}
		slots := proposeSiteVisitDates(deps.Now, ev.ChosenDate, siteVisitSlotCount)
		if len(slots) == 0 {
			return StepResult{Drafts: []domain.Draft{{Body: "Unfortunately there's no time left to schedule a site visit before your event date."}}, Action: ActionHalt, Halt: true}
		}
		sv.Status = domain.SiteVisitProposed
		sv.ProposedSlots = slots
		body := "Here are some available dates for a site visit:\n" + strings.Join(prefixLines(slots), "\n")
		return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}

	case domain.SiteVisitProposed:
		chosen := matchProposedDate(det.Entities.SiteVisitDate, sv.ProposedSlots)
		if chosen == "" {
			return StepResult{Drafts: []domain.Draft{{Body: "Which of those dates works best for your site visit?"}}, Action: ActionHalt, Halt: true}
		}
		if onOrAfterEventDate(chosen, ev.ChosenDate) {
			return StepResult{Drafts: []domain.Draft{{Body: "That date is unavailable for a site visit — it needs to be before the event itself. Could you pick an earlier date?"}}, Action: ActionHalt, Halt: true}
		}
		sv.RequestedDate = chosen
		sv.Status = domain.SiteVisitTimePending
		body := fmt.Sprintf("Great, %s it is. What time works — %s?", chosen, strings.Join(siteVisitTimeSlots, ", "))
		return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}

	case domain.SiteVisitTimePending:
		t := matchTimeSlot(det.Entities.SiteVisitTime, msg.Body)
		if t == "" {
			return StepResult{Drafts: []domain.Draft{{Body: fmt.Sprintf("Sorry, which time works — %s?", strings.Join(siteVisitTimeSlots, ", "))}}, Action: ActionHalt, Halt: true}
		}
		sv.RequestedTime = t
		sv.Status = domain.SiteVisitConfirmPending
		body := fmt.Sprintf("Confirming your site visit for %s at %s — does that work?", sv.RequestedDate, t)
		return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}

	case domain.SiteVisitConfirmPending:
		if !det.IsAcceptance {
			return StepResult{Drafts: []domain.Draft{{Body: "Just to confirm — shall I lock in that site visit time?"}}, Action: ActionHalt, Halt: true}
		}
		sv.Status = domain.SiteVisitScheduled
		sv.ConfirmedDate = sv.RequestedDate
		sv.ConfirmedTime = sv.RequestedTime
		ev.AppendActivity("site_visit_scheduled", fmt.Sprintf("Site visit scheduled for %s at %s", sv.ConfirmedDate, sv.ConfirmedTime), deps.Now)
		body := fmt.Sprintf("You're all set — site visit confirmed for %s at %s. See you then!", sv.ConfirmedDate, sv.ConfirmedTime)
		return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}
	}

	return StepResult{Action: ActionHalt, Halt: true}
}

// CancelSiteVisitIfPastEventDate auto-cancels a scheduled or in-flight
// site visit that a date change has landed on or after the new event
// date (Open Question decision: see design notes on detour handling).
func CancelSiteVisitIfPastEventDate(ev *domain.Event, now time.Time) {
	sv := &ev.SiteVisitState
	if sv.Status == domain.SiteVisitIdle || sv.Status == domain.SiteVisitCancelled || sv.Status == domain.SiteVisitCompleted {
		return
	}
	candidate := sv.ConfirmedDate
	if candidate == "" {
		candidate = sv.RequestedDate
	}
	if candidate == "" {
		return
	}
	if onOrAfterEventDate(candidate, ev.ChosenDate) {
		sv.Status = domain.SiteVisitCancelled
		ev.AppendActivity("site_visit_auto_cancelled", fmt.Sprintf("Site visit on %s no longer precedes the new event date %s", candidate, ev.ChosenDate), now)
	}
}

func wantsSiteVisit(body string, det detection.Result) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "site visit") || strings.Contains(lower, "tour") || strings.Contains(lower, "visit the venue") || det.Entities.SiteVisitDate != ""
}

func proposeSiteVisitDates(now time.Time, eventDate string, limit int) []string {
	eventISO, ok := parseISODate(eventDate)
	if !ok {
		return nil
	}
	cursor := truncateToDay(now).AddDate(0, 0, 1)
	var out []string
	for i := 0; i < 30 && len(out) < limit; i++ {
		d := cursor.AddDate(0, 0, i)
		if !d.Before(eventISO) {
			break
		}
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

func prefixLines(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = "- " + s
	}
	return out
}

func matchProposedDate(entityDate string, proposed []string) string {
	if entityDate == "" {
		return ""
	}
	for _, d := range proposed {
		if d == entityDate {
			return d
		}
	}
	return ""
}

func matchTimeSlot(entityTime, body string) string {
	if entityTime != "" {
		for _, s := range siteVisitTimeSlots {
			if s == entityTime {
				return s
			}
		}
	}
	for _, s := range siteVisitTimeSlots {
		if strings.Contains(body, s) {
			return s
		}
	}
	return ""
}

// onOrAfterEventDate reports whether candidate is on or after
// eventDate; malformed dates are treated as conflicting (fail closed).
func onOrAfterEventDate(candidate, eventDate string) bool {
	c, ok1 := parseISODate(candidate)
	e, ok2 := parseISODate(eventDate)
	if !ok1 || !ok2 {
		return true
	}
	return !c.Before(e)
}
