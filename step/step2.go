/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Step 2 — Date confirmation. Confirms an explicit ISO date
             directly, otherwise proposes up to five candidate dates
             (preferred weekday first, earliest future date), and
             escalates to HIL after three failed proposal rounds.
Root Cause:  Sprint task T131 — Step 2 Date confirmation.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"fmt"
	"context"
	"strings"
	"time"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

const maxFailedDateTries = 3
const maxDateSuggestions = 5

// Step2DateConfirmation proposes or confirms an event date.
func Step2DateConfirmation(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}

	if iso, ok := parseISODate(det.Entities.Date); ok {
		if !iso.Before(truncateToDay(deps.Now)) && det.Entities.StartTime != "" {
			ev.ChosenDate = det.Entities.Date
			ev.Window.Start = det.Entities.StartTime
			ev.Window.End = det.Entities.EndTime
			ev.FailedDateTries = 0
			ev.CurrentStep = 3
			CancelSiteVisitIfPastEventDate(ev, deps.Now)
			return StepResult{Action: ActionAdvance, Halt: false}
		}
		if !iso.Before(truncateToDay(deps.Now)) {
			ev.ChosenDate = det.Entities.Date
			ev.FailedDateTries = 0
			ev.CurrentStep = 3
			CancelSiteVisitIfPastEventDate(ev, deps.Now)
			return StepResult{Action: ActionAdvance, Halt: false}
		}
	}

	ev.FailedDateTries++
	if ev.FailedDateTries >= maxFailedDateTries {
		return StepResult{
			Drafts: []domain.Draft{{Body: "I want to make sure we find a date that works — I'm bringing in a manager to help coordinate directly.", RequiresApproval: true, Category: string(domain.CategoryManagerRequest)}},
			Action: ActionHalt,
			Halt:   true,
		}
	}

	preferredWeekday, hasPreference := preferredWeekdayFromText(msg.Body)
	suggestions := suggestDates(deps.Now, preferredWeekday, hasPreference, maxDateSuggestions)
	body := "Here are a few dates that could work:\n" + strings.Join(suggestions, "\n")
	return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
}

func preferredWeekdayFromText(body string) (time.Weekday, bool) {
	lower := strings.ToLower(body)
	for name, wd := range weekdayNames {
		if strings.Contains(lower, name) {
			return wd, true
		}
	}
	return 0, false
}

// suggestDates produces up to limit future dates, sorted so a
// preferred weekday comes first, then by earliest date.
func suggestDates(now time.Time, preferred time.Weekday, preferredSet bool, limit int) []string {
	start := truncateToDay(now).AddDate(0, 0, 1)

	var preferredDates, otherDates []string
	for i := 0; i < 60 && len(preferredDates)+len(otherDates) < limit*4; i++ {
		d := start.AddDate(0, 0, i)
		iso := d.Format("2006-01-02")
		if preferredSet && d.Weekday() == preferred {
			preferredDates = append(preferredDates, iso)
		} else {
			otherDates = append(otherDates, iso)
		}
	}

	out := append(preferredDates, otherDates...)
	if len(out) > limit {
		out = out[:limit]
	}
	formatted := make([]string, len(out))
	for i, d := range out {
		formatted[i] = fmt.Sprintf("- %s", d)
	}
	return formatted
}
