/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       C3 — change/detour detector. A message is a change
             request only under the dual-condition rule: a revision
             verb AND a bound target. Messages with a question mark
             but neither signal are pure Q&A and never detour.
Root Cause:  Sprint task T108 — change/detour detector.
Context:     Adapted from routing.Engine's priority-ordered condition
             evaluation: each candidate target (date, room,
             participants, site_visit) is checked as an independent
             rule and the first bound match wins, same shape as the
             gateway picking the first matching route condition.
Suitability: L3 — classification with an explicit ambiguity-resolution
             tie-break, not a pure lookup.
──────────────────────────────────────────────────────────────
*/

package detour

import (
	"regexp"
	"strings"
	"time"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

// Target names the event field a change request is bound to.
type Target string

const (
	TargetDate         Target = "date"
	TargetRoom         Target = "room"
	TargetParticipants Target = "participants"
	TargetSiteVisit    Target = "site_visit"
	TargetNone         Target = ""
)

// Result is the outcome of running the detector on one message.
type Result struct {
	IsChangeRequest   bool
	Target            Target
	NormalizedDate    string // ISO YYYY-MM-DD, when Target == TargetDate
	IsPureQnA         bool
	DisambiguationMsg string // appended to the reply when ambiguity was resolved by inference
}

var revisionWords = []string{
	"change", "switch", "reschedule", "actually", "instead",
	"ändern", "stattdessen",
}

var isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
var longDatePattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(,?\s+\d{4})?\b`)
var paxPattern = regexp.MustCompile(`(?i)\b(\d{1,5})\s*(pax|people|guests|attendees)\b`)

var roomReferenceWords = []string{"room", "hall", "ballroom", "suite", "space"}
var dateReferenceWords = []string{"date", "day"}
var participantReferenceWords = []string{"participant", "headcount", "guest count", "attendee"}

// Detect runs the dual-condition change-request classifier.
//
// mostRecentlyConfirmed is the variable name ("date", "room",
// "participants") most recently confirmed for this event, used to
// break ambiguity when a bare value is given with no explicit type.
func Detect(body string, ev *domain.Event, det detection.Result, mostRecentlyConfirmed string) Result {
	lower := strings.ToLower(body)

	if det.Confidence >= 0.7 && det.IsAcceptance {
		return Result{}
	}

	hasRevision := hasRevisionSignal(lower) || det.IsChangeRequest
	target, normalizedDate, ambiguous := boundTarget(body, lower, mostRecentlyConfirmed)

	hasQuestionMark := strings.Contains(body, "?")
	if hasQuestionMark && !hasRevision && target == TargetNone {
		return Result{IsPureQnA: true}
	}

	if !hasRevision || target == TargetNone {
		return Result{}
	}

	if ev != nil && ev.SiteVisitState.Status == domain.SiteVisitProposed && (target == TargetDate || isoDatePattern.MatchString(body) || longDatePattern.MatchString(body)) {
		target = TargetSiteVisit
	}

	r := Result{
		IsChangeRequest: true,
		Target:          target,
		NormalizedDate:  normalizedDate,
	}
	if ambiguous {
		r.DisambiguationMsg = "If you meant the site visit date instead, please write 'change site visit date'."
	}
	return r
}

func hasRevisionSignal(lower string) bool {
	for _, w := range revisionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// boundTarget finds an explicit variable reference or a typed value in
// the message. When a bare value with no type word is found, it falls
// back to mostRecentlyConfirmed (ambiguity resolution rule 1); if that
// is also empty, it still infers a target and reports ambiguous=true so
// the caller appends the disambiguation line (rule 2).
func boundTarget(body, lower, mostRecentlyConfirmed string) (target Target, normalizedDate string, ambiguous bool) {
	if iso := isoDatePattern.FindString(body); iso != "" {
		return TargetDate, iso, false
	}
	if longDatePattern.MatchString(body) {
		if containsAnyWord(lower, dateReferenceWords) {
			return TargetDate, "", false
		}
		// bare value, no explicit "date" word
		if mostRecentlyConfirmed == string(TargetDate) || mostRecentlyConfirmed == "" {
			return TargetDate, "", mostRecentlyConfirmed == ""
		}
		return Target(mostRecentlyConfirmed), "", false
	}
	if paxPattern.MatchString(lower) {
		return TargetParticipants, "", false
	}
	if containsAnyWord(lower, roomReferenceWords) {
		return TargetRoom, "", false
	}
	if containsAnyWord(lower, dateReferenceWords) {
		return TargetDate, "", false
	}
	if containsAnyWord(lower, participantReferenceWords) {
		return TargetParticipants, "", false
	}
	return TargetNone, "", false
}

func containsAnyWord(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// NormalizeISODate parses a handful of common date formats into
// YYYY-MM-DD, returning ok=false if none match. Used by step handlers
// wherever dates must be compared normalized, never by string equality.
func NormalizeISODate(s string) (string, bool) {
	formats := []string{"2006-01-02", "January 2, 2006", "Jan 2, 2006", "January 2", "Jan 2"}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	if m := isoDatePattern.FindString(s); m != "" {
		return m, true
	}
	return "", false
}
