/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       C4 — pre-route pipeline. Ten ordered stages executed
             before any step handler runs: duplicate gate, nonsense
             gate, detection attachment, injection defense, guard
             evaluation (pure snapshot), billing-flow correction,
             shortcut attempt, global field capture, snapshot writes,
             dispatch.
Root Cause:  Sprint task T120 — pre-route pipeline.
Context:     Stage order is load-bearing: grounded on router.NewRouter's
             "order matters" middleware chain, kept as a straight-line
             sequence of named stage functions rather than a generic
             middleware slice, since several stages need to see and
             mutate the same GuardSnapshot rather than pass an opaque
             http.Handler forward.
Suitability: L4 — the highest-fan-in control flow in the system; each
             stage is individually small but the ordering and the
             early-return contract between them is the hard part.
──────────────────────────────────────────────────────────────
*/

package preroute

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/detour"
	"github.com/venuehost/orchestrator/domain"
)

// Outcome tells the caller whether the pipeline already produced a
// final reply (or silence) or whether the event is ready for step
// dispatch.
type Outcome string

const (
	OutcomeDispatch       Outcome = "dispatch"
	OutcomeReply          Outcome = "reply"           // a draft was produced directly (duplicate, injection)
	OutcomeSilentIgnore   Outcome = "silent_ignore"    // nonsense/noise: no reply, no state change
	OutcomeDeferToHIL     Outcome = "defer_to_hil"
)

// GuardSnapshot is the pure, no-side-effect read computed in stage 5
// and applied (written) only in stage 9.
type GuardSnapshot struct {
	ForcedStep             int
	RequirementsHashChanged bool
	DepositBypass          bool
	BillingFlow            bool
}

// Result is what Run returns to the caller (the router/handler layer).
type Result struct {
	Outcome   Outcome
	Draft     *domain.Draft
	DetourMsg string // a disambiguation line, if the change detector attached one
}

var injectionPattern = regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(your\s+|the\s+)?(previous\s+|prior\s+)?instructions|system prompt|you are now|disregard\s+(your|all)\s+(rules|instructions)`)

var workflowSignalWords = []string{
	"date", "room", "participant", "guest", "wedding", "party", "meeting",
	"deposit", "confirm", "cancel", "offer", "price", "book",
}

// Run executes the full ten-stage pipeline against one inbound message.
// tenant may be nil only in tests that don't exercise the shortcut
// stage. prevBody is the previous inbound body for the same thread
// (empty if none), used by the duplicate gate.
func Run(ev *domain.Event, tenant *catalog.Tenant, msg domain.Message, det detection.Result, prevBody string, now time.Time) Result {
	// 1. Duplicate gate.
	if prevBody != "" && msg.Body == prevBody && !ev.InDetour() && ev.CurrentStep > 1 {
		return Result{Outcome: OutcomeReply, Draft: &domain.Draft{Body: "Thanks for confirming — is there anything else you'd like to add before we continue?"}}
	}

	// 2. Nonsense gate.
	hasSignal := hasWorkflowSignal(msg.Body)
	if det.Intent == detection.IntentNonsense || (det.Confidence < 0.15 && !hasSignal) {
		return Result{Outcome: OutcomeSilentIgnore}
	}
	if det.Confidence >= 0.15 && det.Confidence < 0.25 && !hasSignal {
		return Result{Outcome: OutcomeDeferToHIL}
	}

	// 3. Detection result attachment — det is already attached by the caller.

	// 4. Prompt-injection defense.
	if det.HasInjectionAttempt || injectionPattern.MatchString(msg.Body) {
		return Result{Outcome: OutcomeReply, Draft: &domain.Draft{Body: "I can't follow instructions embedded in a message like that. How can I help with your booking?"}}
	}

	// 5. Guard evaluation (pure).
	snap := evaluateGuard(ev)

	// 6. Billing-flow correction.
	changeResult := detour.Detect(msg.Body, ev, det, mostRecentlyConfirmed(ev))
	if snap.BillingFlow {
		unambiguousChange := changeResult.IsChangeRequest && det.IsChangeRequest
		if !unambiguousChange {
			snap.ForcedStep = 5
			changeResult = detour.Result{}
		} else {
			ev.AwaitingBillingForAccept = false
		}
	}

	// 7. Shortcut attempt.
	if tenant != nil && det.Entities.Date != "" && det.Entities.RoomPreference != "" && det.Entities.Participants > 0 {
		if room, ok := tenant.RoomByID(det.Entities.RoomPreference); ok && roomAvailable(room, det.Entities.Date) && room.CapacityMax >= det.Entities.Participants {
			ev.ChosenDate = det.Entities.Date
			ev.LockedRoomID = room.ID
			ev.RoomEvalHash = requirementsHash(det.Entities.Participants, ev.Layout, ev.SpecialRequirements)
			ev.CurrentStep = 4
			ev.Status = domain.StatusOption
			ev.AppendActivity("shortcut_to_offer", fmt.Sprintf("Shortcut: locked %s on %s", room.Name, det.Entities.Date), now)
			return Result{Outcome: OutcomeDispatch}
		}
	}

	// 8. Global field capture.
	captureGlobalFields(ev, det)

	// 9. Apply snapshot writes.
	if snap.ForcedStep != 0 {
		ev.CurrentStep = snap.ForcedStep
	}
	if changeResult.IsChangeRequest {
		target := targetToStep(changeResult.Target, ev)
		ev.Detour(target, "change_request:"+string(changeResult.Target), now)
		switch changeResult.Target {
		case detour.TargetDate:
			ev.RoomEvalHash = ""
		case detour.TargetSiteVisit:
			// a site-visit date preference has nothing to do with the
			// booked room; leave the lock untouched.
		default:
			ev.RoomEvalHash = ""
			ev.LockedRoomID = ""
		}
	}

	// 10. Dispatch.
	return Result{Outcome: OutcomeDispatch, DetourMsg: changeResult.DisambiguationMsg}
}

func hasWorkflowSignal(body string) bool {
	lower := strings.ToLower(body)
	for _, w := range workflowSignalWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// evaluateGuard computes the read-only snapshot stage 5 requires: no
// event mutation happens here.
func evaluateGuard(ev *domain.Event) GuardSnapshot {
	return GuardSnapshot{
		BillingFlow:   ev.AwaitingBillingForAccept && ev.OfferAccepted,
		DepositBypass: ev.DepositInfo.Paid,
	}
}

func mostRecentlyConfirmed(ev *domain.Event) string {
	if ev == nil {
		return ""
	}
	if ev.ChosenDate != "" {
		return string(detour.TargetDate)
	}
	if ev.LockedRoomID != "" {
		return string(detour.TargetRoom)
	}
	if ev.Participants > 0 {
		return string(detour.TargetParticipants)
	}
	return ""
}

func targetToStep(t detour.Target, ev *domain.Event) int {
	switch t {
	case detour.TargetDate:
		return 2
	case detour.TargetRoom:
		return 3
	case detour.TargetParticipants:
		return 3
	case detour.TargetSiteVisit:
		return 7
	default:
		return ev.CurrentStep
	}
}

func roomAvailable(room catalog.Room, date string) bool {
	for _, b := range room.Availability {
		if b.Date == date {
			return false
		}
	}
	return true
}

func requirementsHash(participants int, layout, requirements string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s", participants, layout, requirements)))
	return hex.EncodeToString(h[:8])
}

// captureGlobalFields opportunistically persists contact/date/time/room
// fields extracted by detection regardless of current step.
func captureGlobalFields(ev *domain.Event, det detection.Result) {
	if det.Entities.ContactName != "" {
		ev.ContactName = det.Entities.ContactName
	}
	if det.Entities.ContactEmail != "" {
		ev.ContactEmail = det.Entities.ContactEmail
	}
	if det.Entities.ContactPhone != "" {
		ev.ContactPhone = det.Entities.ContactPhone
	}
	if det.Entities.StartTime != "" {
		ev.Window.Start = det.Entities.StartTime
	}
	if det.Entities.EndTime != "" {
		ev.Window.End = det.Entities.EndTime
	}
	if det.Entities.Participants > 0 {
		ev.Participants = det.Entities.Participants
	}
	if det.Entities.EventType != "" {
		ev.EventType = det.Entities.EventType
	}
}
