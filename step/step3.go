/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Step 3 — Room availability. Ranks every room for the
             confirmed date and participant count by capacity fit,
             plus a bonus for a fuzzy feature/layout match; the
             client's room preference is not scored.
             Handles the locked-room fast-skip and clear-on-unavailable
             paths.
Root Cause:  Sprint task T132 — Step 3 Room availability.
──────────────────────────────────────────────────────────────
*/

package step

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/venuehost/orchestrator/catalog"
	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/domain"
)

const preferredRoomBonus = 30

type roomScore struct {
	room  catalog.Room
	score int
}

// Step3RoomAvailability evaluates room fit for the chosen date.
func Step3RoomAvailability(ctx context.Context, deps Deps, ev *domain.Event, msg domain.Message, det detection.Result) StepResult {
	if res, halted := nonsenseWithinStep(det); halted {
		return res
	}
	if deps.Tenant == nil || ev.ChosenDate == "" {
		return StepResult{Action: ActionHalt, Halt: true}
	}

	// Fast-skip: locked room still available after a date change.
	if ev.LockedRoomID != "" {
		if room, ok := deps.Tenant.RoomByID(ev.LockedRoomID); ok && roomFreeOn(room, ev.ChosenDate) {
			ev.RoomEvalHash = fmt.Sprintf("%d|%s|%s", ev.Participants, ev.Layout, ev.SpecialRequirements)
			if ev.InDetour() {
				ev.ReturnFromDetour(deps.Now)
			} else {
				ev.CurrentStep = 4
			}
			return StepResult{Action: ActionAdvance, Halt: false}
		}
		if room, ok := deps.Tenant.RoomByID(ev.LockedRoomID); ok {
			ev.ClearedRoomName = room.Name
		}
		ev.LockedRoomID = ""
	}

	fitting, missing := rankRooms(deps.Tenant.Rooms, ev)
	if len(fitting) == 0 {
		_ = missing
		body := fmt.Sprintf("I'm sorry, none of our rooms can accommodate %d guests on %s. Would you consider reducing the guest count, splitting across two rooms, or an external venue partner?", ev.Participants, ev.ChosenDate)
		return StepResult{Drafts: []domain.Draft{{Body: body}}, Action: ActionHalt, Halt: true}
	}

	chosen := fitting[0].room
	ev.LockedRoomID = chosen.ID
	ev.RoomEvalHash = fmt.Sprintf("%d|%s|%s", ev.Participants, ev.Layout, ev.SpecialRequirements)
	ev.Status = domain.StatusOption

	prefix := ""
	if ev.ClearedRoomName != "" {
		prefix = fmt.Sprintf("Room %s is no longer available on %s. ", ev.ClearedRoomName, ev.ChosenDate)
		ev.ClearedRoomName = ""
	}
	ev.RoomConfirmationPfx = prefix + fmt.Sprintf("%s is available and held for your date. ", chosen.Name)
	ev.AppendActivity("room_locked", fmt.Sprintf("Locked %s for %s", chosen.Name, ev.ChosenDate), deps.Now)

	ev.CurrentStep = 4
	return StepResult{Action: ActionAdvance, Halt: false}
}

func roomFreeOn(room catalog.Room, date string) bool {
	for _, b := range room.Availability {
		if b.Date == date {
			return false
		}
	}
	return true
}

// rankRooms scores each capacity-fitting, free room and returns them
// sorted best-first: a tighter capacity fit ranks higher, and a fuzzy
// feature/layout match adds preferredRoomBonus (+30). The client's
// room preference is not part of the score.
func rankRooms(rooms []catalog.Room, ev *domain.Event) (fitting []roomScore, missing []string) {
	for _, r := range rooms {
		if r.CapacityMax < ev.Participants {
			missing = append(missing, r.Name)
			continue
		}
		if !roomFreeOn(r, ev.ChosenDate) {
			missing = append(missing, r.Name)
			continue
		}
		score := 1000 - r.CapacityMax // tighter fit ranks higher, within capacity
		if featureMatch(r, ev.SpecialRequirements) || featureMatch(r, ev.Layout) {
			score += preferredRoomBonus
		}
		fitting = append(fitting, roomScore{room: r, score: score})
	}
	sort.SliceStable(fitting, func(i, j int) bool { return fitting[i].score > fitting[j].score })
	return fitting, missing
}

// featureMatch does a fuzzy substring match over features ∪ services ∪
// capacity_by_layout keys.
func featureMatch(r catalog.Room, want string) bool {
	if want == "" {
		return false
	}
	lowerWant := strings.ToLower(want)
	for _, f := range r.Features {
		if strings.Contains(strings.ToLower(f), lowerWant) || strings.Contains(lowerWant, strings.ToLower(f)) {
			return true
		}
	}
	for _, s := range r.Services {
		if strings.Contains(strings.ToLower(s), lowerWant) {
			return true
		}
	}
	for layout := range r.CapacityByLayout {
		if strings.Contains(strings.ToLower(layout), lowerWant) {
			return true
		}
	}
	return false
}
