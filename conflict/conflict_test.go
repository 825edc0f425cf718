package conflict_test

import (
	"testing"

	"github.com/venuehost/orchestrator/conflict"
	"github.com/venuehost/orchestrator/domain"
)

func TestEvaluateOptionVsOptionIsSoft(t *testing.T) {
	a := &domain.Event{Status: domain.StatusOption}
	o := conflict.Evaluate(a, conflict.ActionOption)
	if o.Severity != conflict.SeveritySoft || o.Blocked {
		t.Fatalf("expected soft, non-blocking conflict, got %+v", o)
	}
}

func TestEvaluateOptionVsConfirmIsHardWithReason(t *testing.T) {
	a := &domain.Event{Status: domain.StatusOption}
	o := conflict.Evaluate(a, conflict.ActionConfirm)
	if o.Severity != conflict.SeverityHard || !o.Blocked || !o.NeedsReason {
		t.Fatalf("expected hard blocked conflict needing a reason, got %+v", o)
	}
}

func TestEvaluateConfirmedBlocksOutright(t *testing.T) {
	a := &domain.Event{Status: domain.StatusConfirmed}
	o := conflict.Evaluate(a, conflict.ActionOption)
	if !o.Blocked || o.NeedsReason {
		t.Fatalf("confirmed holder should block outright with no task, got %+v", o)
	}
}

func TestFindHoldersExcludesCandidate(t *testing.T) {
	a := &domain.Event{EventID: "a", ChosenDate: "2026-08-14", LockedRoomID: "r1", Status: domain.StatusOption}
	b := &domain.Event{EventID: "b", ChosenDate: "2026-08-14", LockedRoomID: "r1", Status: domain.StatusOption}
	holders := conflict.FindHolders([]*domain.Event{a, b}, "b", "2026-08-14", "r1")
	if len(holders) != 1 || holders[0].EventID != "a" {
		t.Fatalf("expected only event a as holder, got %+v", holders)
	}
}
