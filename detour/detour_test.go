package detour_test

import (
	"testing"

	"github.com/venuehost/orchestrator/detection"
	"github.com/venuehost/orchestrator/detour"
	"github.com/venuehost/orchestrator/domain"
)

func TestDetectRequiresBothConditions(t *testing.T) {
	r := detour.Detect("Actually, we need to think it over", nil, detection.Result{}, "")
	if r.IsChangeRequest {
		t.Fatalf("revision word alone without bound target must not be a change request")
	}
}

func TestDetectPureQnA(t *testing.T) {
	r := detour.Detect("what is the cancellation policy?", nil, detection.Result{}, "")
	if !r.IsPureQnA {
		t.Fatalf("question with no revision signal or bound target should be pure Q&A")
	}
}

func TestDetectDualConditionMatch(t *testing.T) {
	r := detour.Detect("Actually, change the date to 2026-08-14", nil, detection.Result{}, "")
	if !r.IsChangeRequest || r.Target != detour.TargetDate {
		t.Fatalf("expected date change request, got %+v", r)
	}
	if r.NormalizedDate != "2026-08-14" {
		t.Fatalf("expected ISO date extracted, got %q", r.NormalizedDate)
	}
}

func TestDetectRoomChange(t *testing.T) {
	r := detour.Detect("Instead, switch us to the Garden Room please", nil, detection.Result{}, "")
	if !r.IsChangeRequest || r.Target != detour.TargetRoom {
		t.Fatalf("expected room change request, got %+v", r)
	}
}

func TestDetectAcceptanceSkipsChangeDetection(t *testing.T) {
	det := detection.Result{IsAcceptance: true, Confidence: 0.9}
	r := detour.Detect("Actually change the date to 2026-08-14, sounds perfect", nil, det, "")
	if r.IsChangeRequest {
		t.Fatalf("high-confidence acceptance must skip change detection entirely")
	}
}

func TestDetectSiteVisitSpecialRule(t *testing.T) {
	ev := &domain.Event{SiteVisitState: domain.SiteVisitState{Status: domain.SiteVisitProposed}}
	r := detour.Detect("Actually, change it to May 14, 2026 instead", ev, detection.Result{}, "")
	if !r.IsChangeRequest || r.Target != detour.TargetSiteVisit {
		t.Fatalf("expected site-visit date preference while a visit is proposed, got %+v", r)
	}
}

func TestNormalizeISODate(t *testing.T) {
	iso, ok := detour.NormalizeISODate("2026-08-14")
	if !ok || iso != "2026-08-14" {
		t.Fatalf("expected passthrough for already-ISO date, got %q ok=%v", iso, ok)
	}
}
