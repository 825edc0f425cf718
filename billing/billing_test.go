package billing_test

import (
	"testing"
	"time"

	"github.com/venuehost/orchestrator/billing"
	"github.com/venuehost/orchestrator/catalog"
)

func TestBuildLineItemsPerPersonScalesByParticipants(t *testing.T) {
	products := []catalog.Product{{ID: "catering", Name: "Catering", Unit: "per person", UnitPrice: 40}}
	items := billing.BuildLineItems(products, []string{"catering"}, 100)
	if len(items) != 1 || items[0].Total != 4000 {
		t.Fatalf("expected per-person total 4000, got %+v", items)
	}
}

func TestBuildLineItemsPerEventIgnoresParticipants(t *testing.T) {
	products := []catalog.Product{{ID: "dj", Name: "DJ", Unit: "per event", UnitPrice: 500}}
	items := billing.BuildLineItems(products, []string{"dj"}, 300)
	if len(items) != 1 || items[0].Total != 500 {
		t.Fatalf("expected flat per-event total, got %+v", items)
	}
}

func TestDueDateFloorsAtTomorrow(t *testing.T) {
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	due := billing.DueDate("2026-08-03", 30, today)
	if due != "2026-08-02" {
		t.Fatalf("expected floor at today+1, got %q", due)
	}
}

func TestDueDateUsesDeadlineWhenFarEnoughOut(t *testing.T) {
	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := billing.DueDate("2026-08-14", 30, today)
	if due != "2026-07-15" {
		t.Fatalf("expected event_date - deadline_days, got %q", due)
	}
}

func TestComputeOfferAppendsDepositLine(t *testing.T) {
	policy := catalog.DepositPolicy{Required: true, Percentage: 0.2, DeadlineDays: 14}
	offer := billing.ComputeOffer(1000, nil, policy, "2026-08-14", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if offer.DepositLine == nil || offer.DepositDue != 200 {
		t.Fatalf("expected 20%% deposit of 1000, got %+v", offer)
	}
}
