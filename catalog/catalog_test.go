package catalog_test

import (
	"testing"
	"time"

	"github.com/venuehost/orchestrator/catalog"
)

func TestStorePutThenGetRoundTrips(t *testing.T) {
	s := catalog.NewStore()
	s.Put(&catalog.Tenant{TenantID: "acme", Rooms: []catalog.Room{{ID: "r1", CapacityMax: 80}}})

	got, err := s.Get("acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TenantID != "acme" {
		t.Fatalf("expected tenant acme, got %s", got.TenantID)
	}
}

func TestStoreGetUnknownTenant(t *testing.T) {
	s := catalog.NewStore()
	if _, err := s.Get("nope"); err == nil {
		t.Fatal("expected error for unknown tenant")
	}
}

func TestLargestRoomCapacity(t *testing.T) {
	tn := &catalog.Tenant{Rooms: []catalog.Room{
		{ID: "r1", CapacityMax: 40},
		{ID: "r2", CapacityMax: 120},
		{ID: "r3", CapacityMax: 75},
	}}
	if got := tn.LargestRoomCapacity(); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}
}

func TestRoomByID(t *testing.T) {
	tn := &catalog.Tenant{Rooms: []catalog.Room{{ID: "r1", Name: "Garden Room"}}}
	r, ok := tn.RoomByID("r1")
	if !ok || r.Name != "Garden Room" {
		t.Fatalf("expected to find r1, got %+v ok=%v", r, ok)
	}
	if _, ok := tn.RoomByID("missing"); ok {
		t.Fatal("expected not found for missing room")
	}
}

func TestProductsForDateAndRoomFiltersByAvailability(t *testing.T) {
	tn := &catalog.Tenant{Products: []catalog.Product{
		{ID: "p1", AvailableDates: []string{"2026-06-01"}, AvailableRooms: []string{"r1"}},
		{ID: "p2"},
		{ID: "p3", AvailableDates: []string{"2026-01-01"}},
	}}

	got := tn.ProductsForDateAndRoom("2026-06-01", "r1")
	if len(got) != 2 {
		t.Fatalf("expected 2 matching products, got %d: %+v", len(got), got)
	}
}

func TestSaveAndRevertPrompts(t *testing.T) {
	tn := &catalog.Tenant{Prompts: catalog.Prompts{Greeting: "v1"}}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tn.SaveCurrentPrompts(t0)
	tn.Prompts = catalog.Prompts{Greeting: "v2"}

	if len(tn.PromptHistory) != 1 || tn.PromptHistory[0].Prompts.Greeting != "v1" {
		t.Fatalf("expected v1 archived, got %+v", tn.PromptHistory)
	}

	if !tn.RevertPrompts(0, t0.Add(time.Hour)) {
		t.Fatal("expected revert to succeed")
	}
	if tn.Prompts.Greeting != "v1" {
		t.Fatalf("expected reverted prompt v1, got %s", tn.Prompts.Greeting)
	}
	// the revert itself archived v2, so history now has 2 entries
	if len(tn.PromptHistory) != 2 {
		t.Fatalf("expected revert to archive current prompts too, got %d entries", len(tn.PromptHistory))
	}
}

func TestRevertPromptsOutOfRangeFails(t *testing.T) {
	tn := &catalog.Tenant{}
	if tn.RevertPrompts(0, time.Now()) {
		t.Fatal("expected revert with empty history to fail")
	}
}
