package audit

import (
	"context"
	"testing"

	"github.com/alnoor-clinic/platform/internal/shared/events"
)

func appendEntry(t *testing.T, store *MemoryStore, action, resourceID string) {
	t.Helper()
	err := store.Append(context.Background(), &Entry{
		Action:       action,
		Actor:        "reception",
		ResourceType: "appointment",
		ResourceID:   resourceID,
		Details:      map[string]any{"appointment_id": resourceID},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestChainLinks(t *testing.T) {
	store := NewMemoryStore()
	appendEntry(t, store, "appointment.booked", "1")
	appendEntry(t, store, "appointment.status_changed", "1")
	appendEntry(t, store, "appointment.cancelled", "1")

	entries, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if entries[0].PrevHash != "" {
		t.Errorf("first entry prev_hash = %q, want empty", entries[0].PrevHash)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].PrevHash != entries[i-1].Hash {
			t.Errorf("entry %d prev_hash does not link to entry %d", i, i-1)
		}
	}

	if err := VerifyChain(entries); err != nil {
		t.Errorf("VerifyChain: %v", err)
	}
}

func TestVerifyChainEmpty(t *testing.T) {
	if err := VerifyChain(nil); err != nil {
		t.Errorf("empty chain should verify: %v", err)
	}
}

func TestVerifyChainDetectsTamperedContent(t *testing.T) {
	store := NewMemoryStore()
	appendEntry(t, store, "appointment.booked", "1")
	appendEntry(t, store, "appointment.cancelled", "1")

	entries, _ := store.All(context.Background())
	entries[0].Actor = "someone-else"

	if err := VerifyChain(entries); err == nil {
		t.Error("expected verification to fail after content edit")
	}
}

func TestVerifyChainDetectsRelinkedHash(t *testing.T) {
	store := NewMemoryStore()
	appendEntry(t, store, "appointment.booked", "1")
	appendEntry(t, store, "appointment.cancelled", "1")

	entries, _ := store.All(context.Background())

	// Rewriting an entry and its own hash still breaks the next link
	entries[0].Actor = "someone-else"
	entries[0].Hash = entries[0].ComputeHash()

	if err := VerifyChain(entries); err == nil {
		t.Error("expected verification to fail on the broken link")
	}
}

func TestVerifyChainDetectsRemovedEntry(t *testing.T) {
	store := NewMemoryStore()
	appendEntry(t, store, "appointment.booked", "1")
	appendEntry(t, store, "appointment.status_changed", "1")
	appendEntry(t, store, "appointment.cancelled", "1")

	entries, _ := store.All(context.Background())
	truncated := append([]Entry{entries[0]}, entries[2])

	if err := VerifyChain(truncated); err == nil {
		t.Error("expected verification to fail with an entry removed")
	}
}

func TestRecorder(t *testing.T) {
	store := NewMemoryStore()
	bus := events.NewMemoryBus()
	recorder := NewRecorder(store)
	ctx := context.Background()

	if err := recorder.Start(ctx, bus); err != nil {
		t.Fatalf("Start: %v", err)
	}

	event := events.NewEvent("appointment.booked", "appointment", map[string]any{
		"appointment_id": int64(7),
		"doctor_id":      int64(2),
	}).WithActor("reception")
	if err := bus.Publish(ctx, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Unaudited event families are ignored
	bus.Publish(ctx, events.NewEvent("system.started", "system", nil))

	entries, _ := store.All(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Action != "appointment.booked" {
		t.Errorf("action = %s", e.Action)
	}
	if e.Actor != "reception" {
		t.Errorf("actor = %s", e.Actor)
	}
	if e.ResourceType != "appointment" || e.ResourceID != "7" {
		t.Errorf("resource = %s/%s, want appointment/7", e.ResourceType, e.ResourceID)
	}
	if err := VerifyChain(entries); err != nil {
		t.Errorf("VerifyChain: %v", err)
	}
}

func TestRecorderDefaultsActor(t *testing.T) {
	store := NewMemoryStore()
	recorder := NewRecorder(store)
	ctx := context.Background()

	event := events.NewEvent("expense.recurring_generated", "expense", map[string]any{
		"expense_id": int64(3),
		"generated":  2,
	})
	if err := recorder.Record(ctx, event); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, _ := store.All(ctx)
	if entries[0].Actor != "system" {
		t.Errorf("actor = %s, want system", entries[0].Actor)
	}
}
