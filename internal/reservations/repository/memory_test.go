package repository

import (
	"context"
	"testing"

	"reservatec/pkg/model"
)

func record(id, date, start string) model.ReservationRecord {
	return model.ReservationRecord{
		ID:    id,
		Space: model.SpaceRecord{Name: "Lab1", Type: "laboratory", Capacity: 20},
		Slot:  model.SlotRecord{Date: date, Start: start, End: "23:00"},
		State: string(model.StatePending),
	}
}

func TestMemoryStore_SaveAndLoadAllSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReservationStore(record("c", "2025-03-11", "08:00"))

	if err := store.Save(ctx, record("b", "2025-03-10", "10:00")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.SaveMany(ctx, []model.ReservationRecord{
		record("a", "2025-03-10", "09:00"),
		record("d", "2025-03-10", "09:00"),
	}); err != nil {
		t.Fatalf("SaveMany() error = %v", err)
	}

	recs, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	want := []string{"a", "d", "b", "c"}
	if len(recs) != len(want) {
		t.Fatalf("LoadAll() returned %d records, want %d", len(recs), len(want))
	}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("recs[%d].ID = %s, want %s", i, recs[i].ID, id)
		}
	}
}

func TestMemoryStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReservationStore()

	rec := record("a", "2025-03-10", "09:00")
	_ = store.Save(ctx, rec)
	rec.State = string(model.StateApproved)
	_ = store.Save(ctx, rec)

	recs, _ := store.LoadAll(ctx)
	if len(recs) != 1 || recs[0].State != "approved" {
		t.Errorf("expected one approved record, got %+v", recs)
	}
}

func TestMemoryStore_RecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReservationStore()

	reason := "full"
	rec := record("a", "2025-03-10", "09:00")
	rec.RejectionReason = &reason
	rec.Approver = &model.ApproverRecord{ID: "r1", AuthorizedAreas: []string{"Lab1"}}
	_ = store.Save(ctx, rec)

	reason = "changed"
	rec.Approver.AuthorizedAreas[0] = "Lab2"

	recs, _ := store.LoadAll(ctx)
	if *recs[0].RejectionReason != "full" {
		t.Errorf("stored reason changed to %q", *recs[0].RejectionReason)
	}
	if recs[0].Approver.AuthorizedAreas[0] != "Lab1" {
		t.Errorf("stored areas changed to %v", recs[0].Approver.AuthorizedAreas)
	}
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReservationStore(record("a", "2025-03-10", "09:00"))

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	recs, _ := store.LoadAll(ctx)
	if len(recs) != 0 {
		t.Errorf("expected empty store, got %d", len(recs))
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryReservationStore()

	if err := store.Save(ctx, record("a", "2025-03-10", "09:00")); err == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := store.LoadAll(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
