package domain

import (
	"errors"
	"testing"
	"time"

	reserrors "reservatec/internal/reservations/errors"
	"reservatec/pkg/model"
)

var (
	testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	lab1 = model.Space{Name: "Lab1", Type: model.SpaceLaboratory, Capacity: 30, AcademicUnit: "Engineering"}

	faculty = model.Requester{
		ID:           "f1",
		Name:         "Ana Profesora",
		Role:         model.RoleFaculty,
		AcademicUnit: "Engineering",
		Faculty:      &model.FacultyProfile{Department: "Systems"},
	}
	student = model.Requester{ID: "s1", Name: "Luis", Role: model.RoleStudent, AcademicUnit: "Engineering"}
	manager = responsible("r1", "Engineering", "Lab1")
)

func newPending(t *testing.T) *Reservation {
	t.Helper()
	return NewReservation("res-1", faculty, lab1, mustSlot(t, "2025-03-10", "10:00", "11:00"), model.CategoryClass, "  Redes   I ", testNow)
}

func TestNewReservation(t *testing.T) {
	r := newPending(t)

	if r.State() != model.StatePending {
		t.Errorf("State() = %s, want pending", r.State())
	}
	if r.Description() != "Redes I" {
		t.Errorf("Description() = %q, want normalized text", r.Description())
	}
	if !r.UpdatedAt().IsZero() {
		t.Error("UpdatedAt must be zero before the first transition")
	}
	if _, ok := r.Approver(); ok {
		t.Error("new reservation has no approver")
	}
}

func TestReservation_Approve(t *testing.T) {
	r := newPending(t)
	later := testNow.Add(time.Hour)

	if err := r.Approve(manager, later); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if r.State() != model.StateApproved {
		t.Errorf("State() = %s, want approved", r.State())
	}
	approver, ok := r.Approver()
	if !ok || approver.ID != "r1" {
		t.Errorf("Approver() = %+v, %v", approver, ok)
	}
	if !r.UpdatedAt().Equal(later) {
		t.Errorf("UpdatedAt() = %v, want %v", r.UpdatedAt(), later)
	}

	err := r.Approve(manager, later)
	var terr *reserrors.TransitionError
	if !errors.As(err, &terr) || terr.From != "approved" || terr.Op != OpApprove {
		t.Errorf("retrying approve should fail with TransitionError, got %v", err)
	}
}

func TestReservation_GuardFailureLeavesStateUntouched(t *testing.T) {
	r := newPending(t)
	outsider := responsible("r2", "Engineering", "Lab2")

	if err := r.Approve(outsider, testNow); !errors.Is(err, reserrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := r.Reject(outsider, "no", testNow); !errors.Is(err, reserrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := r.Cancel(student, testNow); !errors.Is(err, reserrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if r.State() != model.StatePending || !r.UpdatedAt().IsZero() {
		t.Errorf("failed transitions must not mutate, state=%s updated=%v", r.State(), r.UpdatedAt())
	}
	if _, ok := r.Approver(); ok {
		t.Error("approver must stay unset")
	}
}

func TestReservation_Reject(t *testing.T) {
	r := newPending(t)

	if err := r.Reject(manager, " Mantenimiento  programado ", testNow); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	reason, ok := r.RejectionReason()
	if !ok || reason != "Mantenimiento programado" {
		t.Errorf("RejectionReason() = %q, %v", reason, ok)
	}
	if r.State() != model.StateRejected {
		t.Errorf("State() = %s, want rejected", r.State())
	}
}

func TestReservation_Cancel(t *testing.T) {
	t.Run("owner cancels pending", func(t *testing.T) {
		r := newPending(t)
		if err := r.Cancel(faculty, testNow); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if r.State() != model.StateCancelled {
			t.Errorf("State() = %s", r.State())
		}
	})

	t.Run("area responsible cancels approved", func(t *testing.T) {
		r := newPending(t)
		_ = r.Approve(manager, testNow)
		other := responsible("r9", "Medicine")
		if err := r.Cancel(other, testNow); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
	})

	t.Run("system cancel skips guard", func(t *testing.T) {
		r := newPending(t)
		if err := r.CancelBySystem(testNow); err != nil {
			t.Fatalf("CancelBySystem() error = %v", err)
		}
		if err := r.CancelBySystem(testNow); !errors.Is(err, reserrors.ErrInvalidTransition) {
			t.Errorf("second system cancel should fail, got %v", err)
		}
	})
}

func TestReservation_CompleteRequiresApproved(t *testing.T) {
	r := newPending(t)
	if err := r.Complete(testNow); !errors.Is(err, reserrors.ErrInvalidTransition) {
		t.Fatalf("completing pending should fail, got %v", err)
	}

	_ = r.Approve(manager, testNow)
	if err := r.Complete(testNow); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if r.State() != model.StateCompleted {
		t.Errorf("State() = %s", r.State())
	}
}

func terminal(t *testing.T, state model.State) *Reservation {
	r := newPending(t)
	switch state {
	case model.StateRejected:
		_ = r.Reject(manager, "x", testNow)
	case model.StateCancelled:
		_ = r.Cancel(faculty, testNow)
	case model.StateCompleted:
		_ = r.Approve(manager, testNow)
		_ = r.Complete(testNow)
	}
	if r.State() != state {
		t.Fatalf("setup reached %s, want %s", r.State(), state)
	}
	return r
}

func TestReservation_TerminalStatesRejectEveryTransition(t *testing.T) {
	for _, state := range []model.State{model.StateRejected, model.StateCancelled, model.StateCompleted} {
		t.Run(string(state), func(t *testing.T) {
			ops := map[string]func(r *Reservation) error{
				OpApprove:  func(r *Reservation) error { return r.Approve(manager, testNow) },
				OpReject:   func(r *Reservation) error { return r.Reject(manager, "late", testNow) },
				OpCancel:   func(r *Reservation) error { return r.Cancel(faculty, testNow) },
				OpComplete: func(r *Reservation) error { return r.Complete(testNow) },
				"system":   func(r *Reservation) error { return r.CancelBySystem(testNow) },
			}
			for name, op := range ops {
				r := terminal(t, state)
				before := r.Snapshot()
				if err := op(r); !errors.Is(err, reserrors.ErrInvalidTransition) {
					t.Errorf("%s from %s: expected ErrInvalidTransition, got %v", name, state, err)
				}
				if r.State() != before.State() || !r.UpdatedAt().Equal(before.UpdatedAt()) {
					t.Errorf("%s from %s mutated the reservation", name, state)
				}
			}
		})
	}
}

func TestReservation_StateCheckPrecedesGuard(t *testing.T) {
	r := terminal(t, model.StateCancelled)

	// student is neither owner nor responsible, but the state error wins
	if err := r.Cancel(student, testNow); !errors.Is(err, reserrors.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReservation_Ended(t *testing.T) {
	r := newPending(t)

	if r.Ended(time.Date(2025, 3, 10, 10, 59, 0, 0, time.UTC), time.UTC) {
		t.Error("slot has not ended at 10:59")
	}
	if !r.Ended(time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC), time.UTC) {
		t.Error("slot has ended at 11:00")
	}
}

type stubResolver struct {
	spaces     map[string]model.Space
	requesters map[string]model.Requester
}

func (s stubResolver) Space(name string) (model.Space, bool) {
	sp, ok := s.spaces[name]
	return sp, ok
}

func (s stubResolver) Requester(id string) (model.Requester, bool) {
	rq, ok := s.requesters[id]
	return rq, ok
}

func TestFromRecord_RestoresLifecycleState(t *testing.T) {
	r := newPending(t)
	_ = r.Reject(manager, "Cupo lleno", testNow.Add(time.Minute))
	rec := r.Record()

	if rec.UpdatedAt == "" || rec.Approver == nil || rec.Approver.ID != "r1" {
		t.Fatalf("record missing transition data: %+v", rec)
	}

	resolver := stubResolver{
		spaces:     map[string]model.Space{"Lab1": lab1},
		requesters: map[string]model.Requester{"f1": faculty, "r1": manager},
	}
	restored, err := FromRecord(rec, resolver)
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}

	if restored.State() != model.StateRejected {
		t.Errorf("State() = %s", restored.State())
	}
	if restored.Space().AcademicUnit != "Engineering" {
		t.Error("space should be resolved from the catalog")
	}
	if restored.Requester().Faculty == nil {
		t.Error("requester profile should come from the catalog")
	}
	if reason, _ := restored.RejectionReason(); reason != "Cupo lleno" {
		t.Errorf("RejectionReason() = %q", reason)
	}
}

func TestFromRecord_WithoutCatalog(t *testing.T) {
	r := newPending(t)
	_ = r.Approve(manager, testNow)

	restored, err := FromRecord(r.Record(), nil)
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	approver, ok := restored.Approver()
	if !ok || !CanApprove(approver, model.Space{Name: "Lab1"}) {
		t.Errorf("approver should keep its authorized areas, got %+v", approver)
	}
}

func TestFromRecord_Invalid(t *testing.T) {
	good := newPending(t).Record()

	tests := []struct {
		name   string
		mutate func(*model.ReservationRecord)
	}{
		{"missing id", func(r *model.ReservationRecord) { r.ID = "" }},
		{"bad slot", func(r *model.ReservationRecord) { r.Slot.End = "09:00" }},
		{"bad category", func(r *model.ReservationRecord) { r.EventCategory = "party" }},
		{"bad state", func(r *model.ReservationRecord) { r.State = "archived" }},
		{"bad created_at", func(r *model.ReservationRecord) { r.CreatedAt = "yesterday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := good
			tt.mutate(&rec)
			if _, err := FromRecord(rec, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDetectConflict(t *testing.T) {
	active := newPending(t)
	cancelled := NewReservation("res-2", faculty, lab1, mustSlot(t, "2025-03-10", "11:00", "12:00"), model.CategoryClass, "", testNow)
	_ = cancelled.Cancel(faculty, testNow)

	existing := []*Reservation{active, cancelled}

	if got, ok := DetectConflict(existing, mustSlot(t, "2025-03-10", "10:30", "11:30")); !ok || got.ID() != "res-1" {
		t.Errorf("expected conflict with res-1, got %v %v", got, ok)
	}
	if _, ok := DetectConflict(existing, mustSlot(t, "2025-03-10", "11:00", "12:00")); ok {
		t.Error("cancelled reservations must not conflict")
	}
}
