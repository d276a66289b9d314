package domain

import (
	"fmt"
	"time"

	reserrors "reservatec/internal/reservations/errors"
	"reservatec/pkg/model"
	"reservatec/pkg/sanitizer"
)

const (
	OpApprove  = "approve"
	OpReject   = "reject"
	OpCancel   = "cancel"
	OpComplete = "complete"
)

// Reservation is the mutable lifecycle entity. It is not safe for concurrent
// use; the registry serializes access.
type Reservation struct {
	id              string
	requester       model.Requester
	space           model.Space
	slot            TimeSlot
	category        model.EventCategory
	description     string
	state           model.State
	approver        *model.Requester
	rejectionReason *string
	createdAt       time.Time
	updatedAt       time.Time
}

func NewReservation(id string, requester model.Requester, space model.Space, slot TimeSlot, category model.EventCategory, description string, now time.Time) *Reservation {
	return &Reservation{
		id:          id,
		requester:   requester,
		space:       space,
		slot:        slot,
		category:    category,
		description: sanitizer.NormalizeDescription(description),
		state:       model.StatePending,
		createdAt:   now.UTC(),
	}
}

func (r *Reservation) ID() string                         { return r.id }
func (r *Reservation) Requester() model.Requester         { return r.requester }
func (r *Reservation) Space() model.Space                 { return r.space }
func (r *Reservation) Slot() TimeSlot                     { return r.slot }
func (r *Reservation) EventCategory() model.EventCategory { return r.category }
func (r *Reservation) Description() string                { return r.description }
func (r *Reservation) State() model.State                 { return r.state }
func (r *Reservation) CreatedAt() time.Time               { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time               { return r.updatedAt }

func (r *Reservation) Approver() (model.Requester, bool) {
	if r.approver == nil {
		return model.Requester{}, false
	}
	return *r.approver, true
}

func (r *Reservation) RejectionReason() (string, bool) {
	if r.rejectionReason == nil {
		return "", false
	}
	return *r.rejectionReason, true
}

func (r *Reservation) IsActive() bool {
	return r.state.Active()
}

// Snapshot returns an independent copy callers may keep.
func (r *Reservation) Snapshot() Reservation {
	cp := *r
	if r.approver != nil {
		approver := *r.approver
		cp.approver = &approver
	}
	if r.rejectionReason != nil {
		reason := *r.rejectionReason
		cp.rejectionReason = &reason
	}
	return cp
}

func (r *Reservation) transitionError(op string) error {
	return &reserrors.TransitionError{ID: r.id, From: string(r.state), Op: op}
}

func (r *Reservation) Approve(responsible model.Requester, now time.Time) error {
	if r.state != model.StatePending {
		return r.transitionError(OpApprove)
	}
	if !CanApprove(responsible, r.space) {
		return reserrors.Unauthorized("%s may not approve reservations for %s", responsible.ID, r.space.Name)
	}
	r.state = model.StateApproved
	r.approver = &responsible
	r.updatedAt = now.UTC()
	return nil
}

func (r *Reservation) Reject(responsible model.Requester, reason string, now time.Time) error {
	if r.state != model.StatePending {
		return r.transitionError(OpReject)
	}
	if !CanApprove(responsible, r.space) {
		return reserrors.Unauthorized("%s may not reject reservations for %s", responsible.ID, r.space.Name)
	}
	reason = sanitizer.NormalizeReason(reason)
	r.state = model.StateRejected
	r.approver = &responsible
	r.rejectionReason = &reason
	r.updatedAt = now.UTC()
	return nil
}

// Cancel is allowed for the owner and for any area_responsible.
func (r *Reservation) Cancel(caller model.Requester, now time.Time) error {
	if !r.state.Active() {
		return r.transitionError(OpCancel)
	}
	if !CanCancel(caller, r.requester) {
		return reserrors.Unauthorized("%s may not cancel reservation %s", caller.ID, r.id)
	}
	r.cancel(now)
	return nil
}

// CancelBySystem skips the caller guard. Used when a space or requester is removed.
func (r *Reservation) CancelBySystem(now time.Time) error {
	if !r.state.Active() {
		return r.transitionError(OpCancel)
	}
	r.cancel(now)
	return nil
}

func (r *Reservation) cancel(now time.Time) {
	r.state = model.StateCancelled
	r.updatedAt = now.UTC()
}

func (r *Reservation) Complete(now time.Time) error {
	if r.state != model.StateApproved {
		return r.transitionError(OpComplete)
	}
	r.state = model.StateCompleted
	r.updatedAt = now.UTC()
	return nil
}

// Ended reports whether the slot is over at now, reading slot times in loc.
func (r *Reservation) Ended(now time.Time, loc *time.Location) bool {
	return !now.Before(r.slot.EndsAt(loc))
}

func (r *Reservation) Record() model.ReservationRecord {
	rec := model.ReservationRecord{
		ID: r.id,
		Requester: model.RequesterRecord{
			ID:           r.requester.ID,
			Name:         r.requester.Name,
			Role:         string(r.requester.Role),
			AcademicUnit: r.requester.AcademicUnit,
		},
		Space: model.SpaceRecord{
			Name:     r.space.Name,
			Type:     string(r.space.Type),
			Capacity: r.space.Capacity,
		},
		Slot:          r.slot.Record(),
		EventCategory: string(r.category),
		Description:   r.description,
		State:         string(r.state),
		CreatedAt:     r.createdAt.Format(time.RFC3339),
	}
	if !r.updatedAt.IsZero() {
		rec.UpdatedAt = r.updatedAt.Format(time.RFC3339)
	}
	if r.approver != nil {
		areas := append([]string{}, r.approver.AuthorizedSpaces()...)
		rec.Approver = &model.ApproverRecord{
			ID:              r.approver.ID,
			Name:            r.approver.Name,
			AcademicUnit:    r.approver.AcademicUnit,
			AuthorizedAreas: areas,
		}
	}
	if r.rejectionReason != nil {
		reason := *r.rejectionReason
		rec.RejectionReason = &reason
	}
	return rec
}

// Resolver looks up catalog entries by key. Implemented by the catalog.
type Resolver interface {
	Space(name string) (model.Space, bool)
	Requester(id string) (model.Requester, bool)
}

// FromRecord rebuilds a reservation from its persisted shape. Catalog entries
// found through resolve take precedence over the denormalized record fields.
func FromRecord(rec model.ReservationRecord, resolve Resolver) (*Reservation, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("record has no id")
	}

	slot, err := SlotFromRecord(rec.Slot)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}

	category, err := ParseEventCategory(rec.EventCategory)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}

	state := model.State(rec.State)
	if !state.Active() && !state.Terminal() {
		return nil, fmt.Errorf("record %s: unknown state %q", rec.ID, rec.State)
	}

	createdAt, err := time.Parse(time.RFC3339, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record %s: created_at: %w", rec.ID, err)
	}

	var updatedAt time.Time
	if rec.UpdatedAt != "" {
		if updatedAt, err = time.Parse(time.RFC3339, rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("record %s: updated_at: %w", rec.ID, err)
		}
	}

	r := &Reservation{
		id:          rec.ID,
		requester:   requesterFromRecord(rec.Requester, resolve),
		space:       spaceFromRecord(rec.Space, resolve),
		slot:        slot,
		category:    category,
		description: rec.Description,
		state:       state,
		createdAt:   createdAt.UTC(),
	}
	if !updatedAt.IsZero() {
		r.updatedAt = updatedAt.UTC()
	}

	if rec.Approver != nil {
		approver := approverFromRecord(*rec.Approver, resolve)
		r.approver = &approver
	}
	if rec.RejectionReason != nil {
		reason := *rec.RejectionReason
		r.rejectionReason = &reason
	}
	return r, nil
}

func requesterFromRecord(rec model.RequesterRecord, resolve Resolver) model.Requester {
	if resolve != nil {
		if found, ok := resolve.Requester(rec.ID); ok {
			return found
		}
	}
	return model.Requester{
		ID:           rec.ID,
		Name:         rec.Name,
		Role:         model.Role(rec.Role),
		AcademicUnit: rec.AcademicUnit,
	}
}

func spaceFromRecord(rec model.SpaceRecord, resolve Resolver) model.Space {
	if resolve != nil {
		if found, ok := resolve.Space(rec.Name); ok {
			return found
		}
	}
	return model.Space{
		Name:     rec.Name,
		Type:     model.SpaceType(rec.Type),
		Capacity: rec.Capacity,
	}
}

func approverFromRecord(rec model.ApproverRecord, resolve Resolver) model.Requester {
	if resolve != nil && rec.ID != "" {
		if found, ok := resolve.Requester(rec.ID); ok {
			return found
		}
	}
	return model.Requester{
		ID:           rec.ID,
		Name:         rec.Name,
		Role:         model.RoleAreaResponsible,
		AcademicUnit: rec.AcademicUnit,
		AreaResponsible: &model.AreaResponsibleProfile{
			AuthorizedSpaces: append([]string{}, rec.AuthorizedAreas...),
		},
	}
}
