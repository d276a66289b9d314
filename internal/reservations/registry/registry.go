package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"reservatec/internal/reservations/domain"
	reserrors "reservatec/internal/reservations/errors"
	"reservatec/pkg/logger"
	"reservatec/pkg/model"

	"github.com/google/uuid"
)

const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpLoad   = "load"
)

// Store persists reservation records. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, rec model.ReservationRecord) error
	SaveMany(ctx context.Context, recs []model.ReservationRecord) error
	Delete(ctx context.Context, id string) error
}

type entry struct {
	mu      sync.Mutex
	res     *domain.Reservation
	removed bool
}

// bucket holds the reservations of one space indexed by slot date. A closed
// bucket belongs to a removed space and accepts no new reservations.
type bucket struct {
	mu     sync.RWMutex
	byDate map[string][]*entry
	closed bool
}

// Registry is the in-memory reservation index.
//
// Locks are taken in the order entry -> bucket -> registry. The registry lock
// only guards byID, spaces and removedRequesters and is never held while
// waiting on another lock.
type Registry struct {
	mu                sync.RWMutex
	byID              map[string]*entry
	spaces            map[string]*bucket
	removedRequesters map[string]struct{}

	store Store
	clock domain.Clock
	newID func() string
	log   *logger.Logger
}

func New(store Store, clock domain.Clock, log *logger.Logger) *Registry {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		byID:              make(map[string]*entry),
		spaces:            make(map[string]*bucket),
		removedRequesters: make(map[string]struct{}),
		store:             store,
		clock:             clock,
		newID:             uuid.NewString,
		log:               log.Component("registry"),
	}
}

func (r *Registry) bucketFor(space string, create bool) *bucket {
	r.mu.RLock()
	b, ok := r.spaces[space]
	r.mu.RUnlock()
	if ok || !create {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.spaces[space]; !ok {
		b = &bucket{byDate: make(map[string][]*entry)}
		r.spaces[space] = b
	}
	return b
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, reserrors.NewNotFound("reservation", id)
	}
	return e, nil
}

// Add validates and books a new pending reservation. On a store failure the
// reservation stays booked and a *PersistenceError is returned with it. Spaces
// and requesters removed through CancelActiveForSpace or
// CancelActiveForRequester are reported as not found.
func (r *Registry) Add(ctx context.Context, requester model.Requester, space model.Space, slot domain.TimeSlot, category, description string) (domain.Reservation, error) {
	cat, err := domain.ParseEventCategory(category)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !domain.CanRequest(requester.Role, cat) {
		return domain.Reservation{}, reserrors.Unauthorized("role %s may not request %s events", requester.Role, cat)
	}
	if slot.IsZero() {
		return domain.Reservation{}, reserrors.InvalidRange("empty slot")
	}

	e := &entry{res: domain.NewReservation(r.newID(), requester, space, slot, cat, description, r.clock.Now())}
	e.mu.Lock()
	defer e.mu.Unlock()

	b := r.bucketFor(space.Name, true)
	day := slot.DateString()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return domain.Reservation{}, reserrors.NewNotFound("space", space.Name)
	}
	if existing, ok := domain.DetectConflict(resOf(b.byDate[day]), slot); ok {
		b.mu.Unlock()
		return domain.Reservation{}, &reserrors.ConflictError{SpaceName: space.Name, ConflictingID: existing.ID()}
	}

	r.mu.Lock()
	if _, gone := r.removedRequesters[requester.ID]; gone {
		r.mu.Unlock()
		b.mu.Unlock()
		return domain.Reservation{}, reserrors.NewNotFound("requester", requester.ID)
	}
	r.byID[e.res.ID()] = e
	r.mu.Unlock()

	b.byDate[day] = append(b.byDate[day], e)
	snap := e.res.Snapshot()
	b.mu.Unlock()

	return snap, r.persist(ctx, OpAdd, snap)
}

func resOf(entries []*entry) []*domain.Reservation {
	out := make([]*domain.Reservation, len(entries))
	for i, e := range entries {
		out[i] = e.res
	}
	return out
}

func (r *Registry) persist(ctx context.Context, op string, snap domain.Reservation) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(ctx, snap.Record()); err != nil {
		return &reserrors.PersistenceError{Op: op, ID: snap.ID(), Err: err}
	}
	return nil
}

// Remove drops a reservation from every index regardless of its state.
func (r *Registry) Remove(ctx context.Context, id string) (domain.Reservation, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Reservation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.Reservation{}, reserrors.NewNotFound("reservation", id)
	}

	b := r.bucketFor(e.res.Space().Name, false)
	day := e.res.Slot().DateString()

	b.mu.Lock()
	b.byDate[day] = slices.DeleteFunc(b.byDate[day], func(x *entry) bool { return x == e })
	if len(b.byDate[day]) == 0 {
		delete(b.byDate, day)
	}
	e.removed = true
	snap := e.res.Snapshot()
	b.mu.Unlock()

	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(ctx, id); err != nil {
			return snap, &reserrors.PersistenceError{Op: OpRemove, ID: id, Err: err}
		}
	}
	return snap, nil
}

func (r *Registry) snapshot(e *entry) domain.Reservation {
	b := r.bucketFor(e.res.Space().Name, false)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return e.res.Snapshot()
}

func (r *Registry) FindByID(id string) (domain.Reservation, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return r.snapshot(e), nil
}

// FindByRequester returns every reservation owned by the requester, in slot order.
func (r *Registry) FindByRequester(requesterID string) []domain.Reservation {
	r.mu.RLock()
	var owned []*entry
	for _, e := range r.byID {
		if e.res.Requester().ID == requesterID {
			owned = append(owned, e)
		}
	}
	r.mu.RUnlock()

	out := make([]domain.Reservation, 0, len(owned))
	for _, e := range owned {
		out = append(out, r.snapshot(e))
	}
	sortBySlot(out)
	return out
}

func (r *Registry) FindActiveBySpace(space string) []domain.Reservation {
	b := r.bucketFor(space, false)
	if b == nil {
		return []domain.Reservation{}
	}

	b.mu.RLock()
	out := make([]domain.Reservation, 0)
	for _, day := range b.byDate {
		for _, e := range day {
			if e.res.IsActive() {
				out = append(out, e.res.Snapshot())
			}
		}
	}
	b.mu.RUnlock()

	sortBySlot(out)
	return out
}

// FindBySpace returns reservations of a space in any state.
func (r *Registry) FindBySpace(space string) []domain.Reservation {
	b := r.bucketFor(space, false)
	if b == nil {
		return []domain.Reservation{}
	}

	b.mu.RLock()
	out := make([]domain.Reservation, 0)
	for _, day := range b.byDate {
		for _, e := range day {
			out = append(out, e.res.Snapshot())
		}
	}
	b.mu.RUnlock()

	sortBySlot(out)
	return out
}

func sortBySlot(rs []domain.Reservation) {
	slices.SortFunc(rs, func(a, b domain.Reservation) int {
		sa, sb := a.Slot(), b.Slot()
		return cmp.Or(
			sa.Date().Compare(sb.Date()),
			cmp.Compare(sa.Start(), sb.Start()),
			strings.Compare(a.ID(), b.ID()),
		)
	})
}

// Availability partitions the business day of date into blocks for space.
func (r *Registry) Availability(space string, date time.Time) []domain.Block {
	var occupied []domain.TimeSlot
	if b := r.bucketFor(space, false); b != nil {
		day := date.Format(domain.DateLayout)
		b.mu.RLock()
		for _, e := range b.byDate[day] {
			if e.res.IsActive() {
				occupied = append(occupied, e.res.Slot())
			}
		}
		b.mu.RUnlock()
	}
	return domain.Availability(date, occupied)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) Approve(ctx context.Context, id string, responsible model.Requester) (domain.Reservation, error) {
	return r.transition(ctx, id, domain.OpApprove, func(res *domain.Reservation, now time.Time) error {
		return res.Approve(responsible, now)
	})
}

func (r *Registry) Reject(ctx context.Context, id string, responsible model.Requester, reason string) (domain.Reservation, error) {
	return r.transition(ctx, id, domain.OpReject, func(res *domain.Reservation, now time.Time) error {
		return res.Reject(responsible, reason, now)
	})
}

func (r *Registry) Cancel(ctx context.Context, id string, caller model.Requester) (domain.Reservation, error) {
	return r.transition(ctx, id, domain.OpCancel, func(res *domain.Reservation, now time.Time) error {
		return res.Cancel(caller, now)
	})
}

func (r *Registry) Complete(ctx context.Context, id string) (domain.Reservation, error) {
	return r.transition(ctx, id, domain.OpComplete, func(res *domain.Reservation, now time.Time) error {
		return res.Complete(now)
	})
}

type transitionFunc func(res *domain.Reservation, now time.Time) error

func (r *Registry) transition(ctx context.Context, id, op string, apply transitionFunc) (domain.Reservation, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Reservation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.Reservation{}, reserrors.NewNotFound("reservation", id)
	}

	b := r.bucketFor(e.res.Space().Name, false)
	b.mu.Lock()
	err = apply(e.res, r.clock.Now())
	snap := e.res.Snapshot()
	b.mu.Unlock()

	if err != nil {
		return domain.Reservation{}, err
	}
	return snap, r.persist(ctx, op, snap)
}

// CancelActiveForSpace closes space to new reservations and cancels every
// pending or approved reservation it holds, without a caller guard.
func (r *Registry) CancelActiveForSpace(ctx context.Context, space string) ([]domain.Reservation, error) {
	b := r.bucketFor(space, true)

	b.mu.Lock()
	b.closed = true
	var active []*entry
	for _, day := range b.byDate {
		for _, e := range day {
			if e.res.IsActive() {
				active = append(active, e)
			}
		}
	}
	b.mu.Unlock()

	return r.bulk(ctx, domain.OpCancel, active, r.clock.Now(), (*domain.Reservation).CancelBySystem)
}

// CancelActiveForRequester bars the requester from new reservations and
// cancels every pending or approved reservation they own, without a caller
// guard.
func (r *Registry) CancelActiveForRequester(ctx context.Context, requesterID string) ([]domain.Reservation, error) {
	r.mu.Lock()
	r.removedRequesters[requesterID] = struct{}{}
	var owned []*entry
	for _, e := range r.byID {
		if e.res.Requester().ID == requesterID {
			owned = append(owned, e)
		}
	}
	r.mu.Unlock()

	return r.bulk(ctx, domain.OpCancel, r.filterEntries(owned, (*domain.Reservation).IsActive), r.clock.Now(), (*domain.Reservation).CancelBySystem)
}

// CompleteEnded completes approved reservations whose slot is over at now,
// reading slot times in loc.
func (r *Registry) CompleteEnded(ctx context.Context, now time.Time, loc *time.Location) ([]domain.Reservation, error) {
	return r.bulk(ctx, domain.OpComplete, r.selectEntries(func(res *domain.Reservation) bool {
		return res.State() == model.StateApproved && res.Ended(now, loc)
	}), now, (*domain.Reservation).Complete)
}

func (r *Registry) selectEntries(match func(*domain.Reservation) bool) []*entry {
	r.mu.RLock()
	all := make([]*entry, 0, len(r.byID))
	for _, e := range r.byID {
		all = append(all, e)
	}
	r.mu.RUnlock()

	return r.filterEntries(all, match)
}

// filterEntries keeps the entries whose reservation matches, reading each one
// under its bucket lock.
func (r *Registry) filterEntries(entries []*entry, match func(*domain.Reservation) bool) []*entry {
	var out []*entry
	for _, e := range entries {
		b := r.bucketFor(e.res.Space().Name, false)
		b.mu.RLock()
		ok := match(e.res)
		b.mu.RUnlock()
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// bulk applies fn to every entry and persists the changed records in one
// SaveMany call. Entries are locked in id order so two bulk calls cannot
// deadlock. Entries whose state moved on since selection are skipped.
func (r *Registry) bulk(ctx context.Context, op string, entries []*entry, now time.Time, fn func(*domain.Reservation, time.Time) error) ([]domain.Reservation, error) {
	slices.SortFunc(entries, func(a, b *entry) int { return strings.Compare(a.res.ID(), b.res.ID()) })
	for _, e := range entries {
		e.mu.Lock()
		defer e.mu.Unlock()
	}

	changed := make([]domain.Reservation, 0, len(entries))
	for _, e := range entries {
		if e.removed {
			continue
		}
		b := r.bucketFor(e.res.Space().Name, false)
		b.mu.Lock()
		err := fn(e.res, now)
		snap := e.res.Snapshot()
		b.mu.Unlock()

		if errors.Is(err, reserrors.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("%s reservation %s: %w", op, e.res.ID(), err)
		}
		changed = append(changed, snap)
	}

	if len(changed) == 0 || r.store == nil {
		return changed, nil
	}

	recs := make([]model.ReservationRecord, len(changed))
	ids := make([]string, len(changed))
	for i, snap := range changed {
		recs[i] = snap.Record()
		ids[i] = snap.ID()
	}
	if err := r.store.SaveMany(ctx, recs); err != nil {
		return changed, &reserrors.PersistenceError{Op: op, ID: strings.Join(ids, ","), Err: err}
	}
	return changed, nil
}

// Load indexes previously persisted records. Records that cannot be restored
// or repeat an id already indexed are skipped and reported in the returned error.
func (r *Registry) Load(records []model.ReservationRecord, resolve domain.Resolver) (int, error) {
	var errs []error
	loaded := 0

	for _, rec := range records {
		res, err := domain.FromRecord(rec, resolve)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		r.mu.RLock()
		_, dup := r.byID[res.ID()]
		r.mu.RUnlock()
		if dup {
			errs = append(errs, fmt.Errorf("record %s: duplicate id", res.ID()))
			continue
		}

		e := &entry{res: res}
		b := r.bucketFor(res.Space().Name, true)
		day := res.Slot().DateString()

		b.mu.Lock()
		if res.IsActive() {
			if existing, ok := domain.DetectConflict(resOf(b.byDate[day]), res.Slot()); ok {
				r.log.Warn("restored reservation overlaps an active one",
					"reservation_id", res.ID(),
					"conflicting_id", existing.ID(),
					"space", res.Space().Name,
				)
			}
		}
		b.byDate[day] = append(b.byDate[day], e)
		b.mu.Unlock()

		r.mu.Lock()
		r.byID[res.ID()] = e
		r.mu.Unlock()
		loaded++
	}

	if len(errs) > 0 {
		return loaded, fmt.Errorf("%s: %w", OpLoad, errors.Join(errs...))
	}
	return loaded, nil
}
