package service

import (
	"context"
	"errors"
	"fmt"

	"reservatec/internal/reservations/domain"
	reserrors "reservatec/internal/reservations/errors"
	"reservatec/internal/reservations/registry"
	"reservatec/internal/reservations/validator"
	"reservatec/pkg/config"
	apperrors "reservatec/pkg/errors"
	"reservatec/pkg/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "reservatec/reservations"

type ReservationService interface {
	Request(ctx context.Context, requesterID string, req *model.ReservationRequest) (*model.ReservationRecord, error)
	Get(ctx context.Context, id string) (*model.ReservationRecord, error)
	Approve(ctx context.Context, id, responsibleID string) (*model.ReservationRecord, error)
	Reject(ctx context.Context, id, responsibleID string, req *model.RejectRequest) (*model.ReservationRecord, error)
	Cancel(ctx context.Context, id, callerID string) (*model.ReservationRecord, error)
	Complete(ctx context.Context, id string) (*model.ReservationRecord, error)
	Remove(ctx context.Context, id, callerID string) error

	ActiveFor(ctx context.Context, requesterID string) ([]model.ReservationRecord, error)
	ListForRequester(ctx context.Context, requesterID string, activeOnly bool, limit int, offset int64) ([]model.ReservationRecord, int64, error)
	ListBySpace(ctx context.Context, spaceName string) ([]model.ReservationRecord, error)
	Availability(ctx context.Context, spaceName, date string) (*model.SpaceAvailability, error)
	ListSpaces(ctx context.Context, date string) ([]model.SpaceAvailability, error)

	RemoveSpace(ctx context.Context, spaceName, callerID string) (int, error)
	RemoveRequester(ctx context.Context, requesterID, callerID string) (int, error)
	CompleteEnded(ctx context.Context) (int, error)
	Restore(ctx context.Context, loader RecordLoader) (int, error)
}

// Catalog resolves spaces and requesters and supports administrative removal.
type Catalog interface {
	domain.Resolver
	Spaces() []model.Space
	RemoveSpace(name string) bool
	RemoveRequester(id string) bool
}

// RecordLoader supplies persisted records at startup.
type RecordLoader interface {
	LoadAll(ctx context.Context) ([]model.ReservationRecord, error)
}

type reservationService struct {
	registry  *registry.Registry
	catalog   Catalog
	validator *validator.ReservationValidator
	publisher EventPublisher
	clock     domain.Clock
	cfg       *config.Config
	tracer    trace.Tracer
}

func NewReservationService(
	reg *registry.Registry,
	catalog Catalog,
	validator *validator.ReservationValidator,
	publisher EventPublisher,
	clock domain.Clock,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = NewNoopPublisher()
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &reservationService{
		registry:  reg,
		catalog:   catalog,
		validator: validator,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		tracer:    otel.Tracer(tracerName),
	}
}

func (s *reservationService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "reservations."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *reservationService) requester(id string) (model.Requester, error) {
	if id == "" {
		return model.Requester{}, apperrors.InvalidInput("Requester ID cannot be empty")
	}
	requester, ok := s.catalog.Requester(id)
	if !ok {
		return model.Requester{}, apperrors.NotFoundWithID("requester", id)
	}
	return requester, nil
}

func (s *reservationService) space(name string) (model.Space, error) {
	if name == "" {
		return model.Space{}, apperrors.InvalidInput("Space name cannot be empty")
	}
	space, ok := s.catalog.Space(name)
	if !ok {
		return model.Space{}, apperrors.NotFoundWithID("space", name)
	}
	return space, nil
}

func (s *reservationService) areaResponsible(id string) (model.Requester, error) {
	caller, err := s.requester(id)
	if err != nil {
		return model.Requester{}, err
	}
	if caller.Role != model.RoleAreaResponsible {
		return model.Requester{}, apperrors.Unauthorized("Only an area responsible may perform this operation")
	}
	return caller, nil
}

// commit turns a registry result into a response. A persistence failure is
// logged and only surfaced when StrictPersistence is set; the in-memory change
// stands either way and the event is still published.
func (s *reservationService) commit(ctx context.Context, op, eventType string, snap domain.Reservation, err error) (*model.ReservationRecord, error) {
	var persistErr *reserrors.PersistenceError
	if err != nil && !errors.As(err, &persistErr) {
		return nil, s.reject(op, err)
	}

	rec := snap.Record()
	if persistErr != nil {
		s.cfg.Log.Error("Failed to persist reservation",
			"operation", op,
			"id", rec.ID,
			"error", persistErr.Err,
		)
	}

	s.publish(ctx, eventType, rec)

	if persistErr != nil && s.cfg.StrictPersistence {
		return nil, toAppError(persistErr)
	}
	return &rec, nil
}

func (s *reservationService) commitMany(ctx context.Context, op, eventType string, snaps []domain.Reservation, err error) (int, error) {
	var persistErr *reserrors.PersistenceError
	if err != nil && !errors.As(err, &persistErr) {
		s.cfg.Log.Error("Bulk reservation update failed",
			"operation", op,
			"applied", len(snaps),
			"error", err,
		)
		return len(snaps), apperrors.Internal("Failed to update reservations", err)
	}
	if persistErr != nil {
		s.cfg.Log.Error("Failed to persist reservations",
			"operation", op,
			"ids", persistErr.ID,
			"error", persistErr.Err,
		)
	}

	for _, snap := range snaps {
		s.publish(ctx, eventType, snap.Record())
	}

	if persistErr != nil && s.cfg.StrictPersistence {
		return len(snaps), toAppError(persistErr)
	}
	return len(snaps), nil
}

// reject logs a business rejection at Warn and anything else at Error.
func (s *reservationService) reject(op string, err error) error {
	appErr := toAppError(err)
	if appErr.Code == apperrors.CodeInternal {
		s.cfg.Log.Error("Reservation operation failed",
			"operation", op,
			"error", err,
		)
	} else {
		s.cfg.Log.Warn("Reservation operation rejected",
			"operation", op,
			"code", appErr.Code,
			"error", err,
		)
	}
	return appErr
}

func (s *reservationService) publish(ctx context.Context, eventType string, rec model.ReservationRecord) {
	if err := s.publisher.Publish(ctx, eventType, rec); err != nil {
		s.cfg.Log.Error("Failed to publish reservation event",
			"event_type", eventType,
			"id", rec.ID,
			"error", err,
		)
	}
}

func (s *reservationService) Request(ctx context.Context, requesterID string, req *model.ReservationRequest) (rec *model.ReservationRecord, err error) {
	if req == nil {
		return nil, s.reject(registry.OpAdd, apperrors.InvalidInput("Reservation request cannot be empty"))
	}

	ctx, span := s.startSpan(ctx, "request",
		attribute.String("requester.id", requesterID),
		attribute.String("space.name", req.SpaceName),
	)
	defer func() { endSpan(span, err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, s.reject(registry.OpAdd, err)
	}

	requester, err := s.requester(requesterID)
	if err != nil {
		return nil, s.reject(registry.OpAdd, err)
	}
	space, err := s.space(req.SpaceName)
	if err != nil {
		return nil, s.reject(registry.OpAdd, err)
	}

	slot, err := domain.ParseTimeSlot(req.Date, req.Start, req.End)
	if err != nil {
		return nil, s.reject(registry.OpAdd, err)
	}

	snap, err := s.registry.Add(ctx, requester, space, slot, req.EventCategory, req.Description)
	if errors.Is(err, reserrors.ErrInvalidEventCategory) {
		return nil, s.reject(registry.OpAdd, apperrors.InvalidEventCategory(req.EventCategory))
	}
	rec, err = s.commit(ctx, registry.OpAdd, EventRequested, snap, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("reservation.id", rec.ID))
	s.cfg.Log.Info("Reservation requested",
		"id", rec.ID,
		"requester_id", requesterID,
		"space", space.Name,
		"slot", slot.String(),
		"event_category", rec.EventCategory,
	)
	return rec, nil
}

func (s *reservationService) Get(ctx context.Context, id string) (*model.ReservationRecord, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	snap, err := s.registry.FindByID(id)
	if err != nil {
		return nil, toAppError(err)
	}
	rec := snap.Record()
	return &rec, nil
}

func (s *reservationService) Approve(ctx context.Context, id, responsibleID string) (rec *model.ReservationRecord, err error) {
	ctx, span := s.startSpan(ctx, "approve",
		attribute.String("reservation.id", id),
		attribute.String("responsible.id", responsibleID),
	)
	defer func() { endSpan(span, err) }()

	responsible, err := s.requester(responsibleID)
	if err != nil {
		return nil, s.reject(domain.OpApprove, err)
	}

	snap, err := s.registry.Approve(ctx, id, responsible)
	if rec, err = s.commit(ctx, domain.OpApprove, EventApproved, snap, err); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation approved",
		"id", id,
		"responsible_id", responsibleID,
	)
	return rec, nil
}

func (s *reservationService) Reject(ctx context.Context, id, responsibleID string, req *model.RejectRequest) (rec *model.ReservationRecord, err error) {
	ctx, span := s.startSpan(ctx, "reject",
		attribute.String("reservation.id", id),
		attribute.String("responsible.id", responsibleID),
	)
	defer func() { endSpan(span, err) }()

	if req == nil {
		return nil, s.reject(domain.OpReject, apperrors.InvalidInput("Reject request cannot be empty"))
	}
	if err := s.validator.ValidateReject(req); err != nil {
		return nil, s.reject(domain.OpReject, err)
	}

	responsible, err := s.requester(responsibleID)
	if err != nil {
		return nil, s.reject(domain.OpReject, err)
	}

	snap, err := s.registry.Reject(ctx, id, responsible, req.Reason)
	if rec, err = s.commit(ctx, domain.OpReject, EventRejected, snap, err); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation rejected",
		"id", id,
		"responsible_id", responsibleID,
		"reason", req.Reason,
	)
	return rec, nil
}

func (s *reservationService) Cancel(ctx context.Context, id, callerID string) (rec *model.ReservationRecord, err error) {
	ctx, span := s.startSpan(ctx, "cancel",
		attribute.String("reservation.id", id),
		attribute.String("caller.id", callerID),
	)
	defer func() { endSpan(span, err) }()

	caller, err := s.requester(callerID)
	if err != nil {
		return nil, s.reject(domain.OpCancel, err)
	}

	snap, err := s.registry.Cancel(ctx, id, caller)
	if rec, err = s.commit(ctx, domain.OpCancel, EventCancelled, snap, err); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation cancelled",
		"id", id,
		"caller_id", callerID,
	)
	return rec, nil
}

func (s *reservationService) Complete(ctx context.Context, id string) (rec *model.ReservationRecord, err error) {
	ctx, span := s.startSpan(ctx, "complete", attribute.String("reservation.id", id))
	defer func() { endSpan(span, err) }()

	snap, err := s.registry.Complete(ctx, id)
	if rec, err = s.commit(ctx, domain.OpComplete, EventCompleted, snap, err); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation completed", "id", id)
	return rec, nil
}

func (s *reservationService) Remove(ctx context.Context, id, callerID string) (err error) {
	ctx, span := s.startSpan(ctx, "remove",
		attribute.String("reservation.id", id),
		attribute.String("caller.id", callerID),
	)
	defer func() { endSpan(span, err) }()

	if _, err := s.areaResponsible(callerID); err != nil {
		return s.reject(registry.OpRemove, err)
	}

	snap, err := s.registry.Remove(ctx, id)
	if _, err = s.commit(ctx, registry.OpRemove, EventRemoved, snap, err); err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation removed",
		"id", id,
		"caller_id", callerID,
	)
	return nil
}

func records(snaps []domain.Reservation) []model.ReservationRecord {
	out := make([]model.ReservationRecord, len(snaps))
	for i, snap := range snaps {
		out[i] = snap.Record()
	}
	return out
}

func (s *reservationService) ActiveFor(ctx context.Context, requesterID string) ([]model.ReservationRecord, error) {
	recs, _, err := s.listForRequester(requesterID, true)
	return recs, err
}

func (s *reservationService) listForRequester(requesterID string, activeOnly bool) ([]model.ReservationRecord, int64, error) {
	if _, err := s.requester(requesterID); err != nil {
		return nil, 0, err
	}

	snaps := s.registry.FindByRequester(requesterID)
	out := make([]model.ReservationRecord, 0, len(snaps))
	for _, snap := range snaps {
		if activeOnly && !snap.IsActive() {
			continue
		}
		out = append(out, snap.Record())
	}
	return out, int64(len(out)), nil
}

func (s *reservationService) ListForRequester(ctx context.Context, requesterID string, activeOnly bool, limit int, offset int64) ([]model.ReservationRecord, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	recs, total, err := s.listForRequester(requesterID, activeOnly)
	if err != nil {
		return nil, 0, err
	}

	if offset >= total {
		return []model.ReservationRecord{}, total, nil
	}
	end := min(offset+int64(limit), total)
	return recs[offset:end], total, nil
}

func (s *reservationService) ListBySpace(ctx context.Context, spaceName string) ([]model.ReservationRecord, error) {
	if _, err := s.space(spaceName); err != nil {
		return nil, err
	}
	return records(s.registry.FindActiveBySpace(spaceName)), nil
}

func (s *reservationService) Availability(ctx context.Context, spaceName, date string) (*model.SpaceAvailability, error) {
	_, span := s.startSpan(ctx, "availability",
		attribute.String("space.name", spaceName),
		attribute.String("date", date),
	)
	defer span.End()

	space, err := s.space(spaceName)
	if err != nil {
		return nil, err
	}
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, toAppError(err)
	}

	return &model.SpaceAvailability{
		Space:  space,
		Date:   day.Format(domain.DateLayout),
		Blocks: domain.BlockRecords(s.registry.Availability(space.Name, day)),
	}, nil
}

// ListSpaces returns every catalog space, with the day's blocks when date is set.
func (s *reservationService) ListSpaces(ctx context.Context, date string) ([]model.SpaceAvailability, error) {
	spaces := s.catalog.Spaces()
	out := make([]model.SpaceAvailability, 0, len(spaces))

	if date == "" {
		for _, space := range spaces {
			out = append(out, model.SpaceAvailability{Space: space})
		}
		return out, nil
	}

	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, toAppError(err)
	}
	for _, space := range spaces {
		out = append(out, model.SpaceAvailability{
			Space:  space,
			Date:   day.Format(domain.DateLayout),
			Blocks: domain.BlockRecords(s.registry.Availability(space.Name, day)),
		})
	}
	return out, nil
}

// RemoveSpace cancels the space's active reservations, then drops it from the catalog.
func (s *reservationService) RemoveSpace(ctx context.Context, spaceName, callerID string) (n int, err error) {
	ctx, span := s.startSpan(ctx, "remove_space",
		attribute.String("space.name", spaceName),
		attribute.String("caller.id", callerID),
	)
	defer func() { endSpan(span, err) }()

	if _, err := s.areaResponsible(callerID); err != nil {
		return 0, s.reject("remove_space", err)
	}
	if _, err := s.space(spaceName); err != nil {
		return 0, s.reject("remove_space", err)
	}

	snaps, bulkErr := s.registry.CancelActiveForSpace(ctx, spaceName)
	n, err = s.commitMany(ctx, domain.OpCancel, EventCancelled, snaps, bulkErr)
	if err != nil {
		return n, err
	}

	s.catalog.RemoveSpace(spaceName)
	s.cfg.Log.Info("Space removed",
		"space", spaceName,
		"cancelled", n,
		"caller_id", callerID,
	)
	return n, nil
}

// RemoveRequester cancels the requester's active reservations, then drops them
// from the catalog.
func (s *reservationService) RemoveRequester(ctx context.Context, requesterID, callerID string) (n int, err error) {
	ctx, span := s.startSpan(ctx, "remove_requester",
		attribute.String("requester.id", requesterID),
		attribute.String("caller.id", callerID),
	)
	defer func() { endSpan(span, err) }()

	if _, err := s.areaResponsible(callerID); err != nil {
		return 0, s.reject("remove_requester", err)
	}
	if _, err := s.requester(requesterID); err != nil {
		return 0, s.reject("remove_requester", err)
	}

	snaps, bulkErr := s.registry.CancelActiveForRequester(ctx, requesterID)
	n, err = s.commitMany(ctx, domain.OpCancel, EventCancelled, snaps, bulkErr)
	if err != nil {
		return n, err
	}

	s.catalog.RemoveRequester(requesterID)
	s.cfg.Log.Info("Requester removed",
		"requester_id", requesterID,
		"cancelled", n,
		"caller_id", callerID,
	)
	return n, nil
}

// CompleteEnded completes approved reservations whose slot has ended in the
// configured time zone.
func (s *reservationService) CompleteEnded(ctx context.Context) (n int, err error) {
	ctx, span := s.startSpan(ctx, "complete_ended")
	defer func() { endSpan(span, err) }()

	snaps, bulkErr := s.registry.CompleteEnded(ctx, s.clock.Now(), s.cfg.Location())
	n, err = s.commitMany(ctx, domain.OpComplete, EventCompleted, snaps, bulkErr)
	span.SetAttributes(attribute.Int("completed", n))
	if n > 0 {
		s.cfg.Log.Info("Completed ended reservations", "count", n)
	}
	return n, err
}

// Restore indexes every record the loader returns. Records that cannot be
// restored are logged and skipped.
func (s *reservationService) Restore(ctx context.Context, loader RecordLoader) (int, error) {
	recs, err := loader.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reservations: %w", err)
	}

	n, err := s.registry.Load(recs, s.catalog)
	if err != nil {
		s.cfg.Log.Warn("Some reservations could not be restored",
			"loaded", n,
			"total", len(recs),
			"error", err,
		)
	}
	s.cfg.Log.Info("Reservations restored", "count", n)
	return n, nil
}
