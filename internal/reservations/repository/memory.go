package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"reservatec/pkg/model"
)

type memoryReservationStore struct {
	mu      sync.RWMutex
	records map[string]model.ReservationRecord
}

// NewMemoryReservationStore keeps records in process. Used when
// STORE_BACKEND=memory and by tests.
func NewMemoryReservationStore(seed ...model.ReservationRecord) ReservationStore {
	s := &memoryReservationStore{records: make(map[string]model.ReservationRecord, len(seed))}
	for _, rec := range seed {
		s.records[rec.ID] = cloneRecord(rec)
	}
	return s
}

func (s *memoryReservationStore) Save(ctx context.Context, rec model.ReservationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *memoryReservationStore) SaveMany(ctx context.Context, recs []model.ReservationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records[rec.ID] = cloneRecord(rec)
	}
	return nil
}

func (s *memoryReservationStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *memoryReservationStore) LoadAll(ctx context.Context) ([]model.ReservationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.ReservationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.ReservationRecord) int {
		if c := strings.Compare(a.Slot.Date, b.Slot.Date); c != 0 {
			return c
		}
		if c := strings.Compare(a.Slot.Start, b.Slot.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func cloneRecord(rec model.ReservationRecord) model.ReservationRecord {
	if rec.Approver != nil {
		approver := *rec.Approver
		approver.AuthorizedAreas = slices.Clone(rec.Approver.AuthorizedAreas)
		rec.Approver = &approver
	}
	if rec.RejectionReason != nil {
		reason := *rec.RejectionReason
		rec.RejectionReason = &reason
	}
	return rec
}
