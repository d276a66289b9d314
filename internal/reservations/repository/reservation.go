package repository

import (
	"context"
	"fmt"
	"time"

	"reservatec/pkg/config"
	mongotx "reservatec/pkg/db/mongo"
	"reservatec/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"
)

// ReservationStore persists reservation records keyed by id.
type ReservationStore interface {
	Save(ctx context.Context, rec model.ReservationRecord) error
	SaveMany(ctx context.Context, recs []model.ReservationRecord) error
	Delete(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]model.ReservationRecord, error)
}

type mongoReservationStore struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationStore(cfg *config.Config) ReservationStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationStore{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged with a no-op cancel function.
func (s *mongoReservationStore) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// Save upserts the full record.
func (s *mongoReservationStore) Save(ctx context.Context, rec model.ReservationRecord) error {
	ctx, cancel := s.withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("failed to save reservation %s: %w", rec.ID, err)
	}
	return nil
}

// SaveMany upserts all records in one transaction.
func (s *mongoReservationStore) SaveMany(ctx context.Context, recs []model.ReservationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, len(recs))
	for i, rec := range recs {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetReplacement(rec).
			SetUpsert(true)
	}

	ctx, cancel := s.withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	return s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.collection.BulkWrite(sessCtx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("failed to save %d reservations: %w", len(recs), err)
		}
		return nil
	})
}

// Delete is idempotent; a missing document is not an error.
func (s *mongoReservationStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete reservation %s: %w", id, err)
	}
	return nil
}

func (s *mongoReservationStore) LoadAll(ctx context.Context) ([]model.ReservationRecord, error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "slot.date", Value: 1},
		{Key: "slot.start", Value: 1},
	})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []model.ReservationRecord
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return recs, nil
}
