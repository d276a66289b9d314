package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reservatec/internal/migrations/mongo/validators"
	"reservatec/internal/reservations/repository"
	"reservatec/pkg/logger"
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var ReservationsIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "space.name", Value: 1},
			{Key: "slot.date", Value: 1},
			{Key: "slot.start", Value: 1},
		},
		Options: options.Index().SetName("space_slot"),
	},
	{
		Keys: bson.D{
			{Key: "requester.id", Value: 1},
			{Key: "slot.date", Value: 1},
		},
		Options: options.Index().SetName("requester_slot"),
	},
	{
		Keys:    bson.D{{Key: "state", Value: 1}},
		Options: options.Index().SetName("state"),
	},
}

func collections() []collectionDef {
	return []collectionDef{
		{
			Name:      repository.CollectionName,
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
	}
}

// RunMigration creates the collections with their schema validators and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
		log.Info("Collection migrated", "collection", def.Name, "indexes", len(def.Indexes))
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}
