package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: "migrations"}})
	if err != nil {
		return err
	}
	if len(collections) > 0 {
		return nil
	}

	return m.db.CreateCollection(ctx, "migrations")
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users collection with indexes",
			Up: func(db *mongo.Database) error {
				return createUsersIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("users").Drop(context.Background())
			},
		},
		{
			Version:     2,
			Description: "Create rides collection with indexes",
			Up: func(db *mongo.Database) error {
				return createRidesIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("rides").Drop(context.Background())
			},
		},
		{
			Version:     3,
			Description: "Create scheduled_rides collection with indexes",
			Up: func(db *mongo.Database) error {
				return createScheduledRidesIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("scheduled_rides").Drop(context.Background())
			},
		},
		{
			Version:     4,
			Description: "Create chat rooms and messages collections with indexes",
			Up: func(db *mongo.Database) error {
				return createChatIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				if err := db.Collection("chat_rooms").Drop(context.Background()); err != nil {
					return err
				}
				return db.Collection("messages").Drop(context.Background())
			},
		},
		{
			Version:     5,
			Description: "Create locations, notifications and ratings collections with indexes",
			Up: func(db *mongo.Database) error {
				return createAuxiliaryIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				for _, name := range []string{"locations", "notifications", "ratings"} {
					if err := db.Collection(name).Drop(context.Background()); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

func createUsersIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("users")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_admin_approved", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createRidesIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("rides")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "rider", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "passengers", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "pickup_deadline", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createScheduledRidesIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("scheduled_rides")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_for", Value: 1}},
		},
		{
			// One acceptor copy per (user, linked ride) pair. Partial so
			// plain scheduled rides without a link stay unaffected.
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "linked_ride_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "linked_ride_id", Value: bson.D{{Key: "$type", Value: "objectId"}}}}),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createChatIndexes(db *mongo.Database) error {
	ctx := context.Background()

	roomIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ride_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "members", Value: 1}},
		},
	}
	if _, err := db.Collection("chat_rooms").Indexes().CreateMany(ctx, roomIndexes); err != nil {
		return err
	}

	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}
	_, err := db.Collection("messages").Indexes().CreateMany(ctx, messageIndexes)
	return err
}

func createAuxiliaryIndexes(db *mongo.Database) error {
	ctx := context.Background()

	locationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}
	if _, err := db.Collection("locations").Indexes().CreateMany(ctx, locationIndexes); err != nil {
		return err
	}

	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "read", Value: 1}},
		},
	}
	if _, err := db.Collection("notifications").Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return err
	}

	ratingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ride_id", Value: 1}, {Key: "from_user", Value: 1}, {Key: "to_user", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "to_user", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err := db.Collection("ratings").Indexes().CreateMany(ctx, ratingIndexes)
	return err
}
