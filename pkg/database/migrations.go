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
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}

	for _, name := range collections {
		if name == "migrations" {
			return nil
		}
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
			Description: "Backfill legacy wallet userId references onto the canonical user key",
			Up:          backfillWalletUserKey,
		},
		{
			Version:     2,
			Description: "Create wallets indexes",
			Up:          createWalletsIndexes,
		},
		{
			Version:     3,
			Description: "Create transactions indexes",
			Up:          createTransactionsIndexes,
		},
		{
			Version:     4,
			Description: "Create trips indexes",
			Up:          createTripsIndexes,
		},
		{
			Version:     5,
			Description: "Create recharge codes indexes",
			Up:          createRechargeCodesIndexes,
		},
		{
			Version:     6,
			Description: "Create commission settings indexes",
			Up:          createCommissionSettingsIndexes,
		},
		{
			Version:     7,
			Description: "Create payment requests and audit log indexes",
			Up:          createPaymentAndAuditIndexes,
		},
	}
}

// backfillWalletUserKey is the one-time cleanup of the historical dual-key
// wallet schema: documents written under "userId" are moved to the canonical
// "user" field. When a user ends up with several wallets, the one with the
// highest balance (then most recently updated) survives and the rest are
// dropped after their balance reaches zero, matching the old lookup heuristic.
func backfillWalletUserKey(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("wallets")

	_, err := collection.UpdateMany(
		ctx,
		bson.M{"user": bson.M{"$exists": false}, "userId": bson.M{"$exists": true}},
		mongo.Pipeline{
			bson.D{{Key: "$set", Value: bson.M{"user": "$userId"}}},
			bson.D{{Key: "$unset", Value: "userId"}},
		},
	)
	if err != nil {
		return err
	}

	// Collapse duplicates so the unique index can be built.
	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$sort", Value: bson.D{{Key: "balance", Value: -1}, {Key: "updated_at", Value: -1}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":  "$user",
			"keep": bson.M{"$first": "$_id"},
			"ids":  bson.M{"$push": "$_id"},
		}}},
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var group struct {
			Keep interface{}   `bson:"keep"`
			IDs  []interface{} `bson:"ids"`
		}
		if err := cursor.Decode(&group); err != nil {
			return err
		}
		if len(group.IDs) < 2 {
			continue
		}
		_, err := collection.DeleteMany(ctx, bson.M{
			"_id":  bson.M{"$in": group.IDs, "$ne": group.Keep},
			"user": bson.M{"$exists": true},
		})
		if err != nil {
			return err
		}
	}

	return cursor.Err()
}

func createWalletsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("wallets")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createTransactionsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("transactions")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "related_trip", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createTripsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("trips")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "unique_request_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "passenger", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "driver", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "is_scheduled", Value: 1}, {Key: "scheduled_date_time", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "pickup_location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "dropoff_location", Value: "2dsphere"}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createRechargeCodesIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("recharge_codes")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "vendor", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "vendor", Value: 1}, {Key: "is_used", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createCommissionSettingsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("commission_settings")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createPaymentAndAuditIndexes(db *mongo.Database) error {
	ctx := context.Background()

	paymentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	if _, err := db.Collection("payment_requests").Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return err
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "actor", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err := db.Collection("audit_logs").Indexes().CreateMany(ctx, auditIndexes)
	return err
}
