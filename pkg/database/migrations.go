package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"happyshaa/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionContacts  = "contacts"
	CollectionSettings  = "emergency_settings"
	CollectionLogs      = "emergency_logs"
	collectionMigration = "migrations"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	log        *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{
		db:         db,
		migrations: Migrations(),
		log:        log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.setVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previous := targetVersion
		if i > 0 {
			previous = m.migrations[i-1].Version
		}
		if err := m.setVersion(ctx, previous); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(collectionMigration).FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.Version, nil
}

func (m *Migrator) setVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(collectionMigration).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Migrations lists the index migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create contacts indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createIndexes(ctx, db.Collection(CollectionContacts), []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_emergency", Value: 1}}},
					{Keys: bson.D{{Key: "created_at", Value: 1}}},
				})
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(CollectionContacts).Indexes().DropAll(ctx)
				return err
			},
		},
		{
			Version:     2,
			Description: "Create emergency_settings unique user index",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createIndexes(ctx, db.Collection(CollectionSettings), []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "user_id", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
				})
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(CollectionSettings).Indexes().DropAll(ctx)
				return err
			},
		},
		{
			Version:     3,
			Description: "Create emergency_logs history index",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createIndexes(ctx, db.Collection(CollectionLogs), []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "session_id", Value: 1}}},
				})
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(CollectionLogs).Indexes().DropAll(ctx)
				return err
			},
		},
	}
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
