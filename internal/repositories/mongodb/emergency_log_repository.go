package mongodb

import (
	"context"
	"fmt"
	"time"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type emergencyLogRepository struct {
	collection *mongo.Collection
}

func NewEmergencyLogRepository(db *mongo.Database) interfaces.EmergencyLogRepository {
	return &emergencyLogRepository{
		collection: db.Collection(database.CollectionLogs),
	}
}

func (r *emergencyLogRepository) Create(ctx context.Context, entry *models.EmergencyLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to create emergency log: %w", err)
	}
	return nil
}

func (r *emergencyLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.EmergencyLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find emergency logs: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*models.EmergencyLogEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode emergency logs: %w", err)
	}
	return entries, nil
}
