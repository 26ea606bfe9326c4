package mongodb

import (
	"context"
	"errors"
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

type settingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) interfaces.SettingsRepository {
	return &settingsRepository{
		collection: db.Collection(database.CollectionSettings),
	}
}

func (r *settingsRepository) GetByUser(ctx context.Context, userID string) (*models.EmergencySettings, error) {
	var settings models.EmergencySettings
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// Upsert relies on the unique user_id index so repeated saves keep one row.
func (r *settingsRepository) Upsert(ctx context.Context, settings *models.EmergencySettings) error {
	now := time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"countdown_seconds": settings.CountdownSeconds,
			"enable_sms":        settings.EnableSMS,
			"enable_voice_call": settings.EnableVoiceCall,
			"enable_911":        settings.Enable911,
			"sensitivity":       settings.Sensitivity,
			"updated_at":        now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"created_at": now,
		},
	}

	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"user_id": settings.UserID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(settings)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}
