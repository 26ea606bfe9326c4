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

type contactRepository struct {
	collection *mongo.Collection
}

func NewContactRepository(db *mongo.Database) interfaces.ContactRepository {
	return &contactRepository{
		collection: db.Collection(database.CollectionContacts),
	}
}

func (r *contactRepository) Create(ctx context.Context, contact *models.EmergencyContact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) ListByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *contactRepository) ListEmergencyByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return r.find(ctx, bson.M{"user_id": userID, "is_emergency": true})
}

func (r *contactRepository) SetEmergency(ctx context.Context, userID, contactID string, isEmergency bool) (*models.EmergencyContact, error) {
	var contact models.EmergencyContact
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": contactID, "user_id": userID},
		bson.M{"$set": bson.M{"is_emergency": isEmergency, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) Delete(ctx context.Context, userID, contactID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": contactID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *contactRepository) find(ctx context.Context, filter bson.M) ([]*models.EmergencyContact, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts: %w", err)
	}
	defer cursor.Close(ctx)

	contacts := make([]*models.EmergencyContact, 0)
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return contacts, nil
}
