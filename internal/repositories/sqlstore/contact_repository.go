package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) interfaces.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *models.EmergencyContact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) ListByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return r.find(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *contactRepository) ListEmergencyByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return r.find(r.db.WithContext(ctx).Where("user_id = ? AND is_emergency = ?", userID, true))
}

func (r *contactRepository) SetEmergency(ctx context.Context, userID, contactID string, isEmergency bool) (*models.EmergencyContact, error) {
	db := r.db.WithContext(ctx)

	res := db.Model(&models.EmergencyContact{}).
		Where("id = ? AND user_id = ?", contactID, userID).
		Updates(map[string]interface{}{
			"is_emergency": isEmergency,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, interfaces.ErrNotFound
	}

	var contact models.EmergencyContact
	if err := db.Where("id = ?", contactID).First(&contact).Error; err != nil {
		return nil, fmt.Errorf("failed to reload contact: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) Delete(ctx context.Context, userID, contactID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", contactID, userID).
		Delete(&models.EmergencyContact{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *contactRepository) find(q *gorm.DB) ([]*models.EmergencyContact, error) {
	contacts := make([]*models.EmergencyContact, 0)
	if err := q.Order("created_at ASC").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to find contacts: %w", err)
	}
	return contacts, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return interfaces.ErrNotFound
	}
	return err
}
