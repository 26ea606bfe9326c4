package sqlstore

import (
	"context"
	"fmt"
	"time"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type emergencyLogRepository struct {
	db *gorm.DB
}

func NewEmergencyLogRepository(db *gorm.DB) interfaces.EmergencyLogRepository {
	return &emergencyLogRepository{db: db}
}

func (r *emergencyLogRepository) Create(ctx context.Context, entry *models.EmergencyLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create emergency log: %w", err)
	}
	return nil
}

func (r *emergencyLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.EmergencyLogEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	entries := make([]*models.EmergencyLogEntry, 0)
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to find emergency logs: %w", err)
	}
	return entries, nil
}
