package sqlstore

import (
	"context"
	"fmt"
	"time"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) interfaces.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByUser(ctx context.Context, userID string) (*models.EmergencySettings, error) {
	var settings models.EmergencySettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.EmergencySettings) error {
	db := r.db.WithContext(ctx)

	row := *settings
	row.ID = uuid.NewString()
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"countdown_seconds",
			"enable_sms",
			"enable_voice_call",
			"enable_911",
			"sensitivity",
			"updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	// the insert may have turned into an update of an existing row
	if err := db.Where("user_id = ?", settings.UserID).First(settings).Error; err != nil {
		return fmt.Errorf("failed to reload settings: %w", notFound(err))
	}
	return nil
}
