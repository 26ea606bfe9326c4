package interfaces

import (
	"context"
	"errors"

	"happyshaa/internal/models"
)

var ErrNotFound = errors.New("record not found")

type ContactRepository interface {
	Create(ctx context.Context, contact *models.EmergencyContact) error
	ListByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error)
	ListEmergencyByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error)
	SetEmergency(ctx context.Context, userID, contactID string, isEmergency bool) (*models.EmergencyContact, error)
	Delete(ctx context.Context, userID, contactID string) error
}

type SettingsRepository interface {
	// GetByUser returns ErrNotFound when the user never saved settings.
	GetByUser(ctx context.Context, userID string) (*models.EmergencySettings, error)
	// Upsert writes the row keyed by user ID and refreshes settings with
	// the stored ID and timestamps.
	Upsert(ctx context.Context, settings *models.EmergencySettings) error
}

// EmergencyLogRepository is append-only.
type EmergencyLogRepository interface {
	Create(ctx context.Context, entry *models.EmergencyLogEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.EmergencyLogEntry, error)
}
