package services

import (
	"context"
	"fmt"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/pkg/logger"
)

const maxLogsLimit = 200

// EmergencyLogService records alert outcomes. Rows are never updated.
type EmergencyLogService interface {
	Record(ctx context.Context, entry *models.EmergencyLogEntry) error
	List(ctx context.Context, userID string, limit int) ([]*models.EmergencyLogEntry, error)
}

type emergencyLogService struct {
	repo         interfaces.EmergencyLogRepository
	audit        *logger.AuditLogger
	defaultLimit int
}

func NewEmergencyLogService(repo interfaces.EmergencyLogRepository, audit *logger.AuditLogger, defaultLimit int) EmergencyLogService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &emergencyLogService{
		repo:         repo,
		audit:        audit,
		defaultLimit: defaultLimit,
	}
}

func (s *emergencyLogService) Record(ctx context.Context, entry *models.EmergencyLogEntry) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("record emergency log: %w", err)
	}

	if s.audit != nil {
		action := "alert_dispatched"
		if entry.WasCancelled {
			action = "alert_cancelled"
		}
		details := map[string]interface{}{
			"log_id":         entry.ID,
			"session_id":     entry.SessionID,
			"detection_type": entry.DetectionType,
			"confidence":     entry.Confidence,
			"notified_count": entry.NotifiedCount,
			"failed_count":   entry.FailedCount,
		}
		if entry.PhotoURL != nil {
			details["photo_url"] = *entry.PhotoURL
		}
		if entry.GPSLatitude != nil && entry.GPSLongitude != nil {
			details["gps_latitude"] = *entry.GPSLatitude
			details["gps_longitude"] = *entry.GPSLongitude
		}
		s.audit.LogAction(action, "emergency_log", entry.UserID, details)
	}
	return nil
}

func (s *emergencyLogService) List(ctx context.Context, userID string, limit int) ([]*models.EmergencyLogEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxLogsLimit {
		limit = maxLogsLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
