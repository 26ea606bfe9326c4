package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"happyshaa/internal/alert"
	"happyshaa/internal/models"
	"happyshaa/internal/utils"
	"happyshaa/pkg/push"
	"happyshaa/pkg/websocket"
)

const pushTimeout = 10 * time.Second

// escalator performs the side effects of one user's alerts.
type escalator struct {
	svc     *monitorService
	monitor *monitor
}

// DispatchOutcome is sent to the user's connections after a dispatch.
type DispatchOutcome struct {
	Session   *alert.SessionInfo `json:"session"`
	PhotoURL  string             `json:"photo_url,omitempty"`
	Report    *NotifyReport      `json:"report,omitempty"`
	ErrorCode string             `json:"error_code,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (e *escalator) Pending(ctx context.Context, info *alert.SessionInfo) {
	p := e.svc.deps.Push
	device := e.monitor.device
	if p == nil || !p.Enabled() || device.token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	seconds := int(time.Until(info.Deadline).Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}

	_, err := p.Send(ctx, device.platform, &push.NotificationRequest{
		Token: device.token,
		Title: "Possible emergency detected",
		Body:  fmt.Sprintf("Tap to cancel. Your emergency contacts will be alerted in %d seconds.", seconds),
		Data: map[string]string{
			"action":     websocket.TypeCancelAlert,
			"session_id": info.ID,
			"deadline":   info.Deadline.UTC().Format(time.RFC3339),
			"type":       string(info.Type),
		},
		Priority:    "high",
		TTLSeconds:  seconds,
		CollapseKey: info.ID,
	})
	if err != nil {
		e.svc.logger.WithUserID(e.monitor.userID).WithSessionID(info.ID).WithError(err).Warn("Countdown push notification failed")
	}
}

func (e *escalator) Cancelled(ctx context.Context, s *alert.Session) {
	entry := logEntry(s)
	entry.WasCancelled = true

	if err := e.svc.deps.Logs.Record(context.WithoutCancel(ctx), entry); err != nil {
		e.svc.logger.WithUserID(s.UserID).WithSessionID(s.ID).WithError(err).Error("Failed to record cancelled alert")
	}
}

// Dispatch uploads the evidence, fans out to contacts and records the
// outcome. Upload failure does not hold back notifications.
func (e *escalator) Dispatch(ctx context.Context, s *alert.Session) {
	log := e.svc.logger.WithUserID(s.UserID).WithSessionID(s.ID)
	out := DispatchOutcome{Session: s.Info()}

	var photoURL string
	if len(s.Photo) > 0 {
		url, err := e.svc.deps.Evidence.Upload(ctx, s.UserID, s.Photo, s.TriggeredAt)
		if err != nil {
			log.WithError(err).Error("Evidence upload failed, notifying without photo")
		} else {
			photoURL = url
		}
	}
	out.PhotoURL = photoURL

	channels := Channels{SMS: true, Voice: true}
	if settings, err := e.svc.deps.Settings.Get(ctx, s.UserID); err != nil {
		log.WithError(err).Warn("Failed to load settings for dispatch, using defaults")
	} else {
		channels = Channels{
			SMS:          settings.EnableSMS,
			Voice:        settings.EnableVoiceCall,
			Emergency911: settings.Enable911,
		}
	}

	report, err := e.svc.deps.Notifier.NotifyAll(ctx, s.UserID, &Evidence{
		SessionID:     s.ID,
		DetectionType: s.Type,
		Description:   s.Description,
		Location:      s.Location,
		PhotoURL:      photoURL,
	}, channels)
	switch {
	case errors.Is(err, ErrNoEmergencyContacts):
		log.Warn("Alert dispatched but no emergency contacts are configured")
		out.ErrorCode = utils.CodeNoEmergencyContacts
		out.Error = err.Error()
	case err != nil:
		log.WithError(err).Error("Emergency notification failed")
		out.ErrorCode = utils.CodeInternal
		out.Error = err.Error()
	default:
		out.Report = report
	}

	entry := logEntry(s)
	if photoURL != "" {
		entry.PhotoURL = &photoURL
	}
	if report != nil {
		entry.NotifiedCount = report.Notified
		entry.FailedCount = report.Failed
	}
	if err := e.svc.deps.Logs.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.WithError(err).Error("Failed to record dispatched alert")
	}

	if e.svc.deps.Realtime != nil {
		e.svc.deps.Realtime.SendToUser(s.UserID, websocket.TypeAlertDispatched, out)
	}
}

func logEntry(s *alert.Session) *models.EmergencyLogEntry {
	entry := &models.EmergencyLogEntry{
		UserID:        s.UserID,
		SessionID:     s.ID,
		DetectionType: s.Type,
		Confidence:    s.Confidence,
		Description:   s.Description,
		CreatedAt:     time.Now().UTC(),
	}
	if s.Location != nil {
		lat, lng := s.Location.Latitude, s.Location.Longitude
		entry.GPSLatitude = &lat
		entry.GPSLongitude = &lng
	}
	return entry
}
