package services

import (
	"context"
	"fmt"

	"happyshaa/internal/models"
	"happyshaa/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Evidence is what contacts are told about a dispatched alert.
type Evidence struct {
	SessionID     string
	DetectionType models.DetectionType
	Description   string
	Location      *models.GeoPoint
	PhotoURL      string
}

type Channels struct {
	SMS          bool
	Voice        bool
	Emergency911 bool
}

type NotifyReport struct {
	Outcomes []models.ContactOutcome `json:"outcomes"`
	// EmergencyServices is set when a call to the emergency number was attempted.
	EmergencyServices *models.ContactOutcome `json:"emergency_services,omitempty"`
	Notified          int                    `json:"notified"`
	Failed            int                    `json:"failed"`
}

type NotifierService interface {
	// NotifyAll relays the alert to every emergency contact of userID in
	// parallel. Every contact gets an outcome; one failure never stops
	// the others.
	NotifyAll(ctx context.Context, userID string, ev *Evidence, ch Channels) (*NotifyReport, error)
}

type notifierService struct {
	contacts       ContactService
	relay          RelayService
	logger         *logger.Logger
	limit          int
	servicesNumber string
}

func NewNotifierService(contacts ContactService, relay RelayService, log *logger.Logger, limit int, servicesNumber string) NotifierService {
	if limit < 1 {
		limit = 1
	}
	return &notifierService{
		contacts:       contacts,
		relay:          relay,
		logger:         log.WithField("component", "notifier"),
		limit:          limit,
		servicesNumber: servicesNumber,
	}
}

func (s *notifierService) NotifyAll(ctx context.Context, userID string, ev *Evidence, ch Channels) (*NotifyReport, error) {
	contacts, err := s.contacts.ListEmergency(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load emergency contacts: %w", err)
	}
	if len(contacts) == 0 {
		return nil, ErrNoEmergencyContacts
	}

	report := &NotifyReport{Outcomes: make([]models.ContactOutcome, len(contacts))}

	// errgroup is used for its bounded join only; tasks never return an error
	var g errgroup.Group
	g.SetLimit(s.limit)

	for i, contact := range contacts {
		i, contact := i, contact
		g.Go(func() error {
			resp := s.relay.Notify(ctx, s.request(contact.Name, contact.PhoneNumber, ev, ch.SMS, ch.Voice, false))
			report.Outcomes[i] = models.ContactOutcome{
				ContactID:   contact.ID,
				ContactName: contact.Name,
				PhoneNumber: contact.PhoneNumber,
				Results:     resp.Results,
				Success:     resp.Success,
				Error:       resp.Error,
			}
			return nil
		})
	}

	if ch.Emergency911 && s.servicesNumber == "" {
		s.logger.WithUserID(userID).Warn("Emergency services call requested but no number is configured")
	}
	if ch.Emergency911 && s.servicesNumber != "" {
		g.Go(func() error {
			resp := s.relay.Notify(ctx, s.request("Emergency services", s.servicesNumber, ev, false, true, true))
			report.EmergencyServices = &models.ContactOutcome{
				ContactName: "Emergency services",
				PhoneNumber: s.servicesNumber,
				Results:     resp.Results,
				Success:     resp.Success,
				Error:       resp.Error,
			}
			return nil
		})
	}

	_ = g.Wait()

	for _, o := range report.Outcomes {
		if o.Success {
			report.Notified++
		} else {
			report.Failed++
		}
	}

	s.logger.WithUserID(userID).WithSessionID(ev.SessionID).WithFields(map[string]interface{}{
		"notified": report.Notified,
		"failed":   report.Failed,
	}).Info("Emergency contacts notified")

	return report, nil
}

func (s *notifierService) request(name, phone string, ev *Evidence, sms, call, services bool) *models.NotifyRequest {
	return &models.NotifyRequest{
		PhoneNumber:   phone,
		ContactName:   name,
		GPSLocation:   ev.Location,
		PhotoURL:      ev.PhotoURL,
		SendSMS:       sms,
		SendCall:      call,
		Emergency911:  services,
		DetectionType: string(ev.DetectionType),
		Description:   ev.Description,
	}
}
