package services

import (
	"context"
	"fmt"
	"strings"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/internal/utils"
	"happyshaa/internal/validators"
	"happyshaa/pkg/logger"
)

type ContactService interface {
	Create(ctx context.Context, userID string, req *models.CreateContactRequest) (*models.EmergencyContact, error)
	List(ctx context.Context, userID string) ([]*models.EmergencyContact, error)
	ListEmergency(ctx context.Context, userID string) ([]*models.EmergencyContact, error)
	SetEmergency(ctx context.Context, userID, contactID string, isEmergency bool) (*models.EmergencyContact, error)
	Delete(ctx context.Context, userID, contactID string) error
}

type contactService struct {
	repo   interfaces.ContactRepository
	logger *logger.Logger
}

func NewContactService(repo interfaces.ContactRepository, log *logger.Logger) ContactService {
	return &contactService{
		repo:   repo,
		logger: log.WithField("component", "contacts"),
	}
}

func (s *contactService) Create(ctx context.Context, userID string, req *models.CreateContactRequest) (*models.EmergencyContact, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidContact)
	}
	if err := validators.ValidatePhone(req.PhoneNumber); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}

	contact := &models.EmergencyContact{
		UserID:       userID,
		Name:         name,
		PhoneNumber:  utils.NormalizePhone(req.PhoneNumber),
		Relationship: strings.TrimSpace(req.Relationship),
		IsEmergency:  req.IsEmergency,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"contact_id":   contact.ID,
		"phone":        utils.MaskPhone(contact.PhoneNumber),
		"is_emergency": contact.IsEmergency,
	}).Info("Contact created")

	return contact, nil
}

func (s *contactService) List(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *contactService) ListEmergency(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return s.repo.ListEmergencyByUser(ctx, userID)
}

func (s *contactService) SetEmergency(ctx context.Context, userID, contactID string, isEmergency bool) (*models.EmergencyContact, error) {
	return s.repo.SetEmergency(ctx, userID, contactID, isEmergency)
}

func (s *contactService) Delete(ctx context.Context, userID, contactID string) error {
	return s.repo.Delete(ctx, userID, contactID)
}
