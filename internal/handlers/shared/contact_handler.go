package handlers

import (
	"happyshaa/internal/models"
	"happyshaa/internal/services"
	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contacts services.ContactService
	logger   *logger.Logger
}

func NewContactHandler(contacts services.ContactService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		logger:   log.WithField("component", "contact_handler"),
	}
}

func (h *ContactHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var (
		contacts []*models.EmergencyContact
		err      error
	)
	if c.Query("emergency") == "true" {
		contacts, err = h.contacts.ListEmergency(c.Request.Context(), userID)
	} else {
		contacts, err = h.contacts.List(c.Request.Context(), userID)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Contacts retrieved", contacts)
}

func (h *ContactHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request models.CreateContactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), userID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Contact created", contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Contact deleted", nil)
}

func (h *ContactHandler) SetEmergency(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request models.ToggleEmergencyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	contact, err := h.contacts.SetEmergency(c.Request.Context(), userID, c.Param("id"), *request.IsEmergency)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Contact updated", contact)
}
