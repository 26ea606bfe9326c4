package handlers

import (
	"happyshaa/internal/models"
	"happyshaa/internal/services"
	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RelayHandler exposes the classifier and notification relays, so clients
// never hold model or telephony credentials.
type RelayHandler struct {
	classifier services.ClassifierService
	relay      services.RelayService
	logger     *logger.Logger
}

func NewRelayHandler(classifier services.ClassifierService, relay services.RelayService, log *logger.Logger) *RelayHandler {
	return &RelayHandler{
		classifier: classifier,
		relay:      relay,
		logger:     log.WithField("component", "relay_handler"),
	}
}

func (h *RelayHandler) Classify(c *gin.Context) {
	var request models.ClassifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	verdict, err := h.classifier.Classify(c.Request.Context(), request.Image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Image classified", verdict)
}

// Notify relays one alert. Channel failures are reported in the body with
// success=false rather than as an HTTP error.
func (h *RelayHandler) Notify(c *gin.Context) {
	var request models.NotifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	if !request.SendSMS && !request.SendCall {
		respondError(c, h.logger, services.ErrNoChannel)
		return
	}
	request.PhoneNumber = utils.NormalizePhone(request.PhoneNumber)

	resp := h.relay.Notify(c.Request.Context(), &request)

	h.logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
		"to":      utils.MaskPhone(request.PhoneNumber),
		"success": resp.Success,
	}).Info("Notification relayed")

	message := "Notification sent"
	if !resp.Success {
		message = "Notification partially failed"
	}
	utils.SuccessResponse(c, message, resp)
}
