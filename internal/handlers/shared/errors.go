package handlers

import (
	"errors"
	"net/http"

	"happyshaa/internal/alert"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/internal/services"
	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the response envelope. Anything
// unrecognised is logged and reported as an internal error.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, alert.ErrAlreadyMonitoring):
		utils.ConflictResponse(c, utils.CodeAlreadyMonitoring, err.Error())
	case errors.Is(err, alert.ErrNotMonitoring):
		utils.ConflictResponse(c, utils.CodeNotMonitoring, err.Error())
	case errors.Is(err, alert.ErrNoPendingAlert):
		utils.ConflictResponse(c, utils.CodeNoPendingAlert, err.Error())
	case errors.Is(err, alert.ErrDispatchInProgress):
		utils.ConflictResponse(c, utils.CodeDispatchInProgress, err.Error())
	case errors.Is(err, services.ErrNoEmergencyContacts):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, utils.CodeNoEmergencyContacts, err.Error())
	case errors.Is(err, interfaces.ErrNotFound):
		utils.NotFoundResponse(c, "Resource")
	case errors.Is(err, services.ErrInvalidContact),
		errors.Is(err, services.ErrInvalidSettings),
		errors.Is(err, services.ErrInvalidImage),
		errors.Is(err, services.ErrNoChannel):
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeValidation, err.Error())
	default:
		log.WithContext(c.Request.Context()).WithError(err).Error("Request failed")
		utils.InternalServerErrorResponse(c)
	}
}

// currentUser reads the user set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.UnauthorizedResponse(c, "")
		return "", false
	}
	return userID, true
}
