package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"happyshaa/internal/models"
	"happyshaa/internal/services"
	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/vision"

	"github.com/gin-gonic/gin"
)

type EmergencyHandler struct {
	monitor       services.MonitorService
	settings      services.SettingsService
	logs          services.EmergencyLogService
	logger        *logger.Logger
	maxFrameBytes int64
}

func NewEmergencyHandler(
	monitor services.MonitorService,
	settings services.SettingsService,
	logs services.EmergencyLogService,
	log *logger.Logger,
	maxFrameBytes int64,
) *EmergencyHandler {
	return &EmergencyHandler{
		monitor:       monitor,
		settings:      settings,
		logs:          logs,
		logger:        log.WithField("component", "emergency_handler"),
		maxFrameBytes: maxFrameBytes,
	}
}

// StartMonitoring starts the detection loop for the caller. The body is
// optional.
func (h *EmergencyHandler) StartMonitoring(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request models.StartMonitoringRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
			utils.ValidationErrorResponse(c, err)
			return
		}
	}

	snapshot, err := h.monitor.Start(c.Request.Context(), userID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Monitoring started", snapshot)
}

func (h *EmergencyHandler) StopMonitoring(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.monitor.Stop(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Monitoring stopped", h.monitor.Status(c.Request.Context(), userID))
}

func (h *EmergencyHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Monitoring status retrieved", h.monitor.Status(c.Request.Context(), userID))
}

// PushFrame accepts a still either as a multipart "frame" file or as a
// JSON body with a data URL / base64 "image".
func (h *EmergencyHandler) PushFrame(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	data, err := h.readFrame(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeValidation, err.Error())
		return
	}

	if err := h.monitor.PushFrame(c.Request.Context(), userID, data); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.AcceptedResponse(c, "Frame received", nil)
}

func (h *EmergencyHandler) readFrame(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("frame")
		if err != nil {
			return nil, errors.New("multipart field \"frame\" is required")
		}
		if h.maxFrameBytes > 0 && file.Size > h.maxFrameBytes {
			return nil, fmt.Errorf("frame exceeds %d bytes", h.maxFrameBytes)
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	var request models.FrameRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, err
	}
	return vision.DecodeImage(request.Image)
}

func (h *EmergencyHandler) UpdateLocation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var point models.GeoPoint
	if err := c.ShouldBindJSON(&point); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.monitor.UpdateLocation(c.Request.Context(), userID, point); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Location updated", point)
}

func (h *EmergencyHandler) CancelAlert(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	session, err := h.monitor.Cancel(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Alert cancelled", session)
}

func (h *EmergencyHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Settings retrieved", settings)
}

func (h *EmergencyHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	settings, err := h.settings.Save(c.Request.Context(), userID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Settings saved", settings)
}

func (h *EmergencyHandler) GetLogs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeValidation, "limit must be a positive integer")
			return
		}
		limit = v
	}

	entries, err := h.logs.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Emergency logs retrieved", gin.H{
		"logs":  entries,
		"count": len(entries),
	})
}
