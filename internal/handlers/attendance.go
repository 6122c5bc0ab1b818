package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/traxaero/interfaces/internal/services"
	"github.com/traxaero/interfaces/pkg/logger"
)

// AttendanceHandler serves the Humanica clock on/off callbacks.
type AttendanceHandler struct {
	service *services.AttendanceService
}

func NewAttendanceHandler(service *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

func attendanceStatus(status, message string) gin.H {
	return gin.H{"status": status, "message": message}
}

func (h *AttendanceHandler) HealthCheck(c *gin.Context) {
	logger.Debug().Msg("[Attendance] Healthy")
	c.JSON(http.StatusOK, "Healthy")
}

func (h *AttendanceHandler) Import(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, attendanceStatus("ERROR", "Invalid request body: "+err.Error()))
		return
	}
	logger.Infof("[Attendance] Received import request: %s", body)

	var msg services.AttendanceImport
	if err := json.Unmarshal(body, &msg); err != nil {
		c.JSON(http.StatusBadRequest, attendanceStatus("ERROR", "Invalid JSON format: "+err.Error()))
		return
	}

	if err := h.service.Import(c.Request.Context(), &msg); err != nil {
		if ae, ok := services.AsAttendanceError(err); ok {
			c.JSON(http.StatusBadRequest, attendanceStatus("ERROR", ae.Error()))
			return
		}
		logger.Errorf("[Attendance] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, attendanceStatus("ERROR", "An unexpected error occurred"))
		return
	}

	c.JSON(http.StatusOK, attendanceStatus("SUCCESS", "Data processed successfully"))
}

func (h *AttendanceHandler) ResendAck(c *gin.Context) {
	body, err := c.GetRawData()
	if err == nil {
		logger.Infof("[Attendance] Received resend acknowledgment: %s", body)
		var msg services.AttendanceImport
		if err = json.Unmarshal(body, &msg); err == nil {
			h.service.ResendAck(&msg)
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, attendanceStatus("ERROR", "Error processing resend acknowledgment: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, attendanceStatus("SUCCESS", "Acknowledgment received"))
}
