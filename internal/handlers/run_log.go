package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/traxaero/interfaces/internal/services"
)

type RunLogHandler struct {
	runLogService *services.RunLogService
}

func NewRunLogHandler(runLogService *services.RunLogService) *RunLogHandler {
	return &RunLogHandler{runLogService: runLogService}
}

func (h *RunLogHandler) List(c *gin.Context) {
	var req services.RunLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.runLogService.List(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
