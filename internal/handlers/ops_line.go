package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/internal/services"
	"github.com/traxaero/interfaces/pkg/response"
)

type OpsLineHandler struct {
	opsLineService *services.OpsLineService
}

func NewOpsLineHandler(opsLineService *services.OpsLineService) *OpsLineHandler {
	return &OpsLineHandler{opsLineService: opsLineService}
}

type CreateOpsLineRequest struct {
	Site    string `json:"site" binding:"required"`
	OpsLine string `json:"ops_line" binding:"required"`
	Email   string `json:"email"`
}

type UpdateOpsLineRequest struct {
	Site string `json:"site" binding:"required"`
}

type OpsLineListResponse struct {
	Items []models.OpsLineEmail `json:"items"`
	Text  string                `json:"text"`
}

func (h *OpsLineHandler) List(c *gin.Context) {
	lines, err := h.opsLineService.List(c.Request.Context(), c.Query("ops_line"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, OpsLineListResponse{Items: lines, Text: services.FormatOpsLines(lines)})
}

func (h *OpsLineHandler) Create(c *gin.Context) {
	var req CreateOpsLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.opsLineService.Create(c.Request.Context(), req.Site, req.OpsLine, req.Email); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Created(c, models.OpsLineEmail{OpsLine: req.OpsLine, Site: req.Site, Email: req.Email})
}

func (h *OpsLineHandler) Update(c *gin.Context) {
	var req UpdateOpsLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.opsLineService.UpdateSite(c.Request.Context(), c.Param("ops_line"), req.Site); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "updated"})
}

func (h *OpsLineHandler) Delete(c *gin.Context) {
	if err := h.opsLineService.Delete(c.Request.Context(), c.Param("ops_line")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "deleted"})
}

func (h *OpsLineHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrOpsLineNotFound) {
		response.NotFound(c, "ops line not found")
		return
	}
	response.ServerError(c, err.Error())
}
