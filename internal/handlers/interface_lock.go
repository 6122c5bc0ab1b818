package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/internal/services"
	"github.com/traxaero/interfaces/pkg/logger"
	"github.com/traxaero/interfaces/pkg/response"
)

// InterfaceLockHandler exposes the interface lock table to operators.
type InterfaceLockHandler struct {
	locks *services.InterfaceLockService
}

// InterfaceLockStatus is a lock row plus whether a run could take it now,
// counting a stale lock as available.
type InterfaceLockStatus struct {
	*models.InterfaceLock
	Available bool `json:"available"`
}

func NewInterfaceLockHandler(locks *services.InterfaceLockService) *InterfaceLockHandler {
	return &InterfaceLockHandler{locks: locks}
}

func (h *InterfaceLockHandler) List(c *gin.Context) {
	locks, err := h.locks.List(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, locks)
}

func (h *InterfaceLockHandler) Get(c *gin.Context) {
	interfaceType := c.Param("type")
	lock, err := h.locks.Get(c.Request.Context(), interfaceType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	available, err := h.locks.IsAvailable(c.Request.Context(), interfaceType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, InterfaceLockStatus{InterfaceLock: lock, Available: available})
}

// Release force-frees a lock left behind by a crashed run.
func (h *InterfaceLockHandler) Release(c *gin.Context) {
	interfaceType := c.Param("type")
	if err := h.locks.Release(c.Request.Context(), interfaceType); err != nil {
		h.writeError(c, err)
		return
	}
	logger.Info().
		Str("interface", interfaceType).
		Str("by", c.GetString("username")).
		Msg("[InterfaceLock] Lock released by operator")

	lock, err := h.locks.Get(c.Request.Context(), interfaceType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, lock)
}

func (h *InterfaceLockHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrLockNotFound) {
		response.Error(c, response.NewNotFound(err.Error()))
		return
	}
	response.Error(c, err)
}
