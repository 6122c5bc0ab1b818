package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database, the task queue and the
// interface locks.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var lockCount, lockedCount int64
	h.db.Model(&models.InterfaceLock{}).Count(&lockCount)
	h.db.Model(&models.InterfaceLock{}).Where("locked = ?", 1).Count(&lockedCount)

	status := 200
	if overall != "healthy" {
		status = 503
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "trax-interfaces",
		"components": gin.H{
			"database":          dbStatus,
			"queue_mode":        queueMode,
			"interface_locks":   lockCount,
			"interfaces_locked": lockedCount,
		},
	})
}
