package main

import (
	"github.com/gin-gonic/gin"
	"github.com/traxaero/interfaces/internal/middleware"
	"github.com/traxaero/interfaces/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine. The
// returned limiter must be stopped on shutdown.
func registerRoutes(r *gin.Engine, svc *appServices) *middleware.RateLimiter {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the Humanica callbacks
	callbackLimiter := middleware.NewRateLimiter(svc.cfg.Server.CallbackRPS, svc.cfg.Server.CallbackBurst)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// Attendance callbacks (path spelling is fixed by Humanica)
	attendance := r.Group("/AttendaceInfoService", callbackLimiter.Middleware())
	{
		attendance.GET("/healthCheck", svc.attendanceHandler.HealthCheck)
		attendance.POST("/import", svc.attendanceHandler.Import)
		attendance.POST("/resendAck", svc.attendanceHandler.ResendAck)
	}

	// API routes
	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	{
		protected.GET("/interface-locks", svc.interfaceLockHandler.List)
		protected.GET("/interface-locks/:type", svc.interfaceLockHandler.Get)
		protected.GET("/run-logs", svc.runLogHandler.List)
	}

	// Admin-only routes
	admin := protected.Group("")
	admin.Use(middleware.AdminRequired(), middleware.AuditLog())
	{
		admin.POST("/interface-locks/:type/release", svc.interfaceLockHandler.Release)

		admin.GET("/eslot/ops-lines", svc.opsLineHandler.List)
		admin.POST("/eslot/ops-lines", svc.opsLineHandler.Create)
		admin.PUT("/eslot/ops-lines/:ops_line", svc.opsLineHandler.Update)
		admin.DELETE("/eslot/ops-lines/:ops_line", svc.opsLineHandler.Delete)
	}

	return callbackLimiter
}
