package main

import (
	"context"
	"time"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/handlers"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/internal/services"
	"github.com/traxaero/interfaces/internal/utils"
	"github.com/traxaero/interfaces/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg       *config.Config
	scheduler *services.Scheduler
	taskQueue services.TaskQueue
	worker    *services.Worker

	attendanceHandler    *handlers.AttendanceHandler
	opsLineHandler       *handlers.OpsLineHandler
	interfaceLockHandler *handlers.InterfaceLockHandler
	runLogHandler        *handlers.RunLogHandler
	healthHandler        *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(ctx context.Context, cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// One lock row per interface
	if err := models.SeedInterfaceLocks(models.GetDB(), cfg.Interfaces.MaxLockSeconds()); err != nil {
		logger.Fatalf("Failed to seed interface locks: %v", err)
	}

	db := models.GetDB()
	ifaces := &cfg.Interfaces

	emailService := services.NewEmailService(&cfg.SMTP)
	runLogService := services.NewRunLogService(db, cfg.Log.RetentionDays)
	lockService := services.NewInterfaceLockService(db)
	runner := services.NewInterfaceRunner(lockService, emailService, runLogService)

	// Resend requests go through Redis when enabled, otherwise inline
	resendClient := services.NewResendClient(ifaces.Attendance.ResendURL,
		time.Duration(ifaces.Attendance.TimeoutSeconds)*time.Second)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(resendClient.Send)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(resendClient.Send)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start resend worker")
			}
		}
	}

	attendanceService := services.NewAttendanceService(db, &ifaces.Attendance, taskQueue, emailService, runLogService)
	opsLineService := services.NewOpsLineService(db, emailService, ifaces.ESlot.Recipients)

	scheduler := services.NewScheduler(runner)
	register := func(name string, enabled bool, sc config.ScheduleConfig, build func() services.InterfaceJob) {
		if !enabled {
			logger.Infof("[Scheduler] %s disabled", name)
			return
		}
		if err := scheduler.Register(build(), sc); err != nil {
			logger.Fatalf("Failed to schedule %s: %v", name, err)
		}
	}

	register("EmployeeImport", ifaces.Employee.Enabled, ifaces.Employee.Schedule, func() services.InterfaceJob {
		return employeeJob(db, ifaces, emailService)
	})
	register("ShiftExport", ifaces.Shift.Enabled, ifaces.Shift.Schedule, func() services.InterfaceJob {
		return shiftJob(db, ifaces)
	})
	register("AttendanceHousekeeping", ifaces.Attendance.Enabled, ifaces.Attendance.Schedule, func() services.InterfaceJob {
		return services.NewAttendanceHousekeepingJob(runLogService, &ifaces.Attendance)
	})
	register("ESlotImport", ifaces.ESlot.Enabled, ifaces.ESlot.Schedule, func() services.InterfaceJob {
		return eslotJob(ctx, cfg, db, emailService)
	})
	scheduler.Start()

	return &appServices{
		cfg:                  cfg,
		scheduler:            scheduler,
		taskQueue:            taskQueue,
		worker:               worker,
		attendanceHandler:    handlers.NewAttendanceHandler(attendanceService),
		opsLineHandler:       handlers.NewOpsLineHandler(opsLineService),
		interfaceLockHandler: handlers.NewInterfaceLockHandler(lockService),
		runLogHandler:        handlers.NewRunLogHandler(runLogService),
		healthHandler:        handlers.NewHealthHandler(db),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
