package services

import (
	"context"

	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
)

// InterfaceJob is the unit of work the scheduler fires for one interface.
type InterfaceJob interface {
	Name() string
	InterfaceType() string
	// Run performs one pass, recording problems into report.
	Run(ctx context.Context, report *RunReport) error
	// Notification builds the alert sent when the run recorded errors.
	// Returning nil means the job delivers its own alerts.
	Notification(report *RunReport) *Notification
}

// InterfaceRunner wraps a job run with the interface lock, the per-run
// report, the error notification and the run log.
type InterfaceRunner struct {
	locks    *InterfaceLockService
	notifier Notifier
	runLogs  *RunLogService
}

func NewInterfaceRunner(locks *InterfaceLockService, notifier Notifier, runLogs *RunLogService) *InterfaceRunner {
	return &InterfaceRunner{locks: locks, notifier: notifier, runLogs: runLogs}
}

// Run executes job under its interface lock. When another holder has the
// lock it records a skipped run and returns nil. Lock errors are logged,
// recorded and returned; they never trigger a notification. A failed
// release after the job ran still notifies and records the run.
func (r *InterfaceRunner) Run(ctx context.Context, job InterfaceJob) (*RunReport, error) {
	log := logger.With(job.InterfaceType())
	report := NewRunReport(job.InterfaceType())

	ran, lockErr := r.locks.WithLock(ctx, job.InterfaceType(), func(ctx context.Context) error {
		log.Info().Str("run_id", report.RunID).Msgf("[%s] Run started", job.Name())
		if runErr := job.Run(ctx, report); runErr != nil {
			report.Errorf("", "%v", runErr)
		}
		return nil
	})
	if !ran {
		if lockErr != nil {
			log.Error().Err(lockErr).Msgf("[%s] Skipping run, interface lock unavailable", job.Name())
			report.Errorf("", "interface lock unavailable: %v", lockErr)
		} else {
			log.Info().Msgf("[%s] Skipping run, interface is locked by another process", job.Name())
		}
		r.record(ctx, report, models.RunStatusSkipped)
		return nil, lockErr
	}

	status := models.RunStatusSuccess
	if report.HasErrors() {
		status = models.RunStatusFailed
		if n := job.Notification(report); n != nil && r.notifier != nil {
			if err := r.notifier.Notify(ctx, n); err != nil {
				log.Error().Err(err).Msgf("[%s] Failed to send error notification", job.Name())
			}
		}
	}
	r.record(ctx, report, status)

	processed, failed := report.Counts()
	log.Info().
		Str("run_id", report.RunID).
		Str("status", status).
		Int("processed", processed).
		Int("failed", failed).
		Msgf("[%s] Run finished", job.Name())

	return report, lockErr
}

func (r *InterfaceRunner) record(ctx context.Context, report *RunReport, status string) {
	if r.runLogs != nil {
		r.runLogs.Record(ctx, report, status)
	}
}
