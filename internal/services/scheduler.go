package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/pkg/logger"
)

const (
	ScheduleInterval = "interval"
	ScheduleDaily    = "daily"
)

// Scheduler fires interface jobs on their configured schedule. Each job is
// wrapped with SkipIfStillRunning so one interface never overlaps itself
// inside a process; the interface lock covers other processes.
type Scheduler struct {
	cron   *cron.Cron
	runner *InterfaceRunner

	mu        sync.Mutex
	timers    []*time.Timer
	stopped   bool
	firstRuns sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewScheduler(runner *InterfaceRunner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger.CronLogger()),
			cron.WithChain(cron.Recover(logger.CronLogger())),
		),
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
	}
}

// CronSpec converts a daily schedule to a cron expression.
func CronSpec(sc config.ScheduleConfig) (string, error) {
	if sc.Hour < 0 || sc.Hour > 23 {
		return "", fmt.Errorf("invalid schedule hour %d", sc.Hour)
	}
	if sc.Minute < 0 || sc.Minute > 59 {
		return "", fmt.Errorf("invalid schedule minute %d", sc.Minute)
	}
	return fmt.Sprintf("%d %d * * *", sc.Minute, sc.Hour), nil
}

// Register schedules job according to sc.
func (s *Scheduler) Register(job InterfaceJob, sc config.ScheduleConfig) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(logger.CronLogger())).Then(cron.FuncJob(func() {
		if _, err := s.runner.Run(s.ctx, job); err != nil {
			logger.Warn().Err(err).Msgf("[Scheduler] %s interface lock error", job.Name())
		}
	}))

	switch sc.Type {
	case ScheduleDaily:
		spec, err := CronSpec(sc)
		if err != nil {
			return fmt.Errorf("%s: %w", job.Name(), err)
		}
		if _, err := s.cron.AddJob(spec, wrapped); err != nil {
			return fmt.Errorf("%s: %w", job.Name(), err)
		}
		logger.Infof("[Scheduler] %s scheduled daily at %02d:%02d (cron: %s)", job.Name(), sc.Hour, sc.Minute, spec)

	case ScheduleInterval, "":
		if sc.IntervalSeconds <= 0 {
			return fmt.Errorf("%s: interval must be positive, got %d", job.Name(), sc.IntervalSeconds)
		}
		interval := time.Duration(sc.IntervalSeconds) * time.Second
		delay := time.Duration(sc.InitialDelaySeconds) * time.Second

		// The first run happens outside cron, so Stop waits on firstRuns.
		s.mu.Lock()
		s.firstRuns.Add(1)
		timer := time.AfterFunc(delay, func() {
			defer s.firstRuns.Done()
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return
			}
			s.cron.Schedule(cron.Every(interval), wrapped)
			s.mu.Unlock()
			wrapped.Run()
		})
		s.timers = append(s.timers, timer)
		s.mu.Unlock()
		logger.Infof("[Scheduler] %s scheduled every %s after %s", job.Name(), interval, delay)

	default:
		return fmt.Errorf("%s: unknown schedule type %q", job.Name(), sc.Type)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Msg("[Scheduler] Started")
}

// Stop cancels pending first runs and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, t := range s.timers {
		if t.Stop() {
			s.firstRuns.Done()
		}
	}
	s.timers = nil
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.firstRuns.Wait()
	logger.Info().Msg("[Scheduler] Stopped")
}
