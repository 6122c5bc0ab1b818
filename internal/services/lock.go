package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

// ErrLockNotFound means no interface_lock_master row exists for the
// requested interface type. Rows are provisioned at startup, so this is a
// configuration error.
var ErrLockNotFound = errors.New("interface lock not found")

// LockPersistenceError wraps a failed read or write against the lock table.
type LockPersistenceError struct {
	Op            string
	InterfaceType string
	Err           error
}

func (e *LockPersistenceError) Error() string {
	return fmt.Sprintf("interface lock %s %s: %v", e.Op, e.InterfaceType, e.Err)
}

func (e *LockPersistenceError) Unwrap() error { return e.Err }

// InterfaceLockService is the advisory lock shared by all interface jobs.
// One row per interface type; a lock held longer than its max_lock seconds
// may be taken over by the next caller.
type InterfaceLockService struct {
	db       *gorm.DB
	now      func() time.Time
	hostname func() (string, error)
}

func NewInterfaceLockService(db *gorm.DB) *InterfaceLockService {
	return &InterfaceLockService{
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
		hostname: os.Hostname,
	}
}

// Get returns the lock row for interfaceType.
func (s *InterfaceLockService) Get(ctx context.Context, interfaceType string) (*models.InterfaceLock, error) {
	var lock models.InterfaceLock
	err := s.db.WithContext(ctx).Where("interface_type = ?", interfaceType).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrLockNotFound, interfaceType)
	}
	if err != nil {
		return nil, &LockPersistenceError{Op: "read", InterfaceType: interfaceType, Err: err}
	}
	return &lock, nil
}

func (s *InterfaceLockService) List(ctx context.Context) ([]models.InterfaceLock, error) {
	var locks []models.InterfaceLock
	if err := s.db.WithContext(ctx).Order("interface_type").Find(&locks).Error; err != nil {
		return nil, &LockPersistenceError{Op: "list", Err: err}
	}
	return locks, nil
}

// IsAvailable reports whether the lock is free or stale. It never writes.
func (s *InterfaceLockService) IsAvailable(ctx context.Context, interfaceType string) (bool, error) {
	lock, err := s.Get(ctx, interfaceType)
	if err != nil {
		return false, err
	}
	return lockAvailable(lock, s.now()), nil
}

func lockAvailable(lock *models.InterfaceLock, now time.Time) bool {
	if !lock.IsLocked() || lock.LockedDate == nil {
		return true
	}
	return now.Sub(*lock.LockedDate) >= time.Duration(lock.MaxLock)*time.Second
}

// Acquire marks the lock held by this host without looking at its current
// state. Jobs should use TryAcquire; Acquire exists for operators and for
// callers that already hold the decision.
func (s *InterfaceLockService) Acquire(ctx context.Context, interfaceType string) error {
	updates := map[string]interface{}{
		"locked":         1,
		"locked_date":    s.now(),
		"current_server": s.ownerHost(interfaceType),
	}

	res := s.db.WithContext(ctx).Model(&models.InterfaceLock{}).
		Where("interface_type = ?", interfaceType).
		Updates(updates)
	if res.Error != nil {
		return &LockPersistenceError{Op: "acquire", InterfaceType: interfaceType, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return s.ensureExists(ctx, interfaceType)
	}
	return nil
}

// TryAcquire takes the lock only if it is free or stale. The state check
// and the write are one conditional UPDATE, so two racing callers cannot
// both win.
func (s *InterfaceLockService) TryAcquire(ctx context.Context, interfaceType string) (bool, error) {
	lock, err := s.Get(ctx, interfaceType)
	if err != nil {
		return false, err
	}

	now := s.now()
	cutoff := now.Add(-time.Duration(lock.MaxLock) * time.Second)
	updates := map[string]interface{}{
		"locked":         1,
		"locked_date":    now,
		"current_server": s.ownerHost(interfaceType),
	}

	res := s.db.WithContext(ctx).Model(&models.InterfaceLock{}).
		Where("interface_type = ?", interfaceType).
		Where("(locked = 0 OR locked_date IS NULL OR locked_date <= ?)", cutoff).
		Updates(updates)
	if res.Error != nil {
		return false, &LockPersistenceError{Op: "acquire", InterfaceType: interfaceType, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if lock.IsLocked() {
		holder := ""
		if lock.CurrentServer != nil {
			holder = *lock.CurrentServer
		}
		logger.Warn().
			Str("interface", interfaceType).
			Str("previous_owner", holder).
			Interface("locked_since", lock.LockedDate).
			Msg("[InterfaceLock] Took over stale lock")
	}
	return true, nil
}

// Release frees the lock. Releasing a free lock is a no-op apart from
// refreshing unlocked_date.
func (s *InterfaceLockService) Release(ctx context.Context, interfaceType string) error {
	updates := map[string]interface{}{
		"locked":        0,
		"unlocked_date": s.now(),
	}

	res := s.db.WithContext(ctx).Model(&models.InterfaceLock{}).
		Where("interface_type = ?", interfaceType).
		Updates(updates)
	if res.Error != nil {
		return &LockPersistenceError{Op: "release", InterfaceType: interfaceType, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return s.ensureExists(ctx, interfaceType)
	}
	return nil
}

// WithLock runs fn while holding the lock. ran is false when another
// holder had it. The lock is released even if ctx is cancelled.
func (s *InterfaceLockService) WithLock(ctx context.Context, interfaceType string, fn func(context.Context) error) (ran bool, err error) {
	acquired, err := s.TryAcquire(ctx, interfaceType)
	if err != nil || !acquired {
		return false, err
	}

	defer func() {
		if relErr := s.Release(context.WithoutCancel(ctx), interfaceType); relErr != nil {
			logger.Error().Err(relErr).Str("interface", interfaceType).Msg("[InterfaceLock] Failed to release lock")
			err = errors.Join(err, relErr)
		}
	}()

	return true, fn(ctx)
}

// ownerHost returns the local hostname, or nil (stored as NULL) when it
// cannot be resolved.
func (s *InterfaceLockService) ownerHost(interfaceType string) interface{} {
	host, err := s.hostname()
	if err != nil || host == "" {
		logger.Warn().Err(err).Str("interface", interfaceType).
			Msg("[InterfaceLock] Could not resolve local hostname, owner left empty")
		return nil
	}
	return host
}

func (s *InterfaceLockService) ensureExists(ctx context.Context, interfaceType string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.InterfaceLock{}).
		Where("interface_type = ?", interfaceType).
		Count(&count).Error
	if err != nil {
		return &LockPersistenceError{Op: "read", InterfaceType: interfaceType, Err: err}
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrLockNotFound, interfaceType)
	}
	return nil
}
