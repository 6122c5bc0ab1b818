package models

import "time"

// InterfaceLock is the advisory lock row for one interface job.
// Locked is persisted as 0/1 so the conditional update is portable
// across drivers.
type InterfaceLock struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	InterfaceType string     `gorm:"uniqueIndex;size:20;not null" json:"interface_type"`
	Locked        int        `gorm:"not null;default:0" json:"locked"`
	LockedDate    *time.Time `json:"locked_date"`
	UnlockedDate  *time.Time `json:"unlocked_date"`
	MaxLock       int        `gorm:"not null;default:0" json:"max_lock"` // seconds
	CurrentServer *string    `gorm:"size:255" json:"current_server"`
}

func (InterfaceLock) TableName() string { return "interface_lock_master" }

func (l *InterfaceLock) IsLocked() bool { return l.Locked == 1 }
