package models

import "time"

const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
	RunStatusSkipped = "skipped"
)

// InterfaceRunLog records the outcome of one scheduled or callback run.
type InterfaceRunLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InterfaceType string    `gorm:"size:20;index" json:"interface_type"`
	RunID         string    `gorm:"size:36;index" json:"run_id"`
	Level         string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Status        string    `gorm:"size:20;index" json:"status"`
	Processed     int       `json:"processed"`
	Failed        int       `json:"failed"`
	Message       string    `gorm:"type:text" json:"message"`
	Extra         string    `gorm:"type:text" json:"extra"` // JSON extra data
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (InterfaceRunLog) TableName() string { return "interface_run_logs" }
