package models

import "time"

const (
	PunchIn  = "IN"
	PunchOut = "OUT"
)

// EmployeeAttendanceCurrent holds the open clock-in of an employee, if any.
type EmployeeAttendanceCurrent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Employee    string    `gorm:"size:50;index" json:"employee"`
	StartDate   time.Time `json:"start_date"`
	StartTime   int       `json:"start_time"` // minutes since midnight
	Location    string    `gorm:"size:50" json:"location"`
	Site        string    `gorm:"size:50" json:"site"`
	GroupCode   string    `gorm:"size:50" json:"group_code"`
	CreatedBy   string    `gorm:"size:30" json:"created_by"`
	CreatedDate time.Time `json:"created_date"`
}

func (EmployeeAttendanceCurrent) TableName() string { return "employee_attendance_current" }

type EmployeeAttendanceLog struct {
	TransactionNo int64      `gorm:"primaryKey;autoIncrement:false" json:"transaction_no"`
	Employee      string     `gorm:"size:50;index" json:"employee"`
	Type          string     `gorm:"size:10" json:"type"`
	StartDate     time.Time  `gorm:"index" json:"start_date"`
	StartTime     int        `json:"start_time"` // minutes since midnight
	EndDate       *time.Time `json:"end_date"`
	EndTime       *int       `json:"end_time"`
	Location      string     `gorm:"size:50" json:"location"`
	Site          string     `gorm:"size:50" json:"site"`
	GroupCode     string     `gorm:"size:50" json:"group_code"`
	SeqNo         string     `gorm:"size:50" json:"seq_no"`
	CreatedBy     string     `gorm:"size:30" json:"created_by"`
	CreatedDate   time.Time  `json:"created_date"`
}

func (EmployeeAttendanceLog) TableName() string { return "employee_attendance_log" }
