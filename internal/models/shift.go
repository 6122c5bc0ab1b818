package models

import "time"

// EmployeeSchedule assigns an employee to a shift group. Rows are exported
// once and then flagged with BmmInterfaceFlag = "Y".
type EmployeeSchedule struct {
	Employee         string     `gorm:"primaryKey;size:50" json:"employee"`
	Group            string     `gorm:"column:group_code;size:50" json:"group"`
	ModifiedDate     time.Time  `json:"modified_date"`
	BmmInterfaceDate *time.Time `json:"bmm_interface_date"`
	BmmInterfaceFlag *string    `gorm:"size:1" json:"bmm_interface_flag"`
}

func (EmployeeSchedule) TableName() string { return "employee_schedule" }

type ShiftPattern struct {
	Pattern          string     `gorm:"primaryKey;size:50" json:"pattern"`
	Type             string     `gorm:"size:20" json:"type"` // total days
	DayPattern1      string     `gorm:"column:day_pattern_1;size:50;index" json:"day_pattern_1"`
	DayPattern2      string     `gorm:"column:day_pattern_2;size:50" json:"day_pattern_2"`
	DayPattern3      string     `gorm:"column:day_pattern_3;size:50" json:"day_pattern_3"`
	DayPattern4      string     `gorm:"column:day_pattern_4;size:50" json:"day_pattern_4"`
	DayPattern5      string     `gorm:"column:day_pattern_5;size:50" json:"day_pattern_5"`
	DayPattern6      string     `gorm:"column:day_pattern_6;size:50" json:"day_pattern_6"`
	DayPattern7      string     `gorm:"column:day_pattern_7;size:50" json:"day_pattern_7"`
	BmmInterfaceDate *time.Time `json:"bmm_interface_date"`
	BmmInterfaceFlag *string    `gorm:"size:1" json:"bmm_interface_flag"`
}

func (ShiftPattern) TableName() string { return "shift_pattern" }

// DailyShiftPattern is one day template: start time, work hours and up to
// six breaks, each with a start hour/minute and a duration in hours.
type DailyShiftPattern struct {
	DayPattern         string     `gorm:"primaryKey;size:50" json:"day_pattern"`
	DayStartHour       int        `json:"day_start_hour"`
	DayStartMinute     int        `json:"day_start_minute"`
	DayWorkHours       int        `json:"day_work_hours"`
	Notes              string     `gorm:"size:500" json:"notes"`
	Break01StartHour   *int       `gorm:"column:break_01_start_hour" json:"break_01_start_hour"`
	Break01StartMinute *int       `gorm:"column:break_01_start_minute" json:"break_01_start_minute"`
	Break01            *int       `gorm:"column:break_01" json:"break_01"`
	Break02StartHour   *int       `gorm:"column:break_02_start_hour" json:"break_02_start_hour"`
	Break02StartMinute *int       `gorm:"column:break_02_start_minute" json:"break_02_start_minute"`
	Break02            *int       `gorm:"column:break_02" json:"break_02"`
	Break03StartHour   *int       `gorm:"column:break_03_start_hour" json:"break_03_start_hour"`
	Break03StartMinute *int       `gorm:"column:break_03_start_minute" json:"break_03_start_minute"`
	Break03            *int       `gorm:"column:break_03" json:"break_03"`
	Break04StartHour   *int       `gorm:"column:break_04_start_hour" json:"break_04_start_hour"`
	Break04StartMinute *int       `gorm:"column:break_04_start_minute" json:"break_04_start_minute"`
	Break04            *int       `gorm:"column:break_04" json:"break_04"`
	Break05StartHour   *int       `gorm:"column:break_05_start_hour" json:"break_05_start_hour"`
	Break05StartMinute *int       `gorm:"column:break_05_start_minute" json:"break_05_start_minute"`
	Break05            *int       `gorm:"column:break_05" json:"break_05"`
	Break06StartHour   *int       `gorm:"column:break_06_start_hour" json:"break_06_start_hour"`
	Break06StartMinute *int       `gorm:"column:break_06_start_minute" json:"break_06_start_minute"`
	Break06            *int       `gorm:"column:break_06" json:"break_06"`
	BmmInterfaceDate   *time.Time `json:"bmm_interface_date"`
	BmmInterfaceFlag   *string    `gorm:"size:1" json:"bmm_interface_flag"`
}

func (DailyShiftPattern) TableName() string { return "daily_shift_pattern" }

// ShiftBreak is one break slot of a daily pattern.
type ShiftBreak struct {
	StartHour   *int
	StartMinute *int
	Hours       *int
}

func (d *DailyShiftPattern) Breaks() [6]ShiftBreak {
	return [6]ShiftBreak{
		{d.Break01StartHour, d.Break01StartMinute, d.Break01},
		{d.Break02StartHour, d.Break02StartMinute, d.Break02},
		{d.Break03StartHour, d.Break03StartMinute, d.Break03},
		{d.Break04StartHour, d.Break04StartMinute, d.Break04},
		{d.Break05StartHour, d.Break05StartMinute, d.Break05},
		{d.Break06StartHour, d.Break06StartMinute, d.Break06},
	}
}
