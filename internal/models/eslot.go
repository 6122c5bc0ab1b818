package models

import "time"

// WorkOrder is the subset of the WO table the eSlot interface maintains.
// Cosl carries the external slot OID.
type WorkOrder struct {
	Wo                          int64      `gorm:"primaryKey;autoIncrement:false" json:"wo"`
	Cosl                        string     `gorm:"size:50;index" json:"cosl"`
	CustomerWo                  string     `gorm:"size:50" json:"customer_wo"`
	Ac                          string     `gorm:"size:20" json:"ac"`
	AcType                      string     `gorm:"size:20" json:"ac_type"`
	AcSeries                    string     `gorm:"size:20" json:"ac_series"`
	WoCategory                  string     `gorm:"size:20" json:"wo_category"`
	WoDescription               string     `gorm:"size:500" json:"wo_description"`
	OpsLine                     string     `gorm:"size:50" json:"ops_line"`
	Site                        string     `gorm:"size:50" json:"site"`
	Location                    string     `gorm:"size:50" json:"location"`
	Status                      string     `gorm:"size:20" json:"status"`
	WorkStarted                 string     `gorm:"size:1" json:"work_started"`
	GlCompany                   string     `gorm:"size:20" json:"gl_company"`
	OrderType                   string     `gorm:"size:20" json:"order_type"`
	Module                      string     `gorm:"size:20" json:"module"`
	PaperChecked                string     `gorm:"size:5" json:"paper_checked"`
	Authorization               string     `gorm:"size:1" json:"authorization"`
	NrReqItem                   string     `gorm:"size:1" json:"nr_req_item"`
	RestrictActual              string     `gorm:"size:1" json:"restrict_actual"`
	NrAllow                     string     `gorm:"size:5" json:"nr_allow"`
	ExcludeMhPlanner            string     `gorm:"size:1" json:"exclude_mh_planner"`
	ThirdPartyWo                string     `gorm:"size:1" json:"third_party_wo"`
	Expenditure                 string     `gorm:"size:20" json:"expenditure"`
	Notes                       *int64     `json:"notes"`
	ScheduleStartDate           *time.Time `json:"schedule_start_date"`
	ScheduleStartHour           int        `json:"schedule_start_hour"`
	ScheduleStartMinute         int        `json:"schedule_start_minute"`
	ActualStartDate             *time.Time `json:"actual_start_date"`
	ActualStartHour             int        `json:"actual_start_hour"`
	ActualStartMinute           int        `json:"actual_start_minute"`
	ScheduleOrgCompletionDate   *time.Time `json:"schedule_org_completion_date"`
	ScheduleOrgCompletionHour   int        `json:"schedule_org_completion_hour"`
	ScheduleOrgCompletionMinute int        `json:"schedule_org_completion_minute"`
	ScheduleCompletionDate      *time.Time `json:"schedule_completion_date"`
	ScheduleCompletionHour      int        `json:"schedule_completion_hour"`
	ScheduleCompletionMinute    int        `json:"schedule_completion_minute"`
	CreatedBy                   string     `gorm:"size:30" json:"created_by"`
	CreatedDate                 time.Time  `json:"created_date"`
	ModifiedBy                  string     `gorm:"size:30" json:"modified_by"`
	ModifiedDate                time.Time  `json:"modified_date"`
}

func (WorkOrder) TableName() string { return "wo" }

type Notepad struct {
	Notes        int64     `gorm:"primaryKey;autoIncrement:false" json:"notes"`
	NotesLine    int       `gorm:"primaryKey;autoIncrement:false" json:"notes_line"`
	NotesText    string    `gorm:"type:text" json:"notes_text"`
	PrintNotes   string    `gorm:"size:5" json:"print_notes"`
	CreatedBy    string    `gorm:"size:30" json:"created_by"`
	CreatedDate  time.Time `json:"created_date"`
	ModifiedBy   string    `gorm:"size:30" json:"modified_by"`
	ModifiedDate time.Time `json:"modified_date"`
}

func (Notepad) TableName() string { return "notepad" }

type AcMaster struct {
	Ac       string `gorm:"primaryKey;size:20" json:"ac"`
	AcType   string `gorm:"size:20" json:"ac_type"`
	AcSeries string `gorm:"size:20" json:"ac_series"`
}

func (AcMaster) TableName() string { return "ac_master" }

type SystemTranCode struct {
	SystemTransaction string `gorm:"primaryKey;size:30" json:"system_transaction"`
	SystemCode        string `gorm:"primaryKey;size:30" json:"system_code"`
	Description       string `gorm:"size:200" json:"description"`
}

func (SystemTranCode) TableName() string { return "system_tran_code" }

type LocationSite struct {
	Location string `gorm:"primaryKey;size:50" json:"location"`
	Site     string `gorm:"primaryKey;size:50;index" json:"site"`
}

func (LocationSite) TableName() string { return "location_site" }

type LocationMaster struct {
	Location            string `gorm:"primaryKey;size:50" json:"location"`
	MaintenanceFacility string `gorm:"size:1" json:"maintenance_facility"`
}

func (LocationMaster) TableName() string { return "location_master" }

// OpsLineEmail maps an operations line to its site and contact address.
type OpsLineEmail struct {
	OpsLine string `gorm:"primaryKey;size:50" json:"ops_line"`
	Site    string `gorm:"size:50" json:"site"`
	Email   string `gorm:"size:200" json:"email"`
}

func (OpsLineEmail) TableName() string { return "ops_line_email_master" }
