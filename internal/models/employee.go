package models

import "time"

const (
	RelationTransactionEmployee = "EMPLOYEE"
	InterfaceUser               = "TRAX_IFACE"
)

// RelationMaster holds employees (relation_transaction = EMPLOYEE).
type RelationMaster struct {
	RelationCode          string     `gorm:"primaryKey;size:50" json:"relation_code"`
	RelationTransaction   string     `gorm:"primaryKey;size:30" json:"relation_transaction"`
	EmployeeID            string     `gorm:"size:50;index" json:"employee_id"`
	Name                  string     `gorm:"size:200" json:"name"`
	FirstName             string     `gorm:"size:100" json:"first_name"`
	LastName              string     `gorm:"size:100" json:"last_name"`
	Location              string     `gorm:"size:50" json:"location"`
	PositionCode          string     `gorm:"size:50" json:"position_code"`
	Position              string     `gorm:"size:200" json:"position"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Department            string     `gorm:"size:50" json:"department"`
	DepartmentDescription string     `gorm:"size:200" json:"department_description"`
	Division              string     `gorm:"size:50" json:"division"`
	DivisionDescription   string     `gorm:"size:200" json:"division_description"`
	MailPhone             string     `gorm:"size:50" json:"mail_phone"`
	MailEmail             string     `gorm:"size:200" json:"mail_email"`
	DateHired             *time.Time `json:"date_hired"`
	DateTerminated        *time.Time `json:"date_terminated"`
	Profile               string     `gorm:"size:50" json:"profile"`
	CompanyName           string     `gorm:"size:200" json:"company_name"`
	CostCentre            string     `gorm:"size:50" json:"cost_centre"`
	GradeCode             string     `gorm:"size:50" json:"grade_code"`
	Status                string     `gorm:"size:20" json:"status"`
	CreatedBy             string     `gorm:"size:30" json:"created_by"`
	CreatedDate           time.Time  `json:"created_date"`
	ModifiedBy            string     `gorm:"size:30" json:"modified_by"`
	ModifiedDate          time.Time  `json:"modified_date"`
}

func (RelationMaster) TableName() string { return "relation_master" }

type SkillMaster struct {
	Skill        string    `gorm:"primaryKey;size:50" json:"skill"`
	Description  string    `gorm:"size:200" json:"description"`
	Mechanic     string    `gorm:"size:1" json:"mechanic"`
	Inspector    string    `gorm:"size:1" json:"inspector"`
	Etops        string    `gorm:"size:1" json:"etops"`
	Defect       string    `gorm:"size:1" json:"defect"`
	CreatedBy    string    `gorm:"size:30" json:"created_by"`
	CreatedDate  time.Time `json:"created_date"`
	ModifiedBy   string    `gorm:"size:30" json:"modified_by"`
	ModifiedDate time.Time `json:"modified_date"`
}

func (SkillMaster) TableName() string { return "skill_master" }

type EmployeeSkill struct {
	Employee    string    `gorm:"primaryKey;size:50" json:"employee"`
	Skill       string    `gorm:"primaryKey;size:50" json:"skill"`
	CreatedBy   string    `gorm:"size:30" json:"created_by"`
	CreatedDate time.Time `json:"created_date"`
}

func (EmployeeSkill) TableName() string { return "employee_skill" }

// SiteGroupMaster maps a cost centre to a schedule group.
type SiteGroupMaster struct {
	CostCentre string `gorm:"primaryKey;size:50" json:"cost_centre"`
	GroupCode  string `gorm:"size:50" json:"group_code"`
}

func (SiteGroupMaster) TableName() string { return "site_group_master" }

type EmployeeScheduleGroup struct {
	GroupCode string `gorm:"primaryKey;size:50" json:"group_code"`
	Location  string `gorm:"size:50" json:"location"`
	Site      string `gorm:"size:50" json:"site"`
}

func (EmployeeScheduleGroup) TableName() string { return "employee_schedule_group" }
