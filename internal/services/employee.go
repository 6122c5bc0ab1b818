package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	employeeName    = "Employee Info interface"
	employeeSubject = "Employee Info interface encountered a Error"

	employeeColumns = 24

	statusActive   = "ACTIVE"
	statusInactive = "INACTIVE"
)

var hrDateLayouts = []string{"1/2/2006 15:04", "1/2/2006"}

// EmployeeRecord is one row of the HR employee extract.
type EmployeeRecord struct {
	EmployeeID            string
	RelationCode          string
	FullName              string
	FirstName             string
	LastName              string
	RelatedLocation       string
	PositionCode          string
	Position              string
	DateOfBirth           string
	Department            string
	DepartmentDescription string
	Division              string
	DivisionDescription   string
	MailPhone             string
	MailEmail             string
	DateHired             string
	DateTerminated        string
	Profile               string
	CompanyName           string
	CostCode              string
	Skill                 string
	SkillDescription      string
	GradeCode             string
	Status                string
}

// ParseEmployeeRecord maps the 24 extract columns in order.
func ParseEmployeeRecord(fields []string) (EmployeeRecord, error) {
	if len(fields) < employeeColumns {
		return EmployeeRecord{}, fmt.Errorf("row has %d fields, expected %d", len(fields), employeeColumns)
	}
	f := make([]string, employeeColumns)
	for i := range f {
		f[i] = strings.TrimSpace(fields[i])
	}
	return EmployeeRecord{
		EmployeeID:            f[0],
		RelationCode:          f[1],
		FullName:              f[2],
		FirstName:             f[3],
		LastName:              f[4],
		RelatedLocation:       f[5],
		PositionCode:          f[6],
		Position:              f[7],
		DateOfBirth:           f[8],
		Department:            f[9],
		DepartmentDescription: f[10],
		Division:              f[11],
		DivisionDescription:   f[12],
		MailPhone:             f[13],
		MailEmail:             f[14],
		DateHired:             f[15],
		DateTerminated:        f[16],
		Profile:               f[17],
		CompanyName:           f[18],
		CostCode:              f[19],
		Skill:                 f[20],
		SkillDescription:      f[21],
		GradeCode:             f[22],
		Status:                f[23],
	}, nil
}

// Fields returns the record in extract column order.
func (e EmployeeRecord) Fields() []string {
	return []string{
		e.EmployeeID, e.RelationCode, e.FullName, e.FirstName, e.LastName,
		e.RelatedLocation, e.PositionCode, e.Position, e.DateOfBirth,
		e.Department, e.DepartmentDescription, e.Division, e.DivisionDescription,
		e.MailPhone, e.MailEmail, e.DateHired, e.DateTerminated,
		e.Profile, e.CompanyName, e.CostCode, e.Skill, e.SkillDescription,
		e.GradeCode, e.Status,
	}
}

func parseHRDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	for _, layout := range hrDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// EmployeeStatus maps the HR status flag: "1" is active, any other value
// inactive, and an absent value active.
func EmployeeStatus(v string) string {
	switch v {
	case "", "1":
		return statusActive
	default:
		return statusInactive
	}
}

// EmployeeService writes employee records into relation_master and the
// skill tables.
type EmployeeService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEmployeeService(db *gorm.DB) *EmployeeService {
	return &EmployeeService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert inserts or updates one employee and ensures its skill rows.
func (s *EmployeeService) Upsert(ctx context.Context, e EmployeeRecord) error {
	if e.EmployeeID == "" || e.RelationCode == "" {
		return errors.New("cannot upsert employee due to missing required fields: employeeId or relationCode")
	}

	now := s.now()
	rel := models.RelationMaster{
		RelationCode:          e.RelationCode,
		RelationTransaction:   models.RelationTransactionEmployee,
		EmployeeID:            e.EmployeeID,
		Name:                  e.FullName,
		FirstName:             e.FirstName,
		LastName:              e.LastName,
		Location:              e.RelatedLocation,
		PositionCode:          e.PositionCode,
		Position:              e.Position,
		DateOfBirth:           parseHRDate(e.DateOfBirth),
		Department:            e.Department,
		DepartmentDescription: e.DepartmentDescription,
		Division:              e.Division,
		DivisionDescription:   e.DivisionDescription,
		MailPhone:             e.MailPhone,
		MailEmail:             e.MailEmail,
		DateHired:             parseHRDate(e.DateHired),
		DateTerminated:        parseHRDate(e.DateTerminated),
		Profile:               e.Profile,
		CompanyName:           e.CompanyName,
		CostCentre:            e.CostCode,
		GradeCode:             e.GradeCode,
		Status:                EmployeeStatus(e.Status),
		CreatedBy:             models.InterfaceUser,
		CreatedDate:           now,
		ModifiedBy:            models.InterfaceUser,
		ModifiedDate:          now,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "relation_code"}, {Name: "relation_transaction"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"employee_id", "name", "first_name", "last_name", "location",
				"position_code", "position", "date_of_birth", "department",
				"department_description", "division", "division_description",
				"mail_phone", "mail_email", "date_hired", "date_terminated",
				"profile", "company_name", "cost_centre", "grade_code", "status",
				"modified_by", "modified_date",
			}),
		}).Create(&rel).Error
		if err != nil {
			return fmt.Errorf("upsert employee %s: %w", e.RelationCode, err)
		}

		if e.Skill == "" {
			return nil
		}
		return ensureSkill(tx, e, now)
	})
}

func ensureSkill(tx *gorm.DB, e EmployeeRecord, now time.Time) error {
	description := e.SkillDescription
	if description == "" {
		description = e.Skill
	}
	skill := models.SkillMaster{
		Skill:        e.Skill,
		Description:  description,
		Mechanic:     "Y",
		Inspector:    "Y",
		Etops:        "N",
		Defect:       "N",
		CreatedBy:    models.InterfaceUser,
		CreatedDate:  now,
		ModifiedBy:   models.InterfaceUser,
		ModifiedDate: now,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&skill).Error; err != nil {
		return fmt.Errorf("insert skill %s: %w", e.Skill, err)
	}

	link := models.EmployeeSkill{
		Employee:    e.RelationCode,
		Skill:       e.Skill,
		CreatedBy:   models.InterfaceUser,
		CreatedDate: now,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("insert employee skill %s/%s: %w", e.RelationCode, e.Skill, err)
	}
	return nil
}

// EmployeeJob imports employee extract files dropped into FileLoc.
type EmployeeJob struct {
	service   *EmployeeService
	cfg       *config.EmployeeConfig
	notifier  Notifier
	decrypter FileDecrypter
}

func NewEmployeeJob(service *EmployeeService, cfg *config.EmployeeConfig, notifier Notifier, decrypter FileDecrypter) *EmployeeJob {
	return &EmployeeJob{service: service, cfg: cfg, notifier: notifier, decrypter: decrypter}
}

func (j *EmployeeJob) Name() string          { return "EmployeeImport" }
func (j *EmployeeJob) InterfaceType() string { return config.InterfaceEmployee }

func (j *EmployeeJob) pipeline() *FileIngestPipeline[EmployeeRecord] {
	return &FileIngestPipeline[EmployeeRecord]{
		Name:       "Employee",
		InputDir:   j.cfg.FileLoc,
		Workers:    j.cfg.ThreadCount,
		Decrypter:  j.decrypter,
		Separator:  "||",
		SkipHeader: true,
		Parse:      ParseEmployeeRecord,
		Process:    j.service.Upsert,
		Format:     EmployeeRecord.Fields,
	}
}

func (j *EmployeeJob) Run(ctx context.Context, report *RunReport) error {
	result, err := j.pipeline().Run(ctx, report)
	if err != nil {
		report.Errorf("", "%v", err)
		j.notify(ctx, "", report)
		return nil
	}

	for _, o := range result.Outcomes {
		if len(o.Errors) == 0 {
			continue
		}
		fileReport := NewRunReport(config.InterfaceEmployee)
		for _, msg := range o.Errors {
			fileReport.Errorf(o.Name, "%s", msg)
		}
		header := "File " + o.Name
		if o.FailureFile != "" {
			header += "\nFailed File " + filepath.Base(o.FailureFile)
		}
		j.notify(ctx, header, fileReport)
	}

	logger.Infof("[Employee] Imported %d files: processed=%d failed=%d", result.Files, result.Processed, result.Failed)
	return nil
}

func (j *EmployeeJob) notify(ctx context.Context, header string, report *RunReport) {
	if j.notifier == nil {
		return
	}
	n := BuildIssueNotification(employeeSubject, employeeName, header, report, j.cfg.Recipients)
	if err := j.notifier.Notify(ctx, n); err != nil {
		logger.Errorf("[Employee] Failed to send error notification: %v", err)
	}
}

// Notification is nil: Run mails one message per failed file.
func (j *EmployeeJob) Notification(*RunReport) *Notification {
	return nil
}
