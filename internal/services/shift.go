package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

const (
	shiftName    = "Shift Info interface"
	shiftSubject = "Shift Info interface encountered a Error"

	defaultShiftCompany = "SIABMM"
	scheduleDateLayout  = "02.01.2006"
	exportStampLayout   = "20060102_150405"
	flagExported        = "Y"
)

var (
	employeeScheduleHeader = []string{
		"SHIFTGROUPCODE", "COMPANY_CODE", "EMP_NO", "STARTSHIFTDATE", "ALWAYS_PRESENT",
	}
	shiftPatternHeader = []string{
		"SHIFTDAILYCODE", "COMPANY_CODE", "START_TIME", "ENDTIME", "PRODUCTIVEHOURS",
		"DAYTYPE", "REMARK", "IS_ACTIVE", "HALFDAY",
		"BREAK_STARTTIME_1", "BREAK_ENDTIME_1", "BREAK_STARTTIME_2", "BREAK_ENDTIME_2",
		"BREAK_STARTTIME_3", "BREAK_ENDTIME_3", "BREAK_STARTTIME_4", "BREAK_ENDTIME_4",
		"BREAK_STARTTIME_5", "BREAK_ENDTIME_5", "BREAK_STARTTIME_6", "BREAK_ENDTIME_6",
		"SHIFTGROUPCODE", "SHIFTGROUPCODE_1", "SHIFTGROUPNAME", "COMPANY_CODE_1",
		"TOTALDAYS", "IS_ACTIVE_1",
		"SHIFTDAILYCODE_1", "SHIFTDAILYCODE_2", "SHIFTDAILYCODE_3", "SHIFTDAILYCODE_4",
		"SHIFTDAILYCODE_5", "SHIFTDAILYCODE_6", "SHIFTDAILYCODE_7",
	}
)

// ClockTime renders hour:minute as HH:MM, or "" when either part is out of
// range.
func ClockTime(hour, minute int) string {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ShiftEndTime adds hours to a start time, wrapping past midnight.
func ShiftEndTime(hour, minute, hours int) string {
	if ClockTime(hour, minute) == "" {
		return ""
	}
	return ClockTime(((hour+hours)%24+24)%24, minute)
}

func breakTimes(b models.ShiftBreak) (start, end string) {
	if b.StartHour == nil || b.StartMinute == nil {
		return "", ""
	}
	start = ClockTime(*b.StartHour, *b.StartMinute)
	if b.Hours != nil {
		end = ShiftEndTime(*b.StartHour, *b.StartMinute, *b.Hours)
	}
	return start, end
}

// ShiftGroupName expands codes such as "5D_8H_A" into "5 Days 8H Work A".
// Patterns without a D_ ... H_ sequence are returned unchanged.
func ShiftGroupName(pattern string) string {
	d := strings.Index(pattern, "D_")
	if d < 0 || !strings.Contains(pattern[d+2:], "H_") {
		return pattern
	}
	name := strings.ReplaceAll(pattern, "D_", " Days ")
	return strings.ReplaceAll(name, "H_", "H Work ")
}

// ShiftJob exports pending employee schedules and shift patterns as
// semicolon separated files for the rostering system.
type ShiftJob struct {
	db        *gorm.DB
	cfg       *config.ShiftConfig
	encrypter FileEncrypter
	now       func() time.Time
}

func NewShiftJob(db *gorm.DB, cfg *config.ShiftConfig, encrypter FileEncrypter) *ShiftJob {
	return &ShiftJob{
		db:        db,
		cfg:       cfg,
		encrypter: encrypter,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *ShiftJob) Name() string          { return "ShiftExport" }
func (j *ShiftJob) InterfaceType() string { return config.InterfaceShift }

func (j *ShiftJob) companyCode() string {
	if j.cfg.CompanyCode != "" {
		return j.cfg.CompanyCode
	}
	return defaultShiftCompany
}

func (j *ShiftJob) Run(ctx context.Context, report *RunReport) error {
	if j.cfg.ExportLoc == "" {
		return errors.New("shift export location is not configured")
	}
	if err := os.MkdirAll(j.cfg.ExportLoc, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	if err := j.exportEmployeeSchedules(ctx, report); err != nil {
		report.Errorf("EmployeeSchedule", "Error generating employee schedule file: %v", err)
	}
	if err := j.exportShiftPatterns(ctx, report); err != nil {
		report.Errorf("ShiftPatterns", "Error generating shift patterns file: %v", err)
	}
	return nil
}

func (j *ShiftJob) exportEmployeeSchedules(ctx context.Context, report *RunReport) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var schedules []models.EmployeeSchedule
		err := tx.Where("bmm_interface_date IS NULL AND bmm_interface_flag IS NULL").
			Order("employee").
			Find(&schedules).Error
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			logger.Info().Msg("[Shift] No employee schedule records found to export")
			return nil
		}

		rows := make([][]string, 0, len(schedules))
		employees := make([]string, 0, len(schedules))
		for _, s := range schedules {
			rows = append(rows, []string{
				s.Group, j.companyCode(), s.Employee, s.ModifiedDate.Format(scheduleDateLayout), "N",
			})
			employees = append(employees, s.Employee)
		}

		path, err := j.writeExport("EmployeeSchedule", employeeScheduleHeader, rows)
		if err != nil {
			return err
		}

		now := j.now()
		err = tx.Model(&models.EmployeeSchedule{}).
			Where("employee IN ?", employees).
			Updates(map[string]interface{}{"bmm_interface_date": now, "bmm_interface_flag": flagExported}).Error
		if err != nil {
			discardExport(path)
			return fmt.Errorf("mark employee schedules exported: %w", err)
		}

		report.AddCounts(len(rows), 0)
		logger.Infof("[Shift] Exported %d employee schedule records to %s", len(rows), path)
		return nil
	})
}

func (j *ShiftJob) exportShiftPatterns(ctx context.Context, report *RunReport) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var patterns []models.ShiftPattern
		err := tx.Where("bmm_interface_date IS NULL AND bmm_interface_flag IS NULL").
			Order("pattern").
			Find(&patterns).Error
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			logger.Info().Msg("[Shift] No shift pattern records found to export")
			return nil
		}

		keys := make([]string, 0, len(patterns))
		for _, p := range patterns {
			keys = append(keys, p.DayPattern1)
		}
		var dailies []models.DailyShiftPattern
		err = tx.Where("day_pattern IN ? AND bmm_interface_date IS NULL AND bmm_interface_flag IS NULL", keys).
			Find(&dailies).Error
		if err != nil {
			return err
		}
		byDay := make(map[string]*models.DailyShiftPattern, len(dailies))
		for i := range dailies {
			byDay[dailies[i].DayPattern] = &dailies[i]
		}

		var rows [][]string
		exportedDays := map[string]bool{}
		var exportedPatterns []string
		for _, p := range patterns {
			d, ok := byDay[p.DayPattern1]
			if !ok {
				continue
			}
			rows = append(rows, j.shiftPatternRow(d, p))
			exportedDays[d.DayPattern] = true
			exportedPatterns = append(exportedPatterns, p.Pattern)
		}
		if len(rows) == 0 {
			logger.Info().Msg("[Shift] No shift pattern records found to export")
			return nil
		}

		path, err := j.writeExport("ShiftPatterns", shiftPatternHeader, rows)
		if err != nil {
			return err
		}

		days := make([]string, 0, len(exportedDays))
		for k := range exportedDays {
			days = append(days, k)
		}
		sort.Strings(days)

		now := j.now()
		marks := map[string]interface{}{"bmm_interface_date": now, "bmm_interface_flag": flagExported}
		if err := tx.Model(&models.DailyShiftPattern{}).Where("day_pattern IN ?", days).Updates(marks).Error; err != nil {
			discardExport(path)
			return fmt.Errorf("mark daily shift patterns exported: %w", err)
		}
		if err := tx.Model(&models.ShiftPattern{}).Where("pattern IN ?", exportedPatterns).Updates(marks).Error; err != nil {
			discardExport(path)
			return fmt.Errorf("mark shift patterns exported: %w", err)
		}

		report.AddCounts(len(rows), 0)
		logger.Infof("[Shift] Exported %d shift pattern records to %s", len(rows), path)
		return nil
	})
}

func (j *ShiftJob) shiftPatternRow(d *models.DailyShiftPattern, p models.ShiftPattern) []string {
	row := []string{
		d.DayPattern,
		j.companyCode(),
		ClockTime(d.DayStartHour, d.DayStartMinute),
		ShiftEndTime(d.DayStartHour, d.DayStartMinute, d.DayWorkHours),
		strconv.Itoa(d.DayWorkHours),
		p.DayPattern1,
		d.Notes,
		"1",
		"N",
	}
	for _, b := range d.Breaks() {
		start, end := breakTimes(b)
		row = append(row, start, end)
	}
	return append(row,
		p.Pattern,
		p.Pattern,
		ShiftGroupName(p.Pattern),
		j.companyCode(),
		p.Type,
		"1",
		p.DayPattern1, p.DayPattern2, p.DayPattern3, p.DayPattern4,
		p.DayPattern5, p.DayPattern6, p.DayPattern7,
	)
}

// writeExport writes one export file and, when configured, replaces it
// with its encrypted form. It returns the final path.
func (j *ShiftJob) writeExport(prefix string, header []string, rows [][]string) (string, error) {
	name := fmt.Sprintf("%s_%s.txt", prefix, j.now().Format(exportStampLayout))
	path := filepath.Join(j.cfg.ExportLoc, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(f)
	w.WriteString(strings.Join(header, ";"))
	w.WriteString("\n")
	for _, row := range rows {
		w.WriteString(strings.Join(row, ";"))
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	if !j.cfg.EncryptOutput {
		return path, nil
	}
	if j.encrypter == nil {
		os.Remove(path)
		return "", errors.New("output encryption is enabled but no public key is loaded")
	}
	encrypted := path + ".pgp"
	if err := j.encrypter.EncryptFile(path, encrypted); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encrypt %s: %w", name, err)
	}
	if err := os.Remove(path); err != nil {
		logger.Warnf("[Shift] Failed to remove plaintext %s: %v", name, err)
	}
	return encrypted, nil
}

// discardExport removes a file whose rows were rolled back, so the next
// run is the only one that delivers them.
func discardExport(path string) {
	if err := os.Remove(path); err != nil {
		logger.Warnf("[Shift] Failed to remove unmarked export %s: %v", filepath.Base(path), err)
	}
}

func (j *ShiftJob) Notification(report *RunReport) *Notification {
	return BuildIssueNotification(shiftSubject, shiftName, "", report, j.cfg.Recipients)
}
