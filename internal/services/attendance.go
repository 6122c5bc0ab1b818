package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

const (
	attendanceName    = "Import Clock On Off interface"
	attendanceSubject = "Import Clock On Off interface error"

	clockTimeLayout  = "01/02/2006 15:04:05"
	resendDateLayout = "01/02/2006"

	msgTypeClockIn  = "ClockIn"
	msgTypeClockOut = "ClockOut"

	// duplicateWindow is how close two punches of the same type must be on
	// the same day to be treated as one.
	duplicateWindow = 10 // minutes
)

// SeqNo accepts both numeric and string sequence numbers and keeps their
// textual form.
type SeqNo string

func (s *SeqNo) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = SeqNo(strings.TrimSpace(str))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("SEQ_NO must be a number or string: %w", err)
	}
	*s = SeqNo(n.String())
	return nil
}

func (s SeqNo) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	if n := json.Number(s); isNumeric(string(n)) {
		return []byte(n), nil
	}
	return json.Marshal(string(s))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '-' && i == 0 && len(s) > 1 {
			continue
		}
		return false
	}
	return true
}

type HumanicaPayload struct {
	CostCentre string `json:"COST_CENTRE"`
	MsgType    string `json:"MSG_TYPE"`
	Status     string `json:"STATUS"`
	StaffNo    string `json:"STAFF_NO"`
	SeqNo      SeqNo  `json:"SEQ_NO"`
	ClkInTime  string `json:"CLK_IN_TIME"`
	ClkOutTime string `json:"CLK_OUT_TIME"`
}

type TraxPayload struct {
	Date    string `json:"DATE,omitempty"`
	MsgType string `json:"MSG_TYPE,omitempty"`
	Status  string `json:"STATUS,omitempty"`
	SeqNo   SeqNo  `json:"SEQ_NO,omitempty"`
}

type AttendanceMessage struct {
	Humanica *HumanicaPayload `json:"HUMANICA,omitempty"`
	Trax     *TraxPayload     `json:"TRAX,omitempty"`
}

// AttendanceImport is the envelope exchanged with Humanica.
type AttendanceImport struct {
	Message *AttendanceMessage `json:"Message"`
}

// Punch is a validated clock event.
type Punch struct {
	EmployeeID string
	Type       string // IN or OUT
	Time       time.Time
}

// AttendanceError carries every problem found while importing one punch.
type AttendanceError struct {
	SeqNo    string
	Messages []string
}

func (e *AttendanceError) Error() string {
	return strings.Join(e.Messages, "; ")
}

type AttendanceService struct {
	db         *gorm.DB
	queue      TaskQueue
	notifier   Notifier
	runLogs    *RunLogService
	recipients []string
	now        func() time.Time
}

func NewAttendanceService(db *gorm.DB, cfg *config.AttendanceConfig, queue TaskQueue, notifier Notifier, runLogs *RunLogService) *AttendanceService {
	return &AttendanceService{
		db:         db,
		queue:      queue,
		notifier:   notifier,
		runLogs:    runLogs,
		recipients: cfg.Recipients,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Import validates and stores one punch. On failure it enqueues a resend
// request, emails the recipients and returns an *AttendanceError.
func (s *AttendanceService) Import(ctx context.Context, msg *AttendanceImport) error {
	report := NewRunReport(config.InterfaceAttendance)

	var h *HumanicaPayload
	if msg != nil && msg.Message != nil {
		h = msg.Message.Humanica
	}
	if h == nil {
		report.Errorf("", "Invalid request structure: Missing required Message.HUMANICA data")
		return s.fail(ctx, report, nil)
	}

	ref := "SEQ NO " + string(h.SeqNo)
	logger.Infof("[Attendance] Processing import for SEQ_NO: %s", h.SeqNo)

	for _, problem := range s.Validate(ctx, h) {
		report.Errorf(ref, "%s", problem)
	}
	if report.HasErrors() {
		return s.fail(ctx, report, h)
	}

	punch := ToPunch(h, s.now())
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recordPunch(tx, punch, string(h.SeqNo))
	}); err != nil {
		report.Errorf(ref, "Error processing clock data: %v", err)
		return s.fail(ctx, report, h)
	}

	report.AddCounts(1, 0)
	if s.runLogs != nil {
		s.runLogs.Record(ctx, report, models.RunStatusSuccess)
	}
	return nil
}

func (s *AttendanceService) fail(ctx context.Context, report *RunReport, h *HumanicaPayload) error {
	report.AddCounts(0, 1)
	seq := ""
	if h != nil {
		seq = string(h.SeqNo)
		task := &ResendTask{SeqNo: seq, StaffNo: h.StaffNo, Date: s.now().Format(resendDateLayout)}
		if s.queue == nil {
			report.Errorf("SEQ NO "+seq, "Unable to send resend request for punch with Seq No: %s", seq)
		} else if err := s.queue.Enqueue(task); err != nil {
			logger.Errorf("[Attendance] Failed to enqueue resend for seq_no=%s: %v", seq, err)
			report.Errorf("SEQ NO "+seq, "Unable to send resend request for punch with Seq No: %s", seq)
		}
	}

	header := ""
	if seq != "" {
		header = "SEQ NO " + seq
	}
	if s.notifier != nil {
		n := BuildIssueNotification(attendanceSubject, attendanceName, header, report, s.recipients)
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.Errorf("[Attendance] Failed to send error notification: %v", err)
		}
	}
	if s.runLogs != nil {
		s.runLogs.Record(ctx, report, models.RunStatusFailed)
	}

	out := &AttendanceError{SeqNo: seq}
	for _, d := range report.Errors() {
		out.Messages = append(out.Messages, d.Message)
	}
	return out
}

// Validate returns every problem with h. An empty result means the punch
// can be imported.
func (s *AttendanceService) Validate(ctx context.Context, h *HumanicaPayload) []string {
	var problems []string

	if strings.TrimSpace(h.CostCentre) == "" {
		problems = append(problems, "Error: Cost Centre is null or empty")
	}
	if h.SeqNo == "" {
		problems = append(problems, "Error: Sequence Number is null")
	}

	switch {
	case h.Status == "":
		problems = append(problems, "Error: Status is null or empty")
	case !strings.EqualFold(h.Status, "N") && !strings.EqualFold(h.Status, "R"):
		problems = append(problems, fmt.Sprintf("Status: %s Error: Status is not N or R", h.Status))
	}

	switch {
	case h.MsgType == "":
		problems = append(problems, "Error: Message Type is null or empty")
	case strings.EqualFold(h.MsgType, msgTypeClockIn):
		if !validClockTime(h.ClkInTime) {
			problems = append(problems, fmt.Sprintf("%s Error: Clock in Time is null or empty or invalid", h.ClkInTime))
		}
	case strings.EqualFold(h.MsgType, msgTypeClockOut):
		if !validClockTime(h.ClkOutTime) {
			problems = append(problems, fmt.Sprintf("%s Error: Clock Out Time is null or empty or invalid", h.ClkOutTime))
		}
	default:
		problems = append(problems, fmt.Sprintf("Message Type: %s Error: Message Type is not ClockIn or ClockOut", h.MsgType))
	}

	if strings.TrimSpace(h.StaffNo) == "" {
		problems = append(problems, "Error: Staff number is null or empty")
	} else {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.RelationMaster{}).
			Where("relation_code = ? AND relation_transaction = ?", h.StaffNo, models.RelationTransactionEmployee).
			Count(&count).Error
		switch {
		case err != nil:
			logger.Errorf("[Attendance] Error validating employee %s: %v", h.StaffNo, err)
			problems = append(problems, "An error occurred when validating user: Employee = "+h.StaffNo)
		case count == 0:
			problems = append(problems, fmt.Sprintf("Employee: %s Error: Employee does not exist", h.StaffNo))
		}
	}

	return problems
}

func validClockTime(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	_, err := time.Parse(clockTimeLayout, v)
	return err == nil
}

// ToPunch converts a payload to a punch. Unknown message types default to
// IN and unparsable times fall back to now.
func ToPunch(h *HumanicaPayload, now time.Time) Punch {
	p := Punch{EmployeeID: h.StaffNo, Type: models.PunchIn, Time: now}

	raw := ""
	switch {
	case strings.EqualFold(h.MsgType, msgTypeClockIn):
		raw = h.ClkInTime
	case strings.EqualFold(h.MsgType, msgTypeClockOut):
		p.Type = models.PunchOut
		raw = h.ClkOutTime
	default:
		logger.Warnf("[Attendance] Unknown message type %q, defaulting to IN", h.MsgType)
		return p
	}

	if raw = strings.TrimSpace(raw); raw != "" {
		if t, err := time.Parse(clockTimeLayout, raw); err == nil {
			p.Time = t
		} else {
			logger.Warnf("[Attendance] Could not parse clock time %q, using current time", raw)
		}
	}
	return p
}

type employeePlacement struct {
	group    string
	location string
	site     string
}

// placement resolves cost centre → group → location/site. Missing links
// leave the remaining fields empty.
func placement(tx *gorm.DB, employee string) (employeePlacement, error) {
	var out employeePlacement

	var rel models.RelationMaster
	res := tx.Where("relation_code = ? AND relation_transaction = ?", employee, models.RelationTransactionEmployee).
		Limit(1).Find(&rel)
	if res.Error != nil {
		return out, fmt.Errorf("retrieve cost centre: %w", res.Error)
	}
	if res.RowsAffected == 0 || rel.CostCentre == "" {
		return out, nil
	}

	var sg models.SiteGroupMaster
	res = tx.Where("cost_centre = ?", rel.CostCentre).Limit(1).Find(&sg)
	if res.Error != nil {
		return out, fmt.Errorf("retrieve group: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return out, nil
	}
	out.group = sg.GroupCode

	var esg models.EmployeeScheduleGroup
	res = tx.Where("group_code = ?", sg.GroupCode).Limit(1).Find(&esg)
	if res.Error != nil {
		return out, fmt.Errorf("retrieve location/site: %w", res.Error)
	}
	out.location = esg.Location
	out.site = esg.Site
	return out, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func (s *AttendanceService) recordPunch(tx *gorm.DB, p Punch, seqNo string) error {
	place, err := placement(tx, p.EmployeeID)
	if err != nil {
		logger.Warnf("[Attendance] Error retrieving employee location information: %v", err)
		place = employeePlacement{}
	}

	now := s.now()
	day := dayOf(p.Time)
	minute := minuteOfDay(p.Time)

	if err := tx.Where("employee = ?", p.EmployeeID).Delete(&models.EmployeeAttendanceCurrent{}).Error; err != nil {
		return fmt.Errorf("remove current attendance: %w", err)
	}
	if p.Type == models.PunchIn {
		current := models.EmployeeAttendanceCurrent{
			Employee:    p.EmployeeID,
			StartDate:   day,
			StartTime:   minute,
			Location:    place.location,
			Site:        place.site,
			GroupCode:   place.group,
			CreatedBy:   models.InterfaceUser,
			CreatedDate: now,
		}
		if err := tx.Create(&current).Error; err != nil {
			return fmt.Errorf("insert current attendance: %w", err)
		}
	}

	dup, err := isDuplicatePunch(tx, p, day, minute)
	if err != nil {
		return err
	}
	if dup {
		logger.Infof("[Attendance] Skipping duplicate punch for employee %s, type %s, time %s",
			p.EmployeeID, p.Type, p.Time.Format(clockTimeLayout))
		return nil
	}

	txNo, err := NextTransactionNo(tx, SequenceAttendance)
	if err != nil {
		return err
	}

	entry := models.EmployeeAttendanceLog{
		TransactionNo: txNo,
		Employee:      p.EmployeeID,
		Type:          p.Type,
		StartDate:     day,
		StartTime:     minute,
		Location:      place.location,
		Site:          place.site,
		GroupCode:     place.group,
		SeqNo:         seqNo,
		CreatedBy:     models.InterfaceUser,
		CreatedDate:   now,
	}
	if p.Type == models.PunchOut {
		entry.EndDate = &day
		entry.EndTime = &minute
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("insert attendance log: %w", err)
	}

	if p.Type == models.PunchOut {
		var open models.EmployeeAttendanceLog
		res := tx.Where("employee = ? AND type = ? AND end_date IS NULL", p.EmployeeID, models.PunchIn).
			Order("transaction_no DESC").Limit(1).Find(&open)
		if res.Error != nil {
			return fmt.Errorf("find open clock in: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&models.EmployeeAttendanceLog{}).
				Where("transaction_no = ?", open.TransactionNo).
				Updates(map[string]interface{}{"end_date": day, "end_time": minute}).Error; err != nil {
				return fmt.Errorf("close clock in %d: %w", open.TransactionNo, err)
			}
		}
	}

	logger.Infof("[Attendance] Attendance log %d created for employee %s, type %s, location %s, site %s",
		txNo, p.EmployeeID, p.Type, place.location, place.site)
	return nil
}

func isDuplicatePunch(tx *gorm.DB, p Punch, day time.Time, minute int) (bool, error) {
	var existing []models.EmployeeAttendanceLog
	err := tx.Where("employee = ? AND type = ? AND start_date >= ? AND start_date < ?",
		p.EmployeeID, p.Type, day, day.Add(24*time.Hour)).
		Find(&existing).Error
	if err != nil {
		return false, fmt.Errorf("check duplicate punch: %w", err)
	}
	for _, e := range existing {
		diff := e.StartTime - minute
		if diff < 0 {
			diff = -diff
		}
		if diff < duplicateWindow {
			return true, nil
		}
	}
	return false, nil
}

// ResendAck logs an acknowledgement from Humanica.
func (s *AttendanceService) ResendAck(msg *AttendanceImport) {
	if msg != nil && msg.Message != nil && msg.Message.Humanica != nil && msg.Message.Humanica.SeqNo != "" {
		logger.Infof("[Attendance] Received resend acknowledgment for SEQ_NO: %s", msg.Message.Humanica.SeqNo)
		return
	}
	logger.Warnf("[Attendance] Received invalid resend acknowledgment structure")
}

// AsAttendanceError unwraps err into an *AttendanceError.
func AsAttendanceError(err error) (*AttendanceError, bool) {
	var ae *AttendanceError
	ok := errors.As(err, &ae)
	return ae, ok
}

// AttendanceHousekeepingJob runs on the I03 schedule and purges old run logs.
type AttendanceHousekeepingJob struct {
	runLogs    *RunLogService
	recipients []string
}

func NewAttendanceHousekeepingJob(runLogs *RunLogService, cfg *config.AttendanceConfig) *AttendanceHousekeepingJob {
	return &AttendanceHousekeepingJob{runLogs: runLogs, recipients: cfg.Recipients}
}

func (j *AttendanceHousekeepingJob) Name() string          { return "AttendanceHousekeeping" }
func (j *AttendanceHousekeepingJob) InterfaceType() string { return config.InterfaceAttendance }

func (j *AttendanceHousekeepingJob) Run(ctx context.Context, report *RunReport) error {
	deleted, err := j.runLogs.CleanupOldLogs(ctx, j.runLogs.RetentionDays())
	if err != nil {
		return fmt.Errorf("purge run logs: %w", err)
	}
	report.AddCounts(int(deleted), 0)
	return nil
}

func (j *AttendanceHousekeepingJob) Notification(report *RunReport) *Notification {
	return BuildIssueNotification(attendanceSubject, attendanceName, "", report, j.recipients)
}
