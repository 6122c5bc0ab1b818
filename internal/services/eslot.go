package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/goccy/go-json"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

const (
	eslotName       = "Slots eSlot interface"
	eslotSQSSubject = "Slots eSlot interface ran into a Issue in SQS"

	slotDateLayout   = "02-Jan-06 15:04:05"
	woCategoryTran   = "WOCATEGORY"
	woStatusOpen     = "OPEN"
	woStatusSlot     = "SLOT"
	slotConfirmed    = "1"
	slotActionInsert = "I"
	slotActionUpdate = "U"
	slotActionDelete = "D"
)

// ESlot is one slot planning record as published on the queue.
type ESlot struct {
	Oid                string `json:"OID"`
	Action             string `json:"Action"`
	ACReg              string `json:"ACReg"`
	Customer           string `json:"Customer"`
	CheckType          string `json:"CheckType"`
	CheckDescription   string `json:"CheckDescription"`
	Line               string `json:"Line"`
	Location           string `json:"Location"`
	PlannedStart       string `json:"PlannedStart"`
	PlannedEnd         string `json:"PlannedEnd"`
	ConfirmationStatus string `json:"ConfirmationStatus"`
	Remarks            string `json:"Remarks"`
}

// ESlotItem is the queue envelope: {"AMIS": {...}}.
type ESlotItem struct {
	ESlot *ESlot `json:"AMIS"`
}

// SlotError is a rejected slot. Message is the text mailed to operators.
type SlotError struct {
	OID     string
	Message string
}

func (e *SlotError) Error() string { return e.Message }

func slotFailure(oid, reason string) *SlotError {
	return &SlotError{OID: oid, Message: fmt.Sprintf("Can not insert/update/delete OID: %s as %s", oid, reason)}
}

// CleanMessageBody drops zero-width and other format characters, including
// the byte order mark, that upstream tools leave in message bodies.
func CleanMessageBody(body string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, body)
	return strings.TrimSpace(cleaned)
}

// DecodeESlotItem parses a cleaned message body.
func DecodeESlotItem(body string) (*ESlotItem, error) {
	var item ESlotItem
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return nil, fmt.Errorf("parse slot message: %w", err)
	}
	return &item, nil
}

func hasMinimumValues(item *ESlotItem) bool {
	if item == nil || item.ESlot == nil {
		return false
	}
	e := item.ESlot
	return e.Oid != "" && e.Action != "" && e.ACReg != "" && e.CheckType != ""
}

// ESlotService maps slot records onto work orders.
type ESlotService struct {
	db        *gorm.DB
	glCompany string
	now       func() time.Time
}

func NewESlotService(db *gorm.DB, cfg *config.ESlotConfig) *ESlotService {
	return &ESlotService{
		db:        db,
		glCompany: cfg.GlCompany,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process applies one slot in a single transaction and returns the
// affected WO number. Business rejections are returned as *SlotError.
func (s *ESlotService) Process(ctx context.Context, item *ESlotItem) (int64, error) {
	if !hasMinimumValues(item) {
		oid := ""
		if item != nil && item.ESlot != nil {
			oid = item.ESlot.Oid
		}
		return 0, slotFailure(oid, "ERROR: ESlot is null or item does not have minimum values")
	}
	slot := item.ESlot

	var woNumber int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		woNumber, err = s.apply(tx, slot)
		return err
	})
	return woNumber, err
}

func (s *ESlotService) apply(tx *gorm.DB, slot *ESlot) (int64, error) {
	action := strings.ToUpper(slot.Action)
	switch action {
	case slotActionInsert, slotActionUpdate, slotActionDelete:
	default:
		return 0, slotFailure(slot.Oid, "ERROR: ACTION is incorrect format")
	}

	existing, err := s.findWorkOrder(tx, slot.Oid)
	if err != nil {
		return 0, err
	}

	if action == slotActionDelete {
		return s.delete(tx, slot, existing)
	}

	now := s.now()
	wo := existing
	if wo == nil {
		wo = s.newWorkOrder(now)
	}
	wo.Cosl = slot.Oid
	wo.CustomerWo = slot.Customer
	wo.ModifiedBy = models.InterfaceUser
	wo.ModifiedDate = now

	var ac models.AcMaster
	if err := tx.Where("ac = ?", slot.ACReg).First(&ac).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, slotFailure(slot.Oid, "AC does not exist")
		}
		return 0, err
	}
	wo.Ac = ac.Ac
	wo.AcType = ac.AcType
	wo.AcSeries = ac.AcSeries

	var category models.SystemTranCode
	err = tx.Where("system_transaction = ? AND system_code = ?", woCategoryTran, slot.CheckType).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, slotFailure(slot.Oid, "Category does not exist")
		}
		return 0, err
	}
	wo.WoCategory = slot.CheckType

	wo.OpsLine = slot.Line
	wo.Site, err = opsLineSite(tx, slot.Line)
	if err != nil {
		return 0, err
	}
	wo.Location, err = maintenanceLocation(tx, wo.Site)
	if err != nil {
		return 0, err
	}

	if err := applySlotDates(wo, slot); err != nil {
		return 0, slotFailure(slot.Oid, "ERROR: Planned Start or Planned End Date is incorrect format")
	}

	if slot.ConfirmationStatus == slotConfirmed {
		wo.Status = woStatusOpen
	} else {
		wo.Status = woStatusSlot
	}
	if slot.CheckDescription != "" {
		wo.WoDescription = slot.CheckDescription
	}

	if slot.Remarks != "" {
		if err := s.saveRemarks(tx, wo, slot.Remarks, now); err != nil {
			return 0, err
		}
	}

	if existing != nil {
		logger.Infof("[ESlot] Updating OID: %s WO: %d", slot.Oid, wo.Wo)
		if err := tx.Save(wo).Error; err != nil {
			return 0, fmt.Errorf("update wo %d: %w", wo.Wo, err)
		}
		return wo.Wo, nil
	}

	if action == slotActionUpdate {
		logger.Infof("[ESlot] Update requested for non-existent WO, treating as insert: %s", slot.Oid)
	}
	wo.Wo, err = NextTransactionNo(tx, SequenceWorkOrder)
	if err != nil {
		return 0, err
	}
	logger.Infof("[ESlot] Inserting OID: %s WO: %d", slot.Oid, wo.Wo)
	if err := tx.Create(wo).Error; err != nil {
		return 0, fmt.Errorf("insert wo for OID %s: %w", slot.Oid, err)
	}
	return wo.Wo, nil
}

func (s *ESlotService) delete(tx *gorm.DB, slot *ESlot, wo *models.WorkOrder) (int64, error) {
	if wo == nil {
		return 0, slotFailure(slot.Oid, "ERROR: WO does not exist")
	}
	if strings.EqualFold(wo.WorkStarted, "Y") && slot.ConfirmationStatus == slotConfirmed {
		return 0, &SlotError{
			OID:     slot.Oid,
			Message: fmt.Sprintf("Can not Delete OID: %s as ERROR: Work has started and Confirmed", slot.Oid),
		}
	}

	if wo.Notes != nil {
		if err := tx.Where("notes = ?", *wo.Notes).Delete(&models.Notepad{}).Error; err != nil {
			return 0, fmt.Errorf("delete notes %d: %w", *wo.Notes, err)
		}
	}
	logger.Infof("[ESlot] Deleting OID: %s WO: %d", slot.Oid, wo.Wo)
	if err := tx.Delete(wo).Error; err != nil {
		return 0, fmt.Errorf("delete wo %d: %w", wo.Wo, err)
	}
	return wo.Wo, nil
}

func (s *ESlotService) findWorkOrder(tx *gorm.DB, oid string) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	err := tx.Where("cosl = ?", oid).First(&wo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wo for OID %s: %w", oid, err)
	}
	return &wo, nil
}

func (s *ESlotService) newWorkOrder(now time.Time) *models.WorkOrder {
	return &models.WorkOrder{
		GlCompany:        s.glCompany,
		OrderType:        "W/O",
		Module:           "PRODUCTION",
		PaperChecked:     "NO",
		Authorization:    "Y",
		NrReqItem:        "N",
		RestrictActual:   "N",
		NrAllow:          "YES",
		ExcludeMhPlanner: "N",
		ThirdPartyWo:     "Y",
		Expenditure:      "DEFAULT",
		CreatedBy:        models.InterfaceUser,
		CreatedDate:      now,
	}
}

func (s *ESlotService) saveRemarks(tx *gorm.DB, wo *models.WorkOrder, remarks string, now time.Time) error {
	if wo.Notes != nil {
		res := tx.Model(&models.Notepad{}).
			Where("notes = ? AND notes_line = ?", *wo.Notes, 1).
			Updates(map[string]interface{}{
				"notes_text":    remarks,
				"modified_by":   models.InterfaceUser,
				"modified_date": now,
			})
		if res.Error != nil {
			return fmt.Errorf("update notes %d: %w", *wo.Notes, res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}

	notes, err := NextTransactionNo(tx, SequenceNotes)
	if err != nil {
		return err
	}
	note := models.Notepad{
		Notes:        notes,
		NotesLine:    1,
		NotesText:    remarks,
		PrintNotes:   "YES",
		CreatedBy:    models.InterfaceUser,
		CreatedDate:  now,
		ModifiedBy:   models.InterfaceUser,
		ModifiedDate: now,
	}
	if err := tx.Create(&note).Error; err != nil {
		return fmt.Errorf("insert notes %d: %w", notes, err)
	}
	wo.Notes = &notes
	return nil
}

func opsLineSite(tx *gorm.DB, opsLine string) (string, error) {
	var line models.OpsLineEmail
	err := tx.Where("ops_line = ?", opsLine).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warnf("[ESlot] No site configured for ops line %s", opsLine)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find site for ops line %s: %w", opsLine, err)
	}
	return line.Site, nil
}

// maintenanceLocation returns the first maintenance facility of site.
func maintenanceLocation(tx *gorm.DB, site string) (string, error) {
	if site == "" {
		return "", nil
	}
	var locations []string
	err := tx.Model(&models.LocationSite{}).
		Joins("JOIN location_master ON location_master.location = location_site.location").
		Where("location_site.site = ? AND location_master.maintenance_facility = ?", site, "Y").
		Order("location_site.location").
		Limit(1).
		Pluck("location_site.location", &locations).Error
	if err != nil {
		return "", fmt.Errorf("find location for site %s: %w", site, err)
	}
	if len(locations) == 0 {
		return "", nil
	}
	return locations[0], nil
}

func applySlotDates(wo *models.WorkOrder, slot *ESlot) error {
	start, err := time.Parse(slotDateLayout, slot.PlannedStart)
	if err != nil {
		return err
	}
	end, err := time.Parse(slotDateLayout, slot.PlannedEnd)
	if err != nil {
		return err
	}
	startDay, endDay := dayOf(start), dayOf(end)

	wo.ScheduleStartDate = &startDay
	wo.ScheduleStartHour, wo.ScheduleStartMinute = start.Hour(), start.Minute()
	wo.ActualStartDate = &startDay
	wo.ActualStartHour, wo.ActualStartMinute = start.Hour(), start.Minute()
	wo.ScheduleOrgCompletionDate = &endDay
	wo.ScheduleOrgCompletionHour, wo.ScheduleOrgCompletionMinute = end.Hour(), end.Minute()
	wo.ScheduleCompletionDate = &endDay
	wo.ScheduleCompletionHour, wo.ScheduleCompletionMinute = end.Hour(), end.Minute()
	return nil
}

// SlotQueue is the message source for the slot poller. SQSQueue is the
// production implementation.
type SlotQueue interface {
	Receive(ctx context.Context) ([]types.Message, error)
	Delete(ctx context.Context, receiptHandle *string) error
}

// ESlotJob drains the slot queue once per run.
type ESlotJob struct {
	service  *ESlotService
	queue    SlotQueue
	cfg      *config.ESlotConfig
	notifier Notifier
}

func NewESlotJob(service *ESlotService, queue SlotQueue, cfg *config.ESlotConfig, notifier Notifier) *ESlotJob {
	return &ESlotJob{service: service, queue: queue, cfg: cfg, notifier: notifier}
}

func (j *ESlotJob) Name() string          { return "ESlotImport" }
func (j *ESlotJob) InterfaceType() string { return config.InterfaceESlot }

func (j *ESlotJob) Run(ctx context.Context, report *RunReport) error {
	messages, err := j.queue.Receive(ctx)
	if err != nil {
		report.Errorf("SQS", "%v", err)
		j.notify(ctx, "", report)
		return nil
	}

	for _, m := range messages {
		j.handle(ctx, m, report)
		if err := j.queue.Delete(ctx, m.ReceiptHandle); err != nil {
			report.Warnf(aws.ToString(m.MessageId), "%v", err)
		}
	}
	return nil
}

// handle processes one message. Failures are reported and mailed; the
// message is deleted by the caller either way.
func (j *ESlotJob) handle(ctx context.Context, m types.Message, report *RunReport) {
	body := CleanMessageBody(aws.ToString(m.Body))
	logger.Debug().Str("message_id", aws.ToString(m.MessageId)).Msgf("[ESlot] Message body: %s", body)

	item, err := DecodeESlotItem(body)
	var wo int64
	if err == nil {
		wo, err = j.service.Process(ctx, item)
	}
	if err == nil {
		report.AddCounts(1, 0)
		logger.Infof("[ESlot] OID %s applied to WO %d", item.ESlot.Oid, wo)
		return
	}

	oid := ""
	if item != nil && item.ESlot != nil {
		oid = item.ESlot.Oid
	}
	report.AddCounts(0, 1)
	report.Errorf(oid, "%v", err)
	logger.Error().Str("oid", oid).Err(err).Msg("[ESlot] Slot rejected")

	msgReport := NewRunReport(config.InterfaceESlot)
	msgReport.Errorf("", "%v", err)
	j.notify(ctx, "OID "+oid, msgReport)
}

func (j *ESlotJob) notify(ctx context.Context, header string, report *RunReport) {
	if j.notifier == nil {
		return
	}
	n := BuildIssueNotification(eslotSQSSubject, eslotName, header, report, j.cfg.Recipients)
	if err := j.notifier.Notify(ctx, n); err != nil {
		logger.Errorf("[ESlot] Failed to send error notification: %v", err)
	}
}

// Notification is nil: Run mails one message per rejected slot.
func (j *ESlotJob) Notification(*RunReport) *Notification {
	return nil
}
