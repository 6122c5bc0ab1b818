package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"gorm.io/gorm"
)

// fakeSQS implements SQSAPI over an in-memory message list.
type fakeSQS struct {
	mu         sync.Mutex
	messages   []types.Message
	receiveErr error
	deleteErr  error
	deleted    []string
	lastInput  *sqs.ReceiveMessageInput
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput,
	_ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInput = params
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	out := f.messages
	f.messages = nil
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput,
	_ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) push(id, body string) {
	f.messages = append(f.messages, types.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          aws.String(body),
	})
}

func seedESlotMasters(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.AcMaster{Ac: "9V-SMA", AcType: "A350", AcSeries: "900"}).Error)
	require.NoError(t, db.Create(&models.SystemTranCode{SystemTransaction: "WOCATEGORY", SystemCode: "ACHK", Description: "A Check"}).Error)
	require.NoError(t, db.Create(&models.OpsLineEmail{OpsLine: "L1", Site: "SIN", Email: "l1@example.com"}).Error)
	require.NoError(t, db.Create(&[]models.LocationSite{{Location: "OFFICE", Site: "SIN"}, {Location: "HANGAR1", Site: "SIN"}}).Error)
	require.NoError(t, db.Create(&[]models.LocationMaster{
		{Location: "OFFICE", MaintenanceFacility: "N"},
		{Location: "HANGAR1", MaintenanceFacility: "Y"},
	}).Error)
}

func newTestESlotService(t *testing.T) (*ESlotService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	seedESlotMasters(t, db)
	svc := NewESlotService(db, &config.ESlotConfig{GlCompany: "SIAEC"})
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(&now)
	return svc, db
}

func validSlot(action string) *ESlotItem {
	return &ESlotItem{ESlot: &ESlot{
		Oid:                "OID-1",
		Action:             action,
		ACReg:              "9V-SMA",
		Customer:           "SQ",
		CheckType:          "ACHK",
		CheckDescription:   "A-check slot",
		Line:               "L1",
		PlannedStart:       "05-Mar-26 22:15:00",
		PlannedEnd:         "06-Mar-26 06:45:00",
		ConfirmationStatus: "1",
		Remarks:            "Bay 3",
	}}
}

func TestCleanMessageBody(t *testing.T) {
	body := "\ufeff{\"AMIS\":{\"OID\":\"A\u200b1\"}}\u200b "
	assert.Equal(t, `{"AMIS":{"OID":"A1"}}`, CleanMessageBody(body))

	item, err := DecodeESlotItem(CleanMessageBody(body))
	require.NoError(t, err)
	require.NotNil(t, item.ESlot)
	assert.Equal(t, "A1", item.ESlot.Oid)

	_, err = DecodeESlotItem("not json")
	assert.Error(t, err)
}

func TestESlotService_InsertCreatesWorkOrder(t *testing.T) {
	svc, db := newTestESlotService(t)

	wo, err := svc.Process(context.Background(), validSlot("I"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), wo)

	var got models.WorkOrder
	require.NoError(t, db.First(&got, "cosl = ?", "OID-1").Error)
	assert.Equal(t, "A350", got.AcType)
	assert.Equal(t, "900", got.AcSeries)
	assert.Equal(t, "ACHK", got.WoCategory)
	assert.Equal(t, "SIN", got.Site)
	assert.Equal(t, "HANGAR1", got.Location, "first maintenance facility of the site")
	assert.Equal(t, "OPEN", got.Status)
	assert.Equal(t, "W/O", got.OrderType)
	assert.Equal(t, "DEFAULT", got.Expenditure)
	assert.Equal(t, "SIAEC", got.GlCompany)
	assert.Equal(t, "TRAX_IFACE", got.CreatedBy)
	assert.Equal(t, "A-check slot", got.WoDescription)
	assert.Equal(t, 22, got.ScheduleStartHour)
	assert.Equal(t, 15, got.ScheduleStartMinute)
	assert.Equal(t, 6, got.ScheduleCompletionHour)
	assert.Equal(t, 45, got.ScheduleOrgCompletionMinute)
	require.NotNil(t, got.ScheduleCompletionDate)
	assert.Equal(t, 6, got.ScheduleCompletionDate.UTC().Day())

	require.NotNil(t, got.Notes)
	var note models.Notepad
	require.NoError(t, db.First(&note, "notes = ? AND notes_line = ?", *got.Notes, 1).Error)
	assert.Equal(t, "Bay 3", note.NotesText)
	assert.Equal(t, "YES", note.PrintNotes)
}

func TestESlotService_UpdateKeepsWorkOrderNumber(t *testing.T) {
	svc, db := newTestESlotService(t)
	ctx := context.Background()

	first, err := svc.Process(ctx, validSlot("I"))
	require.NoError(t, err)

	upd := validSlot("U")
	upd.ESlot.ConfirmationStatus = "0"
	upd.ESlot.Remarks = "Bay 4"
	second, err := svc.Process(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int64
	db.Model(&models.WorkOrder{}).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.Notepad{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var got models.WorkOrder
	require.NoError(t, db.First(&got, "wo = ?", first).Error)
	assert.Equal(t, "SLOT", got.Status)
	var note models.Notepad
	require.NoError(t, db.First(&note, "notes = ?", *got.Notes).Error)
	assert.Equal(t, "Bay 4", note.NotesText)
}

func TestESlotService_UpdateMissingInserts(t *testing.T) {
	svc, db := newTestESlotService(t)
	wo, err := svc.Process(context.Background(), validSlot("U"))
	require.NoError(t, err)

	var got models.WorkOrder
	require.NoError(t, db.First(&got, "wo = ?", wo).Error)
	assert.Equal(t, "OID-1", got.Cosl)
}

func TestESlotService_Delete(t *testing.T) {
	svc, db := newTestESlotService(t)
	ctx := context.Background()

	_, err := svc.Process(ctx, validSlot("D"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WO does not exist")

	wo, err := svc.Process(ctx, validSlot("I"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.WorkOrder{}).Where("wo = ?", wo).Update("work_started", "Y").Error)
	_, err = svc.Process(ctx, validSlot("D"))
	require.Error(t, err)
	assert.Equal(t, "Can not Delete OID: OID-1 as ERROR: Work has started and Confirmed", err.Error())

	unconfirmed := validSlot("D")
	unconfirmed.ESlot.ConfirmationStatus = "0"
	_, err = svc.Process(ctx, unconfirmed)
	require.NoError(t, err)

	var count int64
	db.Model(&models.WorkOrder{}).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.Notepad{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestESlotService_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ESlot)
		want   string
	}{
		{"missing oid", func(e *ESlot) { e.Oid = "" }, "does not have minimum values"},
		{"missing ac", func(e *ESlot) { e.ACReg = "" }, "does not have minimum values"},
		{"unknown ac", func(e *ESlot) { e.ACReg = "9V-XXX" }, "as AC does not exist"},
		{"unknown category", func(e *ESlot) { e.CheckType = "ZZ" }, "as Category does not exist"},
		{"bad date", func(e *ESlot) { e.PlannedStart = "2026-03-05 22:15" }, "Planned Start or Planned End Date is incorrect format"},
		{"bad action", func(e *ESlot) { e.Action = "X" }, "ACTION is incorrect format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := newTestESlotService(t)
			item := validSlot("I")
			tt.mutate(item.ESlot)

			_, err := svc.Process(context.Background(), item)
			require.Error(t, err)
			var se *SlotError
			require.True(t, errors.As(err, &se))
			assert.Contains(t, se.Message, tt.want)

			var count int64
			db.Model(&models.WorkOrder{}).Count(&count)
			assert.Equal(t, int64(0), count)
		})
	}

	svc, _ := newTestESlotService(t)
	_, err := svc.Process(context.Background(), &ESlotItem{})
	assert.Error(t, err)
}

func TestESlotJob_ProcessesAndAlwaysDeletes(t *testing.T) {
	svc, db := newTestESlotService(t)
	client := &fakeSQS{}
	client.push("m1", "\ufeff"+`{"AMIS":{"OID":"OID-1","Action":"I","ACReg":"9V-SMA","CheckType":"ACHK","Line":"L1","PlannedStart":"05-Mar-26 22:15:00","PlannedEnd":"06-Mar-26 06:45:00","ConfirmationStatus":"1"}}`)
	client.push("m2", `{"AMIS":{"OID":"OID-2","Action":"I","ACReg":"9V-XXX","CheckType":"ACHK","Line":"L1","PlannedStart":"05-Mar-26 22:15:00","PlannedEnd":"06-Mar-26 06:45:00","ConfirmationStatus":"1"}}`)
	client.push("m3", `{broken`)

	cfg := &config.ESlotConfig{QueueURL: "https://sqs.example/queue", WaitTimeSeconds: 5, Recipients: []string{"ops@example.com"}}
	notifier := &recordingNotifier{}
	job := NewESlotJob(svc, NewSQSQueue(client, cfg.QueueURL, cfg.WaitTimeSeconds), cfg, notifier)

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	assert.Nil(t, job.Notification(report))

	assert.Equal(t, []string{"rh-m1", "rh-m2", "rh-m3"}, client.deleted)
	require.NotNil(t, client.lastInput)
	assert.Equal(t, int32(10), client.lastInput.MaxNumberOfMessages)
	assert.Equal(t, int32(5), client.lastInput.WaitTimeSeconds)
	assert.Equal(t, "https://sqs.example/queue", aws.ToString(client.lastInput.QueueUrl))

	processed, failed := report.Counts()
	assert.Equal(t, 1, processed)
	assert.Equal(t, 2, failed)

	var count int64
	db.Model(&models.WorkOrder{}).Count(&count)
	assert.Equal(t, int64(1), count)

	sent := notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Slots eSlot interface ran into a Issue in SQS", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "OID OID-2")
	assert.Contains(t, sent[0].Body, "AC does not exist")
	assert.Contains(t, sent[1].Body, "parse slot message")
}

func TestESlotJob_ReceiveErrorIsReported(t *testing.T) {
	svc, _ := newTestESlotService(t)
	client := &fakeSQS{receiveErr: &smithy.GenericAPIError{Code: "AWS.SimpleQueueService.NonExistentQueue", Message: "queue does not exist"}}
	cfg := &config.ESlotConfig{QueueURL: "q", Recipients: []string{"ops@example.com"}}
	notifier := &recordingNotifier{}
	job := NewESlotJob(svc, NewSQSQueue(client, cfg.QueueURL, 0), cfg, notifier)

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	require.True(t, report.HasErrors())
	assert.Contains(t, report.Summary(), "AWS.SimpleQueueService.NonExistentQueue: queue does not exist")

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Slots eSlot interface ran into a Issue in SQS", sent[0].Subject)
}

func TestSQSQueue_ErrorsKeepChain(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AWS.SimpleQueueService.NonExistentQueue", Message: "queue does not exist"}
	client := &fakeSQS{receiveErr: apiErr, deleteErr: apiErr}
	queue := NewSQSQueue(client, "q", 0)

	_, err := queue.Receive(context.Background())
	require.Error(t, err)
	assert.Equal(t, "receive messages: AWS.SimpleQueueService.NonExistentQueue: queue does not exist", err.Error())
	var got smithy.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "AWS.SimpleQueueService.NonExistentQueue", got.ErrorCode())

	err = queue.Delete(context.Background(), aws.String("rh-1"))
	require.Error(t, err)
	assert.Equal(t, "delete message: AWS.SimpleQueueService.NonExistentQueue: queue does not exist", err.Error())
	assert.ErrorIs(t, err, apiErr)

	plain := errors.New("connection reset")
	client.receiveErr = plain
	_, err = queue.Receive(context.Background())
	assert.Equal(t, "receive messages: connection reset", err.Error())
	assert.ErrorIs(t, err, plain)
}

func TestOpsLineService(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewOpsLineService(db, notifier, []string{"ops@example.com"})
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "SIN", "L1", "l1@example.com"))
	require.NoError(t, svc.Create(ctx, "KUL", "L2", "l2@example.com"))
	assert.ErrorIs(t, svc.Create(ctx, "SIN", "", "x@example.com"), ErrOpsLineRequired)

	err := svc.Create(ctx, "SIN", "L1", "dup@example.com")
	require.Error(t, err)
	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Slots eSlot interface ran into a Issue in service", sent[0].Subject)
	assert.True(t, strings.HasPrefix(sent[0].Body, "Input has encountered an issue."))

	require.NoError(t, svc.UpdateSite(ctx, "L2", "PEN"))
	assert.ErrorIs(t, svc.UpdateSite(ctx, "L9", "PEN"), ErrOpsLineNotFound)

	lines, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Ops Line: L1 Site: SIN Email: l1@example.com\nOps Line: L2 Site: PEN Email: l2@example.com\n", FormatOpsLines(lines))

	lines, err = svc.List(ctx, "L2")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	require.NoError(t, svc.Delete(ctx, "L1"))
	assert.ErrorIs(t, svc.Delete(ctx, "L1"), ErrOpsLineNotFound)
}
