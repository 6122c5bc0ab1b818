package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"gorm.io/gorm"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []*ResendTask
}

func (q *recordingQueue) Enqueue(task *ResendTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) Tasks() []*ResendTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*ResendTask(nil), q.tasks...)
}

type attendanceFixture struct {
	db       *gorm.DB
	svc      *AttendanceService
	queue    *recordingQueue
	notifier *recordingNotifier
	now      time.Time
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.RelationMaster{
		RelationCode:        "1001",
		RelationTransaction: models.RelationTransactionEmployee,
		EmployeeID:          "1001",
		CostCentre:          "CC10",
	}).Error)
	require.NoError(t, db.Create(&models.SiteGroupMaster{CostCentre: "CC10", GroupCode: "HGR1"}).Error)
	require.NoError(t, db.Create(&models.EmployeeScheduleGroup{GroupCode: "HGR1", Location: "SIN", Site: "HANGAR1"}).Error)

	f := &attendanceFixture{
		db:       db,
		queue:    &recordingQueue{},
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
	}
	cfg := &config.AttendanceConfig{Recipients: []string{"hr-it@example.com"}}
	f.svc = NewAttendanceService(db, cfg, f.queue, f.notifier, NewRunLogService(db, 30))
	f.svc.now = func() time.Time { return f.now }
	return f
}

func clockIn(staff, seq, at string) *AttendanceImport {
	return &AttendanceImport{Message: &AttendanceMessage{Humanica: &HumanicaPayload{
		CostCentre: "CC10", MsgType: "ClockIn", Status: "N", StaffNo: staff, SeqNo: SeqNo(seq), ClkInTime: at,
	}}}
}

func clockOut(staff, seq, at string) *AttendanceImport {
	return &AttendanceImport{Message: &AttendanceMessage{Humanica: &HumanicaPayload{
		CostCentre: "CC10", MsgType: "ClockOut", Status: "N", StaffNo: staff, SeqNo: SeqNo(seq), ClkOutTime: at,
	}}}
}

func TestAttendance_Validate(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	valid := func() *HumanicaPayload { return clockIn("1001", "1", "03/05/2026 07:58:00").Message.Humanica }

	tests := []struct {
		name   string
		mutate func(h *HumanicaPayload)
		want   []string
	}{
		{name: "valid clock in", mutate: func(*HumanicaPayload) {}},
		{name: "missing cost centre", mutate: func(h *HumanicaPayload) { h.CostCentre = "" },
			want: []string{"Error: Cost Centre is null or empty"}},
		{name: "missing seq no", mutate: func(h *HumanicaPayload) { h.SeqNo = "" },
			want: []string{"Error: Sequence Number is null"}},
		{name: "bad status", mutate: func(h *HumanicaPayload) { h.Status = "X" },
			want: []string{"Status: X Error: Status is not N or R"}},
		{name: "bad message type", mutate: func(h *HumanicaPayload) { h.MsgType = "Break" },
			want: []string{"Message Type: Break Error: Message Type is not ClockIn or ClockOut"}},
		{name: "bad clock in time", mutate: func(h *HumanicaPayload) { h.ClkInTime = "2026-03-05 07:58" },
			want: []string{"2026-03-05 07:58 Error: Clock in Time is null or empty or invalid"}},
		{name: "clock out needs out time", mutate: func(h *HumanicaPayload) { h.MsgType = "ClockOut" },
			want: []string{" Error: Clock Out Time is null or empty or invalid"}},
		{name: "unknown employee", mutate: func(h *HumanicaPayload) { h.StaffNo = "9999" },
			want: []string{"Employee: 9999 Error: Employee does not exist"}},
		{name: "several problems collected", mutate: func(h *HumanicaPayload) { h.CostCentre = ""; h.StaffNo = "" },
			want: []string{"Error: Cost Centre is null or empty", "Error: Staff number is null or empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid()
			tt.mutate(h)
			assert.Equal(t, tt.want, f.svc.Validate(ctx, h))
		})
	}
}

func TestToPunch(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		h        HumanicaPayload
		wantType string
		wantTime time.Time
	}{
		{name: "clock in", h: HumanicaPayload{StaffNo: "1", MsgType: "ClockIn", ClkInTime: "03/05/2026 07:58:10"},
			wantType: models.PunchIn, wantTime: time.Date(2026, 3, 5, 7, 58, 10, 0, time.UTC)},
		{name: "clock out case insensitive", h: HumanicaPayload{StaffNo: "1", MsgType: "clockout", ClkOutTime: "03/05/2026 17:02:00"},
			wantType: models.PunchOut, wantTime: time.Date(2026, 3, 5, 17, 2, 0, 0, time.UTC)},
		{name: "unknown type defaults to in", h: HumanicaPayload{StaffNo: "1", MsgType: "Break"},
			wantType: models.PunchIn, wantTime: now},
		{name: "unparsable time uses now", h: HumanicaPayload{StaffNo: "1", MsgType: "ClockOut", ClkOutTime: "later"},
			wantType: models.PunchOut, wantTime: now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ToPunch(&tt.h, now)
			assert.Equal(t, "1", p.EmployeeID)
			assert.Equal(t, tt.wantType, p.Type)
			assert.True(t, tt.wantTime.Equal(p.Time), "got %s", p.Time)
		})
	}
}

func TestAttendance_ClockInThenOut(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Import(ctx, clockIn("1001", "501", "03/05/2026 07:58:00")))

	var current []models.EmployeeAttendanceCurrent
	require.NoError(t, f.db.Find(&current).Error)
	require.Len(t, current, 1)
	assert.Equal(t, 7*60+58, current[0].StartTime)
	assert.Equal(t, "SIN", current[0].Location)
	assert.Equal(t, "HANGAR1", current[0].Site)
	assert.Equal(t, "HGR1", current[0].GroupCode)

	require.NoError(t, f.svc.Import(ctx, clockOut("1001", "502", "03/05/2026 17:05:00")))

	require.NoError(t, f.db.Find(&current).Error)
	assert.Empty(t, current, "clock out clears the current row")

	var logs []models.EmployeeAttendanceLog
	require.NoError(t, f.db.Order("transaction_no").Find(&logs).Error)
	require.Len(t, logs, 2)

	in, out := logs[0], logs[1]
	assert.Equal(t, int64(1), in.TransactionNo)
	assert.Equal(t, int64(2), out.TransactionNo)
	assert.Equal(t, models.PunchIn, in.Type)
	assert.Equal(t, "501", in.SeqNo)
	require.NotNil(t, in.EndTime)
	assert.Equal(t, 17*60+5, *in.EndTime)
	require.NotNil(t, out.EndTime)
	assert.Equal(t, 17*60+5, *out.EndTime)
	require.NotNil(t, out.EndDate)
	assert.True(t, out.EndDate.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))

	assert.Empty(t, f.queue.Tasks())
	assert.Empty(t, f.notifier.Sent())

	var runLogs int64
	f.db.Model(&models.InterfaceRunLog{}).Where("status = ?", models.RunStatusSuccess).Count(&runLogs)
	assert.Equal(t, int64(2), runLogs)
}

func TestAttendance_DuplicatePunchSkipped(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Import(ctx, clockIn("1001", "1", "03/05/2026 08:00:00")))
	require.NoError(t, f.svc.Import(ctx, clockIn("1001", "2", "03/05/2026 08:09:00")))
	require.NoError(t, f.svc.Import(ctx, clockIn("1001", "3", "03/05/2026 08:10:00")))

	var count int64
	require.NoError(t, f.db.Model(&models.EmployeeAttendanceLog{}).Count(&count).Error)
	assert.Equal(t, int64(2), count, "the 08:09 punch is within ten minutes of 08:00")
}

func TestAttendance_FailureRequestsResendAndNotifies(t *testing.T) {
	f := newAttendanceFixture(t)

	err := f.svc.Import(context.Background(), clockIn("9999", "77", "03/05/2026 08:00:00"))
	require.Error(t, err)

	ae, ok := AsAttendanceError(err)
	require.True(t, ok)
	assert.Equal(t, "77", ae.SeqNo)
	assert.Equal(t, []string{"Employee: 9999 Error: Employee does not exist"}, ae.Messages)

	tasks := f.queue.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "77", tasks[0].SeqNo)
	assert.Equal(t, "03/05/2026", tasks[0].Date)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Import Clock On Off interface error", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "SEQ NO 77")
	assert.Contains(t, sent[0].Body, "Employee does not exist")
	assert.Equal(t, []string{"hr-it@example.com"}, sent[0].Recipients)

	var count int64
	f.db.Model(&models.EmployeeAttendanceLog{}).Count(&count)
	assert.Zero(t, count)
}

func TestAttendance_MissingHumanicaSection(t *testing.T) {
	f := newAttendanceFixture(t)

	err := f.svc.Import(context.Background(), &AttendanceImport{Message: &AttendanceMessage{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required Message.HUMANICA data")
	assert.Empty(t, f.queue.Tasks())
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestSeqNo_JSON(t *testing.T) {
	var msg AttendanceImport
	require.NoError(t, json.Unmarshal([]byte(`{"Message":{"HUMANICA":{"SEQ_NO":12345}}}`), &msg))
	assert.Equal(t, SeqNo("12345"), msg.Message.Humanica.SeqNo)

	require.NoError(t, json.Unmarshal([]byte(`{"Message":{"HUMANICA":{"SEQ_NO":"678"}}}`), &msg))
	assert.Equal(t, SeqNo("678"), msg.Message.Humanica.SeqNo)

	body, err := json.Marshal(BuildResendRequest(&ResendTask{SeqNo: "12345", Date: "03/05/2026"}))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"Message":{"TRAX":{"DATE":"03/05/2026","MSG_TYPE":"ResendRequest","STATUS":"RR","SEQ_NO":12345}}}`,
		string(body))
}

func TestResendClient_Send(t *testing.T) {
	bodies := make(chan []byte, 2)
	statuses := make(chan int, 2)
	statuses <- http.StatusAccepted
	statuses <- http.StatusInternalServerError
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		w.WriteHeader(<-statuses)
	}))
	defer srv.Close()

	client := NewResendClient(srv.URL, time.Second)
	require.NoError(t, client.Send(context.Background(), &ResendTask{SeqNo: "9", Date: "03/05/2026"}))
	assert.Contains(t, string(<-bodies), `"MSG_TYPE":"ResendRequest"`)

	assert.Error(t, client.Send(context.Background(), &ResendTask{SeqNo: "9", Date: "03/05/2026"}))

	assert.Error(t, NewResendClient("", 0).Send(context.Background(), &ResendTask{SeqNo: "9"}))
}

func TestAttendanceHousekeepingJob_PurgesOldRunLogs(t *testing.T) {
	db := newTestDB(t)
	runLogs := NewRunLogService(db, 30)

	old := time.Now().AddDate(0, 0, -45)
	require.NoError(t, db.Create(&models.InterfaceRunLog{InterfaceType: "I03", RunID: "old", Status: models.RunStatusSuccess, CreatedAt: old}).Error)
	require.NoError(t, db.Create(&models.InterfaceRunLog{InterfaceType: "I03", RunID: "new", Status: models.RunStatusSuccess, CreatedAt: time.Now()}).Error)

	job := NewAttendanceHousekeepingJob(runLogs, &config.AttendanceConfig{})
	assert.Equal(t, config.InterfaceAttendance, job.InterfaceType())

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))

	processed, _ := report.Counts()
	assert.Equal(t, 1, processed)

	var remaining []models.InterfaceRunLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].RunID)
}

func TestSyncQueue_RunsProcessor(t *testing.T) {
	q := NewSyncQueue()
	done := make(chan *ResendTask, 1)
	q.SetProcessor(func(_ context.Context, task *ResendTask) error {
		done <- task
		return nil
	})

	require.NoError(t, q.Enqueue(&ResendTask{SeqNo: "5"}))
	require.NoError(t, q.Close())
	assert.False(t, q.IsAsync())

	select {
	case task := <-done:
		assert.Equal(t, "5", task.SeqNo)
	default:
		t.Fatal("processor did not run before Close returned")
	}
}
