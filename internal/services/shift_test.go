package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"golang.org/x/crypto/openpgp"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

func TestClockTimes(t *testing.T) {
	tests := []struct {
		name         string
		hour, minute int
		hours        int
		start, end   string
	}{
		{"day shift", 8, 30, 9, "08:30", "17:30"},
		{"wraps past midnight", 22, 0, 8, "22:00", "06:00"},
		{"exact 24h", 7, 15, 24, "07:15", "07:15"},
		{"invalid hour", 24, 0, 8, "", ""},
		{"invalid minute", 8, 60, 8, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.start, ClockTime(tt.hour, tt.minute))
			assert.Equal(t, tt.end, ShiftEndTime(tt.hour, tt.minute, tt.hours))
		})
	}
}

func TestBreakTimes(t *testing.T) {
	start, end := breakTimes(models.ShiftBreak{StartHour: intPtr(23), StartMinute: intPtr(30), Hours: intPtr(1)})
	assert.Equal(t, "23:30", start)
	assert.Equal(t, "00:30", end)

	start, end = breakTimes(models.ShiftBreak{StartHour: intPtr(12), StartMinute: intPtr(0)})
	assert.Equal(t, "12:00", start)
	assert.Empty(t, end)

	start, end = breakTimes(models.ShiftBreak{})
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestShiftGroupName(t *testing.T) {
	assert.Equal(t, "5 Days 8H Work A", ShiftGroupName("5D_8H_A"))
	assert.Equal(t, "NIGHT", ShiftGroupName("NIGHT"))
	assert.Equal(t, "8H_5D_X", ShiftGroupName("8H_5D_X"), "H_ before D_ is left alone")
}

type shiftFixture struct {
	db  *gorm.DB
	dir string
	cfg *config.ShiftConfig
	now time.Time
}

func newShiftFixture(t *testing.T) *shiftFixture {
	t.Helper()
	f := &shiftFixture{
		db:  newTestDB(t),
		dir: t.TempDir(),
		now: time.Date(2026, 3, 5, 2, 0, 0, 0, time.UTC),
	}
	f.cfg = &config.ShiftConfig{ExportLoc: f.dir, Recipients: []string{"roster@example.com"}}
	return f
}

func (f *shiftFixture) job(enc FileEncrypter) *ShiftJob {
	job := NewShiftJob(f.db, f.cfg, enc)
	job.now = fixedClock(&f.now)
	return job
}

func (f *shiftFixture) seed(t *testing.T) {
	t.Helper()
	flag := "Y"
	exported := f.now.Add(-48 * time.Hour)
	require.NoError(t, f.db.Create(&[]models.EmployeeSchedule{
		{Employee: "1001", Group: "5D_8H_A", ModifiedDate: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		{Employee: "1002", Group: "NIGHT", ModifiedDate: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)},
		{Employee: "1003", Group: "NIGHT", ModifiedDate: exported, BmmInterfaceDate: &exported, BmmInterfaceFlag: &flag},
	}).Error)

	require.NoError(t, f.db.Create(&models.DailyShiftPattern{
		DayPattern:       "D08",
		DayStartHour:     22,
		DayStartMinute:   0,
		DayWorkHours:     8,
		Notes:            "Night shift",
		Break01StartHour: intPtr(2), Break01StartMinute: intPtr(0), Break01: intPtr(1),
	}).Error)
	require.NoError(t, f.db.Create(&models.ShiftPattern{
		Pattern: "5D_8H_A", Type: "7",
		DayPattern1: "D08", DayPattern2: "D08", DayPattern3: "D08", DayPattern4: "D08",
		DayPattern5: "D08", DayPattern6: "OFF", DayPattern7: "OFF",
	}).Error)
}

func readExport(t *testing.T, dir, prefix string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func TestShiftJob_ExportsAndMarks(t *testing.T) {
	f := newShiftFixture(t)
	f.seed(t)
	job := f.job(nil)

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	assert.False(t, report.HasErrors(), report.Summary())

	lines := readExport(t, f.dir, "EmployeeSchedule")
	require.Len(t, lines, 3)
	assert.Equal(t, "SHIFTGROUPCODE;COMPANY_CODE;EMP_NO;STARTSHIFTDATE;ALWAYS_PRESENT", lines[0])
	assert.Equal(t, "5D_8H_A;SIABMM;1001;01.03.2026;N", lines[1])
	assert.Equal(t, "NIGHT;SIABMM;1002;28.02.2026;N", lines[2])
	assert.FileExists(t, filepath.Join(f.dir, "EmployeeSchedule_20260305_020000.txt"))

	lines = readExport(t, f.dir, "ShiftPatterns")
	require.Len(t, lines, 2)
	assert.Len(t, strings.Split(lines[0], ";"), 34)
	cols := strings.Split(lines[1], ";")
	require.Len(t, cols, 34)
	assert.Equal(t, []string{"D08", "SIABMM", "22:00", "06:00", "8", "D08", "Night shift", "1", "N", "02:00", "03:00"}, cols[:11])
	assert.Equal(t, []string{"", ""}, cols[11:13])
	assert.Equal(t, []string{"5D_8H_A", "5D_8H_A", "5 Days 8H Work A", "SIABMM", "7", "1"}, cols[21:27])
	assert.Equal(t, "OFF", cols[33])

	var sched models.EmployeeSchedule
	require.NoError(t, f.db.First(&sched, "employee = ?", "1001").Error)
	require.NotNil(t, sched.BmmInterfaceFlag)
	assert.Equal(t, "Y", *sched.BmmInterfaceFlag)
	require.NotNil(t, sched.BmmInterfaceDate)

	var daily models.DailyShiftPattern
	require.NoError(t, f.db.First(&daily, "day_pattern = ?", "D08").Error)
	require.NotNil(t, daily.BmmInterfaceFlag)

	var pattern models.ShiftPattern
	require.NoError(t, f.db.First(&pattern, "pattern = ?", "5D_8H_A").Error)
	require.NotNil(t, pattern.BmmInterfaceFlag)

	processed, _ := report.Counts()
	assert.Equal(t, 3, processed)

	// A second pass has nothing left to export.
	f.now = f.now.Add(time.Hour)
	require.NoError(t, job.Run(context.Background(), NewRunReport(job.InterfaceType())))
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestShiftJob_NoRowsWritesNoFile(t *testing.T) {
	f := newShiftFixture(t)
	job := f.job(nil)

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	assert.False(t, report.HasErrors())

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestShiftJob_EncryptsOutput(t *testing.T) {
	f := newShiftFixture(t)
	f.seed(t)
	f.cfg.EncryptOutput = true
	entity := newTestEntity(t)
	job := f.job(NewPGPEncrypter(openpgp.EntityList{entity}))

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	assert.False(t, report.HasErrors(), report.Summary())

	plain, err := filepath.Glob(filepath.Join(f.dir, "*.txt"))
	require.NoError(t, err)
	assert.Empty(t, plain)

	encrypted, err := filepath.Glob(filepath.Join(f.dir, "*.txt.pgp"))
	require.NoError(t, err)
	require.Len(t, encrypted, 2)

	out := filepath.Join(t.TempDir(), "schedule.txt")
	var schedule string
	for _, p := range encrypted {
		if strings.HasPrefix(filepath.Base(p), "EmployeeSchedule_") {
			schedule = p
		}
	}
	require.NotEmpty(t, schedule)
	require.NoError(t, NewPGPDecrypter(openpgp.EntityList{entity}).DecryptFile(schedule, out))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "5D_8H_A;SIABMM;1001;01.03.2026;N")
}

func TestShiftJob_EncryptWithoutKeyLeavesRowsPending(t *testing.T) {
	f := newShiftFixture(t)
	f.seed(t)
	f.cfg.EncryptOutput = true
	job := f.job(nil)

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	require.True(t, report.HasErrors())

	n := job.Notification(report)
	require.NotNil(t, n)
	assert.Equal(t, "Shift Info interface encountered a Error", n.Subject)
	assert.Contains(t, n.Body, "no public key")
	assert.Equal(t, []string{"roster@example.com"}, n.Recipients)

	var sched models.EmployeeSchedule
	require.NoError(t, f.db.First(&sched, "employee = ?", "1001").Error)
	assert.Nil(t, sched.BmmInterfaceFlag, "rollback keeps the row pending")

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestShiftJob_MarkFailureRemovesExport(t *testing.T) {
	f := newShiftFixture(t)
	f.seed(t)
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").
		Register("test:fail_update", func(tx *gorm.DB) {
			tx.AddError(errors.New("database is read-only"))
		}))
	job := f.job(nil)

	report := NewRunReport(job.InterfaceType())
	require.NoError(t, job.Run(context.Background(), report))
	require.True(t, report.HasErrors())
	assert.Contains(t, report.Summary(), "mark employee schedules exported")
	assert.Contains(t, report.Summary(), "mark daily shift patterns exported")

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "an export whose rows stay pending must not be left behind")

	var sched models.EmployeeSchedule
	require.NoError(t, f.db.First(&sched, "employee = ?", "1001").Error)
	assert.Nil(t, sched.BmmInterfaceFlag)
}

func TestShiftJob_RequiresExportLoc(t *testing.T) {
	job := NewShiftJob(newTestDB(t), &config.ShiftConfig{}, nil)
	assert.Error(t, job.Run(context.Background(), NewRunReport(config.InterfaceShift)))
}
