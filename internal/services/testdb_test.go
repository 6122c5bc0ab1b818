package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/traxaero/interfaces/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with every model
// migrated. A single connection keeps concurrent writers serialized.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// fixedClock returns a clock that reports *now, so tests can move time.
func fixedClock(now *time.Time) func() time.Time {
	return func() time.Time { return *now }
}

func seedLock(t *testing.T, db *gorm.DB, interfaceType string, maxLock int) {
	t.Helper()
	require.NoError(t, models.SeedInterfaceLocks(db, map[string]int{interfaceType: maxLock}))
}
