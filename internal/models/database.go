package models

import (
	"errors"
	"fmt"

	"github.com/traxaero/interfaces/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

// AllModels lists every table owned by the interfaces service.
func AllModels() []interface{} {
	return []interface{}{
		&InterfaceLock{},
		&InterfaceRunLog{},
		&ConfigNumber{},
		&RelationMaster{},
		&SkillMaster{},
		&EmployeeSkill{},
		&SiteGroupMaster{},
		&EmployeeScheduleGroup{},
		&EmployeeAttendanceCurrent{},
		&EmployeeAttendanceLog{},
		&EmployeeSchedule{},
		&ShiftPattern{},
		&DailyShiftPattern{},
		&WorkOrder{},
		&Notepad{},
		&AcMaster{},
		&SystemTranCode{},
		&LocationSite{},
		&LocationMaster{},
		&OpsLineEmail{},
	}
}

func AutoMigrate() error {
	return DB.AutoMigrate(AllModels()...)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedInterfaceLocks provisions one lock row per interface type.
// Existing rows are left untouched.
func SeedInterfaceLocks(db *gorm.DB, maxLockSeconds map[string]int) error {
	for interfaceType, maxLock := range maxLockSeconds {
		var existing InterfaceLock
		err := db.Where("interface_type = ?", interfaceType).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		lock := InterfaceLock{
			InterfaceType: interfaceType,
			Locked:        0,
			MaxLock:       maxLock,
		}
		if err := db.Create(&lock).Error; err != nil {
			return fmt.Errorf("seed interface lock %s: %w", interfaceType, err)
		}
	}
	return nil
}
