package services

import (
	"fmt"

	"github.com/traxaero/interfaces/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SequenceAttendance = "EMPATTSEQ"
	SequenceWorkOrder  = "WOSEQ"
	SequenceNotes      = "NOTES"
)

// NextTransactionNo increments the named sequence and returns the new
// value. Call it with the transaction that writes the numbered row so a
// rollback also returns the number.
func NextTransactionNo(tx *gorm.DB, code string) (int64, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ConfigNumber{Code: code, LastNumber: 0}).Error; err != nil {
		return 0, fmt.Errorf("init sequence %s: %w", code, err)
	}

	res := tx.Model(&models.ConfigNumber{}).
		Where("code = ?", code).
		Update("last_number", gorm.Expr("last_number + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", code, res.Error)
	}

	var seq models.ConfigNumber
	if err := tx.Where("code = ?", code).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", code, err)
	}
	return seq.LastNumber, nil
}
