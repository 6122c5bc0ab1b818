package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

const eslotServiceSubject = "Slots eSlot interface ran into a Issue in service"

var (
	ErrOpsLineNotFound = errors.New("ops line not found")
	ErrOpsLineRequired = errors.New("ops line is required")
)

// OpsLineService maintains the ops line to site and email mapping used by
// the slot import.
type OpsLineService struct {
	db         *gorm.DB
	notifier   Notifier
	recipients []string
}

func NewOpsLineService(db *gorm.DB, notifier Notifier, recipients []string) *OpsLineService {
	return &OpsLineService{db: db, notifier: notifier, recipients: recipients}
}

func (s *OpsLineService) Create(ctx context.Context, site, opsLine, email string) error {
	if opsLine == "" {
		return ErrOpsLineRequired
	}
	line := models.OpsLineEmail{OpsLine: opsLine, Site: site, Email: email}
	if err := s.db.WithContext(ctx).Create(&line).Error; err != nil {
		return s.fail(ctx, fmt.Errorf("set site for ops line %s: %w", opsLine, err))
	}
	return nil
}

func (s *OpsLineService) UpdateSite(ctx context.Context, opsLine, site string) error {
	res := s.db.WithContext(ctx).Model(&models.OpsLineEmail{}).
		Where("ops_line = ?", opsLine).
		Update("site", site)
	if res.Error != nil {
		return s.fail(ctx, fmt.Errorf("update site for ops line %s: %w", opsLine, res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrOpsLineNotFound
	}
	return nil
}

func (s *OpsLineService) Delete(ctx context.Context, opsLine string) error {
	res := s.db.WithContext(ctx).Where("ops_line = ?", opsLine).Delete(&models.OpsLineEmail{})
	if res.Error != nil {
		return s.fail(ctx, fmt.Errorf("delete ops line %s: %w", opsLine, res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrOpsLineNotFound
	}
	return nil
}

// List returns one ops line, or all of them when opsLine is empty.
func (s *OpsLineService) List(ctx context.Context, opsLine string) ([]models.OpsLineEmail, error) {
	query := s.db.WithContext(ctx).Order("ops_line")
	if opsLine != "" {
		query = query.Where("ops_line = ?", opsLine)
	}
	var lines []models.OpsLineEmail
	if err := query.Find(&lines).Error; err != nil {
		return nil, s.fail(ctx, fmt.Errorf("get ops lines: %w", err))
	}
	return lines, nil
}

// FormatOpsLines renders one "Ops Line: X Site: Y Email: Z" line per record.
func FormatOpsLines(lines []models.OpsLineEmail) string {
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "Ops Line: %s Site: %s Email: %s\n", l.OpsLine, l.Site, l.Email)
	}
	return sb.String()
}

func (s *OpsLineService) fail(ctx context.Context, err error) error {
	logger.Errorf("[ESlot] %v", err)
	if s.notifier == nil {
		return err
	}
	report := NewRunReport(config.InterfaceESlot)
	report.Errorf("", "%v", err)
	n := BuildIssueNotification(eslotServiceSubject, "Input", "Enter records manually.", report, s.recipients)
	if notifyErr := s.notifier.Notify(ctx, n); notifyErr != nil {
		logger.Errorf("[ESlot] Failed to send error notification: %v", notifyErr)
	}
	return err
}
