package services

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/traxaero/interfaces/internal/models"
	"github.com/traxaero/interfaces/pkg/logger"
	"gorm.io/gorm"
)

type RunLogService struct {
	db            *gorm.DB
	retentionDays int
}

func NewRunLogService(db *gorm.DB, retentionDays int) *RunLogService {
	return &RunLogService{db: db, retentionDays: retentionDays}
}

type RunLogListRequest struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	InterfaceType string `form:"interface_type"`
	Level         string `form:"level"`
	Status        string `form:"status"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
}

type RunLogListResponse struct {
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Items    []models.InterfaceRunLog `json:"items"`
}

// Record persists the outcome of a run. Failures to write are logged and
// swallowed; a run log must never fail the run it describes.
func (s *RunLogService) Record(ctx context.Context, report *RunReport, status string) {
	processed, failed := report.Counts()
	errs := report.Errors()

	level := "info"
	switch {
	case status == models.RunStatusFailed || len(errs) > 0:
		level = "error"
	case len(report.Diagnostics()) > 0:
		level = "warning"
	}

	var extra string
	if diags := report.Diagnostics(); len(diags) > 0 {
		if b, err := json.Marshal(diags); err == nil {
			extra = string(b)
		}
	}

	entry := &models.InterfaceRunLog{
		InterfaceType: report.InterfaceType,
		RunID:         report.RunID,
		Level:         level,
		Status:        status,
		Processed:     processed,
		Failed:        failed,
		Message:       report.Summary(),
		Extra:         extra,
		StartedAt:     report.StartedAt,
		FinishedAt:    time.Now(),
		CreatedAt:     time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("run_id", report.RunID).Msg("[RunLog] Failed to record run")
	}
}

func (s *RunLogService) List(req *RunLogListRequest) (*RunLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.InterfaceRunLog
	var total int64

	query := s.db.Model(&models.InterfaceRunLog{})

	if req.InterfaceType != "" {
		query = query.Where("interface_type = ?", req.InterfaceType)
	}
	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &RunLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes run logs older than the specified number of days
// and returns the number of deleted records.
func (s *RunLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffTime).Delete(&models.InterfaceRunLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *RunLogService) RetentionDays() int {
	return s.retentionDays
}
