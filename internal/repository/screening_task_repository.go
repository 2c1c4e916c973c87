package repository

import (
	"time"

	"github.com/hirestack/resume-screener/internal/model"
	"gorm.io/gorm"
)

type ScreeningTaskRepository struct {
	db *gorm.DB
}

func NewScreeningTaskRepository(db *gorm.DB) *ScreeningTaskRepository {
	return &ScreeningTaskRepository{db}
}

func (r *ScreeningTaskRepository) CreateTask(task *model.ScreeningTask) error {
	return r.db.Create(task).Error
}

// CompleteTask writes the full result payload and moves the task to
// "completed". The status guard makes the terminal transition happen at
// most once even if a stray second update ever got issued.
func (r *ScreeningTaskRepository) CompleteTask(id string, result model.ScreeningResult) error {
	now := time.Now()
	return r.db.Model(&model.ScreeningTask{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(map[string]any{
			"status":             model.StatusCompleted,
			"name":               result.Name,
			"email":              result.Email,
			"match_score":        result.MatchScore,
			"recommendation":     result.Recommendation,
			"review_reason":      result.ReviewReason,
			"extracted_data":     result.ExtractedData,
			"reasoning_logs":     result.ReasoningLogs,
			"processing_time_ms": result.ProcessingTimeMs,
			"completed_at":       now,
		}).Error
}

func (r *ScreeningTaskRepository) FailTask(id string, errorDetail string, processingTimeMs float64) error {
	now := time.Now()
	return r.db.Model(&model.ScreeningTask{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(map[string]any{
			"status":             model.StatusFailed,
			"error_detail":       errorDetail,
			"processing_time_ms": processingTimeMs,
			"completed_at":       now,
		}).Error
}

func (r *ScreeningTaskRepository) FindTaskByID(id string) (*model.ScreeningTask, error) {
	var task model.ScreeningTask
	err := r.db.First(&task, "id = ?", id).Error
	return &task, err
}

// ListTasks returns all tasks, newest first, optionally filtered by
// processing status or recommendation.
func (r *ScreeningTaskRepository) ListTasks(status, recommendation string) ([]model.ScreeningTask, error) {
	var tasks []model.ScreeningTask
	q := r.db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if recommendation != "" {
		q = q.Where("recommendation = ?", recommendation)
	}
	err := q.Find(&tasks).Error
	return tasks, err
}

func (r *ScreeningTaskRepository) ListCompletedPaged(recommendation string, page, pageSize int) ([]model.ScreeningTask, int64, error) {
	var tasks []model.ScreeningTask
	var total int64

	q := r.db.Model(&model.ScreeningTask{}).Where("status = ?", model.StatusCompleted)
	if recommendation != "" {
		q = q.Where("recommendation = ?", recommendation)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	return tasks, total, err
}
