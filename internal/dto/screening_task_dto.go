package dto

import (
	"encoding/json"
	"time"

	"github.com/hirestack/resume-screener/internal/model"
)

type ScreeningTaskDTO struct {
	TaskID           string          `json:"task_id"`
	Status           string          `json:"status"` // "processing", "completed", "failed"
	ProcessingTimeMs float64         `json:"processing_time_ms"`
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
	ReasoningLogs    json.RawMessage `json:"reasoning_logs,omitempty"`
	MatchScore       float64         `json:"match_score"`
	Recommendation   string          `json:"recommendation"`
	ReviewReason     string          `json:"review_reason"`
	ErrorDetail      string          `json:"error_detail,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	CompletedAt      *time.Time      `json:"completed_at"`
}

// FromTask maps a task row to its API shape. Result fields only appear on
// completed tasks; a failed task exposes the error detail, never partial
// extracted data.
func FromTask(task *model.ScreeningTask) ScreeningTaskDTO {
	d := ScreeningTaskDTO{
		TaskID:           task.ID.String(),
		Status:           task.Status,
		ProcessingTimeMs: task.ProcessingTimeMs,
		CreatedAt:        task.CreatedAt,
		CompletedAt:      task.CompletedAt,
	}

	switch task.Status {
	case model.StatusCompleted:
		d.MatchScore = task.MatchScore
		d.Recommendation = task.Recommendation
		d.ReviewReason = task.ReviewReason
		d.ExtractedData = json.RawMessage(task.ExtractedData)
		d.ReasoningLogs = json.RawMessage(task.ReasoningLogs)
	case model.StatusFailed:
		d.ErrorDetail = task.ErrorDetail
	}

	return d
}
