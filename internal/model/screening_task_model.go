package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ScreeningTask is the durable record for one resume screening request.
// It is inserted in "processing" state on submission and updated exactly
// once by the background pipeline when it reaches a terminal state.
type ScreeningTask struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Status           string     `gorm:"type:varchar(50)" json:"status"` // "processing", "completed", "failed"
	Source           string     `gorm:"type:varchar(100)" json:"source"`
	Name             string     `gorm:"type:varchar(255)" json:"name"`
	Email            string     `gorm:"type:varchar(255)" json:"email"`
	MatchScore       float64    `gorm:"type:float" json:"match_score"`
	Recommendation   string     `gorm:"type:varchar(50)" json:"recommendation"`
	ReviewReason     string     `gorm:"type:varchar(255)" json:"review_reason"`
	ExtractedData    string     `gorm:"type:jsonb" json:"extracted_data"`
	ReasoningLogs    string     `gorm:"type:jsonb" json:"reasoning_logs"`
	ErrorDetail      string     `gorm:"type:text" json:"error_detail"`
	ProcessingTimeMs float64    `gorm:"type:float" json:"processing_time_ms"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}

func (t *ScreeningTask) TableName() string {
	return "screening_tasks"
}

// ScreeningResult is the payload written to a task row on successful
// completion. ExtractedData and ReasoningLogs are pre-serialized JSON.
type ScreeningResult struct {
	Name             string
	Email            string
	MatchScore       float64
	Recommendation   string
	ReviewReason     string
	ExtractedData    string
	ReasoningLogs    string
	ProcessingTimeMs float64
}
