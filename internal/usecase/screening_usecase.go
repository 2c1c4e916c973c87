package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hirestack/resume-screener/internal/config"
	"github.com/hirestack/resume-screener/internal/extractor"
	"github.com/hirestack/resume-screener/internal/matcher"
	"github.com/hirestack/resume-screener/internal/model"
	"github.com/hirestack/resume-screener/internal/worker"
	"go.uber.org/zap"
)

// TaskStore is the slice of the task repository the lifecycle needs.
type TaskStore interface {
	CreateTask(task *model.ScreeningTask) error
	CompleteTask(id string, result model.ScreeningResult) error
	FailTask(id string, errorDetail string, processingTimeMs float64) error
	FindTaskByID(id string) (*model.ScreeningTask, error)
}

// Dispatcher enqueues background jobs; worker.Pool implements it.
type Dispatcher interface {
	Submit(job worker.Job) error
}

type CandidateSource interface {
	Extract(ctx context.Context, resumeText string) (*extractor.Candidate, error)
}

type SkillSource interface {
	RequiredSkills(ctx context.Context) ([]string, error)
}

// TextExtractor converts raw document bytes to plain text.
type TextExtractor func(data []byte) (string, error)

// ScreeningUsecase owns the task lifecycle: synchronous submission,
// background pipeline execution, and read-only status lookup. A task
// moves from "processing" to exactly one of "completed" or "failed".
type ScreeningUsecase struct {
	tasks       TaskStore
	dispatcher  Dispatcher
	candidates  CandidateSource
	skills      SkillSource
	extractText TextExtractor
	cfg         *config.ScreeningConfig
	logger      *zap.Logger
}

func NewScreeningUsecase(
	tasks TaskStore,
	dispatcher Dispatcher,
	candidates CandidateSource,
	skills SkillSource,
	extractText TextExtractor,
	cfg *config.ScreeningConfig,
	logger *zap.Logger,
) *ScreeningUsecase {
	return &ScreeningUsecase{
		tasks:       tasks,
		dispatcher:  dispatcher,
		candidates:  candidates,
		skills:      skills,
		extractText: extractText,
		cfg:         cfg,
		logger:      logger,
	}
}

// Submit creates the task record and enqueues exactly one pipeline run for
// it. It never blocks on extraction or LLM work. A saturated queue fails
// the task immediately so the poller still sees a terminal state.
func (uc *ScreeningUsecase) Submit(source string, fileBytes []byte) (string, error) {
	task := &model.ScreeningTask{
		ID:        uuid.New(),
		Status:    model.StatusProcessing,
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := uc.tasks.CreateTask(task); err != nil {
		return "", fmt.Errorf("create screening task: %w", err)
	}

	taskID := task.ID.String()
	if err := uc.dispatcher.Submit(func() { uc.Process(taskID, fileBytes) }); err != nil {
		uc.logger.Warn("screening queue saturated", zap.String("task_id", taskID))
		if failErr := uc.tasks.FailTask(taskID, "screening queue is full", 0); failErr != nil {
			uc.logger.Error("failed to mark saturated task", zap.String("task_id", taskID), zap.Error(failErr))
		}
		return taskID, err
	}

	return taskID, nil
}

// Process runs the full pipeline for one task: text extraction, candidate
// extraction, required-skill retrieval, scoring, routing, persistence.
// Every failure is captured into the task's terminal state; nothing
// escapes past this boundary.
func (uc *ScreeningUsecase) Process(taskID string, fileBytes []byte) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.PipelineTimeout)
	defer cancel()

	fail := func(stage string, err error) {
		elapsed := elapsedMs(start)
		uc.logger.Warn("screening pipeline failed",
			zap.String("task_id", taskID),
			zap.String("stage", stage),
			zap.Error(err))
		if failErr := uc.tasks.FailTask(taskID, err.Error(), elapsed); failErr != nil {
			uc.logger.Error("failed to record task failure", zap.String("task_id", taskID), zap.Error(failErr))
		}
	}

	resumeText, err := uc.extractText(fileBytes)
	if err != nil {
		fail("text_extraction", err)
		return
	}

	candidate, err := uc.candidates.Extract(ctx, resumeText)
	if err != nil {
		fail("candidate_extraction", err)
		return
	}

	requiredSkills, err := uc.skills.RequiredSkills(ctx)
	if err != nil {
		fail("skill_extraction", err)
		return
	}

	match := matcher.Score(candidate, requiredSkills, uc.cfg.MinExperience)
	final := matcher.Route(match, candidate.ExtractionConfidence, matcher.Thresholds{
		Shortlist:       uc.cfg.ShortlistThreshold,
		Review:          uc.cfg.ReviewThreshold,
		ConfidenceFloor: uc.cfg.ConfidenceFloor,
	})

	extractedData, err := json.Marshal(candidate)
	if err != nil {
		fail("serialize_candidate", err)
		return
	}

	reasoningLogs, err := json.Marshal(map[string]any{
		"required_skills": requiredSkills,
		"match_score":     final.MatchScore,
		"missing_skills":  final.MissingSkills,
		"confidence":      candidate.ExtractionConfidence,
		"recommendation":  final.Recommendation,
	})
	if err != nil {
		fail("serialize_reasoning", err)
		return
	}

	elapsed := elapsedMs(start)
	if err := uc.tasks.CompleteTask(taskID, model.ScreeningResult{
		Name:             candidate.Name,
		Email:            candidate.Email,
		MatchScore:       final.MatchScore,
		Recommendation:   final.Recommendation,
		ReviewReason:     final.ReviewReason,
		ExtractedData:    string(extractedData),
		ReasoningLogs:    string(reasoningLogs),
		ProcessingTimeMs: elapsed,
	}); err != nil {
		uc.logger.Error("failed to record task completion", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	uc.logger.Info("screening task completed",
		zap.String("task_id", taskID),
		zap.Float64("match_score", final.MatchScore),
		zap.String("recommendation", final.Recommendation),
		zap.Float64("processing_time_ms", elapsed))
}

// GetTask looks up one task. Unknown ids surface the repository's
// not-found error untouched so the handler can answer 404.
func (uc *ScreeningUsecase) GetTask(id string) (*model.ScreeningTask, error) {
	return uc.tasks.FindTaskByID(id)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
