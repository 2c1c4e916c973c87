package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hirestack/resume-screener/internal/config"
	"github.com/hirestack/resume-screener/internal/extractor"
	"github.com/hirestack/resume-screener/internal/model"
	"github.com/hirestack/resume-screener/internal/util"
	"github.com/hirestack/resume-screener/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memoryTaskStore mimics the repository's terminal-transition guard.
type memoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*model.ScreeningTask
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{tasks: map[string]*model.ScreeningTask{}}
}

func (s *memoryTaskStore) CreateTask(task *model.ScreeningTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID.String()] = &copied
	return nil
}

func (s *memoryTaskStore) CompleteTask(id string, result model.ScreeningResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != model.StatusProcessing {
		return nil
	}
	now := time.Now()
	task.Status = model.StatusCompleted
	task.Name = result.Name
	task.Email = result.Email
	task.MatchScore = result.MatchScore
	task.Recommendation = result.Recommendation
	task.ReviewReason = result.ReviewReason
	task.ExtractedData = result.ExtractedData
	task.ReasoningLogs = result.ReasoningLogs
	task.ProcessingTimeMs = result.ProcessingTimeMs
	task.CompletedAt = &now
	return nil
}

func (s *memoryTaskStore) FailTask(id string, errorDetail string, processingTimeMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != model.StatusProcessing {
		return nil
	}
	now := time.Now()
	task.Status = model.StatusFailed
	task.ErrorDetail = errorDetail
	task.ProcessingTimeMs = processingTimeMs
	task.CompletedAt = &now
	return nil
}

func (s *memoryTaskStore) FindTaskByID(id string) (*model.ScreeningTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

// inlineDispatcher runs jobs synchronously so tests stay deterministic.
type inlineDispatcher struct {
	err  error
	jobs int
}

func (d *inlineDispatcher) Submit(job worker.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs++
	job()
	return nil
}

type stubCandidateSource struct {
	candidate *extractor.Candidate
	err       error
}

func (s *stubCandidateSource) Extract(context.Context, string) (*extractor.Candidate, error) {
	return s.candidate, s.err
}

type stubSkillSource struct {
	skills []string
	err    error
}

func (s *stubSkillSource) RequiredSkills(context.Context) ([]string, error) {
	return s.skills, s.err
}

func testConfig() *config.ScreeningConfig {
	return &config.ScreeningConfig{
		ShortlistThreshold: 0.85,
		ReviewThreshold:    0.60,
		ConfidenceFloor:    0.75,
		MinExperience:      3,
		PipelineTimeout:    time.Minute,
	}
}

func passthroughText(data []byte) (string, error) {
	return string(data), nil
}

func newTestUsecase(store TaskStore, dispatcher Dispatcher, candidates CandidateSource, skills SkillSource, text TextExtractor) *ScreeningUsecase {
	return NewScreeningUsecase(store, dispatcher, candidates, skills, text, testConfig(), zap.NewNop())
}

func TestSubmitRunsPipelineToCompletion(t *testing.T) {
	store := newMemoryTaskStore()
	candidates := &stubCandidateSource{candidate: &extractor.Candidate{
		Name:                 "Jane Doe",
		Email:                "jane@example.com",
		YearsOfExperience:    5,
		Skills:               []string{"Python", "SQL"},
		ExtractionConfidence: 0.9,
	}}
	skills := &stubSkillSource{skills: []string{"Python", "AWS"}}
	uc := newTestUsecase(store, &inlineDispatcher{}, candidates, skills, passthroughText)

	taskID, err := uc.Submit("webhook", []byte("resume text"))
	require.NoError(t, err)

	task, err := uc.GetTask(taskID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, "Jane Doe", task.Name)
	assert.Equal(t, "jane@example.com", task.Email)
	assert.InDelta(t, 0.65, task.MatchScore, 1e-9)
	assert.Equal(t, "Human Review", task.Recommendation)
	assert.Equal(t, "Partial skill match", task.ReviewReason)
	assert.GreaterOrEqual(t, task.ProcessingTimeMs, 0.0)

	var logs map[string]any
	require.NoError(t, json.Unmarshal([]byte(task.ReasoningLogs), &logs))
	assert.ElementsMatch(t, []any{"Python", "AWS"}, logs["required_skills"])
	assert.Equal(t, []any{"AWS"}, logs["missing_skills"])
	assert.InDelta(t, 0.9, logs["confidence"].(float64), 1e-9)
	assert.Equal(t, "Human Review", logs["recommendation"])

	var extracted extractor.Candidate
	require.NoError(t, json.Unmarshal([]byte(task.ExtractedData), &extracted))
	assert.Equal(t, "Jane Doe", extracted.Name)
}

func TestSubmitReturnsBeforeProcessing(t *testing.T) {
	store := newMemoryTaskStore()
	// Dispatcher that never runs the job: the task must stay processing
	// with no timestamps or payload.
	uc := newTestUsecase(store, dispatcherFunc(func(worker.Job) error { return nil }), &stubCandidateSource{}, &stubSkillSource{}, passthroughText)

	taskID, err := uc.Submit("webhook", []byte("resume text"))
	require.NoError(t, err)

	task, err := uc.GetTask(taskID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusProcessing, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Empty(t, task.ExtractedData)
	assert.Empty(t, task.ErrorDetail)
}

type dispatcherFunc func(worker.Job) error

func (f dispatcherFunc) Submit(job worker.Job) error { return f(job) }

func TestSubmitQueueFullFailsTask(t *testing.T) {
	store := newMemoryTaskStore()
	uc := newTestUsecase(store, &inlineDispatcher{err: worker.ErrQueueFull}, &stubCandidateSource{}, &stubSkillSource{}, passthroughText)

	taskID, err := uc.Submit("webhook", []byte("resume text"))
	require.ErrorIs(t, err, worker.ErrQueueFull)
	require.NotEmpty(t, taskID)

	task, findErr := uc.GetTask(taskID)
	require.NoError(t, findErr)
	assert.Equal(t, model.StatusFailed, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, "screening queue is full", task.ErrorDetail)
}

func TestProcessFailureCapturesErrorDetail(t *testing.T) {
	store := newMemoryTaskStore()
	failingText := func([]byte) (string, error) {
		return "", fmt.Errorf("open resume: %w", util.ErrNoTextFound)
	}
	uc := newTestUsecase(store, &inlineDispatcher{}, &stubCandidateSource{}, &stubSkillSource{}, failingText)

	taskID, err := uc.Submit("webhook", []byte("%PDF"))
	require.NoError(t, err)

	task, findErr := uc.GetTask(taskID)
	require.NoError(t, findErr)

	assert.Equal(t, model.StatusFailed, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Contains(t, task.ErrorDetail, "no extractable text found")
	// A failed task never carries partial extraction output.
	assert.Empty(t, task.ExtractedData)
	assert.Empty(t, task.Recommendation)
}

func TestProcessExtractionFailureFailsTask(t *testing.T) {
	store := newMemoryTaskStore()
	candidates := &stubCandidateSource{err: &extractor.ExtractionError{
		RawOutput: "garbage",
		Err:       errors.New("parse candidate JSON"),
	}}
	uc := newTestUsecase(store, &inlineDispatcher{}, candidates, &stubSkillSource{}, passthroughText)

	taskID, err := uc.Submit("webhook", []byte("resume text"))
	require.NoError(t, err)

	task, findErr := uc.GetTask(taskID)
	require.NoError(t, findErr)
	assert.Equal(t, model.StatusFailed, task.Status)
	assert.Contains(t, task.ErrorDetail, "candidate extraction failed")
}

func TestProcessSkillExtractionFailureFailsTask(t *testing.T) {
	store := newMemoryTaskStore()
	candidates := &stubCandidateSource{candidate: &extractor.Candidate{
		ExtractionConfidence: 0.9,
	}}
	skills := &stubSkillSource{err: &extractor.SkillExtractionError{
		RawOutput: "no array here",
		Err:       errors.New("no JSON array detected in output"),
	}}
	uc := newTestUsecase(store, &inlineDispatcher{}, candidates, skills, passthroughText)

	taskID, err := uc.Submit("webhook", []byte("resume text"))
	require.NoError(t, err)

	task, findErr := uc.GetTask(taskID)
	require.NoError(t, findErr)
	assert.Equal(t, model.StatusFailed, task.Status)
	assert.Contains(t, task.ErrorDetail, "skill extraction failed")
}

func TestGetTaskUnknownIDSignalsNotFound(t *testing.T) {
	store := newMemoryTaskStore()
	uc := newTestUsecase(store, &inlineDispatcher{}, &stubCandidateSource{}, &stubSkillSource{}, passthroughText)

	_, err := uc.GetTask("b1c31f3a-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLowConfidenceRoutesToHumanReviewEvenWithPerfectScore(t *testing.T) {
	store := newMemoryTaskStore()
	candidates := &stubCandidateSource{candidate: &extractor.Candidate{
		Name:                 "Jane Doe",
		YearsOfExperience:    10,
		Skills:               []string{"Python", "AWS"},
		ExtractionConfidence: 0.70,
	}}
	skills := &stubSkillSource{skills: []string{"Python", "AWS"}}
	uc := newTestUsecase(store, &inlineDispatcher{}, candidates, skills, passthroughText)

	taskID, err := uc.Submit("webhook", []byte("resume text"))
	require.NoError(t, err)

	task, findErr := uc.GetTask(taskID)
	require.NoError(t, findErr)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, "Human Review", task.Recommendation)
	assert.Equal(t, "Low extraction confidence", task.ReviewReason)
	assert.InDelta(t, 1.0, task.MatchScore, 1e-9)
}
