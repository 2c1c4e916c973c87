package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hirestack/resume-screener/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLister struct {
	tasks              []model.ScreeningTask
	lastStatus         string
	lastRecommendation string
}

func (s *stubLister) ListTasks(status, recommendation string) ([]model.ScreeningTask, error) {
	s.lastStatus = status
	s.lastRecommendation = recommendation
	return s.tasks, nil
}

func sampleTasks() []model.ScreeningTask {
	completed := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	return []model.ScreeningTask{
		{
			ID:               uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			Status:           model.StatusCompleted,
			Name:             "Jane Doe",
			Email:            "jane@example.com",
			MatchScore:       0.65,
			Recommendation:   "Human Review",
			ReviewReason:     "Partial skill match",
			ProcessingTimeMs: 1234.5,
			CreatedAt:        completed.Add(-time.Minute),
			CompletedAt:      &completed,
		},
		{
			ID:        uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
			Status:    model.StatusFailed,
			CreatedAt: completed,
		},
	}
}

func TestTasksCSVShape(t *testing.T) {
	lister := &stubLister{tasks: sampleTasks()}
	svc := NewService(lister, zap.NewNop())

	data, err := svc.TasksCSV("", "Human Review")
	require.NoError(t, err)
	assert.Equal(t, "Human Review", lister.lastRecommendation)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", rows[1][0])
	assert.Equal(t, "Jane Doe", rows[1][1])
	assert.Equal(t, "0.65", rows[1][3])
	assert.Equal(t, "Human Review", rows[1][4])
	// Terminal timestamp rendered; pending one left blank.
	assert.NotEmpty(t, rows[1][9])
	assert.Empty(t, rows[2][9])
}

func TestTasksXLSXProducesWorkbook(t *testing.T) {
	lister := &stubLister{tasks: sampleTasks()}
	svc := NewService(lister, zap.NewNop())

	data, err := svc.TasksXLSX(model.StatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, lister.lastStatus)

	// XLSX files are zip archives.
	require.Greater(t, len(data), 4)
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
