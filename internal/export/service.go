package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/hirestack/resume-screener/internal/model"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// TaskLister is the repository slice the export service needs.
type TaskLister interface {
	ListTasks(status, recommendation string) ([]model.ScreeningTask, error)
}

var exportHeaders = []string{
	"Task ID",
	"Name",
	"Email",
	"Match Score",
	"Recommendation",
	"Status",
	"Review Reason",
	"Processing Time (ms)",
	"Created At",
	"Completed At",
}

// Service produces tabular dumps of the task table, optionally filtered
// by processing status or recommendation.
type Service struct {
	tasks  TaskLister
	logger *zap.Logger
}

func NewService(tasks TaskLister, logger *zap.Logger) *Service {
	return &Service{tasks: tasks, logger: logger}
}

func (s *Service) TasksCSV(status, recommendation string) ([]byte, error) {
	tasks, err := s.tasks.ListTasks(status, recommendation)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for i := range tasks {
		if err := w.Write(taskRow(&tasks[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.logger.Info("exported tasks as CSV", zap.Int("rows", len(tasks)))
	return buf.Bytes(), nil
}

func (s *Service) TasksXLSX(status, recommendation string) ([]byte, error) {
	tasks, err := s.tasks.ListTasks(status, recommendation)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Tasks"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for rowIdx := range tasks {
		for col, value := range taskRow(&tasks[rowIdx]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	s.logger.Info("exported tasks as XLSX", zap.Int("rows", len(tasks)))
	return buf.Bytes(), nil
}

func taskRow(t *model.ScreeningTask) []string {
	completedAt := ""
	if t.CompletedAt != nil {
		completedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return []string{
		t.ID.String(),
		t.Name,
		t.Email,
		strconv.FormatFloat(t.MatchScore, 'f', 2, 64),
		t.Recommendation,
		t.Status,
		t.ReviewReason,
		strconv.FormatFloat(t.ProcessingTimeMs, 'f', 2, 64),
		t.CreatedAt.Format(time.RFC3339),
		completedAt,
	}
}
