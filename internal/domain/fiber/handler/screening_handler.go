package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hirestack/resume-screener/internal/dto"
	"github.com/hirestack/resume-screener/internal/export"
	"github.com/hirestack/resume-screener/internal/middleware"
	"github.com/hirestack/resume-screener/internal/model"
	"github.com/hirestack/resume-screener/internal/response"
	"github.com/hirestack/resume-screener/internal/usecase"
	"github.com/hirestack/resume-screener/internal/util"
	"github.com/hirestack/resume-screener/internal/worker"
	"gorm.io/gorm"
)

const maxResumeSize = 5 * 1024 * 1024

type CandidateLister interface {
	ListCompletedPaged(recommendation string, page, pageSize int) ([]model.ScreeningTask, int64, error)
}

type ScreeningHandler struct {
	uc         *usecase.ScreeningUsecase
	exporter   *export.Service
	candidates CandidateLister
}

func NewScreeningHandler(uc *usecase.ScreeningUsecase, exporter *export.Service, candidates CandidateLister) *ScreeningHandler {
	return &ScreeningHandler{uc: uc, exporter: exporter, candidates: candidates}
}

func (h *ScreeningHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/webhook/resume", middleware.RateLimiter(1, 4*time.Second), h.SubmitResume)
	app.Get("/tasks/:id", h.TaskStatus)
	app.Get("/candidates", h.Candidates)
	app.Get("/export", h.Export)
}

// SubmitResume accepts a resume PDF, creates the screening task and
// returns its id immediately; the pipeline runs in the background.
func (h *ScreeningHandler) SubmitResume(c *fiber.Ctx) error {
	fileBytes, err := h.readResumeFile(c)
	if err != nil {
		return err
	}

	source := c.FormValue("source")
	if source == "" {
		source = "external"
	}

	taskID, err := h.uc.Submit(source, fileBytes)
	if err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusServiceUnavailable,
				Message: "screening queue is full, try again later",
			}, err)
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to submit resume",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Resume accepted for screening",
		Data:    fiber.Map{"task_id": taskID, "status": model.StatusProcessing},
	})
}

func (h *ScreeningHandler) readResumeFile(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("resume")
	if err != nil {
		return nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file is required",
		}, err)
	}

	if fileHeader.Size > maxResumeSize {
		return nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file size is too large (max 5MB)",
		})
	}

	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".pdf" {
		return nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "unsupported resume file type, only PDF is accepted",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot open resume file",
		}, err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot read resume file",
		}, err)
	}

	return fileBytes, nil
}

func (h *ScreeningHandler) TaskStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	task, err := h.uc.GetTask(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "task not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to look up task",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get screening task",
		Data:    dto.FromTask(task),
	})
}

// Candidates lists completed screenings, newest first, optionally
// filtered by recommendation.
func (h *ScreeningHandler) Candidates(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	recommendation := c.Query("recommendation")

	tasks, total, err := h.candidates.ListCompletedPaged(recommendation, page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list candidates",
		}, err)
	}

	items := make([]dto.ScreeningTaskDTO, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.FromTask(&tasks[i]))
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success list candidates",
		Data:       items,
		Pagination: response.NewPagination(page, pageSize, total),
	})
}

// Export dumps all task records as CSV (default) or XLSX, optionally
// filtered by status or recommendation.
func (h *ScreeningHandler) Export(c *fiber.Ctx) error {
	status := c.Query("status")
	recommendation := c.Query("recommendation")

	switch c.Query("format", "csv") {
	case "xlsx":
		data, err := h.exporter.TasksXLSX(status, recommendation)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Message: "failed to export tasks",
			}, err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename=screening_export.xlsx`)
		return c.Send(data)
	case "csv":
		data, err := h.exporter.TasksCSV(status, recommendation)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Message: "failed to export tasks",
			}, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename=screening_export.csv`)
		return c.Send(data)
	default:
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "unsupported export format",
		})
	}
}
