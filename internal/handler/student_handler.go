package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	"github.com/noah-isme/lhu-dashboard-api/internal/middleware"
	"github.com/noah-isme/lhu-dashboard-api/internal/service"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
	"github.com/noah-isme/lhu-dashboard-api/pkg/response"
)

type scheduleService interface {
	Schedule(ctx context.Context, studentID string, force bool) (*dto.StudentScheduleResponse, error)
	ClearCache(ctx context.Context, studentID string) error
	Analyze(ctx context.Context, req dto.AnalyzeSchedulesRequest) (*dto.AnalyzeSchedulesResponse, error)
}

type examService interface {
	Exams(ctx context.Context, studentID string, force bool) (*dto.StudentExamsResponse, error)
	ClearCache(ctx context.Context, studentID string) error
}

type refreshQueue interface {
	Enqueue(ctx context.Context, studentID string) (*dto.RefreshJobResponse, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, studentID, format string) (*service.ExportFile, error)
}

// StudentHandler exposes the per-student schedule and exam endpoints.
type StudentHandler struct {
	schedules scheduleService
	exams     examService
	refresh   refreshQueue
	exporter  scheduleExporter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(schedules scheduleService, exams examService, refresh refreshQueue, exporter scheduleExporter) *StudentHandler {
	return &StudentHandler{schedules: schedules, exams: exams, refresh: refresh, exporter: exporter}
}

// Schedule godoc
// @Summary Student timetable with realtime status and duplicate groups
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param refresh query bool false "Bypass a fresh cache entry"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/schedule [get]
func (h *StudentHandler) Schedule(c *gin.Context) {
	resp, err := h.schedules.Schedule(c.Request.Context(), c.Param("id"), forceRefresh(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheSource(c, resp.Cache)
	response.JSON(c, http.StatusOK, resp, middleware.ExtractMeta(c))
}

// Exams godoc
// @Summary Student exam sittings ordered by start time
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param refresh query bool false "Bypass a fresh cache entry"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/exams [get]
func (h *StudentHandler) Exams(c *gin.Context) {
	resp, err := h.exams.Exams(c.Request.Context(), c.Param("id"), forceRefresh(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheSource(c, resp.Cache)
	response.JSON(c, http.StatusOK, resp, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download the timetable as CSV or PDF
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/{id}/schedule/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Refresh godoc
// @Summary Queue a background refresh of the student's cached data
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 202 {object} response.Envelope
// @Router /students/{id}/refresh [post]
func (h *StudentHandler) Refresh(c *gin.Context) {
	if h.refresh == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "background refresh disabled"))
		return
	}
	job, err := h.refresh.Enqueue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ClearCache godoc
// @Summary Drop the student's cached schedule and exams
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id}/cache [delete]
func (h *StudentHandler) ClearCache(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.schedules.ClearCache(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.exams.ClearCache(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Analyze godoc
// @Summary Compute realtime status and duplicate groups for a posted schedule list
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeSchedulesRequest true "Schedule entries"
// @Success 200 {object} response.Envelope
// @Router /schedules/analyze [post]
func (h *StudentHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	resp, err := h.schedules.Analyze(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

func forceRefresh(c *gin.Context) bool {
	force, err := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	return err == nil && force
}
