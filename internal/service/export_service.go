package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
	"github.com/noah-isme/lhu-dashboard-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type scheduleReader interface {
	Schedule(ctx context.Context, studentID string, force bool) (*dto.StudentScheduleResponse, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var dayNames = map[int]string{
	0: "Sunday", 1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday", 5: "Friday", 6: "Saturday",
}

var upstreamStatusLabels = map[int]string{
	0: "normal", 1: "cancelled", 2: "rescheduled", 3: "ended", 4: "holiday", 5: "makeup", 6: "special",
}

// ScheduleExportService renders a student's timetable as CSV or PDF.
type ScheduleExportService struct {
	schedules scheduleReader
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewScheduleExportService constructs the export service; nil renderers get the defaults.
func NewScheduleExportService(schedules scheduleReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ScheduleExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ScheduleExportService{schedules: schedules, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the student's timetable. The timetable is read through the cache like any other request.
func (s *ScheduleExportService) Export(ctx context.Context, studentID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	schedule, err := s.schedules.Schedule(ctx, studentID, false)
	if err != nil {
		return nil, err
	}
	dataset := scheduleDataset(schedule)

	var body []byte
	contentType := "text/csv; charset=utf-8"
	if format == ExportFormatPDF {
		body, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	} else {
		body, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.logger.Error("schedule export failed", zap.String("student_id", schedule.StudentID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("schedule-%s.%s", schedule.StudentID, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func scheduleDataset(schedule *dto.StudentScheduleResponse) export.Dataset {
	title := "Schedule " + schedule.StudentID
	if schedule.StudentName != "" {
		title += " - " + schedule.StudentName
	}
	rows := make([]map[string]string, 0, len(schedule.Schedules))
	for _, item := range schedule.Schedules {
		duplicate := ""
		if item.IsDuplicate {
			duplicate = "priority " + strconv.Itoa(item.Priority)
		}
		rows = append(rows, map[string]string{
			"Day":       dayNames[item.DayOfWeek],
			"Start":     item.StartTime,
			"End":       item.EndTime,
			"Subject":   item.SubjectName,
			"Room":      item.Room,
			"Teacher":   item.Teacher,
			"Status":    upstreamStatusLabels[item.UpstreamStatus],
			"Now":       item.RealtimeStatus.String(),
			"Duplicate": duplicate,
		})
	}
	return export.Dataset{
		Title:   title,
		Headers: []string{"Day", "Start", "End", "Subject", "Room", "Teacher", "Status", "Now", "Duplicate"},
		Widths:  []float64{1.2, 1.8, 1.8, 3, 1, 2, 1.2, 1.4, 1.2},
		Rows:    rows,
	}
}
