package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

type examSource interface {
	reachability
	FetchExams(ctx context.Context, studentID string) (models.StudentExams, error)
}

// ExamService serves exam sittings through the exam cache.
type ExamService struct {
	store     *ExpiringStore[models.StudentExams]
	upstream  examSource
	engine    ScheduleEngine
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExamService constructs an ExamService.
func NewExamService(store *ExpiringStore[models.StudentExams], upstream examSource, engine ScheduleEngine, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		store:     store,
		upstream:  upstream,
		engine:    engine,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Exams returns the student's exams ordered by start time; entries with unreadable times sort last.
func (s *ExamService) Exams(ctx context.Context, studentID string, force bool) (*dto.StudentExamsResponse, error) {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return nil, err
	}

	exams, meta, err := fetchThrough(ctx, s.store, studentID, force, s.upstream, func(ctx context.Context) (models.StudentExams, error) {
		return s.upstream.FetchExams(ctx, studentID)
	}, s.logger)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]dto.ExamItem, 0, len(exams.Exams))
	for _, e := range exams.Exams {
		items = append(items, dto.ExamItem{
			ID:             e.ID,
			SubjectCode:    e.SubjectCode,
			SubjectName:    e.SubjectName,
			Room:           e.Room,
			Seat:           e.Seat,
			Format:         e.Format,
			Attempt:        e.Attempt,
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			UpstreamStatus: int(e.Status),
			RealtimeStatus: s.engine.RealtimeStatusAt(now, e.StartTime, e.EndTime),
		})
	}
	s.sortByStart(items)

	return &dto.StudentExamsResponse{
		StudentID:   studentID,
		Exams:       items,
		Cache:       meta,
		GeneratedAt: now.UTC(),
	}, nil
}

// Refresh fetches exams and stores them, reporting upstream failures.
func (s *ExamService) Refresh(ctx context.Context, studentID string) error {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return err
	}
	exams, err := s.upstream.FetchExams(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "refresh exams")
	}
	s.store.Set(ctx, studentID, exams)
	return nil
}

// ClearCache drops the student's cached exams.
func (s *ExamService) ClearCache(ctx context.Context, studentID string) error {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return err
	}
	s.store.Delete(ctx, studentID)
	return nil
}

func (s *ExamService) sortByStart(items []dto.ExamItem) {
	starts := make(map[string]time.Time, len(items))
	valid := make(map[string]bool, len(items))
	for _, item := range items {
		if t, err := ParseScheduleTime(item.StartTime, s.engine.loc); err == nil {
			starts[item.StartTime] = t
			valid[item.StartTime] = true
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		vi, vj := valid[items[i].StartTime], valid[items[j].StartTime]
		if vi != vj {
			return vi
		}
		if !vi {
			return false
		}
		return starts[items[i].StartTime].Before(starts[items[j].StartTime])
	})
}
