package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

const studentIDRule = "required,max=64,printascii"

type scheduleSource interface {
	reachability
	FetchSchedule(ctx context.Context, studentID string) (models.StudentSchedule, error)
}

// ScheduleService serves student timetables through the schedule cache.
type ScheduleService struct {
	store     *ExpiringStore[models.StudentSchedule]
	upstream  scheduleSource
	engine    ScheduleEngine
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService wires the schedule cache, upstream client and status engine.
func NewScheduleService(store *ExpiringStore[models.StudentSchedule], upstream scheduleSource, engine ScheduleEngine, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		store:     store,
		upstream:  upstream,
		engine:    engine,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Schedule returns the student's timetable with realtime status and duplicate metadata.
// force bypasses a fresh cache entry but still falls back to it if the upstream fails.
func (s *ScheduleService) Schedule(ctx context.Context, studentID string, force bool) (*dto.StudentScheduleResponse, error) {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return nil, err
	}

	schedule, meta, err := fetchThrough(ctx, s.store, studentID, force, s.upstream, func(ctx context.Context) (models.StudentSchedule, error) {
		return s.upstream.FetchSchedule(ctx, studentID)
	}, s.logger)
	if err != nil {
		return nil, err
	}

	items, groups := s.view(schedule.Entries)
	return &dto.StudentScheduleResponse{
		StudentID:   studentID,
		StudentName: schedule.StudentName,
		ClassName:   schedule.ClassName,
		Schedules:   items,
		Duplicates:  groups,
		Cache:       meta,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// Refresh fetches the timetable and stores it. Unlike Schedule it reports upstream failures
// and leaves the cached copy untouched when they happen.
func (s *ScheduleService) Refresh(ctx context.Context, studentID string) error {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return err
	}
	schedule, err := s.upstream.FetchSchedule(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "refresh schedule")
	}
	s.store.Set(ctx, studentID, schedule)
	return nil
}

// ClearCache drops the student's cached timetable.
func (s *ScheduleService) ClearCache(ctx context.Context, studentID string) error {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return err
	}
	s.store.Delete(ctx, studentID)
	return nil
}

// Analyze runs the status and duplicate engine over a caller supplied list.
func (s *ScheduleService) Analyze(ctx context.Context, req dto.AnalyzeSchedulesRequest) (*dto.AnalyzeSchedulesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule list")
	}
	items, groups := s.view(req.Entries)
	return &dto.AnalyzeSchedulesResponse{Schedules: items, Duplicates: groups}, nil
}

func (s *ScheduleService) view(entries []models.ScheduleEntry) ([]dto.ScheduleItem, []dto.DuplicateGroupView) {
	now := s.now()
	annotated := s.engine.AddScheduleMetadata(entries)
	items := make([]dto.ScheduleItem, 0, len(annotated))
	for _, a := range annotated {
		items = append(items, dto.ScheduleItem{
			ID:             a.ID,
			SubjectCode:    a.SubjectCode,
			SubjectName:    a.SubjectName,
			Room:           a.Room,
			Teacher:        a.Teacher,
			Group:          a.Group,
			DayOfWeek:      a.DayOfWeek,
			StartTime:      a.StartTime,
			EndTime:        a.EndTime,
			UpstreamStatus: int(a.Status),
			RealtimeStatus: s.engine.RealtimeStatusAt(now, a.StartTime, a.EndTime),
			IsDuplicate:    a.IsDuplicate,
			Priority:       a.Priority,
		})
	}

	detected := s.engine.DetectDuplicates(entries)
	groups := make([]dto.DuplicateGroupView, 0, len(detected))
	for _, g := range detected {
		ids := make([]string, 0, len(g.Schedules))
		for _, m := range g.Schedules {
			ids = append(ids, m.ID)
		}
		groups = append(groups, dto.DuplicateGroupView{
			Key:            g.Key,
			PrimaryID:      g.PrimaryID,
			ScheduleIDs:    ids,
			HasCancelled:   g.Status.HasCancelled,
			HasRescheduled: g.Status.HasRescheduled,
			StatusText:     g.Status.StatusText,
		})
	}
	return items, groups
}

func normaliseStudentID(validate *validator.Validate, studentID string) (string, error) {
	studentID = strings.TrimSpace(studentID)
	if err := validate.Var(studentID, studentIDRule); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student id")
	}
	return studentID, nil
}
