package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
	"github.com/noah-isme/lhu-dashboard-api/pkg/jobs"
)

const refreshJobKind = "student_refresh"

type studentRefresher interface {
	Refresh(ctx context.Context, studentID string) error
}

// RefreshService refreshes a student's cached schedule and exams in the background.
type RefreshService struct {
	queue     *jobs.Queue
	refresher []studentRefresher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRefreshService builds the service and its queue. Start must be called before Enqueue.
func NewRefreshService(cfg jobs.QueueConfig, validate *validator.Validate, logger *zap.Logger, refreshers ...studentRefresher) *RefreshService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RefreshService{refresher: refreshers, validator: validate, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	svc.queue = jobs.NewQueue("cache-refresh", svc.handle, cfg)
	return svc
}

// Start launches the workers.
func (s *RefreshService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *RefreshService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a refresh for the student. A refresh already pending is reused.
func (s *RefreshService) Enqueue(ctx context.Context, studentID string) (*dto.RefreshJobResponse, error) {
	studentID, err := normaliseStudentID(s.validator, studentID)
	if err != nil {
		return nil, err
	}
	job, err := s.queue.Enqueue(jobs.Job{Kind: refreshJobKind, Key: studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "refresh queue unavailable")
	}
	return &dto.RefreshJobResponse{JobID: job.ID, StudentID: studentID, EnqueuedAt: job.Enqueued}, nil
}

func (s *RefreshService) handle(ctx context.Context, job jobs.Job) error {
	var errs []error
	for _, r := range s.refresher {
		if err := r.Refresh(ctx, job.Key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Debug("student cache refreshed", zap.String("student_id", job.Key), zap.String("job_id", job.ID))
	return nil
}
