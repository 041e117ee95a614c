package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
	"github.com/noah-isme/lhu-dashboard-api/pkg/jobs"
)

type countingRefresher struct {
	mu    sync.Mutex
	seen  []string
	fails int
}

func (c *countingRefresher) Refresh(_ context.Context, studentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, studentID)
	if c.fails > 0 {
		c.fails--
		return errors.New("upstream down")
	}
	return nil
}

func (c *countingRefresher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestRefreshServiceRunsEveryRefresher(t *testing.T) {
	schedules := &countingRefresher{}
	exams := &countingRefresher{fails: 1}
	svc := NewRefreshService(jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond}, nil, nil, schedules, exams)
	svc.Start(context.Background())
	defer svc.Stop()

	resp, err := svc.Enqueue(context.Background(), "S1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "S1", resp.StudentID)

	assert.Eventually(t, func() bool { return exams.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, schedules.count(), "a failed job is retried as a whole")
}

func TestRefreshServiceValidatesAndNeedsStart(t *testing.T) {
	svc := NewRefreshService(jobs.QueueConfig{}, nil, nil, &countingRefresher{})

	_, err := svc.Enqueue(context.Background(), "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Enqueue(context.Background(), "S1")
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))
}
