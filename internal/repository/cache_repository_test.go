package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

func TestRedisKeyLayout(t *testing.T) {
	assert.Equal(t, "lhu:cache:schedules:S1", redisKey("schedules", "S1"))
}

func TestRedisEntryRepositoryWithoutClient(t *testing.T) {
	repo := NewRedisEntryRepository(nil, 0, nil)
	ctx := context.Background()

	require.Error(t, repo.Open(ctx))

	_, err := repo.Get(ctx, "schedules", "S1")
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	assert.Error(t, repo.Put(ctx, models.CacheEntry{Bucket: "schedules", SubjectID: "S1"}))
	assert.NoError(t, repo.Delete(ctx, "schedules", "S1"))
	assert.NoError(t, repo.Close())
}

func TestRedisEntryRepositoryUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	repo := NewRedisEntryRepository(client, time.Hour, nil)
	defer repo.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := repo.Open(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")

	_, err = repo.Get(ctx, "schedules", "S1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrCacheMiss), "transport failures are not misses")
}
