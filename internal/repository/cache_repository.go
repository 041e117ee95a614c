package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

const redisKeyPrefix = "lhu:cache"

// RedisEntryRepository stores cache entries as JSON documents in Redis.
type RedisEntryRepository struct {
	client    *redis.Client
	logger    *zap.Logger
	retention time.Duration
}

// NewRedisEntryRepository constructs a Redis backed entry repository. A zero retention keeps
// entries until they are overwritten or deleted.
func NewRedisEntryRepository(client *redis.Client, retention time.Duration, logger *zap.Logger) *RedisEntryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEntryRepository{client: client, logger: logger, retention: retention}
}

// Open verifies the connection. Redis has no schema, so repeated calls only ping.
func (r *RedisEntryRepository) Open(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis client not configured")
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get loads the entry stored for the bucket/subject pair.
func (r *RedisEntryRepository) Get(ctx context.Context, bucket, subjectID string) (*models.CacheEntry, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := redisKey(bucket, subjectID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry for %s: %w", key, err)
	}
	return &entry, nil
}

// Put upserts the entry. SET replaces any previous value for the key.
func (r *RedisEntryRepository) Put(ctx context.Context, entry models.CacheEntry) error {
	if r.client == nil {
		return errors.New("redis client not configured")
	}

	key := redisKey(entry.Bucket, entry.SubjectID)
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry; deleting a missing key is not an error.
func (r *RedisEntryRepository) Delete(ctx context.Context, bucket, subjectID string) error {
	if r.client == nil {
		return nil
	}
	key := redisKey(bucket, subjectID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *RedisEntryRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func redisKey(bucket, subjectID string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, bucket, subjectID)
}
