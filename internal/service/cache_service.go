package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

// DefaultCacheTTL is the freshness window used when a store is configured without one.
const DefaultCacheTTL = 30 * time.Minute

// EntryBackend abstracts the persistent key-value store behind every ExpiringStore.
// Get must return appErrors.ErrCacheMiss for absent keys.
type EntryBackend interface {
	Open(ctx context.Context) error
	Get(ctx context.Context, bucket, subjectID string) (*models.CacheEntry, error)
	Put(ctx context.Context, entry models.CacheEntry) error
	Delete(ctx context.Context, bucket, subjectID string) error
}

// Entry is a decoded cache entry.
type Entry[T any] struct {
	SubjectID string
	Payload   T
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry is still inside its TTL at now.
func (e Entry[T]) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// ExpiringStoreConfig names a store and sets its TTL.
type ExpiringStoreConfig struct {
	Name string
	TTL  time.Duration
}

// ExpiringStore memoises upstream payloads per subject with a fixed TTL. Reads never fail:
// backend errors degrade to a miss so callers fall through to the network.
type ExpiringStore[T any] struct {
	name    string
	ttl     time.Duration
	backend EntryBackend
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	ready bool
}

// NewExpiringStore constructs a store over the given backend.
func NewExpiringStore[T any](backend EntryBackend, cfg ExpiringStoreConfig, metrics *MetricsService, logger *zap.Logger) *ExpiringStore[T] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiringStore[T]{
		name:    cfg.Name,
		ttl:     cfg.TTL,
		backend: backend,
		metrics: metrics,
		logger:  logger.With(zap.String("store", cfg.Name)),
		now:     time.Now,
	}
}

// Name returns the store (bucket) name.
func (s *ExpiringStore[T]) Name() string {
	return s.name
}

// TTL returns the configured freshness window.
func (s *ExpiringStore[T]) TTL() time.Duration {
	return s.ttl
}

// Init opens the backend. It is idempotent; after a failure the next call retries.
func (s *ExpiringStore[T]) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if s.backend == nil {
		return appErrors.Clone(appErrors.ErrUnavailable, "cache backend not configured")
	}
	if err := s.backend.Open(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "open cache store "+s.name)
	}
	s.ready = true
	return nil
}

// Get returns the cached payload when fresh. An expired entry is returned only when the
// network is unavailable; online callers get a miss and are expected to refetch.
func (s *ExpiringStore[T]) Get(ctx context.Context, subjectID string, networkAvailable bool) (T, bool) {
	entry, ok := s.GetEntry(ctx, subjectID, networkAvailable)
	return entry.Payload, ok
}

// GetEntry is Get returning the entry with its timestamps.
func (s *ExpiringStore[T]) GetEntry(ctx context.Context, subjectID string, networkAvailable bool) (Entry[T], bool) {
	entry, ok := s.load(ctx, subjectID)
	if !ok {
		s.record(cacheOutcomeMiss)
		return Entry[T]{}, false
	}
	if entry.Fresh(s.now()) {
		s.record(cacheOutcomeHit)
		return entry, true
	}
	if networkAvailable {
		s.record(cacheOutcomeExpired)
		return Entry[T]{}, false
	}
	s.record(cacheOutcomeStale)
	s.logger.Info("serving expired cache entry while offline",
		zap.String("subject_id", subjectID),
		zap.Time("expires_at", entry.ExpiresAt))
	return entry, true
}

// GetStale returns whatever payload is stored, ignoring expiry.
func (s *ExpiringStore[T]) GetStale(ctx context.Context, subjectID string) (T, bool) {
	entry, ok := s.StaleEntry(ctx, subjectID)
	return entry.Payload, ok
}

// StaleEntry is GetStale returning the entry with its timestamps.
func (s *ExpiringStore[T]) StaleEntry(ctx context.Context, subjectID string) (Entry[T], bool) {
	entry, ok := s.load(ctx, subjectID)
	if !ok {
		return Entry[T]{}, false
	}
	if !entry.Fresh(s.now()) {
		s.record(cacheOutcomeStale)
	}
	return entry, true
}

// Lookup returns the decoded entry with its timestamps, ignoring expiry.
func (s *ExpiringStore[T]) Lookup(ctx context.Context, subjectID string) (Entry[T], bool) {
	return s.load(ctx, subjectID)
}

// Set stores payload with a fresh TTL, replacing any previous entry. It returns the entry as
// written and whether the write succeeded; failures are logged, never returned as errors.
func (s *ExpiringStore[T]) Set(ctx context.Context, subjectID string, payload T) (Entry[T], bool) {
	if err := s.Init(ctx); err != nil {
		s.logger.Warn("cache unavailable, skipping write", zap.String("subject_id", subjectID), zap.Error(err))
		return Entry[T]{}, false
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("cache payload not serialisable", zap.String("subject_id", subjectID), zap.Error(err))
		return Entry[T]{}, false
	}
	now := s.now()
	entry := models.CacheEntry{
		Bucket:    s.name,
		SubjectID: subjectID,
		Payload:   raw,
		FetchedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	start := time.Now()
	err = s.backend.Put(ctx, entry)
	s.metrics.ObserveCacheWrite(s.name, time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("subject_id", subjectID), zap.Error(err))
		return Entry[T]{}, false
	}
	return Entry[T]{SubjectID: subjectID, Payload: payload, FetchedAt: now, ExpiresAt: entry.ExpiresAt}, true
}

// Delete removes the subject's entry. Missing entries and backend failures are not reported.
func (s *ExpiringStore[T]) Delete(ctx context.Context, subjectID string) {
	if err := s.Init(ctx); err != nil {
		s.logger.Warn("cache unavailable, skipping delete", zap.String("subject_id", subjectID), zap.Error(err))
		return
	}
	if err := s.backend.Delete(ctx, s.name, subjectID); err != nil {
		s.logger.Warn("cache delete failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
}

func (s *ExpiringStore[T]) load(ctx context.Context, subjectID string) (Entry[T], bool) {
	var result Entry[T]
	if strings.TrimSpace(subjectID) == "" {
		return result, false
	}
	if err := s.Init(ctx); err != nil {
		s.logger.Warn("cache unavailable, treating as miss", zap.Error(err))
		return result, false
	}

	start := time.Now()
	raw, err := s.backend.Get(ctx, s.name, subjectID)
	s.metrics.ObserveCacheRead(s.name, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
		return result, false
	}
	if raw == nil || raw.ExpiresAt.IsZero() {
		return result, false
	}

	var payload T
	if err := json.Unmarshal(raw.Payload, &payload); err != nil {
		s.logger.Warn("cache entry undecodable, treating as miss", zap.String("subject_id", subjectID), zap.Error(err))
		return result, false
	}
	result = Entry[T]{
		SubjectID: raw.SubjectID,
		Payload:   payload,
		FetchedAt: raw.FetchedAt,
		ExpiresAt: raw.ExpiresAt,
	}
	return result, true
}

func (s *ExpiringStore[T]) record(outcome string) {
	s.metrics.RecordCacheLookup(s.name, outcome)
}
