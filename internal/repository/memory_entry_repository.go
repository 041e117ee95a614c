package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

// MemoryEntryRepository keeps cache entries in process memory.
type MemoryEntryRepository struct {
	mu      sync.RWMutex
	buckets map[string]map[string]models.CacheEntry
}

// NewMemoryEntryRepository constructs an empty in-memory repository.
func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{buckets: make(map[string]map[string]models.CacheEntry)}
}

// Open is a no-op; memory is always available.
func (r *MemoryEntryRepository) Open(context.Context) error {
	return nil
}

// Get returns a copy of the stored entry.
func (r *MemoryEntryRepository) Get(_ context.Context, bucket, subjectID string) (*models.CacheEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.buckets[bucket][subjectID]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return &entry, nil
}

// Put replaces the entry for the bucket/subject pair.
func (r *MemoryEntryRepository) Put(_ context.Context, entry models.CacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.buckets[entry.Bucket]
	if !ok {
		bucket = make(map[string]models.CacheEntry)
		r.buckets[entry.Bucket] = bucket
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	bucket[entry.SubjectID] = entry
	return nil
}

// Delete removes the entry if present.
func (r *MemoryEntryRepository) Delete(_ context.Context, bucket, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets[bucket], subjectID)
	return nil
}

// Len reports the number of entries held for a bucket.
func (r *MemoryEntryRepository) Len(bucket string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buckets[bucket])
}

// Close is a no-op.
func (r *MemoryEntryRepository) Close() error {
	return nil
}
