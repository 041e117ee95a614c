package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	"github.com/noah-isme/lhu-dashboard-api/internal/repository"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type flakyBackend struct {
	openErr  error
	getErr   error
	putErr   error
	opens    int
	puts     int
	entries  map[string]models.CacheEntry
	openFail int
}

func (b *flakyBackend) Open(context.Context) error {
	b.opens++
	if b.openFail > 0 {
		b.openFail--
		return b.openErr
	}
	return nil
}

func (b *flakyBackend) Get(_ context.Context, bucket, id string) (*models.CacheEntry, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	entry, ok := b.entries[bucket+"/"+id]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return &entry, nil
}

func (b *flakyBackend) Put(_ context.Context, entry models.CacheEntry) error {
	b.puts++
	if b.putErr != nil {
		return b.putErr
	}
	if b.entries == nil {
		b.entries = make(map[string]models.CacheEntry)
	}
	b.entries[entry.Bucket+"/"+entry.SubjectID] = entry
	return nil
}

func (b *flakyBackend) Delete(_ context.Context, bucket, id string) error {
	delete(b.entries, bucket+"/"+id)
	return nil
}

func newScheduleStore(t *testing.T, clock *fakeClock) *ExpiringStore[models.StudentSchedule] {
	t.Helper()
	store := NewExpiringStore[models.StudentSchedule](repository.NewMemoryEntryRepository(), ExpiringStoreConfig{Name: "schedules", TTL: 30 * time.Minute}, nil, nil)
	store.now = clock.Now
	return store
}

func sampleSchedule(id string) models.StudentSchedule {
	return models.StudentSchedule{
		StudentID: id,
		Entries: []models.ScheduleEntry{
			{ID: "1", SubjectName: "Math", StartTime: "2024-03-01T07:00:00Z", EndTime: "2024-03-01T09:00:00Z"},
		},
	}
}

func TestExpiringStoreFreshRoundTrip(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	store.Set(ctx, "S1", sampleSchedule("S1"))

	got, ok := store.Get(ctx, "S1", true)
	require.True(t, ok)
	assert.Equal(t, sampleSchedule("S1"), got)

	entry, ok := store.Lookup(ctx, "S1")
	require.True(t, ok)
	assert.Equal(t, entry.FetchedAt.Add(30*time.Minute), entry.ExpiresAt)
}

func TestExpiringStoreExpiredOnlineIsMissButStaleRemains(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	store.Set(ctx, "S1", sampleSchedule("S1"))
	clock.Advance(31 * time.Minute)

	_, ok := store.Get(ctx, "S1", true)
	assert.False(t, ok)

	stale, ok := store.GetStale(ctx, "S1")
	require.True(t, ok)
	assert.Equal(t, "S1", stale.StudentID)
}

func TestExpiringStoreExpiredOfflineServesStale(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	store.Set(ctx, "S1", sampleSchedule("S1"))
	clock.Advance(2 * time.Hour)

	got, ok := store.Get(ctx, "S1", false)
	require.True(t, ok)
	assert.Equal(t, "S1", got.StudentID)
}

func TestExpiringStoreExpiryBoundary(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	store.Set(ctx, "S1", sampleSchedule("S1"))
	clock.Advance(30*time.Minute - time.Nanosecond)
	_, ok := store.Get(ctx, "S1", true)
	assert.True(t, ok)

	clock.Advance(time.Nanosecond)
	_, ok = store.Get(ctx, "S1", true)
	assert.False(t, ok, "an entry is expired once now reaches ExpiresAt")
}

func TestExpiringStoreLastWriteWins(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	first := sampleSchedule("S1")
	second := sampleSchedule("S1")
	second.StudentName = "Updated"

	store.Set(ctx, "S1", first)
	clock.Advance(10 * time.Minute)
	store.Set(ctx, "S1", second)

	got, ok := store.Get(ctx, "S1", true)
	require.True(t, ok)
	assert.Equal(t, "Updated", got.StudentName)

	entry, ok := store.Lookup(ctx, "S1")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), entry.FetchedAt)
}

func TestExpiringStoreDelete(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	store.Set(ctx, "S1", sampleSchedule("S1"))
	store.Delete(ctx, "S1")
	store.Delete(ctx, "never-stored")

	_, ok := store.Get(ctx, "S1", false)
	assert.False(t, ok)
	_, ok = store.GetStale(ctx, "S1")
	assert.False(t, ok)
}

func TestExpiringStoreEmptySubjectIsMiss(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)

	_, ok := store.Get(context.Background(), "", false)
	assert.False(t, ok)
}

func TestExpiringStoreInitIsIdempotentAndRetries(t *testing.T) {
	backend := &flakyBackend{openErr: errors.New("disk locked"), openFail: 1}
	store := NewExpiringStore[models.StudentSchedule](backend, ExpiringStoreConfig{Name: "schedules"}, nil, nil)
	ctx := context.Background()

	err := store.Init(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Init(ctx))
	assert.Equal(t, 2, backend.opens)
	assert.Equal(t, DefaultCacheTTL, store.TTL())
}

func TestExpiringStoreUnavailableDegradesToMiss(t *testing.T) {
	backend := &flakyBackend{openErr: errors.New("no such database"), openFail: 100}
	store := NewExpiringStore[models.StudentSchedule](backend, ExpiringStoreConfig{Name: "schedules"}, nil, nil)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		store.Set(ctx, "S1", sampleSchedule("S1"))
		store.Delete(ctx, "S1")
	})
	_, ok := store.Get(ctx, "S1", false)
	assert.False(t, ok)
	assert.Equal(t, 0, backend.puts)
}

func TestExpiringStoreReadFailureIsMiss(t *testing.T) {
	backend := &flakyBackend{getErr: errors.New("connection reset")}
	store := NewExpiringStore[models.StudentSchedule](backend, ExpiringStoreConfig{Name: "schedules"}, nil, nil)

	_, ok := store.GetStale(context.Background(), "S1")
	assert.False(t, ok)
}

func TestExpiringStoreWriteFailureIsSwallowed(t *testing.T) {
	backend := &flakyBackend{putErr: errors.New("read-only")}
	store := NewExpiringStore[models.StudentSchedule](backend, ExpiringStoreConfig{Name: "schedules"}, nil, nil)

	var ok bool
	assert.NotPanics(t, func() { _, ok = store.Set(context.Background(), "S1", sampleSchedule("S1")) })
	assert.False(t, ok)
	assert.Equal(t, 1, backend.puts)
}

func TestExpiringStoreSetReturnsWrittenEntry(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := newScheduleStore(t, clock)
	ctx := context.Background()

	written, ok := store.Set(ctx, "S1", sampleSchedule("S1"))
	require.True(t, ok)
	assert.Equal(t, clock.Now(), written.FetchedAt)
	assert.Equal(t, clock.Now().Add(30*time.Minute), written.ExpiresAt)

	clock.Advance(time.Minute)
	stored, ok := store.Lookup(ctx, "S1")
	require.True(t, ok)
	assert.True(t, written.FetchedAt.Equal(stored.FetchedAt))
	assert.True(t, written.ExpiresAt.Equal(stored.ExpiresAt))
}

func TestExpiringStoreUndecodablePayloadIsMiss(t *testing.T) {
	now := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	backend := &flakyBackend{entries: map[string]models.CacheEntry{
		"schedules/S1": {Bucket: "schedules", SubjectID: "S1", Payload: []byte(`"not an object"`), FetchedAt: now, ExpiresAt: now.Add(time.Hour)},
	}}
	store := NewExpiringStore[models.StudentSchedule](backend, ExpiringStoreConfig{Name: "schedules"}, nil, nil)
	store.now = func() time.Time { return now }

	_, ok := store.Get(context.Background(), "S1", true)
	assert.False(t, ok)
}

func TestExpiringStoreRecordsMetrics(t *testing.T) {
	metrics := NewMetricsService()
	clock := newFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	store := NewExpiringStore[models.StudentSchedule](repository.NewMemoryEntryRepository(), ExpiringStoreConfig{Name: "schedules", TTL: time.Minute}, metrics, nil)
	store.now = clock.Now
	ctx := context.Background()

	store.Get(ctx, "S1", true)
	store.Set(ctx, "S1", sampleSchedule("S1"))
	store.Get(ctx, "S1", true)
	clock.Advance(2 * time.Minute)
	store.Get(ctx, "S1", false)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.Equal(t, uint64(1), snapshot.CacheStaleServes)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.0001)
}
