package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestRealtimeStatusAt(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start string
		end   string
		want  models.RealtimeStatus
	}{
		{"starting within window", "2024-01-01T10:29:00Z", "2024-01-01T11:00:00Z", models.RealtimeStartingSoon},
		{"exactly thirty minutes out", "2024-01-01T10:30:00Z", "2024-01-01T11:00:00Z", models.RealtimeStartingSoon},
		{"thirty one minutes out", "2024-01-01T10:31:00Z", "2024-01-01T11:00:00Z", models.RealtimeNotStarted},
		{"thirty minutes and fifty seconds floors to thirty", "2024-01-01T10:30:50Z", "2024-01-01T11:00:00Z", models.RealtimeStartingSoon},
		{"ongoing", "2024-01-01T09:00:00Z", "2024-01-01T11:00:00Z", models.RealtimeOngoing},
		{"start boundary is ongoing", "2024-01-01T10:00:00Z", "2024-01-01T11:00:00Z", models.RealtimeOngoing},
		{"end boundary is ongoing", "2024-01-01T08:00:00Z", "2024-01-01T10:00:00Z", models.RealtimeOngoing},
		{"ended", "2024-01-01T08:00:00Z", "2024-01-01T09:59:59Z", models.RealtimeEnded},
		{"malformed start", "not-a-date", "2024-01-01T11:00:00Z", models.RealtimeNotStarted},
		{"malformed end", "2024-01-01T09:00:00Z", "", models.RealtimeNotStarted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.RealtimeStatusAt(now, tc.start, tc.end))
		})
	}
}

func TestRealtimeStatusAtZonelessUsesSchoolZone(t *testing.T) {
	engine := NewScheduleEngine(mustLocation(t, "Asia/Ho_Chi_Minh"))
	// 03:00Z is 10:00 in UTC+7.
	now := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, models.RealtimeOngoing, engine.RealtimeStatusAt(now, "2024-01-01T09:30:00", "2024-01-01T11:00:00"))
	assert.Equal(t, models.RealtimeStartingSoon, engine.RealtimeStatusAt(now, "2024-01-01T10:15:00", "2024-01-01T11:00:00"))
}

func TestRealtimeStatusLabels(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", models.RealtimeNotStarted.String())
	assert.Equal(t, "ONGOING", models.RealtimeOngoing.String())
	assert.Equal(t, "STARTING_SOON", models.RealtimeStartingSoon.String())
	assert.Equal(t, "ENDED", models.RealtimeEnded.String())
}

func scheduleAt(id, start, end string, status models.ScheduleStatusCode) models.ScheduleEntry {
	return models.ScheduleEntry{ID: id, SubjectName: "Subject " + id, StartTime: start, EndTime: end, Status: status}
}

func TestDetectDuplicatesGroupsIdenticalWindows(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("A", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("B", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("C", "2024-03-01T09:00:00Z", "2024-03-01T11:00:00Z", models.ScheduleStatusNormal),
	}

	groups := engine.DetectDuplicates(entries)
	require.Len(t, groups, 1)
	group := groups[0]
	assert.Equal(t, "A", group.PrimaryID)
	require.Len(t, group.Schedules, 2)
	assert.Equal(t, "A", group.Schedules[0].ID)
	assert.Equal(t, "B", group.Schedules[1].ID)
	assert.False(t, group.Status.HasCancelled)
	assert.False(t, group.Status.HasRescheduled)
	assert.Equal(t, "all normal", group.Status.StatusText)

	for _, member := range group.Schedules {
		assert.NotEqual(t, "C", member.ID)
	}
}

func TestDetectDuplicatesMatchesSameInstantAcrossZones(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("A", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("B", "2024-03-01T14:00:00+07:00", "2024-03-01T16:00:00+07:00", models.ScheduleStatusNormal),
	}

	groups := engine.DetectDuplicates(entries)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Schedules, 2)
}

func TestDetectDuplicatesPrefersNormalPrimary(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("X", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusCancelled),
		scheduleAt("Y", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("Z", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusRescheduled),
	}

	groups := engine.DetectDuplicates(entries)
	require.Len(t, groups, 1)
	assert.Equal(t, "Y", groups[0].PrimaryID)
	assert.True(t, groups[0].Status.HasCancelled)
	assert.True(t, groups[0].Status.HasRescheduled)
	assert.Equal(t, "has cancelled and rescheduled entries", groups[0].Status.StatusText)

	annotated := engine.AddScheduleMetadata(entries)
	require.Len(t, annotated, 3)
	assert.Equal(t, models.PrioritySecondary, annotated[0].Priority)
	assert.Equal(t, models.PriorityPrimary, annotated[1].Priority)
	assert.Equal(t, models.PrioritySecondary, annotated[2].Priority)
	for _, a := range annotated {
		assert.True(t, a.IsDuplicate)
	}
}

func TestDetectDuplicatesFallsBackToFirstMember(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("P", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusRescheduled),
		scheduleAt("Q", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusCancelled),
	}

	groups := engine.DetectDuplicates(entries)
	require.Len(t, groups, 1)
	assert.Equal(t, "P", groups[0].PrimaryID)
}

func TestDetectDuplicatesKeepsFirstSeenGroupOrder(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("late-1", "2024-03-01T13:00:00Z", "2024-03-01T15:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("early-1", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("late-2", "2024-03-01T13:00:00Z", "2024-03-01T15:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("early-2", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusCancelled),
	}

	groups := engine.DetectDuplicates(entries)
	require.Len(t, groups, 2)
	assert.Equal(t, "late-1", groups[0].PrimaryID)
	assert.Equal(t, "early-1", groups[1].PrimaryID)
	assert.Equal(t, "has a cancelled entry", groups[1].Status.StatusText)
}

func TestDetectDuplicatesSkipsMalformedEntries(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("bad-1", "garbage", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("bad-2", "garbage", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("ok", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
	}

	assert.Empty(t, engine.DetectDuplicates(entries))

	annotated := engine.AddScheduleMetadata(entries)
	for _, a := range annotated {
		assert.False(t, a.IsDuplicate)
		assert.Equal(t, models.PriorityPrimary, a.Priority)
	}
}

func TestDetectDuplicatesEmptyInput(t *testing.T) {
	engine := NewScheduleEngine(nil)
	groups := engine.DetectDuplicates(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.Empty(t, engine.AddScheduleMetadata(nil))
}

func TestAddScheduleMetadataDoesNotMutateInput(t *testing.T) {
	engine := NewScheduleEngine(time.UTC)
	entries := []models.ScheduleEntry{
		scheduleAt("A", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
		scheduleAt("B", "2024-03-01T07:00:00Z", "2024-03-01T09:00:00Z", models.ScheduleStatusNormal),
	}
	before := append([]models.ScheduleEntry(nil), entries...)

	annotated := engine.AddScheduleMetadata(entries)
	assert.Equal(t, before, entries)
	assert.Equal(t, "A", annotated[0].ID)
	assert.Equal(t, models.PriorityPrimary, annotated[0].Priority)
	assert.Equal(t, models.PrioritySecondary, annotated[1].Priority)
}

func TestParseScheduleTimeFormats(t *testing.T) {
	loc := mustLocation(t, "Asia/Ho_Chi_Minh")

	withZone, err := ParseScheduleTime("2024-03-01T07:00:00.123Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 123*time.Millisecond, time.Duration(withZone.Nanosecond()))

	zoneless, err := ParseScheduleTime("2024-03-01T14:00:00", loc)
	require.NoError(t, err)
	assert.True(t, zoneless.Equal(time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)))

	_, err = ParseScheduleTime("   ", loc)
	assert.Error(t, err)
}
