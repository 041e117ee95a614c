package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
)

// startingSoonWindow is the lead time, in whole minutes, during which a session is STARTING_SOON.
const startingSoonWindow = 30

// upstreamLayouts lists the timestamp forms the university API has been seen to emit.
var upstreamLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseScheduleTime parses an upstream timestamp. Zone-less values are read in loc.
func ParseScheduleTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range upstreamLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// ScheduleEngine derives realtime status and duplicate groups. It holds no state beyond its
// time zone, so a single value is safe for concurrent use.
type ScheduleEngine struct {
	loc *time.Location
}

// NewScheduleEngine returns an engine reading zone-less timestamps in loc (UTC when nil).
func NewScheduleEngine(loc *time.Location) ScheduleEngine {
	if loc == nil {
		loc = time.UTC
	}
	return ScheduleEngine{loc: loc}
}

// RealtimeStatus classifies a window against the current wall clock.
func (e ScheduleEngine) RealtimeStatus(start, end string) models.RealtimeStatus {
	return e.RealtimeStatusAt(time.Now(), start, end)
}

// RealtimeStatusAt classifies a window against now. Unparseable input yields NOT_STARTED.
func (e ScheduleEngine) RealtimeStatusAt(now time.Time, start, end string) models.RealtimeStatus {
	startAt, err := ParseScheduleTime(start, e.loc)
	if err != nil {
		return models.RealtimeNotStarted
	}
	endAt, err := ParseScheduleTime(end, e.loc)
	if err != nil {
		return models.RealtimeNotStarted
	}

	switch {
	case now.After(endAt):
		return models.RealtimeEnded
	case !now.Before(startAt):
		return models.RealtimeOngoing
	default:
		minutesUntilStart := int(startAt.Sub(now) / time.Minute)
		if minutesUntilStart <= startingSoonWindow {
			return models.RealtimeStartingSoon
		}
		return models.RealtimeNotStarted
	}
}

// windowKey returns the grouping key for an entry, or false when a timestamp is malformed.
func (e ScheduleEngine) windowKey(entry models.ScheduleEntry) (string, bool) {
	startAt, err := ParseScheduleTime(entry.StartTime, e.loc)
	if err != nil {
		return "", false
	}
	endAt, err := ParseScheduleTime(entry.EndTime, e.loc)
	if err != nil {
		return "", false
	}
	return startAt.UTC().Format(time.RFC3339Nano) + "_" + endAt.UTC().Format(time.RFC3339Nano), true
}

// DetectDuplicates groups entries sharing an identical start and end instant. Only groups of two
// or more are returned, in the order their key was first seen; members keep input order.
func (e ScheduleEngine) DetectDuplicates(entries []models.ScheduleEntry) []models.DuplicateGroup {
	buckets := make(map[string][]models.ScheduleEntry)
	var order []string
	for _, entry := range entries {
		key, ok := e.windowKey(entry)
		if !ok {
			continue
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], entry)
	}

	groups := make([]models.DuplicateGroup, 0)
	for _, key := range order {
		members := buckets[key]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, models.DuplicateGroup{
			Key:       key,
			PrimaryID: primaryMember(members).ID,
			Schedules: members,
			Status:    summariseDuplicateStatus(members),
		})
	}
	return groups
}

// AddScheduleMetadata returns a new slice marking duplicates and their display priority.
// Unique entries and group primaries get PriorityPrimary.
func (e ScheduleEngine) AddScheduleMetadata(entries []models.ScheduleEntry) []models.AnnotatedSchedule {
	type position struct {
		duplicate bool
		primary   bool
	}
	positions := make(map[int]position, len(entries))

	indexesByKey := make(map[string][]int)
	for i, entry := range entries {
		if key, ok := e.windowKey(entry); ok {
			indexesByKey[key] = append(indexesByKey[key], i)
		}
	}
	for _, indexes := range indexesByKey {
		if len(indexes) < 2 {
			continue
		}
		primary := indexes[0]
		for _, idx := range indexes {
			if entries[idx].Status.Normal() {
				primary = idx
				break
			}
		}
		for _, idx := range indexes {
			positions[idx] = position{duplicate: true, primary: idx == primary}
		}
	}

	annotated := make([]models.AnnotatedSchedule, len(entries))
	for i, entry := range entries {
		pos, grouped := positions[i]
		priority := models.PriorityPrimary
		if grouped && !pos.primary {
			priority = models.PrioritySecondary
		}
		annotated[i] = models.AnnotatedSchedule{
			ScheduleEntry: entry,
			IsDuplicate:   grouped && pos.duplicate,
			Priority:      priority,
		}
	}
	return annotated
}

// primaryMember prefers the first normal member and falls back to the first member.
func primaryMember(members []models.ScheduleEntry) models.ScheduleEntry {
	for _, m := range members {
		if m.Status.Normal() {
			return m
		}
	}
	return members[0]
}

func summariseDuplicateStatus(members []models.ScheduleEntry) models.DuplicateStatus {
	var status models.DuplicateStatus
	for _, m := range members {
		if m.Status.Cancelled() {
			status.HasCancelled = true
		}
		if m.Status.Rescheduled() {
			status.HasRescheduled = true
		}
	}
	switch {
	case status.HasCancelled && status.HasRescheduled:
		status.StatusText = "has cancelled and rescheduled entries"
	case status.HasCancelled:
		status.StatusText = "has a cancelled entry"
	case status.HasRescheduled:
		status.StatusText = "has a rescheduled entry"
	default:
		status.StatusText = "all normal"
	}
	return status
}
