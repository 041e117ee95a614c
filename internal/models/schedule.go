package models

// ScheduleStatusCode is the status flag reported by the university API for a class session or exam.
type ScheduleStatusCode int

const (
	ScheduleStatusNormal      ScheduleStatusCode = 0
	ScheduleStatusCancelled   ScheduleStatusCode = 1
	ScheduleStatusRescheduled ScheduleStatusCode = 2
	ScheduleStatusEnded       ScheduleStatusCode = 3
	ScheduleStatusHoliday     ScheduleStatusCode = 4
	ScheduleStatusMakeup      ScheduleStatusCode = 5
	ScheduleStatusSpecial     ScheduleStatusCode = 6
)

// Cancelled reports whether the session will not take place.
func (s ScheduleStatusCode) Cancelled() bool {
	return s == ScheduleStatusCancelled
}

// Rescheduled reports whether the session was moved.
func (s ScheduleStatusCode) Rescheduled() bool {
	return s == ScheduleStatusRescheduled
}

// Normal is true for every code that does not withdraw the session.
func (s ScheduleStatusCode) Normal() bool {
	return !s.Cancelled() && !s.Rescheduled()
}

// ScheduleEntry is one class session as returned by the university API.
// Timestamps are kept as raw strings so malformed values survive decoding.
type ScheduleEntry struct {
	ID          string             `json:"id"`
	SubjectCode string             `json:"subject_code,omitempty"`
	SubjectName string             `json:"subject_name"`
	Room        string             `json:"room,omitempty"`
	Teacher     string             `json:"teacher,omitempty"`
	Group       string             `json:"group,omitempty"`
	DayOfWeek   int                `json:"day_of_week"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time"`
	Status      ScheduleStatusCode `json:"status"`
}

// StudentSchedule is the cached payload for the schedule store.
type StudentSchedule struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name,omitempty"`
	ClassName   string          `json:"class_name,omitempty"`
	Entries     []ScheduleEntry `json:"entries"`
}

// RealtimeStatus classifies a session against the wall clock.
type RealtimeStatus int

const (
	RealtimeNotStarted   RealtimeStatus = 0
	RealtimeOngoing      RealtimeStatus = 1
	RealtimeStartingSoon RealtimeStatus = 2
	RealtimeEnded        RealtimeStatus = 3
)

// String returns the wire label of the status.
func (s RealtimeStatus) String() string {
	switch s {
	case RealtimeOngoing:
		return "ONGOING"
	case RealtimeStartingSoon:
		return "STARTING_SOON"
	case RealtimeEnded:
		return "ENDED"
	default:
		return "NOT_STARTED"
	}
}

// MarshalText encodes the status as its label.
func (s RealtimeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DuplicateStatus summarises the member statuses of a duplicate group.
type DuplicateStatus struct {
	HasCancelled   bool   `json:"has_cancelled"`
	HasRescheduled bool   `json:"has_rescheduled"`
	StatusText     string `json:"status_text"`
}

// DuplicateGroup collects entries sharing the exact same start and end instant.
type DuplicateGroup struct {
	Key       string          `json:"key"`
	PrimaryID string          `json:"primary_id"`
	Schedules []ScheduleEntry `json:"schedules"`
	Status    DuplicateStatus `json:"status"`
}

// Priorities assigned by duplicate detection.
const (
	PriorityPrimary   = 1
	PrioritySecondary = 2
)

// AnnotatedSchedule decorates an entry with duplicate metadata.
type AnnotatedSchedule struct {
	ScheduleEntry
	IsDuplicate bool `json:"is_duplicate"`
	Priority    int  `json:"priority"`
}
