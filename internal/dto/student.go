package dto

import (
	"time"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
)

// Cache sources reported in CacheMeta.Source.
const (
	CacheSourceCache    = "cache"
	CacheSourceStale    = "stale-cache"
	CacheSourceUpstream = "upstream"
)

// CacheMeta tells the dashboard where a payload came from and how old it is.
type CacheMeta struct {
	Source    string     `json:"source"`
	Stale     bool       `json:"stale"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ScheduleItem is a class session ready for rendering.
type ScheduleItem struct {
	ID             string                `json:"id"`
	SubjectCode    string                `json:"subjectCode,omitempty"`
	SubjectName    string                `json:"subjectName"`
	Room           string                `json:"room,omitempty"`
	Teacher        string                `json:"teacher,omitempty"`
	Group          string                `json:"group,omitempty"`
	DayOfWeek      int                   `json:"dayOfWeek"`
	StartTime      string                `json:"startTime"`
	EndTime        string                `json:"endTime"`
	UpstreamStatus int                   `json:"upstreamStatus"`
	RealtimeStatus models.RealtimeStatus `json:"realtimeStatus"`
	IsDuplicate    bool                  `json:"isDuplicate"`
	Priority       int                   `json:"priority"`
}

// DuplicateGroupView summarises sessions that share a time window.
type DuplicateGroupView struct {
	Key            string   `json:"key"`
	PrimaryID      string   `json:"primaryId"`
	ScheduleIDs    []string `json:"scheduleIds"`
	HasCancelled   bool     `json:"hasCancelled"`
	HasRescheduled bool     `json:"hasRescheduled"`
	StatusText     string   `json:"statusText"`
}

// StudentScheduleResponse is returned by the schedule endpoint.
type StudentScheduleResponse struct {
	StudentID   string               `json:"studentId"`
	StudentName string               `json:"studentName,omitempty"`
	ClassName   string               `json:"className,omitempty"`
	Schedules   []ScheduleItem       `json:"schedules"`
	Duplicates  []DuplicateGroupView `json:"duplicates"`
	Cache       CacheMeta            `json:"cache"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// ExamItem is an exam sitting ready for rendering.
type ExamItem struct {
	ID             string                `json:"id"`
	SubjectCode    string                `json:"subjectCode,omitempty"`
	SubjectName    string                `json:"subjectName"`
	Room           string                `json:"room,omitempty"`
	Seat           string                `json:"seat,omitempty"`
	Format         string                `json:"format,omitempty"`
	Attempt        int                   `json:"attempt,omitempty"`
	StartTime      string                `json:"startTime"`
	EndTime        string                `json:"endTime"`
	UpstreamStatus int                   `json:"upstreamStatus"`
	RealtimeStatus models.RealtimeStatus `json:"realtimeStatus"`
}

// StudentExamsResponse is returned by the exams endpoint.
type StudentExamsResponse struct {
	StudentID   string     `json:"studentId"`
	Exams       []ExamItem `json:"exams"`
	Cache       CacheMeta  `json:"cache"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// AnalyzeSchedulesRequest runs the status and duplicate engine over caller supplied entries.
type AnalyzeSchedulesRequest struct {
	Entries []models.ScheduleEntry `json:"entries" validate:"required,min=1"`
}

// AnalyzeSchedulesResponse carries the derived view of an analysed list.
type AnalyzeSchedulesResponse struct {
	Schedules  []ScheduleItem       `json:"schedules"`
	Duplicates []DuplicateGroupView `json:"duplicates"`
}

// RefreshJobResponse acknowledges a queued background refresh.
type RefreshJobResponse struct {
	JobID      string    `json:"jobId"`
	StudentID  string    `json:"studentId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// MetricsSnapshot exposes the headline numbers of the metrics registry as JSON.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheStaleServes         uint64    `json:"cacheStaleServes"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	UpstreamCalls            uint64    `json:"upstreamCalls"`
	UpstreamFailures         uint64    `json:"upstreamFailures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
