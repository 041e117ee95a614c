package models

// ExamEntry is one exam sitting as returned by the university API.
type ExamEntry struct {
	ID          string             `json:"id"`
	SubjectCode string             `json:"subject_code,omitempty"`
	SubjectName string             `json:"subject_name"`
	Room        string             `json:"room,omitempty"`
	Seat        string             `json:"seat,omitempty"`
	Format      string             `json:"format,omitempty"`
	Attempt     int                `json:"attempt,omitempty"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time"`
	Status      ScheduleStatusCode `json:"status"`
}

// StudentExams is the cached payload for the exam store.
type StudentExams struct {
	StudentID string      `json:"student_id"`
	Exams     []ExamEntry `json:"exams"`
}
