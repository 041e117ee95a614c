package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is the persisted form of one cached payload. ExpiresAt is always FetchedAt plus the store TTL.
type CacheEntry struct {
	Bucket    string          `db:"bucket" json:"bucket"`
	SubjectID string          `db:"subject_id" json:"subject_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	FetchedAt time.Time       `db:"fetched_at" json:"fetched_at"`
	ExpiresAt time.Time       `db:"expires_at" json:"expires_at"`
}

// Fresh reports whether the entry may be served without consulting the upstream.
func (e CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
