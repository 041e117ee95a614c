package models

import "time"

// Session is one signed-in account kept by the multi-session store.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Token       string    `json:"token"`
	TokenExpiry time.Time `json:"token_expiry,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserSessions indexes the token hashes belonging to a user, most recent last.
type UserSessions struct {
	UserID    string   `json:"user_id"`
	TokenKeys []string `json:"token_keys"`
}

// Settings holds per-user dashboard preferences.
type Settings struct {
	Theme               string `json:"theme" validate:"oneof=light dark system"`
	Language            string `json:"language" validate:"oneof=vi en"`
	ScheduleView        string `json:"schedule_view" validate:"oneof=week day list"`
	ShowWeekend         bool   `json:"show_weekend"`
	NotifyBeforeMinutes int    `json:"notify_before_minutes" validate:"min=0,max=120"`
	OfflineFallback     bool   `json:"offline_fallback"`
}

// DefaultSettings returns the preferences used before a user saves anything.
func DefaultSettings() Settings {
	return Settings{
		Theme:               "system",
		Language:            "vi",
		ScheduleView:        "week",
		ShowWeekend:         true,
		NotifyBeforeMinutes: 30,
		OfflineFallback:     true,
	}
}
