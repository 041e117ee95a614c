package dto

import "time"

// AddSessionRequest registers an upstream access token as a dashboard session.
type AddSessionRequest struct {
	Token       string `json:"token" validate:"required,min=16"`
	UserID      string `json:"userId" validate:"omitempty,max=64"`
	DisplayName string `json:"displayName" validate:"omitempty,max=128"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// RemoveSessionRequest signs a session out.
type RemoveSessionRequest struct {
	Token string `json:"token" validate:"required"`
}

// SessionView is the public projection of a stored session; the token itself is never echoed.
type SessionView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	DisplayName string     `json:"displayName,omitempty"`
	Email       string     `json:"email,omitempty"`
	TokenHint   string     `json:"tokenHint"`
	TokenExpiry *time.Time `json:"tokenExpiry,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
