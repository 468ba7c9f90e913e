package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventSessionStarted  EventType = "session_started"
	EventSessionEnded    EventType = "session_ended"
	EventLoginFailed     EventType = "login_failed"
	EventPasswordChanged EventType = "password_changed"
	EventAccountDeleted  EventType = "account_deleted"
)

// Actor identifies who triggered an event. Both fields may be empty for
// anonymous attempts.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionPayload describes a session lifecycle change.
type SessionPayload struct {
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// Login failure reasons.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonBlacklisted        = "blacklisted"
	ReasonThrottled          = "throttled"
)
