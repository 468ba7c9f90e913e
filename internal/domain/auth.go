package domain

import "time"

// Identity is the authenticated caller resolved from a session cookie.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	AuthTime  time.Time
	ExpiresAt time.Time
}
