package domain

import "time"

// User is the account owning transactions. PasswordHash is a bcrypt digest;
// IsBlacklisted is set by an administrative path and only read here.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	IsBlacklisted bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
