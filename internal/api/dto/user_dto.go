package dto

import "time"

// SignUpRequest payload for new users.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for PUT /users/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse describes the session carried by the cookie. The token
// itself is never returned in the body.
type SessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

// ProfileResponse is returned by GET /users/me.
type ProfileResponse struct {
	UserResponse
	Transactions []TransactionResponse `json:"transactions"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
