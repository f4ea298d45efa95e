package models

import "time"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. PasswordHash and the token columns
// never leave the server.
type User struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	IsVerified          bool       `json:"is_verified"`
	VerificationToken   string     `json:"-"`
	VerificationExpires *time.Time `json:"-"`
	ResetToken          string     `json:"-"`
	ResetExpires        *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
