package auth

import "time"

type Role string

const (
	RoleOwner  Role = "Owner"
	RoleSeeker Role = "Seeker"
)

// User is the domain representation of a registered account.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains user registration data supplied by callers.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phoneNumber"`
	Role     Role   `json:"role"`
}

// LoginRequest contains user login credentials. The claimed role must match
// the stored role for the login to succeed.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// UpdateProfileRequest carries the mutable profile fields. Email and role are
// immutable after registration; nil fields are left untouched.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phoneNumber"`
}
