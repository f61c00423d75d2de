package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// User is a gateway account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name"` // nullable
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile returns the user-facing part of the account.
func (u *User) Profile() *Profile {
	return &Profile{UserID: u.ID, FullName: u.FullName}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailRegex returns the pattern used to validate email addresses.
func EmailRegex() *regexp.Regexp {
	return emailRegex
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUserRequest is the sign-up payload.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r *CreateUserRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	r.FullName = strings.TrimSpace(r.FullName)
	if utf8.RuneCountInString(r.FullName) > 64 {
		return fmt.Errorf("full name must be at most 64 characters")
	}

	return nil
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// UpdateRoleRequest promotes or demotes an account.
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

func (r *UpdateRoleRequest) Validate() error {
	if !r.Role.Valid() {
		return fmt.Errorf("role must be %q or %q", RoleUser, RoleAdmin)
	}
	return nil
}
