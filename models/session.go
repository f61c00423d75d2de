package models

import "time"

// Session is the client-side view of an authenticated session.
// It is replaced wholesale on refresh, never mutated in place.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Grant is what the credential gateway returns after a successful sign-in,
// sign-up or restore.
type Grant struct {
	SessionID  string
	UserID     string
	Email      string
	Role       string // raw claim, mapped through RoleFromClaim
	FullName   *string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Credential string // opaque, persisted as-is
}

// Session builds the client session carried by the grant.
func (g *Grant) Session() *Session {
	return &Session{
		ID:        g.SessionID,
		UserID:    g.UserID,
		Email:     g.Email,
		IssuedAt:  g.IssuedAt,
		ExpiresAt: g.ExpiresAt,
	}
}

// SessionRecord is the gateway-side row backing a refresh token.
type SessionRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"` // never serialized
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
