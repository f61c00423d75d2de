package models

import "time"

// AuthTokens is the gateway's response to register, login and refresh.
// ExpiresAt is the refresh session's expiry, which bounds the client session.
type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	SessionID    string    `json:"session_id"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Grant converts the token payload into the client-side grant. The refresh
// token becomes the persisted credential.
func (t *AuthTokens) Grant() *Grant {
	return &Grant{
		SessionID:  t.SessionID,
		UserID:     t.User.ID,
		Email:      t.User.Email,
		Role:       string(t.User.Role),
		FullName:   t.User.FullName,
		IssuedAt:   t.IssuedAt,
		ExpiresAt:  t.ExpiresAt,
		Credential: t.RefreshToken,
	}
}
