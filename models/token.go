package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the JWT payload issued by the gateway.
// SessionID ties an access token to the refresh session that minted it so
// revocation events can be matched on the client.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
