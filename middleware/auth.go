// Package middleware wraps gateway handlers with authentication and role
// checks. Each middleware is a func(next http.Handler) http.Handler.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/handlers"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/repository"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/services"
)

type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware builds the bearer-token middleware.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require rejects requests without a valid "Authorization: Bearer <token>"
// header with 401. Tokens whose session was ended by logout or refresh are
// rejected too. The account is loaded fresh so a role change applies before
// the token expires.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.authService.Authenticate(r.Context(), tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// Token is valid but the account may have been deleted since.
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		ctx = context.WithValue(ctx, handlers.ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
