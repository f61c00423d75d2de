// Package handlers holds the gateway's HTTP handlers.
//
// Handlers stay thin: decode the request, call a service, write the
// envelope. Business rules live in services and SQL in repository.
package handlers

import (
	"context"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

type contextKey string

// UserContextKey carries the authenticated *models.User set by the auth middleware.
const UserContextKey contextKey = "user"

// ClaimsContextKey carries the validated *models.TokenClaims.
const ClaimsContextKey contextKey = "claims"

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

func ClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.TokenClaims)
	return claims, ok && claims != nil
}
