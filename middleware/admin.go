package middleware

import (
	"net/http"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/handlers"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
)

// RequireAdmin runs after AuthMiddleware.Require and answers 403 unless the
// stored account role is admin.
//
//	authMw.Require(middleware.RequireAdmin(http.HandlerFunc(adminHandler.ListUsers)))
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := handlers.UserFromContext(r.Context())
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}
		if user.Role != models.RoleAdmin {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
