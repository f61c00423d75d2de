package main

import (
	"net/http"
	"slices"

	"github.com/rs/cors"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/middleware"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/repository"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/services"
)

// initRoutes registers every gateway endpoint on mux.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService, userRepo repository.UserRepository) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(middleware.RequireAdmin(handler))
	}

	mux.HandleFunc("GET /api/health", h.Health.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	// User
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// Admin
	mux.Handle("GET /api/admin/users", authAdmin(h.Admin.ListUsers))
	mux.Handle("PATCH /api/admin/users/{id}/role", authAdmin(h.Admin.SetRole))

	// WebSocket authenticates with ?token= inside the handler.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}

func withCORS(next http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	}).Handler(next)
}

// originAllowed mirrors the CORS list for WebSocket upgrades. "*" allows all.
func originAllowed(origins []string) func(string) bool {
	if slices.Contains(origins, "*") {
		return nil
	}
	return func(origin string) bool {
		return slices.Contains(origins, origin)
	}
}
