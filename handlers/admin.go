package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/services"
)

// AdminHandler serves account management. Routes are wrapped with
// RequireAdmin.
type AdminHandler struct {
	adminService services.AdminService
}

// NewAdminHandler wires the admin endpoints.
func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers godoc
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, users)
}

// SetRole godoc
// PATCH /api/admin/users/{id}/role
// Body: { "role": "admin" | "user" }
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	userID := r.PathValue("id")
	if userID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	var req models.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.SetRole(r.Context(), actor.ID, userID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}
