package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/email"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/repository"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

// AdminService manages accounts. Callers must already be admins; the route
// layer enforces that.
type AdminService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	// SetRole changes userID's role and notifies their live clients.
	SetRole(ctx context.Context, actorID, userID string, req *models.UpdateRoleRequest) (*models.User, error)
}

type adminService struct {
	store  repository.Store
	hub    ws.EventPublisher
	mailer email.Sender
	log    *slog.Logger
}

// NewAdminService builds the admin service. mailer may be nil.
func NewAdminService(store repository.Store, hub ws.EventPublisher, mailer email.Sender, log *slog.Logger) AdminService {
	return &adminService{
		store:  store,
		hub:    hub,
		mailer: mailer,
		log:    logger.For(log, "admin"),
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminService) SetRole(ctx context.Context, actorID, userID string, req *models.UpdateRoleRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if actorID == userID && req.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot demote themselves", pkg.ErrForbidden)
	}

	var (
		user    *models.User
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role == req.Role {
			return nil
		}
		if err := tx.Users().UpdateRole(ctx, userID, req.Role); err != nil {
			return err
		}
		user.Role = req.Role
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	if !changed {
		return user, nil
	}

	s.hub.BroadcastToUser(userID, ws.Event{
		Op:   ws.OpRoleChanged,
		Data: ws.RoleChangedData{UserID: userID, Role: string(user.Role)},
	})
	s.log.Info("role changed", "actor_id", actorID, "user_id", userID, "role", user.Role)

	if s.mailer != nil {
		if err := s.mailer.SendRoleChanged(ctx, user.Email, user.Role); err != nil {
			s.log.Warn("role change email failed", "user_id", userID, "error", err)
		}
	}
	return user, nil
}
