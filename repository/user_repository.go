// Package repository holds the gateway's storage interfaces and their SQLite
// implementations. Services depend on the interfaces only.
package repository

import (
	"context"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

// UserRepository stores gateway accounts.
type UserRepository interface {
	// Create assigns user.ID and user.CreatedAt.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail expects a normalized address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, userID string, role models.Role) error
	Count(ctx context.Context) (int, error)
}
