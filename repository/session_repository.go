package repository

import (
	"context"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

// SessionRepository stores refresh-token sessions.
type SessionRepository interface {
	// Create assigns session.ID and session.CreatedAt.
	Create(ctx context.Context, session *models.SessionRecord) error
	GetByID(ctx context.Context, id string) (*models.SessionRecord, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.SessionRecord, error)
	ListByUserID(ctx context.Context, userID string) ([]models.SessionRecord, error)
	// DeleteByID returns pkg.ErrNotFound when no row matched.
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired removes sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
