package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/repository"
)

// RunSessionCleanup deletes expired refresh sessions every interval until ctx
// is done.
func RunSessionCleanup(ctx context.Context, sessions repository.SessionRepository, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("expired sessions removed", "count", n)
			}
		}
	}
}
