package session

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/cache"
)

// ProfileLoader fetches profiles through a ProfileSource. Concurrent loads for
// the same user share one request, and results are cached for ttl.
type ProfileLoader struct {
	source ProfileSource
	group  singleflight.Group
	cache  *cache.TTLCache[string, *models.Profile]
}

// NewProfileLoader caches profiles from source for ttl.
func NewProfileLoader(source ProfileSource, ttl time.Duration) *ProfileLoader {
	return &ProfileLoader{
		source: source,
		cache:  cache.New[string, *models.Profile](ttl, ttl),
	}
}

// Load returns the profile for userID, calling the source at most once per
// user among concurrent callers.
func (l *ProfileLoader) Load(ctx context.Context, userID, credential string) (*models.Profile, error) {
	if p, ok := l.cache.Get(userID); ok {
		return p, nil
	}

	v, err, _ := l.group.Do(userID, func() (any, error) {
		p, err := l.source.Profile(ctx, credential)
		if err != nil {
			return nil, err
		}
		if p == nil || p.UserID != userID {
			return nil, fmt.Errorf("profile does not belong to user %s", userID)
		}
		l.cache.Set(userID, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Profile), nil
}

// Invalidate drops the cached profile for userID.
func (l *ProfileLoader) Invalidate(userID string) {
	l.cache.Delete(userID)
	l.group.Forget(userID)
}

// Close stops the cache janitor.
func (l *ProfileLoader) Close() {
	l.cache.Close()
}
