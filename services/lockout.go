package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/cache"
)

// LockoutStore counts failed sign-ins per account and locks the account for
// a window once the threshold is reached.
type LockoutStore interface {
	// Locked returns the remaining lock time, or 0 when key is not locked.
	Locked(ctx context.Context, key string) (time.Duration, error)
	// Fail records a failure. It returns the lock duration when this failure
	// locks key, otherwise 0.
	Fail(ctx context.Context, key string) (time.Duration, error)
	Reset(ctx context.Context, key string) error
	Close() error
}

// ─── Memory ───

type lockState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

type memoryLockout struct {
	states    *cache.TTLCache[string, lockState]
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewMemoryLockout keeps counters in process. now defaults to time.Now.
func NewMemoryLockout(threshold int, window time.Duration, now func() time.Time) LockoutStore {
	if now == nil {
		now = time.Now
	}
	return &memoryLockout{
		states:    cache.New[string, lockState](window+time.Second, time.Minute),
		threshold: threshold,
		window:    window,
		now:       now,
	}
}

func (m *memoryLockout) Locked(_ context.Context, key string) (time.Duration, error) {
	st, ok := m.states.Get(key)
	if !ok {
		return 0, nil
	}
	if remaining := st.lockedUntil.Sub(m.now()); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (m *memoryLockout) Fail(_ context.Context, key string) (time.Duration, error) {
	now := m.now()
	locked := false
	m.states.Update(key, func(st lockState, found bool) lockState {
		switch {
		case !found:
			st = lockState{windowStart: now}
		case !st.lockedUntil.IsZero():
			if now.Before(st.lockedUntil) {
				return st
			}
			st = lockState{windowStart: now}
		case now.Sub(st.windowStart) >= m.window:
			st = lockState{windowStart: now}
		}

		st.failures++
		if st.failures >= m.threshold {
			st.lockedUntil = now.Add(m.window)
			locked = true
		}
		return st
	})

	if locked {
		return m.window, nil
	}
	return 0, nil
}

func (m *memoryLockout) Reset(_ context.Context, key string) error {
	m.states.Delete(key)
	return nil
}

func (m *memoryLockout) Close() error {
	m.states.Close()
	return nil
}

// ─── Redis ───

type redisLockout struct {
	rdb       *redis.Client
	threshold int
	window    time.Duration
	prefix    string
}

// NewRedisLockout shares counters across gateway replicas.
func NewRedisLockout(ctx context.Context, redisURL string, threshold int, window time.Duration) (LockoutStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return &redisLockout{rdb: rdb, threshold: threshold, window: window, prefix: "vitalyx:lockout:"}, nil
}

func (r *redisLockout) failKey(key string) string { return r.prefix + "fail:" + key }
func (r *redisLockout) lockKey(key string) string { return r.prefix + "lock:" + key }

func (r *redisLockout) Locked(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.rdb.PTTL(ctx, r.lockKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read lock: %w", err)
	}
	// PTTL reports -2 for a missing key and -1 for one without expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *redisLockout) Fail(ctx context.Context, key string) (time.Duration, error) {
	fk := r.failKey(key)

	var incr *redis.IntCmd
	if _, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, fk)
		p.ExpireNX(ctx, fk, r.window)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to record failure: %w", err)
	}

	if incr.Val() < int64(r.threshold) {
		return 0, nil
	}

	if _, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.lockKey(key), 1, r.window)
		p.Del(ctx, fk)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to lock account: %w", err)
	}
	return r.window, nil
}

func (r *redisLockout) Reset(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.failKey(key), r.lockKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset lockout: %w", err)
	}
	return nil
}

func (r *redisLockout) Close() error {
	return r.rdb.Close()
}
