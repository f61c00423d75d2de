package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func exerciseLockout(t *testing.T, store LockoutStore, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()
	key := "lock-" + uuid.NewString() + "@example.com"

	for i := 1; i <= 2; i++ {
		lock, err := store.Fail(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if lock != 0 {
			t.Fatalf("failure %d locked the key", i)
		}
	}
	if remaining, _ := store.Locked(ctx, key); remaining != 0 {
		t.Fatalf("locked before threshold: %s", remaining)
	}

	lock, err := store.Fail(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if lock <= 0 {
		t.Fatal("threshold failure did not lock")
	}
	remaining, err := store.Locked(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if remaining <= 0 {
		t.Fatal("Locked = 0 after lock")
	}

	if err := store.Reset(ctx, key); err != nil {
		t.Fatal(err)
	}
	if remaining, _ := store.Locked(ctx, key); remaining != 0 {
		t.Errorf("still locked after reset: %s", remaining)
	}

	if advance == nil {
		return
	}
	store.Fail(ctx, key)
	store.Fail(ctx, key)
	store.Fail(ctx, key)
	advance(time.Minute + time.Second)
	if remaining, _ := store.Locked(ctx, key); remaining != 0 {
		t.Errorf("still locked after window: %s", remaining)
	}
}

func TestMemoryLockout(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	store := NewMemoryLockout(3, time.Minute, clock.Now)
	defer store.Close()

	exerciseLockout(t, store, clock.Advance)
}

func TestMemoryLockoutWindowResetsCount(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	store := NewMemoryLockout(3, time.Minute, clock.Now)
	defer store.Close()
	ctx := context.Background()

	store.Fail(ctx, "ada")
	store.Fail(ctx, "ada")
	clock.Advance(2 * time.Minute)
	if lock, _ := store.Fail(ctx, "ada"); lock != 0 {
		t.Error("failures from an old window counted toward the lock")
	}
}

func TestRedisLockout(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	store, err := NewRedisLockout(context.Background(), url, 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	exerciseLockout(t, store, nil)
}
