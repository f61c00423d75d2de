package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

type tokenValidator map[string]*models.TokenClaims

func (v tokenValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// fakeTarget records what the watcher asks of the store.
type fakeTarget struct {
	mu        sync.Mutex
	session   *models.Session
	revoked   []string
	refreshes int
}

func (f *fakeTarget) CurrentSession() *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeTarget) Revoke(ctx context.Context, sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, sessionID)
	if f.session == nil || f.session.ID != sessionID {
		return false
	}
	f.session = nil
	return true
}

func (f *fakeTarget) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeTarget) snapshot() (revoked []string, refreshes int, live bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked...), f.refreshes, f.session != nil
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatcherAppliesGatewayEvents(t *testing.T) {
	hub := ws.NewHub(logger.Discard())
	go hub.Run()
	validator := tokenValidator{"access-1": {UserID: "u-1", SessionID: "s-1"}}
	srv := httptest.NewServer(http.HandlerFunc(ws.NewHandler(hub, validator, nil).HandleConnection))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	target := &fakeTarget{session: &models.Session{ID: "s-1", UserID: "u-1"}}
	token := func() string {
		if target.CurrentSession() == nil {
			return ""
		}
		return "access-1"
	}
	w := NewWatcher(srv.URL, target, token, WatcherOptions{
		Heartbeat: 50 * time.Millisecond,
		Backoff:   20 * time.Millisecond,
		Logger:    logger.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	eventually(t, "connection", func() bool { return len(hub.OnlineUserIDs()) == 1 })

	// Another user's role change is ignored.
	hub.BroadcastToAll(ws.Event{Op: ws.OpRoleChanged, Data: ws.RoleChangedData{UserID: "u-2", Role: "admin"}})
	hub.BroadcastToUser("u-1", ws.Event{Op: ws.OpRoleChanged, Data: ws.RoleChangedData{UserID: "u-1", Role: "admin"}})
	eventually(t, "refresh", func() bool { _, n, _ := target.snapshot(); return n == 1 })

	hub.BroadcastToUser("u-1", ws.Event{Op: ws.OpSessionRevoked, Data: ws.SessionRevokedData{SessionID: "s-other"}})
	hub.BroadcastToUser("u-1", ws.Event{Op: ws.OpSessionRevoked, Data: ws.SessionRevokedData{SessionID: "s-1"}})
	eventually(t, "revocation", func() bool { _, _, live := target.snapshot(); return !live })

	// With no session the watcher disconnects and idles.
	eventually(t, "disconnect", func() bool { return len(hub.OnlineUserIDs()) == 0 })

	revoked, refreshes, _ := target.snapshot()
	if len(revoked) != 2 || revoked[1] != "s-1" {
		t.Errorf("revoked = %v", revoked)
	}
	if refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestWSURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:9090":   "ws://localhost:9090/ws",
		"https://gw.example.com/": "wss://gw.example.com/ws",
		"ws://already:1":          "ws://already:1/ws",
	}
	for in, want := range tests {
		if got := wsURL(in); got != want {
			t.Errorf("wsURL(%q) = %q, want %q", in, got, want)
		}
	}
}
